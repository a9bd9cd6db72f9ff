// Package prompt renders the instruction text sent to the completion service.
// Builders are pure: same input, same prompt.
package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/upb/spt-policy-engineer/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

// BuildChecklistPrompt asks the model to turn a requirement into checklist JSON.
func BuildChecklistPrompt(requirement string) string {
	return render("checklist.tmpl", struct{ Requirement string }{requirement})
}

// BuildPolicyPrompt asks the model for SPT statements matching the checklist.
// The checklist is embedded as indented JSON and is not validated here.
func BuildPolicyPrompt(checklist *models.Checklist) (string, error) {
	encoded, err := json.MarshalIndent(checklist, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode checklist: %w", err)
	}
	return render("policy.tmpl", struct{ Checklist string }{string(encoded)}), nil
}

// BuildRefinementRequirement folds analysis feedback into the requirement for
// another checklist round.
func BuildRefinementRequirement(original, feedback string) string {
	return render("refinement.tmpl", struct{ Original, Feedback string }{original, feedback})
}

// render executes a compiled-in template. The templates and their data types
// are fixed, so an execution error is a programming error.
func render(name string, data any) string {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		panic(fmt.Sprintf("prompt: render %s: %v", name, err))
	}
	return strings.TrimRight(b.String(), "\n")
}
