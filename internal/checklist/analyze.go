package checklist

import (
	"fmt"
	"strings"

	"github.com/upb/spt-policy-engineer/models"
)

// Analysis is the verdict on whether a checklist can yield a single policy.
type Analysis struct {
	Complete        bool     `json:"complete"`
	Feedback        string   `json:"feedback"`
	MissingElements []string `json:"missingElements"`
}

const completeFeedback = "Requirement is complete and unambiguous."

// Analyze reports completeness and, when incomplete, builds feedback text
// listing the missing and ambiguous fields plus the model's own guidance.
// The feedback is suitable for appending to the requirement and asking again.
func Analyze(c *models.Checklist) Analysis {
	if c.IsComplete() {
		return Analysis{Complete: true, Feedback: completeFeedback, MissingElements: []string{}}
	}

	var lines []string

	if c.Metadata.Status == models.ChecklistStatusIncomplete {
		lines = append(lines, "The requirement is incomplete. Missing elements:")
		for i := range c.Requirements {
			for _, f := range c.Requirements[i].Fields() {
				if f.Confidence != models.ConfidenceMissing {
					continue
				}
				source := f.NLSource
				if source == "" {
					source = "Not specified"
				}
				lines = append(lines, fmt.Sprintf("- %s: %s", capitalize(f.Name), source))
			}
		}
	}

	if c.Metadata.AmbiguityLevel != models.AmbiguityNone {
		lines = append(lines, "", fmt.Sprintf("The requirement has %s ambiguity:", strings.ToLower(string(c.Metadata.AmbiguityLevel))))
		for i := range c.Requirements {
			for _, f := range c.Requirements[i].Fields() {
				if f.Confidence != models.ConfidenceAmbiguous {
					continue
				}
				lines = append(lines, fmt.Sprintf("- %s: %s", capitalize(f.Name), f.AmbiguityReason))
				if len(f.ResolutionRequired) > 0 {
					lines = append(lines, "  Suggestions: "+strings.Join(f.ResolutionRequired, ", "))
				}
			}
		}
	}

	guidance := c.ResolutionGuidance
	if len(guidance.MissingRequired) > 0 || len(guidance.AmbiguousElements) > 0 {
		lines = append(lines, "", "Resolution guidance:")
		if len(guidance.MissingRequired) > 0 {
			lines = append(lines, "Missing elements that need to be specified:")
			for _, item := range guidance.MissingRequired {
				lines = append(lines, "- "+item)
			}
		}
		if len(guidance.AmbiguousElements) > 0 {
			lines = append(lines, "Elements that need clarification:")
			for _, item := range guidance.AmbiguousElements {
				lines = append(lines, "- "+item)
			}
		}
	}

	missing := guidance.MissingRequired
	if missing == nil {
		missing = []string{}
	}

	return Analysis{
		Complete:        false,
		Feedback:        strings.TrimSpace(strings.Join(lines, "\n")),
		MissingElements: missing,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
