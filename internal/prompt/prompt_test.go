package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/spt-policy-engineer/models"
)

func TestBuildChecklistPrompt(t *testing.T) {
	p := BuildChecklistPrompt("Allow role X to read bucket Y")

	assert.Contains(t, p, "Natural Language Requirement:\n\"Allow role X to read bucket Y\"")
	for _, key := range []string{`"checklistMetadata"`, `"policyIntent"`, `"requirements"`, `"resolutionGuidance"`} {
		assert.Contains(t, p, key)
	}
	assert.Contains(t, p, "resolvedRequirements must never exceed totalRequirements")
	assert.True(t, strings.HasSuffix(p, "Output only valid JSON."))
	assert.False(t, strings.HasPrefix(p, "\n"))
}

func TestBuildChecklistPrompt_Deterministic(t *testing.T) {
	assert.Equal(t, BuildChecklistPrompt("same"), BuildChecklistPrompt("same"))
	assert.NotEqual(t, BuildChecklistPrompt("a"), BuildChecklistPrompt("b"))
}

func TestBuildChecklistPrompt_NoTemplateEscaping(t *testing.T) {
	p := BuildChecklistPrompt(`Deny "guest" <users> & {{bots}}`)

	assert.Contains(t, p, `"Deny "guest" <users> & {{bots}}"`)
}

func TestBuildPolicyPrompt(t *testing.T) {
	checklist := &models.Checklist{
		Metadata: models.ChecklistMetadata{
			Version:        "1.0",
			Status:         models.ChecklistStatusAmbiguous,
			AmbiguityLevel: models.AmbiguityMedium,
		},
		PolicyIntent: models.PolicyIntent{OriginalNL: "Allow role X to read bucket Y", Scope: models.ScopeSingleRule},
		Requirements: []models.Requirement{{RuleID: "RULE_001", Status: models.RequirementAmbiguous}},
	}

	p, err := BuildPolicyPrompt(checklist)
	require.NoError(t, err)

	encoded, err := json.MarshalIndent(checklist, "", "  ")
	require.NoError(t, err)

	assert.Contains(t, p, "Requirements Checklist:\n"+string(encoded)+"\n")
	assert.Contains(t, p, `EFFECT Principal "<principal>" Action "<action>" On "<resource>" [When "<condition>"];`)
	assert.Contains(t, p, `actions:[\"StartInstances\", \"StopInstances\"]`)
	assert.True(t, strings.HasSuffix(p, "no explanations or JSON."))
}

func TestBuildPolicyPrompt_NilChecklistStillRenders(t *testing.T) {
	p, err := BuildPolicyPrompt(nil)
	require.NoError(t, err)
	assert.Contains(t, p, "Requirements Checklist:\nnull\n")
}

func TestBuildRefinementRequirement(t *testing.T) {
	got := BuildRefinementRequirement("Let devs manage instances", "- Resources: Not specified")

	want := "Original requirement: Let devs manage instances\n\n" +
		"Please provide additional information to address the following issues:\n" +
		"- Resources: Not specified\n\n" +
		"Please provide a complete and unambiguous requirement that addresses these points."
	assert.Equal(t, want, got)
}
