package checklist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/spt-policy-engineer/models"
	"github.com/upb/spt-policy-engineer/services"
)

func fixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func mustDecode(t *testing.T, name string) *models.Checklist {
	t.Helper()

	c, err := Decode(fixture(t, name))
	require.NoError(t, err)
	return c
}

func TestDecode_Complete(t *testing.T) {
	c := mustDecode(t, "complete.json")

	assert.Equal(t, models.ChecklistStatusComplete, c.Metadata.Status)
	assert.Equal(t, models.AmbiguityNone, c.Metadata.AmbiguityLevel)
	assert.Equal(t, models.ScopeSingleRule, c.PolicyIntent.Scope)
	require.Len(t, c.Requirements, 1)

	req := c.Requirements[0]
	assert.Equal(t, "RULE_001", req.RuleID)
	assert.Equal(t, models.EffectAllow, req.Effect.Value)
	assert.Equal(t, []string{"GetObject", "GetObjectVersion"}, req.Actions.Operations)
	require.NotNil(t, req.Conditions)
	assert.True(t, req.Conditions.Present)
	assert.JSONEq(t, `["s3:ExistingObjectTag/environment = production"]`, string(req.Conditions.Expressions))
}

func TestDecode_ToleratesFencesAndChatter(t *testing.T) {
	body := fixture(t, "complete.json")

	inputs := map[string]string{
		"json fence":        "```json\n" + body + "\n```",
		"bare fence":        "```\n" + body + "```",
		"leading chatter":   "Here is the checklist you asked for:\n\n" + body + "\nLet me know if you need changes.",
		"trailing chatter":  body + "\nLet me know if you need changes.",
		"fenced, then note": "```json\n" + body + "\n```\nThe principal was inferred from the role name.",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			c, err := Decode(input)
			require.NoError(t, err)
			assert.Equal(t, "RULE_001", c.Requirements[0].RuleID)
		})
	}
}

func TestDecode_SchemaErrors(t *testing.T) {
	complete := fixture(t, "complete.json")

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "not json",
			input:   "I could not produce a checklist for this requirement.",
			wantMsg: "no JSON object",
		},
		{
			name:    "truncated json",
			input:   complete[:len(complete)/2],
			wantMsg: "not valid JSON",
		},
		{
			name:    "array instead of object",
			input:   "[1, 2, 3]",
			wantMsg: "no JSON object",
		},
		{
			name:    "missing keys",
			input:   `{"checklistMetadata": {"status": "COMPLETE"}, "requirements": []}`,
			wantMsg: "missing top-level keys: policyIntent, resolutionGuidance",
		},
		{
			name:    "null key",
			input:   strings.Replace(complete, `"resolutionGuidance": {`, `"resolutionGuidance": null, "ignored": {`, 1),
			wantMsg: "missing top-level keys: resolutionGuidance",
		},
		{
			name:    "wrong field type",
			input:   strings.Replace(complete, `"totalRequirements": 1`, `"totalRequirements": "one"`, 1),
			wantMsg: "wrong shape",
		},
		{
			name:    "unknown status",
			input:   strings.Replace(complete, `"status": "COMPLETE"`, `"status": "DONE"`, 1),
			wantMsg: "violates schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(tt.input)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, services.IsSchemaError(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDecode_MissingKeysDetail(t *testing.T) {
	_, err := Decode(`{"policyIntent": {}, "requirements": []}`)
	require.Error(t, err)

	details := services.GetErrorDetails(err)
	assert.Equal(t, []string{"checklistMetadata", "resolutionGuidance"}, details["missing_keys"])
}

func TestValidate_Invariants(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *models.Checklist)
		wantPath string
	}{
		{
			name: "resolved exceeds total",
			mutate: func(c *models.Checklist) {
				c.Metadata.ResolvedRequirements = 2
			},
			wantPath: "checklistMetadata.resolvedRequirements",
		},
		{
			name: "negative total",
			mutate: func(c *models.Checklist) {
				c.Metadata.TotalRequirements = -1
				c.Metadata.ResolvedRequirements = -1
			},
			wantPath: "checklistMetadata.totalRequirements",
		},
		{
			name: "no ambiguity but unresolved rule",
			mutate: func(c *models.Checklist) {
				c.Requirements[0].Status = models.RequirementAmbiguous
			},
			wantPath: "requirements[0].status",
		},
		{
			name: "missing field without hint",
			mutate: func(c *models.Checklist) {
				c.Metadata.AmbiguityLevel = models.AmbiguityLow
				c.Requirements[0].Resources.Confidence = models.ConfidenceMissing
			},
			wantPath: "requirements[0].resources",
		},
		{
			name: "effect cannot be ambiguous",
			mutate: func(c *models.Checklist) {
				c.Requirements[0].Effect.Confidence = models.ConfidenceAmbiguous
				c.Requirements[0].Effect.AmbiguityReason = "unclear"
			},
			wantPath: "requirements[0].effect.confidence",
		},
		{
			name: "unknown scope",
			mutate: func(c *models.Checklist) {
				c.PolicyIntent.Scope = "EVERYTHING"
			},
			wantPath: "policyIntent.scope",
		},
		{
			name: "rule without id",
			mutate: func(c *models.Checklist) {
				c.Requirements[0].RuleID = ""
			},
			wantPath: "requirements[0].ruleId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustDecode(t, "complete.json")
			tt.mutate(c)

			err := Validate(c)
			require.Error(t, err)
			assert.True(t, services.IsSchemaError(err))

			violations, ok := services.GetErrorDetails(err)["violations"].([]string)
			require.True(t, ok)

			found := false
			for _, v := range violations {
				if strings.HasPrefix(v, tt.wantPath) {
					found = true
				}
			}
			assert.True(t, found, "no violation for %s in %v", tt.wantPath, violations)
		})
	}
}

func TestValidate_AmbiguousFixtureIsValid(t *testing.T) {
	c := mustDecode(t, "ambiguous.json")

	assert.Equal(t, models.ChecklistStatusIncomplete, c.Metadata.Status)
	assert.NoError(t, Validate(c))
}

func TestValidate_Nil(t *testing.T) {
	assert.True(t, services.IsSchemaError(Validate(nil)))
}

func TestDecode_ReencodesStably(t *testing.T) {
	c := mustDecode(t, "complete.json")

	data, err := json.Marshal(c)
	require.NoError(t, err)

	again, err := Decode(string(data))
	require.NoError(t, err)

	data2, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2))
}
