// Package checklist turns completion text into a validated models.Checklist
// and summarises what a checklist still needs before it yields one policy.
package checklist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/upb/spt-policy-engineer/models"
	"github.com/upb/spt-policy-engineer/services"
	"github.com/upb/spt-policy-engineer/utils"
)

// TopLevelKeys are the keys every checklist document must carry.
var TopLevelKeys = []string{"checklistMetadata", "policyIntent", "requirements", "resolutionGuidance"}

// Decode parses completion text into a checklist and validates it. Markdown
// fences and chatter around the JSON object are tolerated. Every failure is
// a schema error.
func Decode(text string) (*models.Checklist, error) {
	payload := utils.StripCodeFence(text)
	if obj := utils.ExtractJSONObject(payload); obj != "" {
		payload = obj
	} else if !strings.HasPrefix(payload, "{") {
		return nil, services.NewDomainError(services.ErrorTypeSchema, "response contains no JSON object", nil).
			WithDetail("response", utils.Truncate(text, 200))
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &top); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeSchema, "response is not valid JSON", err).
			WithDetail("response", utils.Truncate(text, 200))
	}

	var missing []string
	for _, key := range TopLevelKeys {
		raw, ok := top[key]
		if !ok || len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, services.NewDomainError(services.ErrorTypeSchema, "checklist is missing top-level keys: "+strings.Join(missing, ", "), nil).
			WithDetail("missing_keys", missing)
	}

	var c models.Checklist
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeSchema, "checklist fields have the wrong shape", err)
	}

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the closed enumerations and the cross-field invariants:
// resolved never exceeds total, NONE ambiguity means every rule is resolved,
// and every MISSING or AMBIGUOUS field explains itself.
func Validate(c *models.Checklist) error {
	if c == nil {
		return services.NewDomainError(services.ErrorTypeSchema, "checklist is nil", nil)
	}

	fields := make(map[string]string)

	if err := utils.ValidateStruct(c); err != nil {
		structFields := utils.GetValidationFields(err)
		if structFields == nil {
			return services.WrapInternal("checklist validation failed", err)
		}
		for path, msg := range structFields {
			fields[path] = msg
		}
	}

	if c.Metadata.AmbiguityLevel == models.AmbiguityNone {
		for i, req := range c.Requirements {
			if req.Status != models.RequirementResolved {
				path := fmt.Sprintf("requirements[%d].status", i)
				fields[path] = fmt.Sprintf("%s is %s but ambiguityLevel is NONE", path, req.Status)
			}
		}
	}

	for i := range c.Requirements {
		for _, f := range c.Requirements[i].Fields() {
			if f.Confidence.NeedsResolution() && !f.HasResolutionHint() {
				path := fmt.Sprintf("requirements[%d].%s", i, f.Name)
				fields[path] = fmt.Sprintf("%s is %s without ambiguityReason or resolutionRequired", path, f.Confidence)
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}

	vErr := &utils.ValidationError{Message: "invalid fields", Fields: fields}
	return services.NewDomainError(services.ErrorTypeSchema, "checklist violates schema", vErr).
		WithDetail("violations", sortedValues(fields))
}

func sortedValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
