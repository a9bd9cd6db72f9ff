package models

import (
	"encoding/json"
)

// ChecklistStatus is the overall completeness of a checklist
type ChecklistStatus string

const (
	ChecklistStatusIncomplete ChecklistStatus = "INCOMPLETE"
	ChecklistStatusAmbiguous  ChecklistStatus = "AMBIGUOUS"
	ChecklistStatusComplete   ChecklistStatus = "COMPLETE"
)

// AmbiguityLevel grades how many interpretations a requirement admits
type AmbiguityLevel string

const (
	AmbiguityHigh   AmbiguityLevel = "HIGH"
	AmbiguityMedium AmbiguityLevel = "MEDIUM"
	AmbiguityLow    AmbiguityLevel = "LOW"
	AmbiguityNone   AmbiguityLevel = "NONE"
)

// PolicyScope classifies how many rules the requirement expands into
type PolicyScope string

const (
	ScopeSingleRule PolicyScope = "SINGLE_RULE"
	ScopeMultiRule  PolicyScope = "MULTI_RULE"
	ScopePolicySet  PolicyScope = "POLICY_SET"
)

// RequirementStatus is the resolution state of one rule
type RequirementStatus string

const (
	RequirementResolved   RequirementStatus = "RESOLVED"
	RequirementAmbiguous  RequirementStatus = "AMBIGUOUS"
	RequirementIncomplete RequirementStatus = "INCOMPLETE"
)

// EffectValue is the effect a rule asks for
type EffectValue string

const (
	EffectAllow       EffectValue = "ALLOW"
	EffectDeny        EffectValue = "DENY"
	EffectUnspecified EffectValue = "UNSPECIFIED"
)

// Confidence tags how directly a field was stated in the source text
type Confidence string

const (
	ConfidenceExplicit  Confidence = "EXPLICIT"
	ConfidenceInferred  Confidence = "INFERRED"
	ConfidenceAmbiguous Confidence = "AMBIGUOUS"
	ConfidenceMissing   Confidence = "MISSING"
)

// NeedsResolution reports whether the field still has to be clarified
func (c Confidence) NeedsResolution() bool {
	return c == ConfidenceMissing || c == ConfidenceAmbiguous
}

// Checklist is the structured reading of one natural-language requirement.
// Field names follow the JSON document the completion model returns.
type Checklist struct {
	Metadata           ChecklistMetadata  `json:"checklistMetadata"`
	PolicyIntent       PolicyIntent       `json:"policyIntent"`
	Requirements       []Requirement      `json:"requirements" validate:"dive"`
	ResolutionGuidance ResolutionGuidance `json:"resolutionGuidance"`
}

// ChecklistMetadata summarises completeness and ambiguity
type ChecklistMetadata struct {
	Version              string          `json:"version"`
	Status               ChecklistStatus `json:"status" validate:"required,oneof=INCOMPLETE AMBIGUOUS COMPLETE"`
	TotalRequirements    int             `json:"totalRequirements" validate:"gte=0"`
	ResolvedRequirements int             `json:"resolvedRequirements" validate:"gte=0,ltefield=TotalRequirements"`
	AmbiguityLevel       AmbiguityLevel  `json:"ambiguityLevel" validate:"required,oneof=HIGH MEDIUM LOW NONE"`
	ValidationErrors     []string        `json:"validationErrors"`
	ValidationWarnings   []string        `json:"validationWarnings"`
}

// PolicyIntent restates what the requirement is asking for
type PolicyIntent struct {
	OriginalNL   string      `json:"originalNL"`
	ParsedIntent string      `json:"parsedIntent"`
	Scope        PolicyScope `json:"scope" validate:"required,oneof=SINGLE_RULE MULTI_RULE POLICY_SET"`
}

// Requirement is one rule extracted from the requirement text
type Requirement struct {
	RuleID     string            `json:"ruleId" validate:"required"`
	Status     RequirementStatus `json:"status" validate:"required,oneof=RESOLVED AMBIGUOUS INCOMPLETE"`
	Effect     EffectSpec        `json:"effect"`
	Principal  PrincipalSpec     `json:"principal"`
	Actions    ActionSpec        `json:"actions"`
	Resources  ResourceSpec      `json:"resources"`
	Conditions *ConditionSpec    `json:"conditions,omitempty"`
}

// EffectSpec is the effect sub-record. Effect never uses AMBIGUOUS.
type EffectSpec struct {
	Value              EffectValue `json:"value" validate:"required,oneof=ALLOW DENY UNSPECIFIED"`
	Confidence         Confidence  `json:"confidence" validate:"required,oneof=EXPLICIT INFERRED MISSING"`
	AmbiguityReason    string      `json:"ambiguityReason,omitempty"`
	ResolutionRequired []string    `json:"resolutionRequired,omitempty"`
	NLSource           string      `json:"nlSource"`
}

// PrincipalSpec identifies who the rule applies to
type PrincipalSpec struct {
	Type               string     `json:"type"`
	Value              string     `json:"value"`
	Confidence         Confidence `json:"confidence" validate:"required,oneof=EXPLICIT INFERRED AMBIGUOUS MISSING"`
	AmbiguityReason    string     `json:"ambiguityReason,omitempty"`
	ResolutionRequired []string   `json:"resolutionRequired,omitempty"`
	NLSource           string     `json:"nlSource"`
}

// ActionSpec lists the service operations the rule covers
type ActionSpec struct {
	Service            string     `json:"service"`
	Operations         []string   `json:"operations"`
	Pattern            string     `json:"pattern"`
	Confidence         Confidence `json:"confidence" validate:"required,oneof=EXPLICIT INFERRED AMBIGUOUS MISSING"`
	AmbiguityReason    string     `json:"ambiguityReason,omitempty"`
	ResolutionRequired []string   `json:"resolutionRequired,omitempty"`
	NLSource           string     `json:"nlSource"`
}

// ResourceSpec lists the resources the rule covers
type ResourceSpec struct {
	Type               string          `json:"type"`
	Values             []string        `json:"values"`
	Variables          json.RawMessage `json:"variables,omitempty"`
	Confidence         Confidence      `json:"confidence" validate:"required,oneof=EXPLICIT INFERRED AMBIGUOUS MISSING"`
	AmbiguityReason    string          `json:"ambiguityReason,omitempty"`
	ResolutionRequired []string        `json:"resolutionRequired,omitempty"`
	NLSource           string          `json:"nlSource"`
}

// ConditionSpec carries any conditions attached to the rule. Expressions are
// kept verbatim since the model is free to shape them.
type ConditionSpec struct {
	Present     bool            `json:"present"`
	Expressions json.RawMessage `json:"expressions,omitempty"`
	NLSource    string          `json:"nlSource"`
}

// ResolutionGuidance aggregates what must be clarified before a unique policy exists
type ResolutionGuidance struct {
	MissingRequired   []string `json:"missingRequired"`
	AmbiguousElements []string `json:"ambiguousElements"`
	PotentialPolicies int      `json:"potentialPolicies" validate:"gte=0"`
	Reason            string   `json:"reason"`
}

// FieldAssessment is a uniform view of one confidence-tagged sub-record
type FieldAssessment struct {
	Name               string
	Confidence         Confidence
	AmbiguityReason    string
	ResolutionRequired []string
	NLSource           string
}

// HasResolutionHint reports whether the field explains its own uncertainty
func (f FieldAssessment) HasResolutionHint() bool {
	if f.AmbiguityReason != "" {
		return true
	}
	for _, hint := range f.ResolutionRequired {
		if hint != "" {
			return true
		}
	}
	return false
}

// Fields returns the four confidence-tagged sub-records in a fixed order
func (r *Requirement) Fields() []FieldAssessment {
	return []FieldAssessment{
		{
			Name:               "effect",
			Confidence:         r.Effect.Confidence,
			AmbiguityReason:    r.Effect.AmbiguityReason,
			ResolutionRequired: r.Effect.ResolutionRequired,
			NLSource:           r.Effect.NLSource,
		},
		{
			Name:               "principal",
			Confidence:         r.Principal.Confidence,
			AmbiguityReason:    r.Principal.AmbiguityReason,
			ResolutionRequired: r.Principal.ResolutionRequired,
			NLSource:           r.Principal.NLSource,
		},
		{
			Name:               "actions",
			Confidence:         r.Actions.Confidence,
			AmbiguityReason:    r.Actions.AmbiguityReason,
			ResolutionRequired: r.Actions.ResolutionRequired,
			NLSource:           r.Actions.NLSource,
		},
		{
			Name:               "resources",
			Confidence:         r.Resources.Confidence,
			AmbiguityReason:    r.Resources.AmbiguityReason,
			ResolutionRequired: r.Resources.ResolutionRequired,
			NLSource:           r.Resources.NLSource,
		},
	}
}

// IsComplete reports whether the checklist admits exactly one policy
func (c *Checklist) IsComplete() bool {
	return c.Metadata.Status == ChecklistStatusComplete && c.Metadata.AmbiguityLevel == AmbiguityNone
}
