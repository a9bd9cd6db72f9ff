package spt

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

const (
	principalARNPrefix = "aws_principal_arn:"
	resourceARNPrefix  = "resource_arn:"
)

// Lint returns non-fatal findings for a statement: malformed embedded ARNs,
// principal ARNs outside IAM/STS, and ALLOW statements that pair a wildcard
// action with a wildcard resource.
func (s Statement) Lint() []string {
	var warnings []string

	for _, ref := range embeddedARNs(s.Principal, principalARNPrefix) {
		parsed, err := arn.Parse(ref)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("principal ARN %q is malformed: %v", ref, err))
			continue
		}
		if parsed.Service != "iam" && parsed.Service != "sts" {
			warnings = append(warnings, fmt.Sprintf("principal ARN %q names service %q, expected iam or sts", ref, parsed.Service))
		}
	}

	for _, ref := range embeddedARNs(s.Resource, resourceARNPrefix) {
		if _, err := arn.Parse(ref); err != nil {
			warnings = append(warnings, fmt.Sprintf("resource ARN %q is malformed: %v", ref, err))
		}
	}

	if s.Effect == EffectAllow && isWildcardResource(s.Resource) && strings.Contains(s.Action, "*") {
		warnings = append(warnings, "ALLOW grants a wildcard action on every resource")
	}

	return warnings
}

// Lint runs Statement.Lint over a policy, prefixing findings with the
// 1-based statement index.
func Lint(stmts []Statement) []string {
	var warnings []string
	for i, s := range stmts {
		for _, w := range s.Lint() {
			warnings = append(warnings, fmt.Sprintf("statement %d: %s", i+1, w))
		}
	}
	return warnings
}

// embeddedARNs returns every whitespace-delimited token following prefix.
func embeddedARNs(field, prefix string) []string {
	var refs []string
	for _, tok := range strings.Fields(field) {
		if ref, ok := strings.CutPrefix(tok, prefix); ok {
			refs = append(refs, strings.Trim(ref, `"',[]`))
		}
	}
	return refs
}

func isWildcardResource(resource string) bool {
	r := strings.TrimSpace(resource)
	return r == "*" || r == "resource_pattern:*" || r == "resource_arn:*"
}
