// Package spt parses and formats SimplePolicyTalk, a one-line-per-statement
// access policy language:
//
//	EFFECT Principal "<p>" Action "<a>" On "<r>" [When "<c>"];
package spt

import (
	"strings"
)

// Effect is the outcome a statement grants.
type Effect string

const (
	EffectAllow Effect = "ALLOW"
	EffectDeny  Effect = "DENY"
)

// Valid reports whether e is ALLOW or DENY.
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// Statement is one parsed SPT statement. An empty Condition means the
// statement has no When clause.
type Statement struct {
	Effect    Effect `json:"effect"`
	Principal string `json:"principal"`
	Action    string `json:"action"`
	Resource  string `json:"resource"`
	Condition string `json:"condition,omitempty"`
}

// String renders the statement in canonical form, including the trailing
// semicolon.
func (s Statement) String() string {
	var b strings.Builder
	b.WriteString(string(s.Effect))
	b.WriteString(" Principal ")
	writeQuoted(&b, s.Principal)
	b.WriteString(" Action ")
	writeQuoted(&b, s.Action)
	b.WriteString(" On ")
	writeQuoted(&b, s.Resource)
	if s.Condition != "" {
		b.WriteString(" When ")
		writeQuoted(&b, s.Condition)
	}
	b.WriteByte(';')
	return b.String()
}

// Format renders statements one per line.
func Format(stmts []Statement) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
