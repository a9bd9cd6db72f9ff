// Package screening flags credentials pasted into requirement text before it
// is sent to a completion provider.
package screening

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind is the category of a detected credential
type Kind string

const (
	KindAWSAccessKey     Kind = "aws_access_key"
	KindAWSSecretKey     Kind = "aws_secret_key"
	KindAPIKey           Kind = "api_key"
	KindOpenAIKey        Kind = "openai_key"
	KindGCPKey           Kind = "gcp_key"
	KindGitHubToken      Kind = "github_token"
	KindSlackToken       Kind = "slack_token"
	KindJWT              Kind = "jwt"
	KindToken            Kind = "token"
	KindPassword         Kind = "password"
	KindPrivateKey       Kind = "private_key"
	KindConnectionString Kind = "connection_string"
)

// DefaultMinConfidence is the threshold Redact applies
const DefaultMinConfidence = 0.8

// Detection is one credential-looking span of the input. Start and End are
// byte offsets.
type Detection struct {
	Kind        Kind
	Value       string
	Start       int
	End         int
	Confidence  float64
	Description string
}

// Warning describes the detection without echoing the secret
func (d Detection) Warning() string {
	return fmt.Sprintf("possible %s at offset %d", d.Description, d.Start)
}

type rule struct {
	kind        Kind
	pattern     *regexp.Regexp
	group       int // capture group holding the secret, 0 for the whole match
	confidence  float64
	description string
}

var rules = []rule{
	{KindAWSAccessKey, regexp.MustCompile(`\b((?:AKIA|ASIA)[0-9A-Z]{16})\b`), 0, 0.95, "AWS access key ID"},
	{KindAWSSecretKey, regexp.MustCompile(`(?i)aws_?secret_?(?:access_?)?key["']?\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})`), 1, 0.95, "AWS secret access key"},
	{KindOpenAIKey, regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{32,}`), 0, 0.9, "OpenAI API key"},
	{KindGCPKey, regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`), 0, 0.95, "Google API key"},
	{KindGitHubToken, regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`), 0, 0.95, "GitHub token"},
	{KindSlackToken, regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}`), 0, 0.95, "Slack token"},
	{KindJWT, regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`), 0, 0.9, "JSON Web Token"},
	{KindPrivateKey, regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), 0, 1.0, "private key block"},
	{KindConnectionString, regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb|redis)://[^\s'"]+:[^\s'"]+@[^\s'"]+`), 0, 0.9, "connection string with credentials"},
	{KindAPIKey, regexp.MustCompile(`(?i)api[_\-]?key["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{20,})`), 1, 0.85, "API key"},
	{KindToken, regexp.MustCompile(`(?i)(?:access[_\-]?)?token["']?\s*[:=]\s*["']?([A-Za-z0-9_\-\.]{20,})`), 1, 0.7, "token"},
	{KindToken, regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9_\-\.]{20,})`), 1, 0.8, "bearer token"},
	{KindPassword, regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[:=]\s*["']?([^\s'"]{8,})`), 1, 0.7, "password"},
}

// Scan returns the credential-looking spans of text ordered by offset.
// Overlapping matches keep the highest-confidence one.
func Scan(text string) []Detection {
	var found []Detection
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2*r.group], m[2*r.group+1]
			if start < 0 {
				continue
			}
			found = append(found, Detection{
				Kind:        r.kind,
				Value:       text[start:end],
				Start:       start,
				End:         end,
				Confidence:  r.confidence,
				Description: r.description,
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Confidence > found[j].Confidence
	})

	var kept []Detection
	for _, d := range found {
		if !overlapsAny(d, kept) {
			kept = append(kept, d)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// Warnings renders detections for a test record
func Warnings(detections []Detection) []string {
	if len(detections) == 0 {
		return nil
	}
	out := make([]string, len(detections))
	for i, d := range detections {
		out[i] = d.Warning()
	}
	return out
}

// Redact replaces detections at or above DefaultMinConfidence with a marker
// naming their kind.
func Redact(text string) string {
	return RedactAbove(text, DefaultMinConfidence)
}

// RedactAbove replaces detections at or above minConfidence
func RedactAbove(text string, minConfidence float64) string {
	detections := Scan(text)

	// Back to front so earlier offsets stay valid.
	out := text
	for i := len(detections) - 1; i >= 0; i-- {
		d := detections[i]
		if d.Confidence < minConfidence {
			continue
		}
		out = out[:d.Start] + marker(d.Kind) + out[d.End:]
	}
	return out
}

func marker(k Kind) string {
	return fmt.Sprintf("[REDACTED_%s]", strings.ToUpper(string(k)))
}

func overlapsAny(d Detection, kept []Detection) bool {
	for _, k := range kept {
		if d.Start < k.End && k.Start < d.End {
			return true
		}
	}
	return false
}
