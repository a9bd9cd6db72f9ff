package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"spt fence with padding", "  ```spt\nALLOW Principal \"p\" Action \"a\" On \"r\";\n```  \n", `ALLOW Principal "p" Action "a" On "r";`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"opening only", "```json\n{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"leading chatter", "Here is the checklist:\n{\"a\":{\"b\":2}} hope it helps", `{"a":{"b":2}}`},
		{"braces in strings", `{"reason":"use {x} or \"}\""}`, `{"reason":"use {x} or \"}\""}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", "nothing here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "ñañ...", Truncate("ñañañañaña", 6))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
