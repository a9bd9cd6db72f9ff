package spt

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want []Statement
	}{
		{
			name: "single_statement",
			text: `ALLOW Principal "role:X" Action "service:s3 action:GetObject" On "resource_arn:arn:aws:s3:::Y/*";`,
			want: []Statement{{
				Effect:    EffectAllow,
				Principal: "role:X",
				Action:    "service:s3 action:GetObject",
				Resource:  "resource_arn:arn:aws:s3:::Y/*",
			}},
		},
		{
			name: "with_condition",
			text: `DENY Principal "*" Action "s3:DeleteObject" On "bucket:critical-backups" When "aws:MultiFactorAuthPresent=false";`,
			want: []Statement{{
				Effect:    EffectDeny,
				Principal: "*",
				Action:    "s3:DeleteObject",
				Resource:  "bucket:critical-backups",
				Condition: "aws:MultiFactorAuthPresent=false",
			}},
		},
		{
			name: "case_insensitive_keywords",
			text: `allow principal "p" action "a" on "r" when "c";`,
			want: []Statement{{Effect: EffectAllow, Principal: "p", Action: "a", Resource: "r", Condition: "c"}},
		},
		{
			name: "multiple_statements_with_blank_lines",
			text: "\n  ALLOW Principal \"a\" Action \"b\" On \"c\";\n\n\tDENY Principal \"d\" Action \"e\" On \"f\";\n",
			want: []Statement{
				{Effect: EffectAllow, Principal: "a", Action: "b", Resource: "c"},
				{Effect: EffectDeny, Principal: "d", Action: "e", Resource: "f"},
			},
		},
		{
			name: "escaped_quotes_and_backslashes",
			text: `ALLOW Principal "p" Action "service:ec2 actions:[\"StartInstances\", \"StopInstances\"]" On "C:\\path";`,
			want: []Statement{{
				Effect:    EffectAllow,
				Principal: "p",
				Action:    `service:ec2 actions:["StartInstances", "StopInstances"]`,
				Resource:  `C:\path`,
			}},
		},
		{
			name: "two_statements_one_line",
			text: `ALLOW Principal "a" Action "b" On "c"; DENY Principal "a" Action "b" On "d";`,
			want: []Statement{
				{Effect: EffectAllow, Principal: "a", Action: "b", Resource: "c"},
				{Effect: EffectDeny, Principal: "a", Action: "b", Resource: "d"},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "missing_semicolon", text: `ALLOW Principal "a" Action "b" On "c"`, want: `expected ";"`},
		{name: "unknown_effect", text: `PERMIT Principal "a" Action "b" On "c";`, want: `unknown effect "PERMIT"`},
		{name: "unterminated_string", text: `ALLOW Principal "a" Action "b" On "c;`, want: "unterminated string"},
		{name: "invalid_escape", text: `ALLOW Principal "a\n" Action "b" On "c";`, want: `invalid escape \n`},
		{name: "missing_action", text: `ALLOW Principal "a" On "c";`, want: "expected Action"},
		{name: "unquoted_value", text: `ALLOW Principal admin Action "b" On "c";`, want: "expected quoted value after Principal"},
		{name: "trailing_prose", text: "ALLOW Principal \"a\" Action \"b\" On \"c\";\nThis policy grants read access.", want: `unknown effect "This"`},
		{name: "markdown_fence", text: "```\nALLOW Principal \"a\" Action \"b\" On \"c\";\n```", want: "unexpected character"},
		{name: "dangling_when", text: `ALLOW Principal "a" Action "b" On "c" When;`, want: "expected quoted value after When"},
		{name: "empty_when", text: `ALLOW Principal "a" Action "b" On "c" When "";`, want: "empty condition after When"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tc.text)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "want *SyntaxError, got %T", err)
			assert.Contains(t, syntaxErr.Msg, tc.want)
			assert.GreaterOrEqual(t, syntaxErr.Line, 1)
			assert.GreaterOrEqual(t, syntaxErr.Column, 1)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	t.Parallel()

	_, err := Parse("ALLOW Principal \"a\" Action \"b\" On \"c\";\n  DENY Principal \"a\" Actoin \"b\" On \"c\";")

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 2, syntaxErr.Line)
	assert.Equal(t, 22, syntaxErr.Column)
	assert.Equal(t, "spt: line 2, column 22: expected Action, found \"Actoin\"", err.Error())
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\n\t\n"} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, ErrEmpty)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	stmts := []Statement{
		{Effect: EffectAllow, Principal: "principal_id:ATTACHED_IDENTITY", Action: "service:s3 action:GetObject", Resource: "resource_pattern:*"},
		{Effect: EffectDeny, Principal: `quote " inside`, Action: `back\slash`, Resource: `both \" mixed`, Condition: "time:09:00-17:00"},
		{Effect: EffectAllow, Principal: "multi\nline", Action: "a", Resource: "r", Condition: `"fully quoted"`},
		{Effect: EffectAllow, Principal: "unicode ✓ principal", Action: "a", Resource: `\\`},
	}

	for _, s := range stmts {
		got, err := Parse(s.String())
		require.NoError(t, err, "input %q", s.String())
		if diff := cmp.Diff([]Statement{s}, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}

	got, err := Parse(Format(stmts))
	require.NoError(t, err)
	if diff := cmp.Diff(stmts, got); diff != "" {
		t.Errorf("Format round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	text := Format([]Statement{
		{Effect: EffectAllow, Principal: "a", Action: "b", Resource: "c"},
		{Effect: EffectDeny, Principal: "a", Action: "b", Resource: "c", Condition: "x"},
	})

	assert.Equal(t, strings.Join([]string{
		`ALLOW Principal "a" Action "b" On "c";`,
		`DENY Principal "a" Action "b" On "c" When "x";`,
	}, "\n"), text)
}

func TestMustParsePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParse("ALLOW") })
	assert.Len(t, MustParse(`DENY Principal "a" Action "b" On "c";`), 1)
}
