package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeSchema, "bad checklist", baseErr)

	assert.Equal(t, ErrorTypeSchema, domainErr.Type)
	assert.Equal(t, "bad checklist", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeUpstream,
				Message: "completion request failed",
				Err:     errors.New("429 too many requests"),
			},
			wantMsg: "upstream: completion request failed (429 too many requests)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeConfig,
				Message: "missing credential",
			},
			wantMsg: "config: missing credential",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewDomainError(ErrorTypeSchema, "missing key", nil),
			target: &DomainError{Type: ErrorTypeSchema},
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeUpstream, "timeout", nil),
			target: &DomainError{Type: ErrorTypeSchema},
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    NewDomainError(ErrorTypeSchema, "bad", nil),
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeSchema, "schema error", nil)

	err.WithDetail("field", "checklistMetadata").WithDetail("line", 3)

	assert.Equal(t, "checklistMetadata", err.Details["field"])
	assert.Equal(t, 3, err.Details["line"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"config", WrapConfig("missing credential", nil), IsConfigError, true},
		{"wrapped config", fmt.Errorf("startup: %w", WrapConfig("unknown provider", nil)), IsConfigError, true},
		{"upstream", NewDomainError(ErrorTypeUpstream, "completion request failed", nil), IsUpstreamError, true},
		{"upstream wrap", WrapUpstream("boom", errors.New("eof")), IsUpstreamError, true},
		{"schema", NewDomainError(ErrorTypeSchema, "not valid SPT", nil), IsSchemaError, true},
		{"schema wrap", WrapSchema("bad json", errors.New("eof")), IsSchemaError, true},
		{"validation", NewDomainError(ErrorTypeValidation, "invalid iterations", nil), IsValidationError, true},
		{"internal", WrapInternal("write report file", nil), IsInternalError, true},
		{"schema is not upstream", WrapSchema("bad checklist", nil), IsUpstreamError, false},
		{"regular error", errors.New("regular"), IsSchemaError, false},
		{"nil error", nil, IsConfigError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"config", WrapConfig("missing credential", nil), ErrorTypeConfig},
		{"upstream", WrapUpstream("completion returned no text", nil), ErrorTypeUpstream},
		{"schema", WrapSchema("bad checklist", nil), ErrorTypeSchema},
		{"validation", NewDomainError(ErrorTypeValidation, "requirement text is empty", nil), ErrorTypeValidation},
		{"regular error", errors.New("regular"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeSchema, "schema error", nil)
	err.WithDetail("position", 12)

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, 12, details["position"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapError(t *testing.T) {
	baseErr := errors.New("base error")
	wrapped := WrapError(ErrorTypeInternal, "wrapped message", baseErr)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeInternal, domainErr.Type)
	assert.Equal(t, "wrapped message", domainErr.Message)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}

func TestWrapHelpersPreserveCause(t *testing.T) {
	baseErr := errors.New("cause")

	assert.Equal(t, baseErr, errors.Unwrap(WrapConfig("c", baseErr)))
	assert.Equal(t, baseErr, errors.Unwrap(WrapUpstream("u", baseErr)))
	assert.Equal(t, baseErr, errors.Unwrap(WrapSchema("s", baseErr)))
	assert.Equal(t, baseErr, errors.Unwrap(WrapInternal("i", baseErr)))
}
