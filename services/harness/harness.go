// Package harness produces test data: one checklist per requirement and a
// fixed number of independent policy samples drawn from it.
package harness

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/upb/spt-policy-engineer/internal/observability"
	"github.com/upb/spt-policy-engineer/internal/shared"
	"github.com/upb/spt-policy-engineer/models"
	"github.com/upb/spt-policy-engineer/services"
	"github.com/upb/spt-policy-engineer/services/engineer"
	"github.com/upb/spt-policy-engineer/services/screening"
	"github.com/upb/spt-policy-engineer/utils"
)

// DefaultIterations is the number of policy samples per requirement
const DefaultIterations = 10

// Generator is the checklist and policy step the harness drives
type Generator interface {
	GenerateChecklist(ctx context.Context, text string) (*models.Checklist, error)
	GeneratePolicy(ctx context.Context, checklist *models.Checklist) (*engineer.PolicyResult, error)
}

// Harness runs requirements through a Generator and records every outcome
type Harness struct {
	gen        Generator
	iterations int
	redact     bool
	model      string
	provider   string
	logger     *zap.Logger
}

// Option configures a Harness
type Option func(*Harness)

// WithIterations sets the policy samples per requirement used by RunBatch
func WithIterations(n int) Option {
	return func(h *Harness) { h.iterations = n }
}

// WithRedaction sends redacted text upstream when credentials are detected
func WithRedaction(enabled bool) Option {
	return func(h *Harness) { h.redact = enabled }
}

// WithModel stamps records and reports with the model and provider in use
func WithModel(model, provider string) Option {
	return func(h *Harness) {
		h.model = model
		h.provider = provider
	}
}

// WithLogger sets the harness logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a harness
func New(gen Generator, opts ...Option) (*Harness, error) {
	h := &Harness{
		gen:        gen,
		iterations: DefaultIterations,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if gen == nil {
		return nil, services.WrapConfig("generator is required", nil)
	}
	if err := utils.ValidateMin(h.iterations, "iterations", 1); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid harness options", err)
	}
	return h, nil
}

// Iterations returns the samples per requirement used by RunBatch
func (h *Harness) Iterations() int {
	return h.iterations
}

// GenerateTestData builds one checklist for text and then asks for exactly
// iterations policies from it, in order. Generation failures are recorded in
// the returned record; the only error is an invalid iterations count.
func (h *Harness) GenerateTestData(ctx context.Context, text string, iterations int) (*models.TestRecord, error) {
	if err := utils.ValidateMin(iterations, "iterations", 1); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid iterations", err).
			WithDetail("iterations", iterations)
	}

	start := time.Now()
	record := models.NewTestRecord(text, iterations)
	record.Metadata.Model = h.model
	record.Metadata.Provider = h.provider

	ctx = shared.WithCaseID(ctx, record.ID.String())
	logger := observability.WithContext(ctx, h.logger)

	input := text
	if detections := screening.Scan(text); len(detections) > 0 {
		record.InputWarnings = screening.Warnings(detections)
		logger.Warn("requirement text contains credential-like values",
			zap.Int("detections", len(detections)),
			zap.Bool("redacted", h.redact),
		)
		if h.redact {
			input = screening.Redact(text)
		}
	}

	c, err := h.gen.GenerateChecklist(ctx, input)
	if err != nil {
		logger.Warn("checklist generation failed",
			zap.String("requirement", utils.Truncate(text, 60)),
			zap.Error(err),
		)
		record.MarkChecklistFailed(toErrorRecord(err))
		record.Finalize(time.Since(start))
		return record, nil
	}
	record.Checklist = c

	for i := 1; i <= iterations; i++ {
		record.AddAttempt(h.samplePolicy(ctx, logger, c, i))
	}

	record.Finalize(time.Since(start))
	logger.Info("test case complete",
		zap.String("status", string(record.Status)),
		zap.Int("successful_attempts", record.SuccessfulAttempts()),
		zap.Int("iterations", iterations),
	)
	return record, nil
}

func (h *Harness) samplePolicy(ctx context.Context, logger *zap.Logger, c *models.Checklist, iteration int) models.PolicyAttempt {
	start := time.Now()
	result, err := h.gen.GeneratePolicy(ctx, c)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		logger.Debug("policy attempt failed", zap.Int("iteration", iteration), zap.Error(err))
		return models.PolicyAttempt{
			Status:     models.AttemptStatusFailed,
			Error:      toErrorRecord(err),
			DurationMs: elapsed,
		}
	}

	return models.PolicyAttempt{
		Status:     models.AttemptStatusSuccess,
		RawPolicy:  result.Raw,
		Statements: result.Statements,
		Warnings:   result.Warnings,
		DurationMs: elapsed,
	}
}

func toErrorRecord(err error) *models.ErrorRecord {
	errType := services.GetErrorType(err)
	if errType == "" {
		errType = services.ErrorTypeInternal
	}
	return &models.ErrorRecord{
		Type:    string(errType),
		Message: err.Error(),
	}
}
