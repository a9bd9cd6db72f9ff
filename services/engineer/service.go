// Package engineer turns natural-language access requirements into a
// validated checklist and SPT policy text through the completion service.
package engineer

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/spt-policy-engineer/internal/checklist"
	"github.com/upb/spt-policy-engineer/internal/prompt"
	"github.com/upb/spt-policy-engineer/internal/spt"
	"github.com/upb/spt-policy-engineer/models"
	"github.com/upb/spt-policy-engineer/services"
	"github.com/upb/spt-policy-engineer/services/completion"
	"github.com/upb/spt-policy-engineer/utils"
)

// Config holds the per-step model hints and the refinement budget
type Config struct {
	ChecklistHint completion.ModelHint
	PolicyHint    completion.ModelHint
	MaxAttempts   int
}

// DefaultConfig returns the configuration used when none is given.
// Empty hints defer to the completion client's defaults.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3}
}

// PolicyResult is one parsed policy sample
type PolicyResult struct {
	Raw        string
	Statements []spt.Statement
	Warnings   []string
}

// Outcome status values for ProcessRequirement
const (
	OutcomeSuccess    = "success"
	OutcomeIncomplete = "incomplete"
)

// Outcome is the result of the refinement loop
type Outcome struct {
	Status          string            `json:"status"`
	Requirement     string            `json:"requirement"`
	Checklist       *models.Checklist `json:"checklist"`
	Policy          string            `json:"policy,omitempty"`
	Statements      []spt.Statement   `json:"statements,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
	Feedback        string            `json:"feedback,omitempty"`
	MissingElements []string          `json:"missingElements,omitempty"`
	Attempts        int               `json:"attempts"`
}

// Service runs the checklist and policy steps against a Completer
type Service struct {
	completer completion.Completer
	config    Config
	logger    *zap.Logger
}

// NewService creates an engineer service
func NewService(completer completion.Completer, config Config, logger *zap.Logger) (*Service, error) {
	if completer == nil {
		return nil, services.WrapConfig("completer is required", nil)
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		completer: completer,
		config:    config,
		logger:    logger,
	}, nil
}

// GenerateChecklist asks for a checklist for text and validates the reply.
// It makes exactly one completion call and never returns a partial checklist.
func (s *Service) GenerateChecklist(ctx context.Context, text string) (*models.Checklist, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "requirement text is empty", nil)
	}

	reply, err := s.completer.Complete(ctx, prompt.BuildChecklistPrompt(text), s.config.ChecklistHint)
	if err != nil {
		return nil, asUpstream("checklist completion failed", err)
	}

	c, err := checklist.Decode(reply)
	if err != nil {
		s.logger.Warn("checklist rejected",
			zap.String("requirement", utils.Truncate(text, 80)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("checklist generated",
		zap.String("status", string(c.Metadata.Status)),
		zap.String("ambiguity", string(c.Metadata.AmbiguityLevel)),
		zap.Int("requirements", len(c.Requirements)),
	)
	return c, nil
}

// GeneratePolicy asks for SPT statements matching the checklist and parses
// the reply. Checklists in any status are accepted.
func (s *Service) GeneratePolicy(ctx context.Context, c *models.Checklist) (*PolicyResult, error) {
	if c == nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "checklist is required", nil)
	}

	p, err := prompt.BuildPolicyPrompt(c)
	if err != nil {
		return nil, services.WrapInternal("build policy prompt", err)
	}

	reply, err := s.completer.Complete(ctx, p, s.config.PolicyHint)
	if err != nil {
		return nil, asUpstream("policy completion failed", err)
	}

	raw := utils.StripCodeFence(reply)
	stmts, err := spt.Parse(raw)
	if err != nil {
		return nil, policySchemaError(raw, err)
	}

	return &PolicyResult{
		Raw:        raw,
		Statements: stmts,
		Warnings:   spt.Lint(stmts),
	}, nil
}

// ProcessRequirement generates a checklist and, once it is complete and
// unambiguous, a single policy. Incomplete checklists fold their feedback
// into the requirement and try again until MaxAttempts is spent. Errors end
// the loop immediately.
func (s *Service) ProcessRequirement(ctx context.Context, text string) (*Outcome, error) {
	current := text

	for attempt := 1; ; attempt++ {
		c, err := s.GenerateChecklist(ctx, current)
		if err != nil {
			return nil, err
		}

		analysis := checklist.Analyze(c)
		if analysis.Complete {
			policy, err := s.GeneratePolicy(ctx, c)
			if err != nil {
				return nil, err
			}
			s.logger.Info("requirement resolved", zap.Int("attempts", attempt))
			return &Outcome{
				Status:      OutcomeSuccess,
				Requirement: current,
				Checklist:   c,
				Policy:      policy.Raw,
				Statements:  policy.Statements,
				Warnings:    policy.Warnings,
				Attempts:    attempt,
			}, nil
		}

		if attempt >= s.config.MaxAttempts {
			s.logger.Info("requirement still incomplete",
				zap.Int("attempts", attempt),
				zap.Strings("missing", analysis.MissingElements),
			)
			return &Outcome{
				Status:          OutcomeIncomplete,
				Requirement:     current,
				Checklist:       c,
				Feedback:        analysis.Feedback,
				MissingElements: analysis.MissingElements,
				Attempts:        attempt,
			}, nil
		}

		current = prompt.BuildRefinementRequirement(current, analysis.Feedback)
	}
}

func asUpstream(message string, err error) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return services.WrapUpstream(message, err)
}

func policySchemaError(raw string, err error) error {
	if errors.Is(err, spt.ErrEmpty) {
		return services.NewDomainError(services.ErrorTypeSchema, "completion contains no SPT statements", err).
			WithDetail("response", utils.Truncate(raw, 200))
	}

	domainErr := services.NewDomainError(services.ErrorTypeSchema, "policy text is not valid SPT", err).
		WithDetail("response", utils.Truncate(raw, 200))

	var syntaxErr *spt.SyntaxError
	if errors.As(err, &syntaxErr) {
		domainErr.WithDetail("line", syntaxErr.Line).
			WithDetail("column", syntaxErr.Column)
	}
	return domainErr
}
