package observability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/upb/spt-policy-engineer/config"
	"github.com/upb/spt-policy-engineer/internal/shared"
)

// NewLogger builds the process logger. LogFormat "json" gives the production
// encoder; anything else gives a console encoder for terminals.
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zc zap.Config
	if cfg.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// stdout carries CLI results
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// WithContext returns logger annotated with the run and case IDs carried by ctx.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	var fields []zap.Field
	if id := shared.RunID(ctx); id != "" {
		fields = append(fields, zap.String("run_id", id))
	}
	if id := shared.CaseID(ctx); id != "" {
		fields = append(fields, zap.String("case_id", id))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
