package harness

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/upb/spt-policy-engineer/internal/observability"
	"github.com/upb/spt-policy-engineer/internal/shared"
	"github.com/upb/spt-policy-engineer/models"
	"github.com/upb/spt-policy-engineer/services"
)

// DefaultOutputPath is where RunBatch writes when no path is given
const DefaultOutputPath = "policy_test_results.json"

const reportFileMode os.FileMode = 0o644

// RunBatch runs GenerateTestData over texts in order and writes one report.
// The report always holds exactly len(texts) records. Errors are limited to
// a context already done before the first case and a failed write; in the
// latter case the report is still returned and no file is left behind.
func (h *Harness) RunBatch(ctx context.Context, texts []string, outputPath string) (*models.BatchReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}

	report := models.NewBatchReport(len(texts), h.iterations, h.model, h.provider)
	ctx = shared.WithRunID(ctx, report.TestRun.RunID.String())
	logger := observability.WithContext(ctx, h.logger)

	logger.Info("batch started",
		zap.Int("cases", len(texts)),
		zap.Int("iterations", h.iterations),
	)

	for i, text := range texts {
		logger.Info("processing test case", zap.Int("case", i+1), zap.Int("of", len(texts)))

		record, err := h.GenerateTestData(ctx, text, h.iterations)
		if err != nil {
			return nil, err
		}
		report.Add(record)
	}

	if err := WriteJSON(outputPath, report); err != nil {
		return report, err
	}

	logger.Info("batch report written",
		zap.String("path", outputPath),
		zap.Int("successful_cases", report.Summary.SuccessfulCases),
		zap.Int("partial_cases", report.Summary.PartialCases),
		zap.Int("failed_cases", report.Summary.FailedCases),
	)
	return report, nil
}

// WriteJSON encodes v as indented JSON and replaces path with it. The
// document goes to a temporary file in the same directory first, so a
// failure never leaves a partial file at path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return services.WrapInternal("encode report", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "create report file", err).
			WithDetail("path", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return services.WrapInternal("write report file", err)
	}
	// CreateTemp opens with 0600
	if err := tmp.Chmod(reportFileMode); err != nil {
		tmp.Close()
		return services.WrapInternal("set report file mode", err)
	}
	if err := tmp.Close(); err != nil {
		return services.WrapInternal("close report file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return services.NewDomainError(services.ErrorTypeInternal, "move report into place", err).
			WithDetail("path", path)
	}
	return nil
}
