package slog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/realty"
)

// Ensure LoggingStageRunner implements realty.StageRunner.
var _ realty.StageRunner = (*LoggingStageRunner)(nil)

// LoggingStageRunner wraps a StageRunner and logs every stage execution.
// A failed stage's stderr is logged at debug level only; it is diagnostic
// output and never part of the pipeline result.
type LoggingStageRunner struct {
	next   realty.StageRunner
	logger *slog.Logger
}

// NewLoggingStageRunner creates a new LoggingStageRunner.
func NewLoggingStageRunner(next realty.StageRunner, logger *slog.Logger) *LoggingStageRunner {
	return &LoggingStageRunner{next: next, logger: logger}
}

// RunStage delegates to the wrapped runner and logs the outcome.
func (r *LoggingStageRunner) RunStage(ctx context.Context, req realty.StageRequest) (result realty.StageResult) {
	defer func(begin time.Time) {
		attrs := []any{
			"stage", req.Stage,
			"area", req.Area,
			"output", req.Output,
			"success", result.Success,
			"duration", time.Since(begin),
		}
		if result.Success {
			r.logger.Info("stage", attrs...)
			return
		}
		r.logger.Warn("stage", attrs...)
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			r.logger.Debug("stage diagnostics", "stage", req.Stage, "area", req.Area, "stderr", stderr)
		}
	}(time.Now())
	return r.next.RunStage(ctx, req)
}
