package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/realty"
)

// Ensure StageRunner implements realty.StageRunner.
var _ realty.StageRunner = (*StageRunner)(nil)

// StageRunner wraps a realty.StageRunner and records each execution.
type StageRunner struct {
	next    realty.StageRunner
	metrics *Metrics
}

// NewStageRunner creates a new StageRunner.
func NewStageRunner(next realty.StageRunner, metrics *Metrics) *StageRunner {
	return &StageRunner{next: next, metrics: metrics}
}

// RunStage delegates to the wrapped runner.
func (r *StageRunner) RunStage(ctx context.Context, req realty.StageRequest) realty.StageResult {
	begin := time.Now()
	res := r.next.RunStage(ctx, req)
	stage := string(req.Stage)
	r.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(begin).Seconds())
	r.metrics.StageRuns.WithLabelValues(stage, result(res.Success)).Inc()
	return res
}
