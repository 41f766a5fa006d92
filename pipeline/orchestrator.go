// Package pipeline sequences the crawl, aggregate and render stages for an
// area and reports the terminal result of each run.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/fs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Failure messages reported in a PipelineRun.
const (
	MessageScrapeFailed   = "scrape failed"
	MessageAnalysisFailed = "analysis/plotting failed"
)

// Orchestrator runs the stages of the pipeline through a StageRunner and
// checks that each stage produced its artifact before starting the next.
type Orchestrator struct {
	Runner realty.StageRunner

	// Dir holds every artifact. Empty means the working directory.
	Dir string

	// ChartFormat is the render artifact extension, "svg" by default.
	ChartFormat string

	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewOrchestrator creates an Orchestrator writing artifacts to dir.
func NewOrchestrator(runner realty.StageRunner, dir string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Runner: runner, Dir: dir, Logger: logger}
}

// Run executes the pipeline for area. An invalid area is returned as an
// EINVALID error before any stage runs; every other failure is reported
// in the returned run.
func (o *Orchestrator) Run(ctx context.Context, area string) (*realty.PipelineRun, error) {
	area, err := realty.NormalizeArea(area)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, area), nil
}

func (o *Orchestrator) run(ctx context.Context, area string) *realty.PipelineRun {
	run := &realty.PipelineRun{
		ID:        uuid.NewString(),
		Area:      area,
		StartedAt: o.now(),
	}
	logger := o.logger().With("run", run.ID, "area", area)
	logger.Info("pipeline started")

	listings := filepath.Join(o.Dir, realty.ListingsFilename(area))
	summary := filepath.Join(o.Dir, realty.SummaryFilename(area))
	chart := filepath.Join(o.Dir, realty.ChartFilename(area, o.chartFormat()))

	steps := []struct {
		req     realty.StageRequest
		failure string
		attach  func()
	}{
		{
			req:     realty.StageRequest{Stage: realty.StageCrawl, Area: area, Output: listings},
			failure: MessageScrapeFailed,
			attach:  func() { run.ListingsPath = listings },
		},
		{
			req:     realty.StageRequest{Stage: realty.StageAggregate, Area: area, Input: listings, Output: summary},
			failure: MessageAnalysisFailed,
			attach:  func() { run.SummaryPath = summary },
		},
		{
			req:     realty.StageRequest{Stage: realty.StageRender, Area: area, Input: listings, Summary: summary, Output: chart},
			failure: MessageAnalysisFailed,
			attach:  func() { run.ChartPath = chart },
		},
	}

	for _, step := range steps {
		if !o.runStage(ctx, logger, step.req) {
			return o.finish(logger, run, realty.RunError, step.failure)
		}
		step.attach()
	}
	return o.finish(logger, run, realty.RunSuccess, "")
}

// runStage runs one stage and reports whether it succeeded and left its
// output artifact behind. The output is removed first so an artifact from
// an earlier run cannot stand in for one this stage failed to write.
func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, req realty.StageRequest) bool {
	if err := fs.Remove(req.Output); err != nil {
		logger.Error("clear artifact", "stage", req.Stage, "path", req.Output, "err", err)
		return false
	}

	result := o.Runner.RunStage(ctx, req)
	if !result.Success {
		logger.Error("stage failed", "stage", req.Stage, "stderr", result.Stderr)
		return false
	}

	ok, err := fs.Exists(req.Output)
	if err != nil {
		logger.Error("check artifact", "stage", req.Stage, "path", req.Output, "err", err)
		return false
	}
	if !ok {
		logger.Error("stage produced no artifact", "stage", req.Stage, "path", req.Output)
		return false
	}
	return true
}

// finish marks run terminal. A failed run carries its message only, never
// the paths of the stages that completed before the failure.
func (o *Orchestrator) finish(logger *slog.Logger, run *realty.PipelineRun, status realty.RunStatus, message string) *realty.PipelineRun {
	if status == realty.RunError {
		run.ListingsPath, run.SummaryPath, run.ChartPath = "", "", ""
	}
	run.Status = status
	run.Message = message
	run.FinishedAt = o.now()
	logger.Info("pipeline finished",
		"status", status,
		"message", message,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run
}

// RunAreas runs the pipeline for several areas, at most concurrency at a
// time. All areas are validated before any stage runs. Duplicate areas run
// once and share a result. Results are in the order of areas.
func (o *Orchestrator) RunAreas(ctx context.Context, areas []string, concurrency int) ([]*realty.PipelineRun, error) {
	if len(areas) == 0 {
		return nil, realty.Errorf(realty.EINVALID, "at least one area required")
	}

	normalized := make([]string, len(areas))
	for i, a := range areas {
		area, err := realty.NormalizeArea(a)
		if err != nil {
			return nil, err
		}
		normalized[i] = area
	}

	distinct := slices.Clone(normalized)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)

	runs := make([]*realty.PipelineRun, len(distinct))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, area := range distinct {
		g.Go(func() error {
			runs[i] = o.run(ctx, area)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byArea := make(map[string]*realty.PipelineRun, len(distinct))
	for _, run := range runs {
		byArea[run.Area] = run
	}
	results := make([]*realty.PipelineRun, len(normalized))
	for i, area := range normalized {
		results[i] = byArea[area]
	}
	return results, nil
}

func (o *Orchestrator) chartFormat() string {
	if o.ChartFormat == "" {
		return "svg"
	}
	return o.ChartFormat
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
