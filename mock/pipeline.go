package mock

import (
	"context"
	"io"

	"github.com/fwojciec/realty"
)

var _ realty.Stage = (*Stage)(nil)

// Stage is a mock implementation of realty.Stage.
type Stage struct {
	ExecuteFn func(ctx context.Context, req realty.StageRequest, stdout, stderr io.Writer) error
}

func (s *Stage) Execute(ctx context.Context, req realty.StageRequest, stdout, stderr io.Writer) error {
	return s.ExecuteFn(ctx, req, stdout, stderr)
}

var _ realty.StageRunner = (*StageRunner)(nil)

// StageRunner is a mock implementation of realty.StageRunner.
type StageRunner struct {
	RunStageFn func(ctx context.Context, req realty.StageRequest) realty.StageResult
}

func (r *StageRunner) RunStage(ctx context.Context, req realty.StageRequest) realty.StageResult {
	return r.RunStageFn(ctx, req)
}

var _ realty.ChartRenderer = (*ChartRenderer)(nil)

// ChartRenderer is a mock implementation of realty.ChartRenderer.
type ChartRenderer struct {
	ExtensionFn   func() string
	RenderChartFn func(w io.Writer, listings []*realty.Listing, summary *realty.Summary) error
}

func (r *ChartRenderer) Extension() string {
	return r.ExtensionFn()
}

func (r *ChartRenderer) RenderChart(w io.Writer, listings []*realty.Listing, summary *realty.Summary) error {
	return r.RenderChartFn(w, listings, summary)
}
