package realty

import (
	"context"
	"io"
	"time"
)

// StageName identifies a pipeline stage.
type StageName string

// Pipeline stages in execution order.
const (
	StageCrawl     StageName = "crawl"
	StageAggregate StageName = "aggregate"
	StageRender    StageName = "render"
)

// StageRequest carries every parameter a stage needs. Artifact paths are
// always passed explicitly.
type StageRequest struct {
	Stage   StageName `json:"stage"`
	Area    string    `json:"area"`
	Input   string    `json:"input,omitempty"`   // record artifact to read
	Summary string    `json:"summary,omitempty"` // summary artifact to read
	Output  string    `json:"output"`            // artifact the stage produces
}

// StageResult is the outcome of one isolated stage execution.
type StageResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

// Stage is one unit of pipeline work. It reads its input artifacts and
// writes its output artifact; progress goes to stdout and diagnostics to
// stderr.
type Stage interface {
	Execute(ctx context.Context, req StageRequest, stdout, stderr io.Writer) error
}

// StageRunner executes stages in isolation from the caller.
// Failures are reported through StageResult, never returned or panicked.
type StageRunner interface {
	RunStage(ctx context.Context, req StageRequest) StageResult
}

// RunStatus is the terminal status of a pipeline run.
type RunStatus string

// RunStatus values.
const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// PipelineRun describes one end-to-end execution for one area.
type PipelineRun struct {
	ID           string    `json:"id"`
	Area         string    `json:"area"`
	Status       RunStatus `json:"status"`
	Message      string    `json:"message,omitempty"`
	ListingsPath string    `json:"listingsPath,omitempty"`
	SummaryPath  string    `json:"summaryPath,omitempty"`
	ChartPath    string    `json:"chartPath,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// ChartRenderer draws the price chart for an area.
type ChartRenderer interface {
	// Extension returns the file extension of rendered charts, without dot.
	Extension() string

	// RenderChart writes a chart of listings and summary to w.
	RenderChart(w io.Writer, listings []*Listing, summary *Summary) error
}
