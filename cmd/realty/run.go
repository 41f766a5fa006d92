package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/exec"
	"github.com/fwojciec/realty/pipeline"
	"github.com/fwojciec/realty/prometheus"
	realtyslog "github.com/fwojciec/realty/slog"
	"github.com/fwojciec/realty/stage"
	"github.com/fwojciec/realty/svg"
)

// Run executes the run command. Each area's terminal result is printed as
// JSON; the command fails if any area failed.
func (c *RunCmd) Run(deps *Dependencies) error {
	areas := c.Areas
	if len(areas) == 0 {
		areas = []string{realty.DefaultArea}
	}

	dir, err := filepath.Abs(deps.CLI.Dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(deps.Stderr, "error: cannot create %s: %v\n", dir, err)
		return err
	}

	runner, err := c.runner(deps)
	if err != nil {
		return err
	}

	o := &pipeline.Orchestrator{
		Runner:      runner,
		Dir:         dir,
		ChartFormat: svg.NewChartRenderer().Extension(),
		Logger:      deps.Logger,
	}

	runs, err := o.RunAreas(deps.Ctx, areas, c.Concurrency)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "    ")
	if err := enc.Encode(runs); err != nil {
		return err
	}

	failed := 0
	for _, run := range runs {
		if run.Status != realty.RunSuccess {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(runs))
	}
	return nil
}

// runner returns the stage runner: in-process when requested, otherwise
// a child process of this binary per stage.
func (c *RunCmd) runner(deps *Dependencies) (realty.StageRunner, error) {
	var runner realty.StageRunner
	if c.InProcess {
		runner = stage.NewLocalRunner(deps.Stages)
	} else {
		exe := deps.Executable
		if exe == "" {
			var err error
			if exe, err = os.Executable(); err != nil {
				return nil, fmt.Errorf("locate executable: %w", err)
			}
		}
		child := exec.NewRunner(exe, deps.CLI.StageArgs()...)
		runner = child
		if deps.Metrics != nil {
			runner = &childMetricsRunner{runner: child, metrics: deps.Metrics}
		}
	}

	runner = realtyslog.NewLoggingStageRunner(runner, deps.Logger)
	if deps.Metrics != nil {
		runner = prometheus.NewStageRunner(runner, deps.Metrics)
	}
	return runner, nil
}

// childMetricsRunner gives each child stage its own metrics file and folds
// what the child recorded into the parent's metrics.
type childMetricsRunner struct {
	runner  *exec.Runner
	metrics *prometheus.Metrics
}

func (r *childMetricsRunner) RunStage(ctx context.Context, req realty.StageRequest) realty.StageResult {
	f, err := os.CreateTemp("", "realty-stage-*.prom")
	if err != nil {
		return realty.StageResult{Stderr: fmt.Sprintf("%s stage: metrics file: %v\n", req.Stage, err)}
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	child := *r.runner
	child.Args = append(slices.Clone(r.runner.Args), "--metrics-file", path)
	result := child.RunStage(ctx, req)

	if err := r.metrics.MergeTextfile(path); err != nil {
		result.Stderr += fmt.Sprintf("%s stage: merge metrics: %v\n", req.Stage, err)
	}
	return result
}
