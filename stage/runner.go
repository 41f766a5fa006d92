package stage

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"

	"github.com/fwojciec/realty"
)

// Ensure LocalRunner implements realty.StageRunner at compile time.
var _ realty.StageRunner = (*LocalRunner)(nil)

// LocalRunner runs stages in-process. Each stage runs on its own goroutine
// with private output buffers; a panic is recovered and reported as a
// failure with its stack on Stderr.
type LocalRunner struct {
	Stages map[realty.StageName]realty.Stage
}

// NewLocalRunner creates a LocalRunner for the given stages.
func NewLocalRunner(stages map[realty.StageName]realty.Stage) *LocalRunner {
	return &LocalRunner{Stages: stages}
}

// RunStage implements realty.StageRunner.
func (r *LocalRunner) RunStage(ctx context.Context, req realty.StageRequest) realty.StageResult {
	s, ok := r.Stages[req.Stage]
	if !ok {
		return realty.StageResult{Stderr: fmt.Sprintf("unknown stage %q\n", req.Stage)}
	}

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		completed := false
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("panic: %v\n%s", p, debug.Stack())
				return
			}
			if !completed {
				done <- fmt.Errorf("stage %s exited without returning", req.Stage)
			}
		}()
		err := s.Execute(ctx, req, &stdout, &stderr)
		completed = true
		done <- err
	}()
	err := <-done

	result := realty.StageResult{Success: err == nil, Stdout: stdout.String()}
	if err != nil {
		fmt.Fprintf(&stderr, "%s stage failed: %v\n", req.Stage, err)
	}
	result.Stderr = stderr.String()
	return result
}
