// Package exec runs pipeline stages as child processes of the realty
// binary, so a crash in one stage cannot take down the orchestrator.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/fwojciec/realty"
)

// Ensure Runner implements realty.StageRunner at compile time.
var _ realty.StageRunner = (*Runner)(nil)

// Runner executes a stage by invoking Command with the hidden stage
// subcommand. A stage succeeds only if the child exits with status 0.
type Runner struct {
	// Command is the executable to run, usually os.Executable().
	Command string

	// Args are passed before the stage subcommand, e.g. global flags.
	Args []string

	// Env is the child environment. Nil inherits the parent's.
	Env []string

	// Dir is the child working directory. Empty uses the parent's.
	Dir string
}

// NewRunner creates a Runner for command with the given leading args.
func NewRunner(command string, args ...string) *Runner {
	return &Runner{Command: command, Args: args}
}

// RunStage implements realty.StageRunner.
func (r *Runner) RunStage(ctx context.Context, req realty.StageRequest) realty.StageResult {
	cmd := exec.CommandContext(ctx, r.Command, r.CommandArgs(req)...)
	cmd.Env = r.Env
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The child never ran, so stderr has nothing to say about it.
			fmt.Fprintf(&stderr, "%s stage: %v\n", req.Stage, err)
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			fmt.Fprintf(&stderr, "%s stage: %v\n", req.Stage, ctxErr)
		}
	}

	return realty.StageResult{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
}

// CommandArgs returns the child's arguments for req.
func (r *Runner) CommandArgs(req realty.StageRequest) []string {
	args := append([]string{}, r.Args...)
	args = append(args, "stage", string(req.Stage))
	if req.Area != "" {
		args = append(args, "--area", req.Area)
	}
	if req.Input != "" {
		args = append(args, "--input", req.Input)
	}
	if req.Summary != "" {
		args = append(args, "--summary", req.Summary)
	}
	if req.Output != "" {
		args = append(args, "--output", req.Output)
	}
	return args
}
