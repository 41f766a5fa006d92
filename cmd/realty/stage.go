package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/fs"
	"github.com/fwojciec/realty/svg"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	raw := c.Area
	if raw == "" {
		raw = realty.DefaultArea
	}
	area, err := realty.NormalizeArea(raw)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
		return err
	}

	output := c.Output
	if output == "" {
		output = filepath.Join(deps.CLI.Dir, realty.ListingsFilename(area))
	}

	return execute(deps, realty.StageRequest{Stage: realty.StageCrawl, Area: area, Output: output})
}

// Run executes the aggregate command.
func (c *AggregateCmd) Run(deps *Dependencies) error {
	area, err := fileArea(c.Area, c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
		return err
	}

	output := c.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(c.File), realty.SummaryFilename(area))
	}

	return execute(deps, realty.StageRequest{Stage: realty.StageAggregate, Area: area, Input: c.File, Output: output})
}

// Run executes the render command.
func (c *RenderCmd) Run(deps *Dependencies) error {
	area, err := fileArea(c.Area, c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", realty.ErrorMessage(err))
		return err
	}

	dir := filepath.Dir(c.File)
	summary := c.Summary
	if summary == "" {
		candidate := filepath.Join(dir, realty.SummaryFilename(area))
		if ok, _ := fs.Exists(candidate); ok {
			summary = candidate
		}
	}

	output := c.Output
	if output == "" {
		output = filepath.Join(dir, realty.ChartFilename(area, svg.NewChartRenderer().Extension()))
	}

	return execute(deps, realty.StageRequest{Stage: realty.StageRender, Area: area, Input: c.File, Summary: summary, Output: output})
}

// Run executes the hidden stage command.
func (c *StageCmd) Run(deps *Dependencies) error {
	return execute(deps, realty.StageRequest{
		Stage:   realty.StageName(c.Name),
		Area:    c.Area,
		Input:   c.Input,
		Summary: c.Summary,
		Output:  c.Output,
	})
}

// execute runs a stage directly against the command's output streams.
func execute(deps *Dependencies, req realty.StageRequest) error {
	s, ok := deps.Stages[req.Stage]
	if !ok {
		return realty.Errorf(realty.EINVALID, "unknown stage %q", req.Stage)
	}
	if err := s.Execute(deps.Ctx, req, deps.Stdout, deps.Stderr); err != nil {
		fmt.Fprintf(deps.Stderr, "%s stage failed: %v\n", req.Stage, err)
		return err
	}
	return nil
}

// fileArea returns the normalized area, taken from the listings file name
// when not given explicitly.
func fileArea(area, file string) (string, error) {
	if area == "" {
		area = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return realty.NormalizeArea(area)
}
