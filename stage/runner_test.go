package stage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"testing"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/mock"
	"github.com/fwojciec/realty/stage"
	"github.com/stretchr/testify/assert"
)

func TestLocalRunner_RunStage(t *testing.T) {
	t.Parallel()

	t.Run("reports success with captured output", func(t *testing.T) {
		t.Parallel()

		r := stage.NewLocalRunner(map[realty.StageName]realty.Stage{
			realty.StageCrawl: &mock.Stage{
				ExecuteFn: func(_ context.Context, req realty.StageRequest, stdout, stderr io.Writer) error {
					fmt.Fprintf(stdout, "crawled %s", req.Area)
					fmt.Fprint(stderr, "note")
					return nil
				},
			},
		})

		result := r.RunStage(context.Background(), realty.StageRequest{Stage: realty.StageCrawl, Area: "globe"})

		assert.True(t, result.Success)
		assert.Equal(t, "crawled globe", result.Stdout)
		assert.Equal(t, "note", result.Stderr)
	})

	t.Run("reports failure with error in stderr", func(t *testing.T) {
		t.Parallel()

		r := stage.NewLocalRunner(map[realty.StageName]realty.Stage{
			realty.StageAggregate: &mock.Stage{
				ExecuteFn: func(context.Context, realty.StageRequest, io.Writer, io.Writer) error {
					return errors.New("no listings")
				},
			},
		})

		result := r.RunStage(context.Background(), realty.StageRequest{Stage: realty.StageAggregate})

		assert.False(t, result.Success)
		assert.Contains(t, result.Stderr, "aggregate stage failed: no listings")
	})

	t.Run("recovers panics", func(t *testing.T) {
		t.Parallel()

		r := stage.NewLocalRunner(map[realty.StageName]realty.Stage{
			realty.StageRender: &mock.Stage{
				ExecuteFn: func(context.Context, realty.StageRequest, io.Writer, io.Writer) error {
					panic("nil chart")
				},
			},
		})

		result := r.RunStage(context.Background(), realty.StageRequest{Stage: realty.StageRender})

		assert.False(t, result.Success)
		assert.Contains(t, result.Stderr, "panic: nil chart")
		assert.Contains(t, result.Stderr, "goroutine")
	})

	t.Run("reports stage that exits its goroutine", func(t *testing.T) {
		t.Parallel()

		r := stage.NewLocalRunner(map[realty.StageName]realty.Stage{
			realty.StageRender: &mock.Stage{
				ExecuteFn: func(context.Context, realty.StageRequest, io.Writer, io.Writer) error {
					runtime.Goexit()
					return nil
				},
			},
		})

		result := r.RunStage(context.Background(), realty.StageRequest{Stage: realty.StageRender})

		assert.False(t, result.Success)
		assert.Contains(t, result.Stderr, "exited without returning")
	})

	t.Run("fails unknown stage", func(t *testing.T) {
		t.Parallel()

		r := stage.NewLocalRunner(nil)

		result := r.RunStage(context.Background(), realty.StageRequest{Stage: "publish"})

		assert.False(t, result.Success)
		assert.Contains(t, result.Stderr, `unknown stage "publish"`)
	})
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	stage.WriteSummary(&buf, &realty.Summary{MeanPrice: 1234.5, MeanBeds: 2, MeanBaths: 1.25, MeanSqFt: 980, TopAgency: realty.NoAgency})

	assert.Equal(t, `
==================================================
Real Estate Analysis Summary:
==================================================
Average Price: $1,234.50
Average Bedrooms: 2 (Integer)
Average Bathrooms: 1.25 (Float)
Average Sq. Ft.: 980.00 sq ft
Most Common Agency: N/A
==================================================

`, buf.String())
}
