package slog_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"testing"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/mock"
	realtyslog "github.com/fwojciec/realty/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int, err error) iter.Seq2[*realty.Listing, error] {
	return func(yield func(*realty.Listing, error) bool) {
		for range n {
			if !yield(&realty.Listing{Area: "globe"}, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func TestLoggingListingCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("logs count after sequence ends", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ListingCrawler{
			CrawlFn: func(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
				return seq(3, nil)
			},
		}

		c := realtyslog.NewLoggingListingCrawler(inner, logger)
		var got int
		for l, err := range c.Crawl(context.Background(), "globe") {
			require.NoError(t, err)
			require.NotNil(t, l)
			got++
		}

		assert.Equal(t, 3, got)
		output := buf.String()
		assert.Contains(t, output, "msg=crawl")
		assert.Contains(t, output, "area=globe")
		assert.Contains(t, output, "count=3")
	})

	t.Run("logs error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ListingCrawler{
			CrawlFn: func(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
				return seq(1, errors.New("HTTP 500"))
			},
		}

		c := realtyslog.NewLoggingListingCrawler(inner, logger)
		var lastErr error
		for _, err := range c.Crawl(context.Background(), "globe") {
			lastErr = err
		}

		require.Error(t, lastErr)
		assert.Contains(t, buf.String(), "count=1")
		assert.Contains(t, buf.String(), `err="HTTP 500"`)
	})

	t.Run("logs when consumer stops early", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ListingCrawler{
			CrawlFn: func(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
				return seq(5, nil)
			},
		}

		c := realtyslog.NewLoggingListingCrawler(inner, logger)
		for range c.Crawl(context.Background(), "globe") {
			break
		}

		assert.Contains(t, buf.String(), "count=1")
	})
}
