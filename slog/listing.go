package slog

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/fwojciec/realty"
)

// Ensure LoggingListingCrawler implements realty.ListingCrawler.
var _ realty.ListingCrawler = (*LoggingListingCrawler)(nil)

// LoggingListingCrawler wraps a ListingCrawler and logs each completed crawl.
type LoggingListingCrawler struct {
	next   realty.ListingCrawler
	logger *slog.Logger
}

// NewLoggingListingCrawler creates a new LoggingListingCrawler.
func NewLoggingListingCrawler(next realty.ListingCrawler, logger *slog.Logger) *LoggingListingCrawler {
	return &LoggingListingCrawler{next: next, logger: logger}
}

// Crawl delegates to the wrapped crawler. The log line is written once the
// sequence ends, whether it is drained, stopped early, or fails.
func (c *LoggingListingCrawler) Crawl(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
	return func(yield func(*realty.Listing, error) bool) {
		var count int
		var err error
		defer func(begin time.Time) {
			c.logger.Info("crawl",
				"area", area,
				"count", count,
				"duration", time.Since(begin),
				"err", err,
			)
		}(time.Now())

		for l, e := range c.next.Crawl(ctx, area) {
			if e != nil {
				err = e
			} else {
				count++
			}
			if !yield(l, e) {
				return
			}
		}
	}
}
