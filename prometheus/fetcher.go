package prometheus

import (
	"context"
	"iter"
	"time"

	"github.com/fwojciec/realty"
)

// Ensure decorators implement their interfaces.
var (
	_ realty.Fetcher        = (*Fetcher)(nil)
	_ realty.ListingCrawler = (*ListingCrawler)(nil)
)

// Fetcher wraps a realty.Fetcher and records each fetch.
type Fetcher struct {
	next    realty.Fetcher
	metrics *Metrics
}

// NewFetcher creates a new Fetcher.
func NewFetcher(next realty.Fetcher, metrics *Metrics) *Fetcher {
	return &Fetcher{next: next, metrics: metrics}
}

// Fetch delegates to the wrapped fetcher.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	begin := time.Now()
	html, err := f.next.Fetch(ctx, url)
	f.metrics.FetchDuration.Observe(time.Since(begin).Seconds())
	f.metrics.FetchRequests.WithLabelValues(result(err == nil)).Inc()
	return html, err
}

// Close delegates to the wrapped fetcher.
func (f *Fetcher) Close() error {
	return f.next.Close()
}

// ListingCrawler wraps a realty.ListingCrawler and counts listings per area.
type ListingCrawler struct {
	next    realty.ListingCrawler
	metrics *Metrics
}

// NewListingCrawler creates a new ListingCrawler.
func NewListingCrawler(next realty.ListingCrawler, metrics *Metrics) *ListingCrawler {
	return &ListingCrawler{next: next, metrics: metrics}
}

// Crawl delegates to the wrapped crawler.
func (c *ListingCrawler) Crawl(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
	counter := c.metrics.ListingsCrawled.WithLabelValues(area)
	return func(yield func(*realty.Listing, error) bool) {
		for l, err := range c.next.Crawl(ctx, area) {
			if err == nil {
				counter.Inc()
			}
			if !yield(l, err) {
				return
			}
		}
	}
}
