package mock

import (
	"context"
	"iter"

	"github.com/fwojciec/realty"
)

var _ realty.PageParser = (*PageParser)(nil)

// PageParser is a mock implementation of realty.PageParser.
type PageParser struct {
	ParsePageFn func(html string, pageURL string) (*realty.ListingPage, error)
}

func (p *PageParser) ParsePage(html string, pageURL string) (*realty.ListingPage, error) {
	return p.ParsePageFn(html, pageURL)
}

var _ realty.ListingCrawler = (*ListingCrawler)(nil)

// ListingCrawler is a mock implementation of realty.ListingCrawler.
type ListingCrawler struct {
	CrawlFn func(ctx context.Context, area string) iter.Seq2[*realty.Listing, error]
}

func (c *ListingCrawler) Crawl(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
	return c.CrawlFn(ctx, area)
}

var _ realty.ListingStore = (*ListingStore)(nil)

// ListingStore is a mock implementation of realty.ListingStore.
type ListingStore struct {
	WriteListingsFn func(ctx context.Context, path string, seq iter.Seq2[*realty.Listing, error]) (int, error)
	ReadListingsFn  func(ctx context.Context, path string) ([]*realty.Listing, error)
}

func (s *ListingStore) WriteListings(ctx context.Context, path string, seq iter.Seq2[*realty.Listing, error]) (int, error) {
	return s.WriteListingsFn(ctx, path, seq)
}

func (s *ListingStore) ReadListings(ctx context.Context, path string) ([]*realty.Listing, error) {
	return s.ReadListingsFn(ctx, path)
}

var _ realty.SummaryStore = (*SummaryStore)(nil)

// SummaryStore is a mock implementation of realty.SummaryStore.
type SummaryStore struct {
	WriteSummaryFn func(ctx context.Context, path string, summary *realty.Summary) error
	ReadSummaryFn  func(ctx context.Context, path string) (*realty.Summary, error)
}

func (s *SummaryStore) WriteSummary(ctx context.Context, path string, summary *realty.Summary) error {
	return s.WriteSummaryFn(ctx, path, summary)
}

func (s *SummaryStore) ReadSummary(ctx context.Context, path string) (*realty.Summary, error) {
	return s.ReadSummaryFn(ctx, path)
}
