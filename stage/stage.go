// Package stage implements the crawl, aggregate and render pipeline stages
// and an in-process runner that isolates them from the caller.
package stage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/fs"
)

// Ensure stages implement realty.Stage at compile time.
var (
	_ realty.Stage = (*CrawlStage)(nil)
	_ realty.Stage = (*AggregateStage)(nil)
	_ realty.Stage = (*RenderStage)(nil)
)

// CrawlStage crawls an area and writes its record artifact to req.Output.
type CrawlStage struct {
	Crawler  realty.ListingCrawler
	Listings realty.ListingStore
	Logger   *slog.Logger
}

// Execute implements realty.Stage. Finding no listings is not an error but
// is logged as a warning.
func (s *CrawlStage) Execute(ctx context.Context, req realty.StageRequest, stdout, stderr io.Writer) error {
	if req.Output == "" {
		return realty.Errorf(realty.EINVALID, "crawl output path required")
	}
	area := req.Area
	if area == "" {
		area = realty.DefaultArea
	}

	fmt.Fprintf(stdout, "Crawling listings for %s\n", area)
	n, err := s.Listings.WriteListings(ctx, req.Output, s.Crawler.Crawl(ctx, area))
	if err != nil {
		return fmt.Errorf("crawl %s: %w", area, err)
	}

	if n == 0 {
		logger(s.Logger).Warn("no listings found", "area", area, "output", req.Output)
		fmt.Fprintf(stderr, "warning: no listings found for %s\n", area)
	}
	fmt.Fprintf(stdout, "Saved %d listings to %s\n", n, req.Output)
	return nil
}

// AggregateStage computes the summary artifact of a record artifact and
// prints the summary block to stdout.
type AggregateStage struct {
	Listings  realty.ListingStore
	Summaries realty.SummaryStore
}

// Execute implements realty.Stage. A record artifact with no listings is
// an error.
func (s *AggregateStage) Execute(ctx context.Context, req realty.StageRequest, stdout, stderr io.Writer) error {
	if req.Input == "" || req.Output == "" {
		return realty.Errorf(realty.EINVALID, "aggregate input and output paths required")
	}

	listings, err := s.Listings.ReadListings(ctx, req.Input)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return realty.Errorf(realty.EINVALID, "no listings to analyze in %s", req.Input)
	}

	summary := realty.Summarize(areaOf(req, listings), listings)
	if err := s.Summaries.WriteSummary(ctx, req.Output, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	WriteSummary(stdout, summary)
	return nil
}

// RenderStage draws the chart of a record artifact to req.Output.
type RenderStage struct {
	Listings  realty.ListingStore
	Summaries realty.SummaryStore
	Renderer  realty.ChartRenderer
}

// Execute implements realty.Stage. If req.Summary is empty the summary is
// computed from the listings. Nothing is written if rendering fails.
func (s *RenderStage) Execute(ctx context.Context, req realty.StageRequest, stdout, stderr io.Writer) error {
	if req.Input == "" || req.Output == "" {
		return realty.Errorf(realty.EINVALID, "render input and output paths required")
	}

	listings, err := s.Listings.ReadListings(ctx, req.Input)
	if err != nil {
		return err
	}

	var summary *realty.Summary
	if req.Summary != "" {
		if summary, err = s.Summaries.ReadSummary(ctx, req.Summary); err != nil {
			return err
		}
	} else {
		summary = realty.Summarize(areaOf(req, listings), listings)
	}

	fmt.Fprintf(stdout, "Rendering chart to %s\n", req.Output)
	err = fs.WriteFileAtomic(req.Output, func(w io.Writer) error {
		return s.Renderer.RenderChart(w, listings, summary)
	})
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	fmt.Fprintf(stdout, "Chart saved to %s\n", req.Output)
	return nil
}

// WriteSummary prints the console summary block.
func WriteSummary(w io.Writer, s *realty.Summary) {
	t := s.Format()
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(w, "\n%s\nReal Estate Analysis Summary:\n%s\n", rule, rule)
	fmt.Fprintf(w, "Average Price: %s\n", t.MeanPrice)
	fmt.Fprintf(w, "Average Bedrooms: %s (Integer)\n", t.MeanBeds)
	fmt.Fprintf(w, "Average Bathrooms: %s (Float)\n", t.MeanBaths)
	fmt.Fprintf(w, "Average Sq. Ft.: %s sq ft\n", t.MeanSqFt)
	fmt.Fprintf(w, "Most Common Agency: %s\n", t.TopAgency)
	fmt.Fprintf(w, "%s\n\n", rule)
}

// areaOf returns the request's area, falling back to the listings' area.
func areaOf(req realty.StageRequest, listings []*realty.Listing) string {
	if req.Area != "" {
		return req.Area
	}
	for _, l := range listings {
		if l.Area != "" {
			return l.Area
		}
	}
	return ""
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
