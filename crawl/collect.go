package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/bloom"
	"golang.org/x/sync/errgroup"
)

// Collector configuration.
const (
	DefaultConcurrency = 4

	// expectedCorpusURLs sizes the dedupe filter.
	expectedCorpusURLs = 10000
	// corpusFalsePositiveRate is the chance a new URL is mistaken for a seen one.
	corpusFalsePositiveRate = 0.001
)

// Collector gathers area market pages from a site's sitemaps into the
// corpus, tagging each document with its city.
type Collector struct {
	Sitemaps     realty.SitemapService
	Fetcher      realty.Fetcher
	Extractor    realty.Extractor
	Converter    realty.Converter
	Documents    realty.CorpusService
	TokenCounter realty.TokenCounter
	RateLimiter  realty.DomainLimiter

	Concurrency  int
	MaxDocuments int // zero means no cap
	RetryDelays  []time.Duration

	// Now returns the fetch time stamped on documents. Defaults to time.Now.
	Now func() time.Time
}

// Result holds the outcome of a collection run for one city.
type Result struct {
	Saved  int
	Failed int
	Bytes  int
	Tokens int
}

// ProgressEvent reports progress during a collection run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting collection progress.
type ProgressFunc func(event ProgressEvent)

// page is one fetched and converted corpus page.
type page struct {
	position int
	url      string
	title    string
	markdown string
	err      error
}

// Collect discovers the pages of siteURL that belong to city, fetches and
// converts them with bounded concurrency, and saves them in discovery
// order. Pages that fail are counted, not fatal. The progress callback, if
// provided, receives events as collection proceeds.
func (c *Collector) Collect(ctx context.Context, siteURL, city string, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	discovered, err := c.Sitemaps.DiscoverURLs(ctx, siteURL, realty.AreaFilter(city))
	if err != nil {
		return nil, fmt.Errorf("sitemap discovery: %w", err)
	}

	seen := bloom.NewFilter(expectedCorpusURLs, corpusFalsePositiveRate)
	var urls []string
	for _, u := range discovered {
		if seen.Seen(u) {
			continue
		}
		urls = append(urls, bloom.Canonical(u))
		if c.MaxDocuments > 0 && len(urls) >= c.MaxDocuments {
			break
		}
	}

	total := len(urls)
	progress(ProgressEvent{Type: ProgressStarted, Total: total})

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	pageCh := make(chan page, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	go func() {
		for i, u := range urls {
			g.Go(func() error {
				pageCh <- c.process(gctx, i, u)
				return nil
			})
		}
		_ = g.Wait()
		close(pageCh)
	}()

	var completed atomic.Int64
	pages := make([]page, total)
	for p := range pageCh {
		pages[p.position] = p
		done := int(completed.Add(1))
		if p.err != nil {
			progress(ProgressEvent{Type: ProgressFailed, Completed: done, Total: total, URL: p.url, Error: p.err})
			continue
		}
		progress(ProgressEvent{Type: ProgressCompleted, Completed: done, Total: total, URL: p.url})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	result := &Result{}
	for _, p := range pages {
		if p.err != nil {
			result.Failed++
			continue
		}

		doc := &realty.CorpusDocument{
			City:        city,
			SourceURL:   p.url,
			Title:       p.title,
			Content:     p.markdown,
			ContentHash: ComputeHash(p.markdown),
			FetchedAt:   now().UTC(),
		}
		if c.TokenCounter != nil {
			if tokens, err := c.TokenCounter.CountTokens(ctx, p.markdown); err == nil {
				doc.Tokens = tokens
			}
		}

		if err := c.Documents.SaveDocument(ctx, doc); err != nil {
			result.Failed++
			continue
		}

		result.Saved++
		result.Bytes += len(p.markdown)
		result.Tokens += doc.Tokens
	}

	progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})

	return result, nil
}

// process fetches, extracts and converts a single page.
func (c *Collector) process(ctx context.Context, position int, pageURL string) page {
	p := page{position: position, url: pageURL}

	if c.RateLimiter != nil {
		u, err := url.Parse(pageURL)
		if err != nil {
			p.err = err
			return p
		}
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			p.err = err
			return p
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetry(ctx, pageURL, c.Fetcher.Fetch, delays)
	if err != nil {
		p.err = err
		return p
	}

	extracted, err := c.Extractor.Extract(html)
	if err != nil {
		p.err = err
		return p
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		p.err = err
		return p
	}

	p.title = extracted.Title
	p.markdown = markdown
	return p
}

// ComputeHash returns the hex xxhash of content.
func ComputeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

// TruncateURL shortens a URL for display, keeping the informative tail.
func TruncateURL(url string, maxLen int) string {
	switch {
	case maxLen <= 0:
		return ""
	case len(url) <= maxLen:
		return url
	case maxLen < 4:
		return url[:maxLen]
	default:
		return "..." + url[len(url)-maxLen+3:]
	}
}

// FormatBytes formats a byte count for display.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats a token count for display.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}
