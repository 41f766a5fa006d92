// Package crawl walks paginated listing pages for an area and collects
// area market pages into the corpus.
package crawl

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/fwojciec/realty"
)

// DefaultBaseURL is the listing site root. Area pages live at
// DefaultBaseURL + "/" + area.
const DefaultBaseURL = "https://arizonarealestate.com"

// Ensure Crawler implements realty.ListingCrawler at compile time.
var _ realty.ListingCrawler = (*Crawler)(nil)

// Crawler follows a listing site's pagination for one area at a time.
type Crawler struct {
	BaseURL string
	Fetcher realty.Fetcher
	Parser  realty.PageParser

	// Robots, if set, is consulted before every page.
	Robots realty.RobotsPolicy

	// Limiter, if set, paces page requests per host.
	Limiter realty.DomainLimiter

	// MaxPages caps the pages visited per crawl. Zero means no cap.
	MaxPages int
}

// AreaURL returns the first listing page for area.
func (c *Crawler) AreaURL(area string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(area)
}

// Crawl returns the listings of every page for area, in page order and
// document order within a page, with Area set on each. An empty area
// crawls realty.DefaultArea.
//
// Pages are fetched lazily as the sequence is consumed, and each range over
// the sequence starts again from the first page. The sequence ends after
// the last page, after MaxPages pages, or on reaching a page already
// visited. A fetch, parse or robots failure is yielded as a single error
// and ends the sequence.
func (c *Crawler) Crawl(ctx context.Context, area string) iter.Seq2[*realty.Listing, error] {
	if area == "" {
		area = realty.DefaultArea
	}
	return func(yield func(*realty.Listing, error) bool) {
		visited := make(map[string]bool)
		next := c.AreaURL(area)
		for pages := 0; next != ""; pages++ {
			if c.MaxPages > 0 && pages >= c.MaxPages {
				return
			}
			if visited[next] {
				return
			}
			visited[next] = true

			page, err := c.page(ctx, next)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, l := range page.Listings {
				l.Area = area
				if !yield(l, nil) {
					return
				}
			}
			next = page.NextURL
		}
	}
}

// page fetches and parses one listing page.
func (c *Crawler) page(ctx context.Context, pageURL string) (*realty.ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, realty.Errorf(realty.EINVALID, "invalid page URL: %s", pageURL)
	}

	if c.Robots != nil {
		ok, err := c.Robots.Allowed(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("robots check %s: %w", pageURL, err)
		}
		if !ok {
			return nil, realty.Errorf(realty.EFORBIDDEN, "robots.txt disallows %s", pageURL)
		}
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	html, err := c.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	page, err := c.Parser.ParsePage(html, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return page, nil
}
