package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/realty"
)

// Ensure SitemapService implements realty.SitemapService.
var _ realty.SitemapService = (*SitemapService)(nil)

// SitemapService discovers corpus pages from a site's XML sitemaps.
type SitemapService struct {
	client    *http.Client
	userAgent string
	robots    *RobotsService
}

// NewSitemapService creates a SitemapService. Sitemap directives are read
// through robots, which may be shared with the crawler. If robots is nil a
// private RobotsService is created.
func NewSitemapService(client *http.Client, robots *RobotsService) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	if robots == nil {
		robots = NewRobotsService(client, "")
	}
	return &SitemapService{client: client, userAgent: robots.userAgent, robots: robots}
}

// DiscoverURLs implements realty.SitemapService. URLs are returned in
// sitemap order without duplicates, and only those the robots rules allow.
// Returns an empty slice (not nil) if no sitemaps are found.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *realty.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, realty.Errorf(realty.EINVALID, "invalid base URL: %s", baseURL)
	}
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	sitemapURLs, err := s.robots.Sitemaps(ctx, root.String())
	if err != nil {
		return nil, err
	}
	if len(sitemapURLs) == 0 {
		fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
		sitemapURLs = []string{fallback}
	}

	urls := []string{}
	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)

	for i, sitemapURL := range sitemapURLs {
		found, err := s.processSitemap(ctx, sitemapURL, seenSitemaps)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A missing fallback sitemap means the site has none.
			if len(sitemapURLs) == 1 && i == 0 && realty.ErrorCode(err) == realty.ENOTFOUND {
				return urls, nil
			}
			return nil, err
		}
		for _, u := range found {
			if seenURLs[u] || !filter.Match(u) {
				continue
			}
			seenURLs[u] = true
			ok, err := s.robots.Allowed(ctx, u)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			if ok {
				urls = append(urls, u)
			}
		}
	}

	return urls, nil
}

// processSitemap fetches and parses a sitemap, handling both urlset and
// sitemapindex documents.
func (s *SitemapService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.fetchURL(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(io.LimitReader(body, maxBodySize)); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap XML: %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var urls []string
		for _, loc := range locs(root, "sitemap") {
			found, err := s.processSitemap(ctx, loc, seen)
			if err != nil {
				return nil, err
			}
			urls = append(urls, found...)
		}
		return urls, nil
	}

	return locs(root, "url"), nil
}

// locs returns the non-empty <loc> texts of root's children named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// fetchURL fetches a URL and returns the response body.
// A 404 is returned as ENOTFOUND.
func (s *SitemapService) fetchURL(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	resp, err := get(ctx, s.client, s.userAgent, targetURL)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, realty.Errorf(realty.ENOTFOUND, "sitemap not found: %s", targetURL)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	return resp.Body, nil
}
