package realty

import "context"

// Fetcher retrieves HTML from URLs.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// RobotsPolicy decides whether a URL may be crawled under the site's
// robots exclusion rules.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) (bool, error)
}

// DomainLimiter provides per-domain request pacing.
type DomainLimiter interface {
	// Wait blocks until a request to the domain is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
