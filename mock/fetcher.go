package mock

import (
	"context"

	"github.com/fwojciec/realty"
)

var _ realty.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of realty.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ realty.RobotsPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy is a mock implementation of realty.RobotsPolicy.
type RobotsPolicy struct {
	AllowedFn func(ctx context.Context, url string) (bool, error)
}

func (r *RobotsPolicy) Allowed(ctx context.Context, url string) (bool, error) {
	return r.AllowedFn(ctx, url)
}

var _ realty.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of realty.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.WaitFn(ctx, domain)
}
