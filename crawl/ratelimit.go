package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/realty"
	"golang.org/x/time/rate"
)

// DefaultDelay is the pause between requests to the same host.
const DefaultDelay = 5 * time.Second

var _ realty.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces requests to each host at least delay apart using a
// token bucket of one. Hosts are paced independently.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewDomainLimiter creates a DomainLimiter with the given minimum delay.
// A delay of zero or less disables pacing.
func NewDomainLimiter(delay time.Duration) *DomainLimiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until a request to domain is allowed.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(d.limit, 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
