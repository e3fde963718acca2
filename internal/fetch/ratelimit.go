package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter spaces out requests to each host. Light and rendered fetches
// share one limiter so a target never sees more than the configured rate.
type RateLimiter struct {
	perMinute float64
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
}

// NewRateLimiter allows perMinute requests per host with a burst of one. A
// non-positive rate disables limiting.
func NewRateLimiter(perMinute float64) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host is allowed, or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	if r == nil || r.perMinute <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if err := r.limiter(u.Host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (r *RateLimiter) limiter(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.perMinute/60), 1)
		r.limiters[host] = l
	}
	return l
}
