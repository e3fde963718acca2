// Package fetch retrieves reservation pages: a plain HTTP fetch for the
// not-accepting marker and a headless browser render for the calendar.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

const defaultLightTimeout = 15 * time.Second

// LightFetcher fetches raw page HTML without running scripts.
type LightFetcher struct {
	userAgent string
	timeout   time.Duration
	limiter   *RateLimiter
	base      *colly.Collector
}

// LightOption configures a LightFetcher.
type LightOption func(*LightFetcher)

// WithLimiter shares a per-host rate limiter.
func WithLimiter(l *RateLimiter) LightOption {
	return func(f *LightFetcher) {
		f.limiter = l
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) LightOption {
	return func(f *LightFetcher) {
		f.base.WithTransport(rt)
	}
}

// NewLightFetcher builds a LightFetcher from fetch settings.
func NewLightFetcher(cfg *config.FetchConfig, opts ...LightOption) *LightFetcher {
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	f := &LightFetcher{
		userAgent: cfg.UserAgent,
		timeout:   cfg.LightTimeout,
		base:      c,
	}
	if f.timeout <= 0 {
		f.timeout = defaultLightTimeout
	}
	for _, opt := range opts {
		opt(f)
	}
	// Clones share the base HTTP backend, so the timeout is set once here.
	c.SetRequestTimeout(f.timeout)
	return f
}

// FetchLight returns the response body of url. Non-2xx responses are errors.
func (f *LightFetcher) FetchLight(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return "", err
	}

	var (
		body     string
		fetchErr error
	)

	c := f.base.Clone()
	c.Context = ctx
	if f.userAgent != "" {
		c.UserAgent = f.userAgent
	}
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "ja,en;q=0.8")
	})
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("GET %s returned %d: %w", url, r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	err := c.Visit(url)
	if ctx.Err() != nil {
		return "", fmt.Errorf("light fetch canceled: %w", ctx.Err())
	}
	if fetchErr != nil {
		return "", fmt.Errorf("light fetch failed: %w", fetchErr)
	}
	if err != nil {
		return "", fmt.Errorf("light fetch failed: %w", err)
	}
	return body, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
