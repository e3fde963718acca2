package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

const (
	defaultRenderTimeout = 30 * time.Second
	// quietPeriod is how long the network must stay idle to count as idle.
	quietPeriod = 500 * time.Millisecond
)

// Renderer loads pages in headless Chrome and returns the calendar markup.
// When no calendar selector matches, it returns the page's visible text.
type Renderer struct {
	log         *slog.Logger
	limiter     *RateLimiter
	userAgent   string
	timeout     time.Duration
	idleTimeout time.Duration
	jsWait      time.Duration
	script      string

	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex // one tab at a time
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLimiter shares a per-host rate limiter.
func WithRendererLimiter(l *RateLimiter) RendererOption {
	return func(r *Renderer) {
		r.limiter = l
	}
}

// WithRendererLogger sets a custom logger.
func WithRendererLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.log = l
	}
}

// NewRenderer starts a Chrome allocator configured from fetch settings.
// Chrome itself is launched lazily on the first render.
func NewRenderer(cfg *config.FetchConfig, opts ...RendererOption) (*Renderer, error) {
	script, err := extractScript(cfg.CalendarSelectors)
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 2000),
	)
	if cfg.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	r := &Renderer{
		log:         slog.Default(),
		userAgent:   cfg.UserAgent,
		timeout:     cfg.RenderTimeout,
		idleTimeout: cfg.NetworkIdleTimeout,
		jsWait:      cfg.JSWait,
		script:      script,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
	if r.timeout <= 0 {
		r.timeout = defaultRenderTimeout
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close shuts down the allocator and any running browser.
func (r *Renderer) Close() {
	r.allocCancel()
}

// FetchRendered navigates to url, waits for the page to settle, and returns
// the first matching calendar's outer HTML or the body text.
func (r *Renderer) FetchRendered(ctx context.Context, url string) (string, error) {
	if err := r.limiter.Wait(ctx, url); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	browserCtx, cancelBrowser := chromedp.NewContext(r.allocCtx)
	defer cancelBrowser()

	taskCtx, cancelTask := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTask()

	// chromedp contexts derive from the allocator, not ctx.
	stop := context.AfterFunc(ctx, cancelTask)
	defer stop()

	idle := newIdleTracker()
	chromedp.ListenTarget(taskCtx, idle.observe)

	var out string
	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !idle.wait(ctx, r.idleTimeout) {
				r.log.Debug("network did not go idle, continuing", "url", url, "timeout", r.idleTimeout)
			}
			return nil
		}),
		chromedp.Sleep(r.jsWait),
		chromedp.Evaluate(r.script, &out),
	}
	if r.userAgent != "" {
		tasks = append(chromedp.Tasks{emulation.SetUserAgentOverride(r.userAgent)}, tasks...)
	}

	if err := chromedp.Run(taskCtx, tasks); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("render canceled: %w", ctx.Err())
		}
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return out, nil
}

// extractScript builds the in-page expression that picks the calendar.
func extractScript(selectors []string) (string, error) {
	if selectors == nil {
		selectors = []string{}
	}
	list, err := json.Marshal(selectors)
	if err != nil {
		return "", fmt.Errorf("encoding calendar selectors: %w", err)
	}
	return fmt.Sprintf(`(() => {
  for (const sel of %s) {
    let el = null;
    try { el = document.querySelector(sel); } catch (e) { continue; }
    if (el) return el.outerHTML;
  }
  return document.body ? document.body.innerText : "";
})()`, list), nil
}

// idleTracker counts in-flight requests from CDP network events.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	changed  time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{inflight: make(map[network.RequestID]struct{}), changed: time.Now()}
}

func (t *idleTracker) observe(ev any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.changed = time.Now()
}

func (t *idleTracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && time.Since(t.changed) >= quietPeriod
}

// wait polls until the network is idle, timeout elapses, or ctx is done.
// It reports whether idle was reached.
func (t *idleTracker) wait(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		return t.idle()
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		if t.idle() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
}
