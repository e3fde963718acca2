package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/slot-watcher/internal/metrics"
)

// Fetch kinds, used as metric labels and span names.
const (
	kindLight    = "light"
	kindRendered = "rendered"
)

type fetchFunc func(ctx context.Context, url string) (string, error)

// newBackOff returns base, 2*base, 4*base, ... without jitter.
func newBackOff(base time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = base << 6
	return b
}

// fetchWithRetry calls fetch up to eng.attempts times. Cancellation of ctx
// stops both the attempt in flight and the backoff sleep.
func (eng *Engine) fetchWithRetry(
	ctx context.Context,
	log *slog.Logger,
	kind string,
	url string,
	fetch fetchFunc,
) (string, error) {
	ctx, span := tracer.Start(ctx, "fetch."+kind, trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	attempt := 0
	op := func() (string, error) {
		attempt++
		metrics.FetchAttemptsTotal.WithLabelValues(kind).Inc()

		start := time.Now()
		out, err := fetch(ctx, url)
		metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.FetchFailuresTotal.WithLabelValues(kind).Inc()
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		return out, nil
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff(eng.backoffBase)),
		backoff.WithMaxTries(uint(eng.attempts)), //nolint:gosec // validated >= 1 by config
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("fetch attempt failed, retrying",
				"kind", kind,
				"attempt", attempt,
				"retry_in", wait,
				"error", err,
			)
		}),
	)
	span.SetAttributes(attribute.Int("attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return "", fmt.Errorf("%w: %s fetch of %s after %d attempt(s): %w", ErrFetch, kind, url, attempt, err)
	}
	return out, nil
}
