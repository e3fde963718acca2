// Package engine runs poll cycles against reservation pages and schedules
// them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/slot-watcher/internal/config"
	"github.com/donaldgifford/slot-watcher/internal/metrics"
	"github.com/donaldgifford/slot-watcher/internal/notify"
	"github.com/donaldgifford/slot-watcher/internal/store"
	"github.com/donaldgifford/slot-watcher/pkg/slots"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const (
	defaultAttempts      = 3
	defaultBackoffBase   = 5 * time.Second
	defaultNotifyTimeout = 15 * time.Second
	saveTimeout          = 10 * time.Second
)

// Cycle outcomes, used as the metric label and in Result.
const (
	OutcomeUnopened       = "unopened"
	OutcomeMarkerReturned = "marker_returned"
	OutcomeOpened         = "opened"
	OutcomeDegraded       = "degraded"
	OutcomeFetchFailed    = "fetch_failed"
	OutcomeSaveFailed     = "save_failed"
	OutcomeCanceled       = "canceled"
)

const instrumentationName = "github.com/donaldgifford/slot-watcher/internal/engine"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	// OTLP counterparts of the Prometheus cycle and notification counters,
	// for one-shot runs that finish before any scrape.
	otelCycles, _ = meter.Int64Counter("slotwatch.cycles",
		metric.WithDescription("Poll cycles by target and outcome."))
	otelNotifications, _ = meter.Int64Counter("slotwatch.notifications",
		metric.WithDescription("Notification dispatches by kind and result."))
)

// Result summarizes one poll cycle.
type Result struct {
	TargetID string `json:"target_id"`
	// Continue is false only when the cycle was cut short by cancellation.
	Continue      bool                       `json:"continue"`
	Phase         domain.Phase               `json:"phase"`
	Outcome       string                     `json:"outcome"`
	Notifications []domain.NotificationEvent `json:"notifications"`
	Changes       domain.ChangeSet           `json:"changes"`
	Snapshot      domain.Snapshot            `json:"snapshot"`
	Degraded      bool                       `json:"degraded"`
}

// Engine runs poll cycles: fetch, detect opening, diff slots, notify, persist.
type Engine struct {
	store    store.Store
	light    LightFetcher
	renderer Renderer
	notifier notify.Notifier
	log      *slog.Logger

	attempts      int
	backoffBase   time.Duration
	notifyTimeout time.Duration
	loc           *time.Location
	now           func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	lf LightFetcher,
	r Renderer,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:         s,
		light:         lf,
		renderer:      r,
		notifier:      n,
		log:           slog.Default(),
		attempts:      defaultAttempts,
		backoffBase:   defaultBackoffBase,
		notifyTimeout: defaultNotifyTimeout,
		loc:           time.Local,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithAttempts sets how many times each fetch is tried per cycle.
func WithAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithBackoffBase sets the delay before the second attempt; later delays
// double.
func WithBackoffBase(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.backoffBase = d
	}
}

// WithNotifyTimeout bounds each notification dispatch.
func WithNotifyTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.notifyTimeout = d
	}
}

// WithLocation sets the timezone used for message timestamps.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// RunCycle performs one poll cycle for target. Fetch failures produce an
// error notification and are returned wrapped in ErrFetch; save failures
// are returned wrapped in ErrPersistence. Neither is fatal to the caller's
// schedule.
func (eng *Engine) RunCycle(ctx context.Context, target config.Target) (Result, error) {
	cycleID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "cycle", trace.WithAttributes(
		attribute.String("target", target.ID),
		attribute.String("cycle_id", cycleID),
	))
	defer span.End()

	start := time.Now()
	log := eng.log.With("target", target.ID, "cycle_id", cycleID)
	res := Result{TargetID: target.ID, Continue: true}

	defer func() {
		metrics.CycleDuration.WithLabelValues(target.ID).Observe(time.Since(start).Seconds())
		metrics.CyclesTotal.WithLabelValues(target.ID, res.Outcome).Inc()
		otelCycles.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target", target.ID),
			attribute.String("outcome", res.Outcome),
		))
		span.SetAttributes(
			attribute.String("outcome", res.Outcome),
			attribute.String("phase", string(res.Phase)),
		)
	}()

	prev := eng.loadState(ctx, target.ID, log)
	res.Phase = prev.Phase
	page := notify.PageOf(target)

	g := gateOpen
	if target.Phased() {
		light, err := eng.fetchWithRetry(ctx, log, kindLight, target.URL, eng.light.FetchLight)
		if err != nil {
			return eng.fetchFailed(ctx, log, page, &res, err)
		}

		g = evaluateGate(prev, target.NotAcceptingMarker, light)
		log.Debug("light page checked", "gate", g.String(), "phase", prev.Phase)

		switch g {
		case gateWaiting:
			res.Outcome = OutcomeUnopened
			log.Info("not accepting reservations yet")
			err := eng.save(ctx, log, &res, waitingState(prev, light, eng.now()))
			return res, err
		case gateMarkerReturned:
			res.Outcome = OutcomeMarkerReturned
			log.Warn("not-accepting marker shown again after opening; keeping opened phase")
			return res, nil
		case gateFirstOpened:
			log.Info("reservations opened")
			res.Phase = domain.PhaseOpened
			res.Notifications = append(res.Notifications,
				eng.Dispatch(ctx, domain.NotifyFirstOpened, notify.FirstOpenedMessage(page, eng.stamp())))
		}
	}

	raw, err := eng.fetchWithRetry(ctx, log, kindRendered, target.URL, eng.renderer.FetchRendered)
	if err != nil {
		if g != gateFirstOpened {
			return eng.fetchFailed(ctx, log, page, &res, err)
		}
		// The announcement went out; the opened phase must stick even
		// though the calendar is unknown.
		if ctx.Err() == nil {
			res.Notifications = append(res.Notifications,
				eng.Dispatch(ctx, domain.NotifyError, notify.ErrorMessage(page, err, eng.stamp())))
		}
		res.Degraded = true
		res.Outcome = OutcomeDegraded
		res.Continue = ctx.Err() == nil
		saveErr := eng.save(ctx, log, &res, degradedState(prev, eng.now()))
		return res, errors.Join(err, saveErr)
	}

	snap := slots.Parse(raw)
	st := advance(prev, snap, eng.now())
	res.Phase = domain.PhaseOpened
	res.Snapshot = snap
	res.Changes = st.changes

	if st.degraded {
		res.Degraded = true
		res.Outcome = OutcomeDegraded
		log.Warn("no slots extracted; keeping previous snapshot", "error", ErrExtractionDegraded)
	} else {
		res.Outcome = OutcomeOpened
		metrics.AvailableSlots.WithLabelValues(target.ID).Set(float64(len(snap.Available())))
		log.Info("calendar checked",
			"slots", snap.Len(),
			"available", len(snap.Available()),
			"changed", snap.Fingerprint != st.previous.Fingerprint,
			"notify", st.notify,
		)
	}

	if st.notify {
		res.Notifications = append(res.Notifications,
			eng.Dispatch(ctx, domain.NotifySlotUpdate,
				notify.SlotUpdateMessage(page, snap, st.changes, !prev.Opened(), eng.stamp())))
	}

	err = eng.save(ctx, log, &res, st.next)
	return res, err
}

// Dispatch sends one notification with its own timeout. Failures are
// logged and counted, never returned.
func (eng *Engine) Dispatch(ctx context.Context, kind domain.NotificationKind, body string) domain.NotificationEvent {
	ctx, span := tracer.Start(ctx, "notify", trace.WithAttributes(attribute.String("kind", string(kind))))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, eng.notifyTimeout)
	defer cancel()

	ev := domain.NotificationEvent{Kind: kind, Body: body}
	defer func() {
		otelNotifications.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(kind)),
			attribute.Bool("delivered", ev.Delivered),
		))
	}()

	if err := eng.notifier.Send(ctx, body); err != nil {
		ev.Err = err
		span.RecordError(err)
		metrics.NotificationFailuresTotal.WithLabelValues(string(kind)).Inc()
		eng.log.Error("notification failed", "kind", kind, "error", err)
		return ev
	}

	ev.Delivered = true
	metrics.NotificationsSentTotal.WithLabelValues(string(kind)).Inc()
	eng.log.Info("notification sent", "kind", kind)
	return ev
}

// State returns the stored state for targetID and its parsed snapshot. A
// target that was never checked yields a fresh unopened state.
func (eng *Engine) State(ctx context.Context, targetID string) (*domain.MonitorState, domain.Snapshot, error) {
	st, err := eng.store.Load(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NewMonitorState(targetID), domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, domain.Snapshot{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return st, slots.Parse(st.Raw), nil
}

// Reset forgets everything known about targetID; its next cycle starts
// unopened.
func (eng *Engine) Reset(ctx context.Context, targetID string) error {
	if err := eng.store.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	metrics.TargetPhase.WithLabelValues(targetID).Set(0)
	metrics.AvailableSlots.WithLabelValues(targetID).Set(0)
	eng.log.Info("state reset", "target", targetID)
	return nil
}

func (eng *Engine) loadState(ctx context.Context, targetID string, log *slog.Logger) *domain.MonitorState {
	st, err := eng.store.Load(ctx, targetID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("no stored state, starting unopened")
		return domain.NewMonitorState(targetID)
	case err != nil:
		metrics.StateLoadFallbacksTotal.WithLabelValues(targetID).Inc()
		log.Warn("loading state failed, starting unopened", "error", err)
		return domain.NewMonitorState(targetID)
	}
	return st
}

// save persists next on a context detached from cancellation, so a
// shutdown never interrupts the write.
func (eng *Engine) save(ctx context.Context, log *slog.Logger, res *Result, next *domain.MonitorState) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := eng.store.Save(ctx, next); err != nil {
		res.Outcome = OutcomeSaveFailed
		log.Error("saving state failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	opened := 0.0
	if next.Opened() {
		opened = 1
	}
	metrics.TargetPhase.WithLabelValues(next.TargetID).Set(opened)
	metrics.LastCycleTimestamp.WithLabelValues(next.TargetID).Set(float64(next.UpdatedAt.Unix()))
	return nil
}

// fetchFailed ends a cycle without touching the stored state.
func (eng *Engine) fetchFailed(
	ctx context.Context,
	log *slog.Logger,
	page notify.Page,
	res *Result,
	err error,
) (Result, error) {
	if ctx.Err() != nil {
		res.Outcome = OutcomeCanceled
		res.Continue = false
		log.Info("cycle canceled")
		return *res, ctx.Err()
	}

	res.Outcome = OutcomeFetchFailed
	log.Error("fetch failed after retries", "error", err)
	res.Notifications = append(res.Notifications,
		eng.Dispatch(ctx, domain.NotifyError, notify.ErrorMessage(page, err, eng.stamp())))
	return *res, err
}

func (eng *Engine) stamp() time.Time {
	return eng.now().In(eng.loc)
}
