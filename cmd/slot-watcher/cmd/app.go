package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/slot-watcher/internal/config"
	"github.com/donaldgifford/slot-watcher/internal/engine"
	"github.com/donaldgifford/slot-watcher/internal/fetch"
	"github.com/donaldgifford/slot-watcher/internal/notify"
	"github.com/donaldgifford/slot-watcher/internal/store"
	"github.com/donaldgifford/slot-watcher/internal/telemetry"
	"github.com/donaldgifford/slot-watcher/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// app holds everything a command needs to run cycles.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	loc      *time.Location
	store    store.Store
	renderer *fetch.Renderer
	engine   *engine.Engine

	shutdownTelemetry telemetry.ShutdownFunc
}

type appOptions struct {
	// dryRun keeps state in memory and logs notifications instead of
	// sending them.
	dryRun bool
	// memoryStore keeps state in memory but still sends notifications.
	memoryStore bool
}

// loadConfig reads the dotenv files and the YAML config.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	log := logger.WithLocation(logger.New(cfg.Logging.Level, cfg.Logging.Format), loc)
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log, loc: loc}

	a.shutdownTelemetry, err = telemetry.Setup(ctx, &cfg.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	if opts.dryRun || opts.memoryStore {
		a.store = store.NewMemoryStore()
	} else {
		a.store, err = store.New(ctx, &cfg.Store)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
		}
	}

	var n notify.Notifier
	if opts.dryRun {
		n = notify.NewNoOpNotifier(log)
	} else {
		n = notify.New(&cfg.Notifications, log)
	}

	limiter := fetch.NewRateLimiter(cfg.Fetch.RequestsPerMinute)
	light := fetch.NewLightFetcher(&cfg.Fetch, fetch.WithLimiter(limiter))
	a.renderer, err = fetch.NewRenderer(&cfg.Fetch,
		fetch.WithRendererLimiter(limiter),
		fetch.WithRendererLogger(log),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	a.engine = engine.NewEngine(a.store, light, a.renderer, n,
		engine.WithLogger(log),
		engine.WithAttempts(cfg.Fetch.Attempts),
		engine.WithBackoffBase(cfg.Fetch.BackoffBase),
		engine.WithNotifyTimeout(cfg.Notifications.Timeout),
		engine.WithLocation(loc),
	)

	log.Info("slot-watcher initialized",
		"version", Version,
		"targets", len(cfg.EnabledTargets()),
		"store", storeName(cfg, opts),
		"notifications", notifierName(cfg, opts),
	)
	return a, nil
}

// targets returns the enabled targets, or only the one named by id.
func (a *app) targets(id string) ([]config.Target, error) {
	if id == "" {
		targets := a.cfg.EnabledTargets()
		if len(targets) == 0 {
			return nil, errors.New("every target is disabled")
		}
		return targets, nil
	}
	t, ok := a.cfg.Target(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownTarget, id)
	}
	return []config.Target{t}, nil
}

// close releases the browser, the store, and flushes telemetry.
func (a *app) close() {
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing store", "error", err)
		}
	}
	if a.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.shutdownTelemetry(ctx); err != nil {
			a.log.Warn("flushing telemetry", "error", err)
		}
	}
}

func storeName(cfg *config.Config, opts appOptions) string {
	if opts.dryRun || opts.memoryStore {
		return config.StoreMemory
	}
	return cfg.Store.Backend
}

func notifierName(cfg *config.Config, opts appOptions) string {
	if opts.dryRun {
		return config.BackendNoOp
	}
	return cfg.Notifications.Backend
}
