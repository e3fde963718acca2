// Package store defines the state persistence abstraction for slot-watcher.
// The engine depends on the Store interface, never on concrete
// implementations. Every Save replaces the whole record atomically so a
// crash never leaves a half-written state behind.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/slot-watcher/internal/config"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// ErrNotFound is returned by Load when no state exists for a target.
var ErrNotFound = errors.New("state not found")

// Store persists one MonitorState per target.
type Store interface {
	// Load returns the stored state or ErrNotFound.
	Load(ctx context.Context, targetID string) (*domain.MonitorState, error)
	// Save atomically replaces the stored state for state.TargetID.
	Save(ctx context.Context, state *domain.MonitorState) error
	// Delete removes a target's state. Deleting a missing state is not an error.
	Delete(ctx context.Context, targetID string) error
	// List returns every stored state ordered by target ID.
	List(ctx context.Context) ([]domain.MonitorState, error)
	Ping(ctx context.Context) error
	Close() error
}

// New opens the backend selected by cfg.Backend. Postgres stores are
// migrated before they are returned.
func New(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreFile:
		return NewFileStore(cfg.File.Dir)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StorePostgres:
		s, err := NewPostgresStore(ctx, cfg.Database.DSN(), WithPoolSize(cfg.Database.PoolSize))
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		return s, nil
	case config.StoreRedis:
		return NewRedisStore(ctx, &cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func validateState(state *domain.MonitorState) error {
	if state == nil {
		return errors.New("nil state")
	}
	if state.TargetID == "" {
		return errors.New("state has no target id")
	}
	if state.Phase != domain.PhaseUnopened && state.Phase != domain.PhaseOpened {
		return fmt.Errorf("invalid phase %q", state.Phase)
	}
	return nil
}
