package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

const defaultPoolSize = 4

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
// Save is a single upsert statement, so each record is replaced atomically.
type PostgresStore struct {
	pool *pgxpool.Pool
}

type postgresOptions struct {
	poolSize int32
}

// PostgresOption configures NewPostgresStore.
type PostgresOption func(*postgresOptions)

// WithPoolSize sets the maximum number of pooled connections.
func WithPoolSize(n int) PostgresOption {
	return func(o *postgresOptions) {
		if n > 0 {
			o.poolSize = int32(n) //nolint:gosec // pool sizes are small config values
		}
	}
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string, opts ...PostgresOption) (*PostgresStore, error) {
	o := postgresOptions{poolSize: defaultPoolSize}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = o.poolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Load retrieves the state row for targetID.
func (s *PostgresStore) Load(ctx context.Context, targetID string) (*domain.MonitorState, error) {
	st, err := scanState(s.pool.QueryRow(ctx, queryGetState, targetID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading state for %s: %w", targetID, err)
	}
	return st, nil
}

// Save upserts the state row.
func (s *PostgresStore) Save(ctx context.Context, state *domain.MonitorState) error {
	if err := validateState(state); err != nil {
		return err
	}

	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	args := pgx.NamedArgs{
		"target_id":         state.TargetID,
		"phase":             string(state.Phase),
		"fingerprint":       state.Fingerprint,
		"raw_snapshot_text": state.Raw,
		"updated_at":        updated,
	}
	if _, err := s.pool.Exec(ctx, queryUpsertState, args); err != nil {
		return fmt.Errorf("saving state for %s: %w", state.TargetID, err)
	}
	return nil
}

// Delete removes the state row for targetID.
func (s *PostgresStore) Delete(ctx context.Context, targetID string) error {
	if _, err := s.pool.Exec(ctx, queryDeleteState, targetID); err != nil {
		return fmt.Errorf("deleting state for %s: %w", targetID, err)
	}
	return nil
}

// List returns all state rows ordered by target ID.
func (s *PostgresStore) List(ctx context.Context) ([]domain.MonitorState, error) {
	rows, err := s.pool.Query(ctx, queryListStates)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	defer rows.Close()

	var out []domain.MonitorState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning state: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func scanState(row pgx.Row) (*domain.MonitorState, error) {
	st := &domain.MonitorState{}
	var phase string
	if err := row.Scan(&st.TargetID, &phase, &st.Fingerprint, &st.Raw, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.Phase = domain.Phase(phase)
	return st, nil
}
