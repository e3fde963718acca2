package store

// SQL query constants. PostgresStore methods reference these; no SQL is
// built at runtime.

// Migration bookkeeping.
const (
	queryCreateSchemaMigrations = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	queryMigrationApplied = `
		SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`

	queryRecordMigration = `
		INSERT INTO schema_migrations (version) VALUES ($1)`
)

// Monitor state queries.
const (
	queryUpsertState = `
		INSERT INTO monitor_state (
			target_id, phase, fingerprint, raw_snapshot_text, updated_at
		) VALUES (
			@target_id, @phase, @fingerprint, @raw_snapshot_text, @updated_at
		)
		ON CONFLICT (target_id) DO UPDATE SET
			phase = EXCLUDED.phase,
			fingerprint = EXCLUDED.fingerprint,
			raw_snapshot_text = EXCLUDED.raw_snapshot_text,
			updated_at = EXCLUDED.updated_at`

	queryGetState = `
		SELECT target_id, phase, fingerprint, raw_snapshot_text, updated_at
		FROM monitor_state
		WHERE target_id = $1`

	queryListStates = `
		SELECT target_id, phase, fingerprint, raw_snapshot_text, updated_at
		FROM monitor_state
		ORDER BY target_id`

	queryDeleteState = `
		DELETE FROM monitor_state WHERE target_id = $1`
)
