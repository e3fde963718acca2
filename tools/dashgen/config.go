package main

import "errors"

// KnownMetrics is the set of metric names exported by slot-watcher plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"slotwatch_http_request_duration_seconds": true,
	"slotwatch_http_requests_total":           true,
	"slotwatch_http_panics_total":             true,

	// Health metrics.
	"slotwatch_healthz_up": true,
	"slotwatch_readyz_up":  true,

	// Cycle metrics.
	"slotwatch_cycle_duration_seconds":     true,
	"slotwatch_cycles_total":               true,
	"slotwatch_state_load_fallbacks_total": true,
	"slotwatch_target_opened":              true,
	"slotwatch_available_slots":            true,
	"slotwatch_last_cycle_timestamp":       true,

	// Fetch metrics.
	"slotwatch_fetch_attempts_total":   true,
	"slotwatch_fetch_failures_total":   true,
	"slotwatch_fetch_duration_seconds": true,

	// Notification metrics.
	"slotwatch_notifications_sent_total":      true,
	"slotwatch_notification_failures_total":   true,
	"slotwatch_notification_duration_seconds": true,

	// Recording rules.
	"slotwatch:http_requests:rate5m":  true,
	"slotwatch:http_errors:rate5m":    true,
	"slotwatch:fetch_attempts:rate5m": true,
	"slotwatch:fetch_failures:rate5m": true,
	"slotwatch:cycles_failed:rate15m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
