// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Notification backends.
const (
	BackendLINE    = "line"
	BackendDiscord = "discord"
	BackendWebhook = "webhook"
	BackendNoOp    = "noop"
)

// Store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// DefaultMarker is the phrase reservation pages show before booking opens.
const DefaultMarker = "予約を受け付けておりません"

var targetIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Targets       []Target            `yaml:"targets"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Fetch         FetchConfig         `yaml:"fetch"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Store         StoreConfig         `yaml:"store"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Target is one monitored reservation page.
type Target struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// NotAcceptingMarker is the phrase shown while booking is closed. An
	// empty marker makes the target a plain calendar watcher that starts
	// in the opened phase.
	NotAcceptingMarker string   `yaml:"not_accepting_marker"`
	Notes              []string `yaml:"notes"` // extra lines for the first-opened announcement
	Disabled           bool     `yaml:"disabled"`
}

// Phased reports whether the target goes through the unopened phase.
func (t Target) Phased() bool {
	return t.NotAcceptingMarker != ""
}

// DisplayName returns the name used in notifications.
func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// ScheduleConfig defines the polling cadence.
type ScheduleConfig struct {
	Interval  time.Duration `yaml:"interval"`
	RunBudget time.Duration `yaml:"run_budget"` // 0 = run until stopped
	Timezone  string        `yaml:"timezone"`
}

// Location returns the configured timezone.
func (s *ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// FetchConfig defines page retrieval settings.
type FetchConfig struct {
	UserAgent          string        `yaml:"user_agent"`
	LightTimeout       time.Duration `yaml:"light_timeout"`
	RenderTimeout      time.Duration `yaml:"render_timeout"`
	NetworkIdleTimeout time.Duration `yaml:"network_idle_timeout"`
	JSWait             time.Duration `yaml:"js_wait"`
	Attempts           int           `yaml:"attempts"`
	BackoffBase        time.Duration `yaml:"backoff_base"`
	RequestsPerMinute  float64       `yaml:"requests_per_minute"`
	CalendarSelectors  []string      `yaml:"calendar_selectors"`
	ExecPath           string        `yaml:"exec_path"` // Chrome binary; empty uses chromedp's lookup
}

// NotificationsConfig defines the single broadcast channel.
type NotificationsConfig struct {
	Backend string        `yaml:"backend"` // line, discord, webhook, noop
	Timeout time.Duration `yaml:"timeout"`
	LINE    LINEConfig    `yaml:"line"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// LINEConfig defines LINE Messaging API broadcast settings.
type LINEConfig struct {
	Token    string `yaml:"token"`
	Endpoint string `yaml:"endpoint"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// StoreConfig selects and configures the state backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // file, postgres, redis, memory
	File     FileConfig     `yaml:"file"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

// FileConfig defines the JSON file store location.
type FileConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// TracingConfig defines the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LoadDotEnv loads KEY=VALUE files into the process environment. Missing
// files are skipped; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// EnabledTargets returns the targets that are not disabled.
func (c *Config) EnabledTargets() []Target {
	out := make([]Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		if !t.Disabled {
			out = append(out, t)
		}
	}
	return out
}

// Target looks up a configured target by ID.
func (c *Config) Target(id string) (Target, bool) {
	for _, t := range c.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyScheduleDefaults(&cfg.Schedule)
	applyFetchDefaults(&cfg.Fetch)
	applyNotificationDefaults(&cfg.Notifications)
	applyStoreDefaults(&cfg.Store)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		// A manual check can hold the request for a full cycle.
		s.WriteTimeout = 5 * time.Minute
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.Interval == 0 {
		s.Interval = 2 * time.Minute
	}
	if s.Timezone == "" {
		s.Timezone = "Asia/Tokyo"
	}
}

func applyFetchDefaults(f *FetchConfig) {
	if f.UserAgent == "" {
		f.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	if f.LightTimeout == 0 {
		f.LightTimeout = 15 * time.Second
	}
	if f.RenderTimeout == 0 {
		f.RenderTimeout = 30 * time.Second
	}
	if f.NetworkIdleTimeout == 0 {
		f.NetworkIdleTimeout = 15 * time.Second
	}
	if f.JSWait == 0 {
		f.JSWait = 5 * time.Second
	}
	if f.Attempts == 0 {
		f.Attempts = 3
	}
	if f.BackoffBase == 0 {
		f.BackoffBase = 5 * time.Second
	}
	if f.RequestsPerMinute == 0 {
		f.RequestsPerMinute = 30
	}
	if len(f.CalendarSelectors) == 0 {
		f.CalendarSelectors = []string{
			".ui-datepicker",
			"table[aria-label*='予約']",
			"div[class*='calendar'] table",
			"main table",
		}
	}
}

func applyNotificationDefaults(n *NotificationsConfig) {
	if n.Backend == "" {
		n.Backend = BackendLINE
	}
	if n.Timeout == 0 {
		n.Timeout = 15 * time.Second
	}
	if n.LINE.Endpoint == "" {
		n.LINE.Endpoint = "https://api.line.me/v2/bot/message/broadcast"
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = StoreFile
	}
	if s.File.Dir == "" {
		s.File.Dir = "./data"
	}
	if s.Database.Port == 0 {
		s.Database.Port = 5432
	}
	if s.Database.SSLMode == "" {
		s.Database.SSLMode = "disable"
	}
	if s.Database.PoolSize == 0 {
		s.Database.PoolSize = 4
	}
	if s.Redis.KeyPrefix == "" {
		s.Redis.KeyPrefix = "slotwatch:state:"
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "slot-watcher"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateTargets(cfg.Targets)...)

	if cfg.Schedule.Interval < 0 {
		errs = append(errs, fmt.Errorf("schedule.interval must be positive"))
	}
	if cfg.Schedule.RunBudget < 0 {
		errs = append(errs, fmt.Errorf("schedule.run_budget must not be negative"))
	}
	if _, err := cfg.Schedule.Location(); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
	}

	if cfg.Fetch.Attempts < 1 {
		errs = append(errs, fmt.Errorf("fetch.attempts must be at least 1"))
	}

	switch cfg.Notifications.Backend {
	case BackendLINE:
		if cfg.Notifications.LINE.Token == "" {
			errs = append(errs,
				fmt.Errorf("notifications.line.token is required when backend is line"))
		}
	case BackendDiscord:
		if cfg.Notifications.Discord.WebhookURL == "" {
			errs = append(errs,
				fmt.Errorf("notifications.discord.webhook_url is required when backend is discord"))
		}
	case BackendWebhook:
		if cfg.Notifications.Webhook.URL == "" {
			errs = append(errs,
				fmt.Errorf("notifications.webhook.url is required when backend is webhook"))
		}
	case BackendNoOp:
	default:
		errs = append(errs, fmt.Errorf(
			"notifications.backend must be one of: line, discord, webhook, noop (got %q)",
			cfg.Notifications.Backend,
		))
	}

	switch cfg.Store.Backend {
	case StoreFile, StoreMemory:
	case StorePostgres:
		db := cfg.Store.Database
		if db.Host == "" {
			errs = append(errs, fmt.Errorf("store.database.host is required"))
		}
		if db.Name == "" {
			errs = append(errs, fmt.Errorf("store.database.name is required"))
		}
		if db.User == "" {
			errs = append(errs, fmt.Errorf("store.database.user is required"))
		}
	case StoreRedis:
		if cfg.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store.redis.addr is required when backend is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"store.backend must be one of: file, postgres, redis, memory (got %q)",
			cfg.Store.Backend,
		))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, fmt.Errorf("tracing.endpoint is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}

func validateTargets(targets []Target) []error {
	if len(targets) == 0 {
		return []error{fmt.Errorf("at least one target is required")}
	}

	var errs []error
	seen := make(map[string]bool, len(targets))
	for i, t := range targets {
		switch {
		case t.ID == "":
			errs = append(errs, fmt.Errorf("targets[%d].id is required", i))
		case !targetIDPattern.MatchString(t.ID):
			errs = append(errs, fmt.Errorf(
				"targets[%d].id %q must be lowercase letters, digits, '-' or '_'", i, t.ID))
		case seen[t.ID]:
			errs = append(errs, fmt.Errorf("targets[%d].id %q is duplicated", i, t.ID))
		}
		seen[t.ID] = true

		u, err := url.Parse(t.URL)
		if t.URL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("targets[%d].url must be an absolute http(s) URL", i))
		}
	}
	return errs
}
