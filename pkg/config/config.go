package config

import "time"

// Config is the root configuration for tpgen.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// Rules selects where the compatibility rule set comes from.
	Rules RulesConfig `yaml:"rules"`

	// Check tunes the document check pipeline.
	Check CheckConfig `yaml:"check"`

	// Catalog selects the machine and test case catalog backend.
	Catalog CatalogConfig `yaml:"catalog"`

	// History configures the check history store.
	History HistoryConfig `yaml:"history"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the server binds to, e.g. "127.0.0.1:8080".
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimit throttles API requests per client address.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a token bucket per client. A zero RequestsPerSecond
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the bucket capacity. Zero means the per-second rate,
	// rounded up.
	Burst int `yaml:"burst"`
}

// RulesConfig selects the rule set. With neither File nor Git.Repository
// set the built-in rules are used.
type RulesConfig struct {
	// File is a YAML rule set on disk.
	File string `yaml:"file"`

	// Watch reloads File when it changes.
	Watch bool `yaml:"watch"`

	// Debounce coalesces bursts of file events.
	Debounce time.Duration `yaml:"debounce"`

	// Git loads the rule set from a repository instead of File.
	Git GitConfig `yaml:"git"`
}

// GitConfig describes a git-hosted rule set.
type GitConfig struct {
	Repository   string        `yaml:"repository"`
	Branch       string        `yaml:"branch"`
	File         string        `yaml:"file"`
	LocalPath    string        `yaml:"local_path"`
	Depth        int           `yaml:"depth"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Auth         GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig holds repository credentials.
type GitAuthConfig struct {
	// Type is one of "none", "token" or "ssh".
	Type          string `yaml:"type"`
	Token         string `yaml:"token"`
	SSHKeyPath    string `yaml:"ssh_key_path"`
	SSHPassphrase string `yaml:"ssh_passphrase"`
}

// CheckConfig tunes the check pipeline.
type CheckConfig struct {
	// UseDecoder parses documents with the full YAML decoder. When false
	// the shallow line parser feeds the rule engine.
	UseDecoder bool `yaml:"use_decoder"`

	// MaxDocumentBytes rejects larger documents before any parsing.
	MaxDocumentBytes int `yaml:"max_document_bytes"`

	// Strict treats syntax warnings as blocking.
	Strict bool `yaml:"strict"`
}

// CatalogConfig selects the catalog backend.
type CatalogConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// Seed is a fixture YAML file. Empty means the built-in fixture.
	Seed string `yaml:"seed"`
}

// HistoryConfig configures recording of check outcomes.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// SQLitePath is the history database. Empty keeps history in memory.
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long records are kept. Zero keeps them forever.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for the retention pruner.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Endpoint    string        `yaml:"endpoint"`
	SampleRatio float64       `yaml:"sample_ratio"`
	ServiceName string        `yaml:"service_name"`
	Insecure    bool          `yaml:"insecure"`
	Timeout     time.Duration `yaml:"timeout"`
}
