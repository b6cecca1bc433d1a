package config

import "time"

// Default configuration values.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultRulesDebounce    = 100 * time.Millisecond
	DefaultGitBranch        = "main"
	DefaultGitFile          = "rules.yaml"
	DefaultGitLocalPath     = "./data/rules-repo"
	DefaultGitTimeout       = 30 * time.Second
	DefaultGitPollInterval  = 5 * time.Minute
	DefaultGitAuthType      = "none"
	DefaultUseDecoder       = true
	DefaultMaxDocumentBytes = 1 << 20

	DefaultCatalogBackend    = "memory"
	DefaultCatalogSQLitePath = "./data/catalog.db"

	DefaultHistoryEnabled       = false
	DefaultHistoryRetentionDays = 90
	DefaultHistoryPruneSchedule = "0 3 * * *"

	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "tpgen"
	DefaultTracingEnabled   = false
	DefaultSampleRatio      = 1.0
	DefaultServiceName      = "tpgen"
	DefaultTracingTimeout   = 10 * time.Second
)

// NewDefault returns a configuration with every default applied. Loading
// decodes the file over it so booleans keep their defaults when absent.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Check.UseDecoder = DefaultUseDecoder
	cfg.History.Enabled = DefaultHistoryEnabled
	cfg.History.RetentionDays = DefaultHistoryRetentionDays
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.SampleRatio = DefaultSampleRatio
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Rules.Debounce == 0 {
		cfg.Rules.Debounce = DefaultRulesDebounce
	}
	git := &cfg.Rules.Git
	if git.Branch == "" {
		git.Branch = DefaultGitBranch
	}
	if git.File == "" {
		git.File = DefaultGitFile
	}
	if git.LocalPath == "" {
		git.LocalPath = DefaultGitLocalPath
	}
	if git.Timeout == 0 {
		git.Timeout = DefaultGitTimeout
	}
	if git.PollInterval == 0 {
		git.PollInterval = DefaultGitPollInterval
	}
	if git.Auth.Type == "" {
		git.Auth.Type = DefaultGitAuthType
	}

	if cfg.Check.MaxDocumentBytes == 0 {
		cfg.Check.MaxDocumentBytes = DefaultMaxDocumentBytes
	}

	if cfg.Catalog.Backend == "" {
		cfg.Catalog.Backend = DefaultCatalogBackend
	}
	if cfg.Catalog.Backend == "sqlite" && cfg.Catalog.SQLitePath == "" {
		cfg.Catalog.SQLitePath = DefaultCatalogSQLitePath
	}

	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}

	tel := &cfg.Telemetry
	if tel.Logging.Level == "" {
		tel.Logging.Level = DefaultLogLevel
	}
	if tel.Logging.Format == "" {
		tel.Logging.Format = DefaultLogFormat
	}
	if tel.Metrics.Path == "" {
		tel.Metrics.Path = DefaultMetricsPath
	}
	if tel.Metrics.Namespace == "" {
		tel.Metrics.Namespace = DefaultMetricsNamespace
	}
	if tel.Tracing.ServiceName == "" {
		tel.Tracing.ServiceName = DefaultServiceName
	}
	if tel.Tracing.Timeout == 0 {
		tel.Tracing.Timeout = DefaultTracingTimeout
	}
}
