package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tpgen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "5s"
rules:
  file: ./rules.yaml
  watch: true
check:
  use_decoder: false
  max_document_bytes: 4096
catalog:
  backend: sqlite
history:
  enabled: true
  retention_days: 7
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("write timeout = %v, want default", cfg.Server.WriteTimeout)
	}
	if !cfg.Rules.Watch || cfg.Rules.Debounce != DefaultRulesDebounce {
		t.Errorf("rules = %+v", cfg.Rules)
	}
	if cfg.Check.UseDecoder {
		t.Error("use_decoder: false was overridden by the default")
	}
	if cfg.Check.MaxDocumentBytes != 4096 {
		t.Errorf("max document bytes = %d", cfg.Check.MaxDocumentBytes)
	}
	if cfg.Catalog.SQLitePath != DefaultCatalogSQLitePath {
		t.Errorf("catalog sqlite path = %q", cfg.Catalog.SQLitePath)
	}
	if cfg.History.RetentionDays != 7 || cfg.History.PruneSchedule != DefaultHistoryPruneSchedule {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml")} {
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig(%q) error = %v", path, err)
		}
		if cfg.Server.ListenAddress != DefaultListenAddress {
			t.Errorf("listen address = %q", cfg.Server.ListenAddress)
		}
		if !cfg.Check.UseDecoder || !cfg.Telemetry.Metrics.Enabled {
			t.Errorf("boolean defaults not applied: %+v", cfg.Check)
		}
		if cfg.History.RetentionDays != DefaultHistoryRetentionDays {
			t.Errorf("retention days = %d", cfg.History.RetentionDays)
		}
		if cfg.Rules.Git.Auth.Type != "none" {
			t.Errorf("git auth type = %q", cfg.Rules.Git.Auth.Type)
		}
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("LoadConfig() error = %v, want parse error", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
catalog:
  backend: postgres
telemetry:
  logging:
    level: loud
`)
	_, err := LoadConfig(path)
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("LoadConfig() error = %v, want ValidationError", err)
	}
	fields := map[string]bool{}
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"catalog.backend", "telemetry.logging.level"} {
		if !fields[want] {
			t.Errorf("missing field error for %s in %v", want, ve.Errors)
		}
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)
	t.Setenv("TPGEN_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("TPGEN_SERVER_READ_TIMEOUT", "2s")
	t.Setenv("TPGEN_SERVER_RATE_LIMIT_REQUESTS_PER_SECOND", "5")
	t.Setenv("TPGEN_CHECK_USE_DECODER", "false")
	t.Setenv("TPGEN_CHECK_MAX_DOCUMENT_BYTES", "not-a-number")
	t.Setenv("TPGEN_HISTORY_ENABLED", "true")
	t.Setenv("TPGEN_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 2*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 5 {
		t.Errorf("rate limit = %v", cfg.Server.RateLimit.RequestsPerSecond)
	}
	if cfg.Check.UseDecoder {
		t.Error("use_decoder not overridden")
	}
	if cfg.Check.MaxDocumentBytes != DefaultMaxDocumentBytes {
		t.Errorf("unparsable override applied: %d", cfg.Check.MaxDocumentBytes)
	}
	if !cfg.History.Enabled {
		t.Error("history not enabled by override")
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("sample ratio = %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_Revalidates(t *testing.T) {
	t.Setenv("TPGEN_TELEMETRY_LOGGING_FORMAT", "xml")
	_, err := LoadConfigWithEnvOverrides("")
	if err == nil || !strings.Contains(err.Error(), "after environment overrides") {
		t.Fatalf("error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "nope" }, "server.listen_address"},
		{"negative timeout", func(c *Config) { c.Server.IdleTimeout = -time.Second }, "server.idle_timeout"},
		{"negative rate", func(c *Config) { c.Server.RateLimit.RequestsPerSecond = -1 }, "server.rate_limit.requests_per_second"},
		{"file and git", func(c *Config) {
			c.Rules.File = "rules.yaml"
			c.Rules.Git.Repository = "https://example.com/rules.git"
		}, "rules"},
		{"watch without file", func(c *Config) { c.Rules.Watch = true }, "rules.watch"},
		{"token auth without token", func(c *Config) {
			c.Rules.Git.Repository = "https://example.com/rules.git"
			c.Rules.Git.Auth.Type = "token"
		}, "rules.git.auth.token"},
		{"unknown auth", func(c *Config) {
			c.Rules.Git.Repository = "https://example.com/rules.git"
			c.Rules.Git.Auth.Type = "kerberos"
		}, "rules.git.auth.type"},
		{"negative size cap", func(c *Config) { c.Check.MaxDocumentBytes = -1 }, "check.max_document_bytes"},
		{"sqlite without path", func(c *Config) { c.Catalog.Backend = "sqlite" }, "catalog.sqlite_path"},
		{"bad cron", func(c *Config) {
			c.History.Enabled = true
			c.History.PruneSchedule = "every day"
		}, "history.prune_schedule"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			for _, fe := range ve.Errors {
				if fe.Field == tt.field {
					return
				}
			}
			t.Errorf("no error for %s in %v", tt.field, ve.Errors)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := one.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("Error() = %q", got)
	}
	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := two.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
