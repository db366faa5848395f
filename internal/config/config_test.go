// Tests for config.go: defaults, environment overrides, config files and validation.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Plex.AccountID != 1 {
		t.Errorf("AccountID = %d, want 1", cfg.Plex.AccountID)
	}
	if cfg.Plex.ClientTimeout != "30s" {
		t.Errorf("ClientTimeout = %q, want 30s", cfg.Plex.ClientTimeout)
	}
	if cfg.Pipeline.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Pipeline.Concurrency)
	}
	if cfg.Pipeline.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Export.OutputPath != "plex_watch_history.csv" {
		t.Errorf("OutputPath = %q", cfg.Export.OutputPath)
	}
	if cfg.Export.Tags != "Imported from Plex" {
		t.Errorf("Tags = %q", cfg.Export.Tags)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want default", cfg.UserAgent)
	}
}

func TestLoad_BareEnvironmentNames(t *testing.T) {
	t.Setenv("PLEX_URL", "http://plex.local:32400")
	t.Setenv("PLEX_TOKEN", "secret")
	t.Setenv("OUTPUT_CSV", "/tmp/out.csv")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Plex.URL != "http://plex.local:32400" {
		t.Errorf("Plex.URL = %q", cfg.Plex.URL)
	}
	if cfg.Plex.Token != "secret" {
		t.Errorf("Plex.Token = %q", cfg.Plex.Token)
	}
	if cfg.Export.OutputPath != "/tmp/out.csv" {
		t.Errorf("OutputPath = %q", cfg.Export.OutputPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Setenv("APP_PIPELINE_CONCURRENCY", "3")
	t.Setenv("APP_PLEX_ACCOUNT_ID", "0")
	t.Setenv("APP_EXPORT_DATE_ONLY", "true")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Pipeline.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Pipeline.Concurrency)
	}
	if cfg.Plex.AccountID != 0 {
		t.Errorf("AccountID = %d, want 0", cfg.Plex.AccountID)
	}
	if !cfg.Export.DateOnly {
		t.Error("DateOnly = false, want true")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plex.yaml")
	content := strings.Join([]string{
		"plex:",
		"  url: http://10.0.0.2:32400",
		"  token: abc",
		"  library_section_id: \"4\"",
		"export:",
		"  tags: plex-import",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Plex.URL != "http://10.0.0.2:32400" || cfg.Plex.Token != "abc" {
		t.Errorf("Plex = %+v", cfg.Plex)
	}
	if cfg.Plex.LibrarySectionID != "4" {
		t.Errorf("LibrarySectionID = %q, want 4", cfg.Plex.LibrarySectionID)
	}
	if cfg.Export.Tags != "plex-import" {
		t.Errorf("Tags = %q", cfg.Export.Tags)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing explicit config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Plex.URL = "http://plex"
		cfg.Plex.Token = "t"
		cfg.Plex.ClientTimeout = "30s"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing url", func(c *Config) { c.Plex.URL = "" }, "plex url is required"},
		{"missing token", func(c *Config) { c.Plex.Token = "" }, "plex token is required"},
		{"bad timeout", func(c *Config) { c.Plex.ClientTimeout = "soon" }, "plex.client_timeout"},
		{"negative concurrency", func(c *Config) { c.Pipeline.Concurrency = -1 }, "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		_ = Close()
	})

	cfg := &Config{LogLevel: "warn"}
	cfg.Log.File = filepath.Join(t.TempDir(), "run.log")
	Configure(cfg)

	if GetConfig() != cfg {
		t.Error("GetConfig() did not return the configured value")
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("global level = %v, want warn", zerolog.GlobalLevel())
	}

	log := GetLogger()
	log.Warn().Msg("written to file")
	if _, err := os.Stat(cfg.Log.File); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("", time.Second); got != time.Second {
		t.Errorf("ParseDuration(\"\") = %v", got)
	}
	if got := ParseDuration("bogus", time.Second); got != time.Second {
		t.Errorf("ParseDuration(bogus) = %v", got)
	}
	if got := ParseDuration("250ms", time.Second); got != 250*time.Millisecond {
		t.Errorf("ParseDuration(250ms) = %v", got)
	}
}

func TestGetUserAgent(t *testing.T) {
	prev := globalConfig
	t.Cleanup(func() { globalConfig = prev })

	globalConfig = nil
	if GetUserAgent() != DefaultUserAgent {
		t.Errorf("GetUserAgent() without config = %q", GetUserAgent())
	}
	globalConfig = &Config{UserAgent: "custom/2"}
	if GetUserAgent() != "custom/2" {
		t.Errorf("GetUserAgent() = %q", GetUserAgent())
	}
}
