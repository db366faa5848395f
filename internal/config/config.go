package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "plex-letterboxd/1.0"

// DefaultClientIdentifier is sent as X-Plex-Client-Identifier when none is configured.
const DefaultClientIdentifier = "plex-letterboxd-exporter"

type Config struct {
	Plex struct {
		URL               string  `mapstructure:"url"`
		Token             string  `mapstructure:"token"`
		ClientTimeout     string  `mapstructure:"client_timeout"` // Go duration string like "30s"
		AccountID         int     `mapstructure:"account_id"`     // 0 means every account
		LibrarySectionID  string  `mapstructure:"library_section_id"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"` // 0 means unlimited
		ClientIdentifier  string  `mapstructure:"client_identifier"`
	} `mapstructure:"plex"`
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	UserAgent             string `mapstructure:"user_agent"`
	Pipeline              struct {
		Concurrency     int    `mapstructure:"concurrency"`
		MaxAttempts     int    `mapstructure:"max_attempts"`
		RetryBackoff    string `mapstructure:"retry_backoff"`
		RetryMaxBackoff string `mapstructure:"retry_max_backoff"`
	} `mapstructure:"pipeline"`
	Export struct {
		OutputPath string `mapstructure:"output_path"`
		Tags       string `mapstructure:"tags"`
		DateOnly   bool   `mapstructure:"date_only"`
	} `mapstructure:"export"`
	LogLevel string `mapstructure:"log_level"`
	Log      struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"log"`
	Metrics struct {
		Textfile string `mapstructure:"textfile"` // node-exporter textfile written at end of run
	} `mapstructure:"metrics"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
	logFile      io.Closer
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("plex.url", "")
	v.SetDefault("plex.token", "")
	v.SetDefault("plex.client_timeout", "30s")
	v.SetDefault("plex.account_id", 1)
	v.SetDefault("plex.library_section_id", "")
	v.SetDefault("plex.requests_per_second", 0)
	v.SetDefault("plex.client_identifier", DefaultClientIdentifier)
	v.SetDefault("pipeline.concurrency", 8)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.retry_backoff", "500ms")
	v.SetDefault("pipeline.retry_max_backoff", "5s")
	v.SetDefault("export.output_path", "plex_watch_history.csv")
	v.SetDefault("export.tags", models.DefaultTags)
	v.SetDefault("export.date_only", false)
	v.SetDefault("proxy_connection_string", "")
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("log_level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
}

// Load reads configuration into a Config. configFile overrides the search for
// config.yaml in "." and "./config"; a missing default file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bare names kept for existing deployments
	_ = v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("plex.url", "APP_PLEX_URL", "PLEX_URL")
	_ = v.BindEnv("plex.token", "APP_PLEX_TOKEN", "PLEX_TOKEN")
	_ = v.BindEnv("export.output_path", "APP_EXPORT_OUTPUT_PATH", "OUTPUT_CSV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Plex.ClientIdentifier == "" {
		config.Plex.ClientIdentifier = DefaultClientIdentifier
	}
	if config.Export.Tags == "" {
		config.Export.Tags = models.DefaultTags
	}

	return &config, nil
}

// Validate checks the settings an export or sections run cannot do without.
func (c *Config) Validate() error {
	if c.Plex.URL == "" {
		return errors.New("plex url is required (plex.url or PLEX_URL)")
	}
	if c.Plex.Token == "" {
		return errors.New("plex token is required (plex.token or PLEX_TOKEN)")
	}
	for key, value := range map[string]string{
		"plex.client_timeout":        c.Plex.ClientTimeout,
		"pipeline.retry_backoff":     c.Pipeline.RetryBackoff,
		"pipeline.retry_max_backoff": c.Pipeline.RetryMaxBackoff,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}
	if c.Pipeline.Concurrency < 0 {
		return fmt.Errorf("pipeline.concurrency must not be negative, got %d", c.Pipeline.Concurrency)
	}
	return nil
}

// Configure installs cfg as the global configuration and rebuilds the logger
// from its level and optional log file.
func Configure(cfg *Config) {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}
	if cfg.Log.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
		out = zerolog.MultiLevelWriter(out, rotating)
		logFile = rotating
	}
	logger = zerolog.New(out).With().Timestamp().Logger()

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if cfg.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", cfg.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	// Set the global log level
	zerolog.SetGlobalLevel(level)

	// Update logger with the configured level
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = cfg
}

// Close releases the log file opened by Configure, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// ParseDuration parses a config duration, returning fallback for an empty or invalid value.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Str("value", value).Dur("fallback", fallback).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}
