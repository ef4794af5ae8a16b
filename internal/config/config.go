// Package config loads service configuration from defaults, an optional
// config file and RECALL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/recall/internal/attempt"
)

// EnvPrefix prefixes every environment override, e.g. RECALL_SERVER_PORT.
const EnvPrefix = "RECALL"

// Config holds all configuration for the service.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
}

// DatabaseConfig selects the store. An empty DSN means the default
// SQLite file.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	SnapshotKeep int    `mapstructure:"snapshot_keep"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name"`
}

// JobsConfig holds background job configuration.
type JobsConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

// ThresholdsConfig holds the tunable analytics heuristics.
type ThresholdsConfig struct {
	FastSeconds    float64 `mapstructure:"fast_seconds"`
	SlowSeconds    float64 `mapstructure:"slow_seconds"`
	EasyDifficulty float64 `mapstructure:"easy_difficulty"`
	HardDifficulty float64 `mapstructure:"hard_difficulty"`
	RecencyDecay   float64 `mapstructure:"recency_decay"`
}

// Attempt converts the thresholds for the analytics packages.
func (t ThresholdsConfig) Attempt() attempt.Thresholds {
	return attempt.Thresholds{
		FastSeconds:    t.FastSeconds,
		SlowSeconds:    t.SlowSeconds,
		EasyDifficulty: t.EasyDifficulty,
		HardDifficulty: t.HardDifficulty,
		RecencyDecay:   t.RecencyDecay,
	}.WithDefaults()
}

// Load reads configuration. When path is empty, recall.yaml is looked up
// in the working directory and ./config; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("recall")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Jobs.Enabled && c.Jobs.SnapshotInterval <= 0 {
		return fmt.Errorf("config: jobs.snapshot_interval must be positive")
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("config: tracing.sample_ratio %v not in [0,1]", r)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.snapshot_keep", 0)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_ratio", 0.1)
	v.SetDefault("tracing.service_name", "recall")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.snapshot_interval", "1h")

	th := attempt.DefaultThresholds()
	v.SetDefault("thresholds.fast_seconds", th.FastSeconds)
	v.SetDefault("thresholds.slow_seconds", th.SlowSeconds)
	v.SetDefault("thresholds.easy_difficulty", th.EasyDifficulty)
	v.SetDefault("thresholds.hard_difficulty", th.HardDifficulty)
	v.SetDefault("thresholds.recency_decay", th.RecencyDecay)
}
