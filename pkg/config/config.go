// Package config loads the ariad configuration from an optional YAML file
// and the environment.
//
// Sources in order of precedence:
//  1. Environment variables (ARIAD_*, plus the bare aliases DATABASE_URL,
//     WEIGHT_UNIT and LOG_LEVEL that deployments of the original service
//     already use)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/openaria/ariad/internal/protocol/aria"
	"github.com/openaria/ariad/internal/telemetry"
	"github.com/openaria/ariad/pkg/api"
	"github.com/openaria/ariad/pkg/store"
)

// Config represents the ariad configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server configures the HTTP listener that terminates both the scale
	// endpoints and the management API.
	Server api.ServerConfig `mapstructure:"server" yaml:"server"`

	// Database configures the backing store (SQLite or PostgreSQL).
	Database store.Config `mapstructure:"database" yaml:"database"`

	// WeightUnit is pushed to the scale display in every response and
	// used for management API formatting. One of kg, lbs, stones.
	WeightUnit string `mapstructure:"weight_unit" validate:"omitempty,oneof=kg lbs stones" yaml:"weight_unit"`

	// Metrics contains the Prometheus side-listener configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry telemetry.Config `mapstructure:"telemetry" yaml:"telemetry"`

	// Profiling controls Pyroscope continuous profiling.
	Profiling telemetry.ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN/WARNING, ERROR.
	Level string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN WARNING ERROR" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json" yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Unit maps the configured weight unit to its wire byte.
func (c *Config) Unit() aria.Unit {
	switch c.WeightUnit {
	case "lbs":
		return aria.UnitPounds
	case "stones":
		return aria.UnitStones
	default:
		return aria.UnitKilograms
	}
}

// Load reads the configuration. configPath may be empty; the file is
// optional and defaults plus environment cover a bare deployment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setupViper configures environment variable support and the config file
// location.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("ARIAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare aliases kept for drop-in compatibility with existing
	// deployments of the replaced service.
	_ = v.BindEnv("database.url", "ARIAD_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("weight_unit", "ARIAD_WEIGHT_UNIT", "WEIGHT_UNIT")
	_ = v.BindEnv("logging.level", "ARIAD_LOGGING_LEVEL", "LOG_LEVEL")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ariad")
		v.SetConfigName("ariad")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if present. A missing file
// is fine; anything else is an error.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
