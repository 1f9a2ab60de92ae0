package config

import "strings"

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.WeightUnit == "" {
		cfg.WeightUnit = "kg"
	}
	cfg.WeightUnit = strings.ToLower(cfg.WeightUnit)

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9100
	}

	cfg.Server.ApplyDefaults()
	cfg.Database.ApplyDefaults()
}
