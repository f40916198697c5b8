// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Rules    RulesConfig
	Matching MatchingConfig
	Review   ReviewConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path           string
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RulesConfig points at the editable categorization tables.
type RulesConfig struct {
	Path string
}

// MatchingConfig tunes the property resolver and split detection.
type MatchingConfig struct {
	Threshold             float64
	SplitWindowDays       int     `mapstructure:"split_window_days"`
	SplitToleranceDollars float64 `mapstructure:"split_tolerance_dollars"`
}

// SplitToleranceCents converts the configured dollar tolerance exactly.
func (m MatchingConfig) SplitToleranceCents() int64 {
	return decimal.NewFromFloat(m.SplitToleranceDollars).Shift(2).Round(0).IntPart()
}

// ReviewConfig holds the confidence bands for review routing.
type ReviewConfig struct {
	AutoAccept   float64 `mapstructure:"auto_accept"`
	HighPriority float64 `mapstructure:"high_priority"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix
// RENTLEDGER_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "rentledger")

	// default values
	v.SetDefault("database.path", filepath.Join(dataDir, "rentledger.db"))
	v.SetDefault("database.migrations_path", "internal/database/migrations")
	v.SetDefault("rules.path", filepath.Join(dataDir, "rules.toml"))
	v.SetDefault("matching.threshold", 0.80)
	v.SetDefault("matching.split_window_days", 3)
	v.SetDefault("matching.split_tolerance_dollars", 10.0)
	v.SetDefault("review.auto_accept", 0.90)
	v.SetDefault("review.high_priority", 0.70)
	v.SetDefault("logging.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("RENTLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "rentledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("RENTLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
