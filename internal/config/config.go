// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package config loads and validates service configuration with Koanf v2.
// Three layers are applied in order of increasing priority: built-in
// defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Cache      CacheConfig      `koanf:"cache"`
	Prediction PredictionConfig `koanf:"prediction"`
	Rules      RulesConfig      `koanf:"rules"`
	Precompute PrecomputeConfig `koanf:"precompute"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig controls cross-cutting API behavior.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// CacheConfig controls the feature store and generation.
type CacheConfig struct {
	// FeatureVectorLength is the fixed width of every cached vector.
	FeatureVectorLength int `koanf:"feature_vector_length"`
}

// PredictionConfig controls the hybrid controller.
type PredictionConfig struct {
	// ConfidenceThreshold gates ML acceptance; predictions below it
	// fall back to the rule engine.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// BreakerFailureThreshold is the consecutive predictor failure
	// count that opens the circuit breaker.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold"`

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// RulesConfig carries the labor rule catalog limits.
type RulesConfig struct {
	MaxConsecutiveDays int     `koanf:"max_consecutive_days"`
	MinRestDays        int     `koanf:"min_rest_days"`
	MinStaffPerDay     int     `koanf:"min_staff_per_day"`
	MaxWeeklyHours     float64 `koanf:"max_weekly_hours"`
}

// PrecomputeConfig paces the background feature precomputation.
type PrecomputeConfig struct {
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults populated. Defaults
// are applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8472,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Cache: CacheConfig{
			FeatureVectorLength: 10,
		},
		Prediction: PredictionConfig{
			ConfidenceThreshold:     0.6,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Rules: RulesConfig{
			MaxConsecutiveDays: 6,
			MinRestDays:        1,
			MinStaffPerDay:     1,
			MaxWeeklyHours:     40,
		},
		Precompute: PrecomputeConfig{
			RatePerSecond: 200,
			Burst:         1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the loaded configuration for values the service
// cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Cache.FeatureVectorLength < 1 {
		return fmt.Errorf("cache.feature_vector_length must be at least 1, got %d", c.Cache.FeatureVectorLength)
	}
	if c.Prediction.ConfidenceThreshold < 0 || c.Prediction.ConfidenceThreshold > 1 {
		return fmt.Errorf("prediction.confidence_threshold must be in [0, 1], got %g", c.Prediction.ConfidenceThreshold)
	}
	if c.Prediction.BreakerFailureThreshold < 1 {
		return fmt.Errorf("prediction.breaker_failure_threshold must be at least 1")
	}
	if c.Prediction.BreakerTimeout <= 0 {
		return fmt.Errorf("prediction.breaker_timeout must be positive, got %s", c.Prediction.BreakerTimeout)
	}
	if c.Rules.MaxConsecutiveDays < 1 {
		return fmt.Errorf("rules.max_consecutive_days must be at least 1, got %d", c.Rules.MaxConsecutiveDays)
	}
	if c.Rules.MinRestDays < 0 {
		return fmt.Errorf("rules.min_rest_days must not be negative, got %d", c.Rules.MinRestDays)
	}
	if c.Rules.MinStaffPerDay < 0 {
		return fmt.Errorf("rules.min_staff_per_day must not be negative, got %d", c.Rules.MinStaffPerDay)
	}
	if c.Rules.MaxWeeklyHours <= 0 {
		return fmt.Errorf("rules.max_weekly_hours must be positive, got %g", c.Rules.MaxWeeklyHours)
	}
	if c.Precompute.RatePerSecond <= 0 {
		return fmt.Errorf("precompute.rate_per_second must be positive, got %g", c.Precompute.RatePerSecond)
	}
	if c.Precompute.Burst < 1 {
		return fmt.Errorf("precompute.burst must be at least 1, got %d", c.Precompute.Burst)
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("logging.level %q is not a valid zerolog level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}
