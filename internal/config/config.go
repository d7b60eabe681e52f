package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Config holds all configuration for the tracker service.
// Values are loaded from environment variables.
type Config struct {
	HTTPAddr string `json:"http_addr"`

	// DatabaseURL enables the PostgreSQL event journal; empty disables it.
	DatabaseURL string `json:"database_url,omitempty"`

	// RedisAddr enables the Redis analytics sink; empty disables it.
	RedisAddr string `json:"redis_addr,omitempty"`

	ProvisionGrace    time.Duration `json:"-"`
	ProvisionGraceStr string        `json:"provision_grace"`

	DeletionGrace    time.Duration `json:"-"`
	DeletionGraceStr string        `json:"deletion_grace"`

	// MaxTrackedAge bounds records that never reach a terminal status.
	MaxTrackedAge    time.Duration `json:"-"`
	MaxTrackedAgeStr string        `json:"max_tracked_age"`

	// SweepSchedule is the janitor's cron spec.
	SweepSchedule string `json:"sweep_schedule"`

	EventBusBufferSize int `json:"eventbus_buffer_size"`

	// PushEnabled is the feature flag for the push channel; when false all
	// connectivity booleans report "not configured".
	PushEnabled bool `json:"push_enabled"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`

	AnalyticsRetention    time.Duration `json:"-"`
	AnalyticsRetentionStr string        `json:"analytics_retention"`

	DBOpTimeout    time.Duration `json:"-"`
	DBOpTimeoutStr string        `json:"db_op_timeout"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	DrainTimeout    time.Duration `json:"-"`
	DrainTimeoutStr string        `json:"drain_timeout"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		ProvisionGraceStr:      os.Getenv("PROVISION_GRACE"),
		DeletionGraceStr:       os.Getenv("DELETION_GRACE"),
		MaxTrackedAgeStr:       os.Getenv("MAX_TRACKED_AGE"),
		SweepSchedule:          os.Getenv("SWEEP_SCHEDULE"),
		PushEnabled:            os.Getenv("PUSH_ENABLED") == "true",
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
		AnalyticsRetentionStr:  os.Getenv("ANALYTICS_RETENTION"),
		DBOpTimeoutStr:         os.Getenv("DB_OP_TIMEOUT"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		DrainTimeoutStr:        os.Getenv("DRAIN_TIMEOUT"),
	}

	if bufStr := os.Getenv("EVENTBUS_BUFFER_SIZE"); bufStr != "" {
		if n, err := parseInt(bufStr); err == nil && n > 0 {
			cfg.EventBusBufferSize = n
		} else {
			log.Printf("config: invalid EVENTBUS_BUFFER_SIZE %q (must be a positive integer), using default 100", bufStr)
		}
	}
	if cfg.EventBusBufferSize == 0 {
		cfg.EventBusBufferSize = 100
	}

	// Support Railway's PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.ProvisionGraceStr == "" {
		cfg.ProvisionGraceStr = "60s"
	}
	if cfg.DeletionGraceStr == "" {
		cfg.DeletionGraceStr = "10s"
	}
	if cfg.MaxTrackedAgeStr == "" {
		cfg.MaxTrackedAgeStr = "30m"
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "@every 1m"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.AnalyticsRetentionStr == "" {
		cfg.AnalyticsRetentionStr = "168h"
	}
	if cfg.DBOpTimeoutStr == "" {
		cfg.DBOpTimeoutStr = "5s"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.DrainTimeoutStr == "" {
		cfg.DrainTimeoutStr = "5s"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.ProvisionGraceStr); err == nil {
		cfg.ProvisionGrace = d
	}
	if d, err := time.ParseDuration(cfg.DeletionGraceStr); err == nil {
		cfg.DeletionGrace = d
	}
	if d, err := time.ParseDuration(cfg.MaxTrackedAgeStr); err == nil {
		cfg.MaxTrackedAge = d
	}
	if d, err := time.ParseDuration(cfg.AnalyticsRetentionStr); err == nil {
		cfg.AnalyticsRetention = d
	}
	if d, err := time.ParseDuration(cfg.DBOpTimeoutStr); err == nil {
		cfg.DBOpTimeout = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.DrainTimeoutStr); err == nil {
		cfg.DrainTimeout = d
	}

	return cfg
}

// parseInt parses a string as a non-negative integer.
func parseInt(s string) (int, error) {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		HTTPAddr            string `json:"http_addr"`
		DatabaseURL         string `json:"database_url,omitempty"`
		RedisAddr           string `json:"redis_addr,omitempty"`
		ProvisionGrace      string `json:"provision_grace"`
		DeletionGrace       string `json:"deletion_grace"`
		MaxTrackedAge       string `json:"max_tracked_age"`
		SweepSchedule       string `json:"sweep_schedule"`
		EventBusBufferSize  int    `json:"eventbus_buffer_size"`
		PushEnabled         bool   `json:"push_enabled"`
		MetricsEnabled      bool   `json:"metrics_enabled"`
		MetricsPath         string `json:"metrics_path"`
		AnalyticsRetention  string `json:"analytics_retention"`
		DBOpTimeout         string `json:"db_op_timeout"`
		HTTPShutdownTimeout string `json:"http_shutdown_timeout"`
		DrainTimeout        string `json:"drain_timeout"`
	}{
		HTTPAddr:            c.HTTPAddr,
		DatabaseURL:         maskSecret(c.DatabaseURL),
		RedisAddr:           c.RedisAddr,
		ProvisionGrace:      c.ProvisionGraceStr,
		DeletionGrace:       c.DeletionGraceStr,
		MaxTrackedAge:       c.MaxTrackedAgeStr,
		SweepSchedule:       c.SweepSchedule,
		EventBusBufferSize:  c.EventBusBufferSize,
		PushEnabled:         c.PushEnabled,
		MetricsEnabled:      c.MetricsEnabled,
		MetricsPath:         c.MetricsPath,
		AnalyticsRetention:  c.AnalyticsRetentionStr,
		DBOpTimeout:         c.DBOpTimeoutStr,
		HTTPShutdownTimeout: c.HTTPShutdownTimeoutStr,
		DrainTimeout:        c.DrainTimeoutStr,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}
