// Package config loads the portal configuration from an optional YAML
// file, an optional .env file and NMTP_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors.
var (
	ErrInvalidAddr      = errors.New("server address is empty")
	ErrInvalidStore     = errors.New("unknown store driver")
	ErrInvalidDelay     = errors.New("submission delay must not be negative")
	ErrInvalidUploadMax = errors.New("upload size limit must be positive")
	ErrInvalidLogLevel  = errors.New("unknown log level")
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Drafts     DraftsConfig     `mapstructure:"drafts"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Admin      AdminConfig      `mapstructure:"admin"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Locale      string `mapstructure:"locale"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins restricts WebSocket origins; empty means same host.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// MaxLivePerIP caps concurrent live sessions per client address.
	MaxLivePerIP int `mapstructure:"max_live_per_ip"`
	MaxLive      int `mapstructure:"max_live"`
}

// StoreConfig selects the draft store backend.
type StoreConfig struct {
	// Driver is "memory" or "redis".
	Driver string      `mapstructure:"driver"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type DraftsConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type SubmissionConfig struct {
	Delay           time.Duration `mapstructure:"delay"`
	ReferencePrefix string        `mapstructure:"reference_prefix"`
}

type UploadsConfig struct {
	MaxFileSize int64    `mapstructure:"max_file_size"`
	Accept      []string `mapstructure:"accept"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

type AdminConfig struct {
	// DemoData seeds the registry with sample applications.
	DemoData bool `mapstructure:"demo_data"`
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrInvalidAddr
	}
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStore, c.Store.Driver)
	}
	if c.Submission.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Uploads.MaxFileSize <= 0 {
		return ErrInvalidUploadMax
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}
