// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration.
// It is instantiated by NewConfig() and passed to components that need it (dependency injection).
type AppConfig struct {
	API     APIConfig     `mapstructure:"api"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Demo    DemoConfig    `mapstructure:"demo"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

// APIConfig addresses the orchestration backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	WSURL   string        `mapstructure:"ws_url"` // status feed base, e.g. ws://host/ws
	Timeout time.Duration `mapstructure:"timeout"`
}

// StatusFeedURL returns the per-session status feed address.
func (a *APIConfig) StatusFeedURL(sessionID string) string {
	return strings.TrimRight(a.WSURL, "/") + "/" + sessionID
}

// StreamConfig tunes the live status feed connection.
type StreamConfig struct {
	PingInterval       time.Duration `mapstructure:"ping_interval"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	ExponentialBackoff bool          `mapstructure:"exponential_backoff"`
	MaxReconnectDelay  time.Duration `mapstructure:"max_reconnect_delay"`
	MaxMessageSize     int64         `mapstructure:"max_message_size"`
}

// DemoConfig configures the demo studio.
type DemoConfig struct {
	ScenarioDir     string   `mapstructure:"scenario_dir"`
	DefaultScenario string   `mapstructure:"default_scenario"`
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"` // Empty = allow all (development); set for production
}

// HistoryConfig configures the local session history store.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file", "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller     bool   `mapstructure:"include_caller"`
	IncludeTimestamp  bool   `mapstructure:"include_timestamp"`
	IncludeLevel      bool   `mapstructure:"include_level"`
	IncludeStackTrace string `mapstructure:"include_stack_trace"` // Level at which to include stack trace
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()

	// Set config file if provided, otherwise search in standard locations
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/festivo/")
		v.AddConfigPath("$HOME/.festivo")
	}

	v.SetEnvPrefix("FESTIVO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal the viper configuration into our config struct.
	// This will overwrite the default values with any values found in the config file or env vars.
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8420",
			WSURL:   "ws://127.0.0.1:8420/ws",
			Timeout: 15 * time.Second,
		},
		Stream: StreamConfig{
			PingInterval:       30 * time.Second,
			ReconnectDelay:     3 * time.Second,
			ExponentialBackoff: false,
			MaxReconnectDelay:  60 * time.Second,
			MaxMessageSize:     1 << 16,
		},
		Demo: DemoConfig{
			ScenarioDir:     "./scenarios",
			DefaultScenario: "happy_path",
			Host:            "127.0.0.1",
			Port:            8420,
		},
		History: HistoryConfig{
			Path: "~/.festivo/history.db",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "./logs/festivo.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  100,
						MaxBackups: 7,
						MaxAgeDays: 30,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: false, // Disabled by default so CLI output stays clean
				},
			},
			Levels: map[string]string{
				"api":        "INFO",
				"stream":     "INFO",
				"replay":     "INFO",
				"demoserver": "INFO",
				"history":    "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:     true,
				IncludeTimestamp:  true,
				IncludeLevel:      true,
				IncludeStackTrace: "ERROR",
			},
			Sampling: LogSamplingConfig{
				Enabled:    false,
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
	}
}

// expandPaths expands ~ and environment variables in path configuration values
func (c *AppConfig) expandPaths() {
	if c.History.Path != "" {
		c.History.Path = expandPath(c.History.Path)
	}
	if c.Demo.ScenarioDir != "" {
		c.Demo.ScenarioDir = expandPath(c.Demo.ScenarioDir)
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.WSURL == "" {
		return errors.New("api.ws_url is required")
	}

	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Stream.PingInterval <= 0 {
		return errors.New("stream.ping_interval must be positive")
	}
	if c.Stream.ReconnectDelay <= 0 {
		return errors.New("stream.reconnect_delay must be positive")
	}
	if c.Stream.ExponentialBackoff && c.Stream.MaxReconnectDelay < c.Stream.ReconnectDelay {
		return errors.New("stream.max_reconnect_delay must not be below stream.reconnect_delay")
	}

	if c.Demo.Port <= 0 || c.Demo.Port > 65535 {
		return fmt.Errorf("invalid demo server port: %d", c.Demo.Port)
	}

	return nil
}
