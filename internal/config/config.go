// Package config loads process-level kiosk settings from the environment.
//
// Surface behavior lives in profiles; the environment carries only what
// differs per deployed kiosk: which database, which surface, which event.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config is the per-kiosk environment configuration.
type Config struct {
	DBPath      string `env:"KIOSK_DB"        envDefault:"kiosk.db"`
	Surface     string `env:"KIOSK_SURFACE"   envDefault:"returns"`
	ProfilePath string `env:"KIOSK_PROFILE"`
	Offline     bool   `env:"KIOSK_OFFLINE"`
	LogLevel    string `env:"KIOSK_LOG_LEVEL" envDefault:"info"`
	EventID     string `env:"KIOSK_EVENT_ID"`
	EventName   string `env:"KIOSK_EVENT_NAME"`
}

// FromEnv parses KIOSK_* environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog level.
// Unknown names fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
