package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "kiosk.db", cfg.DBPath)
	assert.Equal(t, "returns", cfg.Surface)
	assert.False(t, cfg.Offline)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("KIOSK_DB", "/var/lib/kiosk/hall-b.db")
	t.Setenv("KIOSK_SURFACE", "gallery")
	t.Setenv("KIOSK_OFFLINE", "true")
	t.Setenv("KIOSK_EVENT_ID", "evt-12")
	t.Setenv("KIOSK_EVENT_NAME", "Winter 2026")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/kiosk/hall-b.db", cfg.DBPath)
	assert.Equal(t, "gallery", cfg.Surface)
	assert.True(t, cfg.Offline)
	assert.Equal(t, "evt-12", cfg.EventID)
	assert.Equal(t, "Winter 2026", cfg.EventName)
}

func TestFromEnvBadBool(t *testing.T) {
	t.Setenv("KIOSK_OFFLINE", "sideways")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for name, want := range cases {
		cfg := Config{LogLevel: name}
		assert.Equal(t, want, cfg.SlogLevel(), name)
	}
}
