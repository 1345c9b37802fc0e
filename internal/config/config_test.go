package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TICK_RATE", "")
	t.Setenv("APP_PORT", "")

	cfg := Load()
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICK_RATE", "30")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("SESSION_IDLE_SECONDS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 30, cfg.TickRate)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, 600, cfg.SessionIdleSeconds)
}
