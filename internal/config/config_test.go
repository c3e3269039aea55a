package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "avatars", cfg.Supabase.BUCKET)
	assert.Equal(t, "avatar_events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxFileSize)
	assert.Equal(t, 236, cfg.Avatar.OutputSize)
	assert.Equal(t, 256, cfg.Avatar.FinalSize)
	assert.Equal(t, 100.0, cfg.Avatar.DefaultCropSize)
	assert.Equal(t, "floor", cfg.Avatar.Rounding)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("READ_TIMEOUT", "3s")
	t.Setenv("SUPABASE_BUCKET", "flags")
	t.Setenv("MAX_FILE_SIZE", "2048")
	t.Setenv("AVATAR_ROUNDING", "Nearest")
	t.Setenv("AVATAR_DEFAULT_CROP", "64.5")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "flags", cfg.Supabase.BUCKET)
	assert.Equal(t, int64(2048), cfg.Storage.MaxFileSize)
	assert.Equal(t, "nearest", cfg.Avatar.Rounding)
	assert.Equal(t, 64.5, cfg.Avatar.DefaultCropSize)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 0, cfg.Redis.DB)
}
