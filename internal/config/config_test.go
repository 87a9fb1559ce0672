package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodia-bot/melodia/pkg/player"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN", "LISTEN_PORT", "FFMPEG_PATH", "YTDLP_COOKIES",
		"LOG_DIR", "DEFAULT_VOLUME", "DEFAULT_LOOP", "UPDATE_TZ_OFFSET",
		"FORCE_IPV4", "AUTO_UPDATE", "FFMPEG_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigRequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrDiscordTokenNotSet)
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token-123")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.DiscordToken)
	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, player.DefaultVolume, cfg.DefaultVolume)
	assert.Equal(t, player.LoopOff, cfg.DefaultLoop)
	assert.Equal(t, 0, cfg.UpdateTZOffset)
	assert.False(t, cfg.ForceIPv4)
	assert.True(t, cfg.AutoUpdate)
	assert.False(t, cfg.FFmpegDebug)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("LISTEN_PORT", "9090")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("YTDLP_COOKIES", "/data/cookies.txt")
	t.Setenv("DEFAULT_VOLUME", "250")
	t.Setenv("DEFAULT_LOOP", "queue")
	t.Setenv("UPDATE_TZ_OFFSET", "7")
	t.Setenv("FORCE_IPV4", "true")
	t.Setenv("AUTO_UPDATE", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ListenPort)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "/data/cookies.txt", cfg.CookiesFile)
	assert.Equal(t, 250, cfg.DefaultVolume)
	assert.Equal(t, player.LoopQueue, cfg.DefaultLoop)
	assert.Equal(t, 7, cfg.UpdateTZOffset)
	assert.True(t, cfg.ForceIPv4)
	assert.False(t, cfg.AutoUpdate)
}

func TestLoadConfigClampsVolume(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("DEFAULT_VOLUME", "5000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, player.MaxVolume, cfg.DefaultVolume)
}

func TestLoadConfigRejectsBadLoopMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("DEFAULT_LOOP", "forever")

	_, err := LoadConfig()
	require.ErrorIs(t, err, player.ErrInvalidLoopMode)
}

func TestLoadConfigIgnoresUnparseableValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token-123")
	t.Setenv("LISTEN_PORT", "not-a-port")
	t.Setenv("AUTO_UPDATE", "maybe")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ListenPort)
	assert.True(t, cfg.AutoUpdate)
}
