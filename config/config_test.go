package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecastro/convobot/logging"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "mock")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderMock, cfg.Completion.Provider)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 20, cfg.Session.MaxTurns)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.CallTimeout)
	assert.Equal(t, logging.LogLevelInfo, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Capabilities.WeatherAPIKey)
}

func TestLoadPortForms(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "mock")

	t.Setenv("PORT", "9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	t.Setenv("PORT", "not a port")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadProviderRequiresKey(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Completion.APIKey)

	t.Setenv("COMPLETION_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestLoadUnknownProvider(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "cohere")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown COMPLETION_PROVIDER")
}

func TestLoadSessionOverrides(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "mock")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SESSION_MAX_TURNS", "6")
	t.Setenv("SESSION_SWEEP_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 6, cfg.Session.MaxTurns)
	assert.Equal(t, 30*time.Second, cfg.Session.SweepInterval)

	t.Setenv("SESSION_MAX_TURNS", "1")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("SESSION_MAX_TURNS", "6")
	t.Setenv("SESSION_TTL", "-5m")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadDispatchOverrides(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "mock")
	t.Setenv("DISPATCH_CALL_TIMEOUT", "2s")
	t.Setenv("DISPATCH_HISTORY_LIMIT", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.CallTimeout)
	assert.Equal(t, 8, cfg.Dispatch.HistoryLimit)
}
