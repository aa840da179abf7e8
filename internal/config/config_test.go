package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, DefaultSlot, cfg.Storage.Slot)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Freshness())
	assert.Equal(t, 30*time.Second, cfg.Storage.AutosaveInterval())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.UI.ShouldConfirmSolution())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
backend:
  url: https://tutor.example.com
storage:
  driver: bolt
  freshnessHours: 12
ui:
  confirmSolution: false
hooks:
  hintReceived:
    - command: "notify-send hint"
      timeout: 500
  responseStopped:
    - command: "logger stopped"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tutor.example.com", cfg.Backend.URL)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Storage.Freshness())
	assert.Equal(t, DefaultSlot, cfg.Storage.Slot)
	assert.False(t, cfg.UI.ShouldConfirmSolution())
	require.Len(t, cfg.Hooks.HintReceived, 1)
	assert.Equal(t, 500, cfg.Hooks.HintReceived[0].Timeout)
	require.Len(t, cfg.Hooks.ResponseStopped, 1)
	assert.Equal(t, "logger stopped", cfg.Hooks.ResponseStopped[0].Command)
}

func TestHooksConfig_Groups(t *testing.T) {
	h := HooksConfig{MessageSent: []HookEntry{{Command: "a"}}, SessionExpired: []HookEntry{{Command: "b"}}}
	groups := h.Groups()
	require.Len(t, groups, 7)

	byKey := map[string]HookGroup{}
	for _, g := range groups {
		byKey[g.Key] = g
	}
	assert.Equal(t, "message_sent", byKey["messageSent"].Event)
	assert.Len(t, byKey["messageSent"].Entries, 1)
	assert.Equal(t, "response_completed", byKey["responseCompleted"].Event)
	assert.Empty(t, byKey["responseCompleted"].Entries)
	assert.Equal(t, "session_expired", byKey["sessionExpired"].Event)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o600))

	_, err := Load(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "failed to parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CFTUTOR_BACKEND_URL", "http://10.0.0.2:5000")
	t.Setenv("CFTUTOR_STORAGE_DRIVER", "REDIS")
	t.Setenv("CFTUTOR_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("CFTUTOR_LOG_LEVEL", "DEBUG")
	t.Setenv("CFTUTOR_FRESHNESS_HOURS", "6")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:5000", cfg.Backend.URL)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Storage.Redis.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 6, cfg.Storage.FreshnessHours)
}

func TestLoad_BadEnvOverride(t *testing.T) {
	t.Setenv("CFTUTOR_FRESHNESS_HOURS", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoad_ExpandsSensitiveFields(t *testing.T) {
	t.Setenv("TUTOR_KEY", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  apiKey: ${TUTOR_KEY}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Backend.APIKey)
}

func TestExpandEnvVars_LeavesUnsetAlone(t *testing.T) {
	assert.Equal(t, "${CFTUTOR_SURELY_UNSET_VAR}", expandEnvVars("${CFTUTOR_SURELY_UNSET_VAR}"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CFTUTOR_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CFTUTOR_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("CFTUTOR_DOTENV_PROBE"))
}

func TestRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"storage", "driver"}, "memory")
	require.NoError(t, SaveRaw(path, raw))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}
