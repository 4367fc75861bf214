package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "VIZARCADE_THEME_MAX_TOKENS", EnvName("theme.maxTokens"))
	assert.Equal(t, "VIZARCADE_LISTENER_ADDR", EnvName("listener.addr"))
	assert.Equal(t, "VIZARCADE_LISTENER_CORS_ALLOWED_ORIGINS", EnvName("listener.cors.allowedOrigins"))
	assert.Equal(t, "VIZARCADE_THEME_BASE_URL", EnvName("theme.baseURL"))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ThemeProviderAnthropic, cfg.Theme.Provider)
	assert.Equal(t, 600, cfg.Theme.MaxTokens)
	assert.Equal(t, time.Second*10, cfg.ACRCloud.Timeout)
	assert.Equal(t, []string{"*"}, cfg.Listener.CORS.AllowedOrigins)
	assert.Empty(t, cfg.ACRCloud.Host)
	assert.Empty(t, cfg.ACRCloud.AccessKey)
	assert.Empty(t, cfg.ACRCloud.AccessSecret)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("Overrides", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		err := cfg.applyEnv(lookupFrom(map[string]string{
			"ACR_HOST":                                "identify-eu-west-1.acrcloud.com",
			"ACR_ACCESS_KEY":                          "key",
			"ACR_ACCESS_SECRET":                       "secret",
			"ANTHROPIC_API_KEY":                       "sk-ant",
			"OPENAI_API_KEY":                          "sk-openai",
			"VIZARCADE_THEME_MAX_TOKENS":              "800",
			"VIZARCADE_LISTENER_DRAIN_WAIT":           "2s",
			"VIZARCADE_LISTENER_ACCESS_LOG":           "false",
			"VIZARCADE_LISTENER_CORS_ALLOWED_ORIGINS": "https://vizarcade.app, https://*.vercel.app",
			"VIZARCADE_DEBUG":                         "true",
		}))
		require.NoError(t, err)

		assert.Equal(t, "identify-eu-west-1.acrcloud.com", cfg.ACRCloud.Host)
		assert.Equal(t, "key", cfg.ACRCloud.AccessKey)
		assert.Equal(t, "secret", cfg.ACRCloud.AccessSecret)
		assert.Equal(t, "sk-ant", cfg.Theme.APIKey)
		assert.Equal(t, 800, cfg.Theme.MaxTokens)
		assert.Equal(t, time.Second*2, cfg.Listener.DrainWait)
		assert.False(t, cfg.Listener.AccessLog)
		assert.True(t, cfg.Debug)
		assert.Equal(t, []string{"https://vizarcade.app", "https://*.vercel.app"}, cfg.Listener.CORS.AllowedOrigins)
	})

	t.Run("OpenAIKey", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		err := cfg.applyEnv(lookupFrom(map[string]string{
			"VIZARCADE_THEME_PROVIDER": "openai",
			"ANTHROPIC_API_KEY":        "sk-ant",
			"OPENAI_API_KEY":           "sk-openai",
		}))
		require.NoError(t, err)

		assert.Equal(t, ThemeProviderOpenAI, cfg.Theme.Provider)
		assert.Equal(t, "sk-openai", cfg.Theme.APIKey)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		err := cfg.applyEnv(lookupFrom(map[string]string{
			"VIZARCADE_THEME_MAX_TOKENS":    "lots",
			"VIZARCADE_LISTENER_DRAIN_WAIT": "soon",
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VIZARCADE_THEME_MAX_TOKENS")
		assert.Contains(t, err.Error(), "VIZARCADE_LISTENER_DRAIN_WAIT")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Listener.Addr)
	})

	t.Run("FileThenEnv", func(t *testing.T) {
		path := writeConfig(t, `
listener:
  addr: ":9000"
  drainWait: 1s
acrcloud:
  host: file-host.acrcloud.com
  timeout: 3s
theme:
  maxTokens: 300
  overrideParams:
    temperature: 0.5
`)

		t.Setenv("ACR_HOST", "env-host.acrcloud.com")
		t.Setenv("VIZARCADE_THEME_MAX_TOKENS", "400")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, ":9000", cfg.Listener.Addr)
		assert.Equal(t, time.Second, cfg.Listener.DrainWait)
		assert.Equal(t, time.Second*3, cfg.ACRCloud.Timeout)
		assert.Equal(t, "env-host.acrcloud.com", cfg.ACRCloud.Host)
		assert.Equal(t, 400, cfg.Theme.MaxTokens)
		assert.InDelta(t, 0.5, cfg.Theme.OverrideParams["temperature"], 0.0001)
		assert.Empty(t, cfg.Theme.Model)
	})

	t.Run("OpenAIProviderWithoutModel", func(t *testing.T) {
		t.Setenv("VIZARCADE_THEME_PROVIDER", ThemeProviderOpenAI)
		t.Setenv("OPENAI_API_KEY", "sk-openai")

		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, ThemeProviderOpenAI, cfg.Theme.Provider)
		assert.Equal(t, "sk-openai", cfg.Theme.APIKey)
		assert.Empty(t, cfg.Theme.Model)
	})

	t.Run("UnknownField", func(t *testing.T) {
		path := writeConfig(t, "listener:\n  adress: \":9000\"\n")

		_, err := LoadConfig(path)
		require.ErrorContains(t, err, "failed to decode config file")
	})

	t.Run("ValidationReportsEverything", func(t *testing.T) {
		path := writeConfig(t, `
log:
  format: xml
theme:
  provider: bard
  maxTokens: 0
`)

		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.format")
		assert.Contains(t, err.Error(), "theme.provider")
		assert.Contains(t, err.Error(), "theme.maxTokens")
	})

	t.Run("ExampleFile", func(t *testing.T) {
		_, err := LoadConfig("config.yaml")
		require.NoError(t, err)
	})
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ACRCloud.AccessKey = "key"
	cfg.ACRCloud.AccessSecret = "secret"
	cfg.Theme.APIKey = ""

	redacted := cfg.Redacted()
	assert.Equal(t, "******", redacted.ACRCloud.AccessKey)
	assert.Equal(t, "******", redacted.ACRCloud.AccessSecret)
	assert.Empty(t, redacted.Theme.APIKey)

	assert.Equal(t, "key", cfg.ACRCloud.AccessKey)
}
