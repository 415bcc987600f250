package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagecraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: test-key
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.NotNil(t, cfg.LLM.Temperature)
	require.Equal(t, 0.7, *cfg.LLM.Temperature)
	require.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	require.NotNil(t, cfg.LLM.MaxRetries)
	require.Equal(t, 2, *cfg.LLM.MaxRetries)
	require.Equal(t, "./pages", cfg.Output.Directory)
	require.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("PAGECRAFT_TEST_KEY", "secret-from-env")
	path := writeConfig(t, `
llm:
  api_key: ${PAGECRAFT_TEST_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "secret-from-env", cfg.LLM.APIKey)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
  model: gpt-4o
  temperature: 0.2
  timeout: 30s
output:
  directory: /tmp/out
  pretty: true
  preview: true
watch:
  debounce: 2s
  interval: 1h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, 0.2, *cfg.LLM.Temperature)
	require.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.Equal(t, "/tmp/out", cfg.Output.Directory)
	require.True(t, cfg.Output.Pretty)
	require.True(t, cfg.Output.Preview)
	require.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	require.Equal(t, time.Hour, cfg.Watch.Interval)
}

// An explicit zero is a real setting (deterministic sampling, retries off),
// not a request for the default.
func TestLoad_ExplicitZerosPreserved(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
  temperature: 0
  max_retries: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.LLM.Temperature)
	require.Equal(t, 0.0, *cfg.LLM.Temperature)
	require.NotNil(t, cfg.LLM.MaxRetries)
	require.Equal(t, 0, *cfg.LLM.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "llm: [not a mapping")
	_, err := Load(path)
	require.ErrorContains(t, err, "unmarshal")
}

func TestLoad_TemperatureOutOfRange(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
  temperature: 3.5
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "temperature")
}

func TestLoad_EventsRequireURL(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
events:
  enabled: true
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "events.url")
}

func TestLoad_ConditionalDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
metrics:
  enabled: true
events:
  enabled: true
  url: nats://localhost:4222
store:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9109", cfg.Metrics.Addr)
	require.Equal(t, "pagecraft.runs", cfg.Events.Subject)
	require.Equal(t, "./pagecraft-runs.db", cfg.Store.Path)
}

func TestInit_WritesSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagecraft.yaml")
	require.NoError(t, Init(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "llm:")
	require.Contains(t, string(data), "output:")
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagecraft.yaml")
	require.NoError(t, Init(path, false))
	require.ErrorContains(t, Init(path, false), "already exists")
	require.NoError(t, Init(path, true))
}
