package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "http://localhost:8080/api", cfg.ClientBaseURL())
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "emberly.yaml", `
api:
  base_url: http://upstream.test
  use_proxy: false
proxy:
  upstream_timeout: 2s
conversation:
  locale: pt-BR
  response_timeout: 1m30s
telemetry:
  redis:
    addr: localhost:6379
    max_len: 50
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://upstream.test", cfg.API.BaseURL)
	assert.False(t, cfg.API.UseProxy)
	assert.Equal(t, "http://upstream.test", cfg.ClientBaseURL())
	assert.Equal(t, 2*time.Second, cfg.Proxy.UpstreamTimeout)
	assert.Equal(t, ":8080", cfg.Proxy.Addr, "untouched keys keep defaults")
	assert.Equal(t, "pt-BR", cfg.Conversation.Locale)
	assert.Equal(t, 90*time.Second, cfg.Conversation.ResponseTimeout)
	assert.Equal(t, "localhost:6379", cfg.Telemetry.Redis.Addr)
	assert.Equal(t, int64(50), cfg.Telemetry.Redis.MaxLen)
	assert.Equal(t, "emberly:telemetry", cfg.Telemetry.Redis.Stream)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "emberly.json", `{"metrics":{"enabled":false,"path":"/m"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MetricsConfig{Enabled: false, Path: "/m"}, cfg.Metrics)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := write(t, "emberly.yaml", "api:\n  base_url: x\n  secret: y\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}

func TestLoad_BadDuration(t *testing.T) {
	path := write(t, "emberly.yaml", "proxy:\n  upstream_timeout: soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "http://env.test")
	t.Setenv(EnvUseAPIProxy, "false")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvRedisAddr, "redis:6379")

	path := write(t, "emberly.yaml", "api:\n  base_url: http://file.test\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.test", cfg.API.BaseURL)
	assert.False(t, cfg.API.UseProxy)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "redis:6379", cfg.Telemetry.Redis.Addr)
}

func TestLoad_BadProxySwitch(t *testing.T) {
	t.Setenv(EnvUseAPIProxy, "maybe")
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, EnvUseAPIProxy)
}
