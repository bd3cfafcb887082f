package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{".NS", ".BO"}, cfg.Data.ExchangeSuffixes)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screener.yaml")
	yml := `
server:
  port: 9001
data:
  timeout: 3s
  exchange_suffixes: [".BO"]
cache:
  backend: redis
  redis_addr: localhost:6379
view:
  top_n: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Data.Timeout)
	assert.Equal(t, []string{".BO"}, cfg.Data.ExchangeSuffixes)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 10, cfg.View.TopN)
	assert.Equal(t, 5, cfg.Data.LookaheadDays, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SCREENER_PORT":              "7000",
		"SCREENER_LOG_LEVEL":         "debug",
		"SCREENER_EXCHANGE_SUFFIXES": "",
		"SCREENER_PREFLIGHT":         "false",
		"SCREENER_CACHE_TTL":         "1h",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := DefaultConfig()
	require.NoError(t, applyEnv(&cfg, lookup))
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Data.ExchangeSuffixes, "empty list disables suffix resolution")
	assert.False(t, cfg.Data.Preflight)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)

	env["SCREENER_PORT"] = "abc"
	assert.Error(t, applyEnv(&cfg, lookup))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "redis"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Cache.Backend = "disk"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestGetConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screener.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o644))
	t.Setenv("SCREENER_PORT", "9100")

	cfg, err := GetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)

	_, err = GetConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
