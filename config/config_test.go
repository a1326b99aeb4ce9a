package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir повторяет t.Chdir (Go 1.24+) для более старых тулчейнов
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storefront.yaml"), []byte(content), 0o600))
	chdir(t, dir)
	return "storefront"
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("missing")
	require.NoError(t, err)

	assert.Equal(t, "storefront-catalog", cfg.AppName)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Catalog.FallbackPageSize)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Resilience.RetryWaitTime)
	assert.Equal(t, "http://localhost:8090", cfg.Upstream.BaseURL)
	assert.False(t, cfg.Warmer.PurgeOnStart)
}

func TestLoad_FileAndEnv(t *testing.T) {
	name := writeConfig(t, `
upstream:
  baseURL: http://products.internal
  rateLimit: 5
catalog:
  maxAccumulated: 64
session:
  ttl: 2h
`)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CATALOG_FALLBACK_PAGE_SIZE", "250")
	t.Setenv("WARMER_PURGE_ON_START", "true")

	cfg, err := Load(name)
	require.NoError(t, err)

	assert.Equal(t, "http://products.internal", cfg.Upstream.BaseURL)
	assert.Equal(t, 5.0, cfg.Upstream.RateLimit)
	assert.Equal(t, 64, cfg.Catalog.MaxAccumulated)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Catalog.FallbackPageSize)
	assert.True(t, cfg.Warmer.PurgeOnStart)
}

func TestLoad_RedisSessionsRequireRedis(t *testing.T) {
	name := writeConfig(t, `
session:
  store: redis
`)

	_, err := Load(name)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Upstream.BaseURL = "http://localhost:8090"
		cfg.Catalog.FallbackPageSize = 500
		cfg.Session.Store = "memory"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Upstream.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Catalog.FallbackPageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Session.Store = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Session.Store = "redis"
	cfg.Redis.Enabled = true
	assert.NoError(t, cfg.Validate())
}
