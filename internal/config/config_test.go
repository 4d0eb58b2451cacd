package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
store:
  backend: redis
  redis:
    addr: redis:6379
    db: "2"
    ttl: 1h
  encryption_key: ` + testKey + `
  pii_patterns: email,phone
server:
  addr: ":9090"
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "keystone:session:", cfg.Store.Redis.Prefix, "unset fields keep defaults")
	assert.Equal(t, []string{"email", "phone"}, cfg.Store.PIIPatterns)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	active, fallback, err := cfg.Store.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Empty(t, fallback)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "store:\n  backend: s3\n"},
		{"unknown field", "stroe:\n  backend: file\n"},
		{"short key", "store:\n  encryption_key: abcd\n"},
		{"bad pattern", "store:\n  pii_patterns: ['(']\n"},
		{"bad fallback", "store:\n  encryption_key: " + testKey + "\n  fallback_keys: [zz]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Parse([]byte("store: ["))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("missing default file", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keystone.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.Store.Backend)
		assert.True(t, strings.HasSuffix(cfg.Store.Path, "sessions"))
	})
}
