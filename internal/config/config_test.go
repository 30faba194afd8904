package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fangliji/flowable-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 15*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "flowable:", cfg.Redis.Prefix)
	assert.Equal(t, config.StoreMemory, cfg.Store.Graph)
}

func TestLoad_YAMLKeepsUnsetDefaults(t *testing.T) {
	path := write(t, "flowable.yaml", `
listen: ":9090"
log:
  level: debug
lock:
  ttl: 30
redis:
  addr: localhost:6379
  db: "2"
store:
  graph: redis
`)
	cfg, err := config.LoadWithEnv(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL, "bare numbers are seconds")
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "flowable:", cfg.Redis.Prefix)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "flowable.json", `{"lock": {"ttl": "1m"}, "metrics": true}`)
	cfg, err := config.LoadWithEnv(path, noEnv)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Lock.TTL)
	assert.True(t, cfg.Metrics)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := write(t, "flowable.yaml", "lock:\n  ttl: 5s\n")
	cfg, err := config.LoadWithEnv(path, envOf(map[string]string{
		"FLOWABLE_LOCK_TTL":         "20s",
		"FLOWABLE_SKIP_EXPRESSIONS": "true",
		"FLOWABLE_STORE_GRAPH":      "sqlite",
		"FLOWABLE_STORE_DSN":        "file:graphs.db",
	}))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Lock.TTL)
	assert.True(t, cfg.SkipExpressions)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Graph)
	assert.Equal(t, "file:graphs.db", cfg.Store.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"FLOWABLE_STORE_GRAPH": "etcd"}},
		{name: "redis without addr", env: map[string]string{"FLOWABLE_STORE_GRAPH": "redis"}},
		{name: "sqlite without dsn", env: map[string]string{"FLOWABLE_STORE_GRAPH": "sqlite"}},
		{name: "file without dir", env: map[string]string{"FLOWABLE_STORE_GRAPH": "file"}},
		{name: "zero ttl", env: map[string]string{"FLOWABLE_LOCK_TTL": "0s"}},
		{name: "bad duration", env: map[string]string{"FLOWABLE_LOCK_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadWithEnv("", envOf(tt.env))
			assert.Error(t, err)
		})
	}
}
