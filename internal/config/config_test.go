package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	memoryEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 200, cfg.Sync.MaxRecords)
	assert.Equal(t, 50, cfg.Sync.PageSize)
	assert.Equal(t, 20*time.Second, cfg.Sync.FetchTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Sync.HookTimeout)
	assert.True(t, cfg.Sync.RunOnStart)
	assert.Equal(t, 500, cfg.Store.BatchSize)
	assert.Equal(t, "de", cfg.Adzuna.Country)
	assert.False(t, cfg.AdzunaEnabled())
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	memoryEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
sync:
  interval: 6h
  max_records: 150
  run_on_start: false
adzuna:
  app_id: yaml-id
  app_key: yaml-key
`), 0o600))

	t.Setenv("SYNC_MAX_RECORDS", "120")
	t.Setenv("ADZUNA_APP_ID", "env-id")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, 120, cfg.Sync.MaxRecords)
	assert.False(t, cfg.Sync.RunOnStart)
	assert.Equal(t, "env-id", cfg.Adzuna.AppID)
	assert.Equal(t, "yaml-key", cfg.Adzuna.AppKey)
	assert.True(t, cfg.AdzunaEnabled())
}

func TestLoadDotEnv(t *testing.T) {
	memoryEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("OPERATOR_TOKEN=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("OPERATOR_TOKEN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.HTTP.OperatorToken)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "zero capacity", env: map[string]string{"STORE_DRIVER": DriverMemory, "SYNC_MAX_RECORDS": "0"}},
		{name: "bad log level", env: map[string]string{"STORE_DRIVER": DriverMemory, "LOG_LEVEL": "loud"}},
		{name: "neo4j without uri", env: map[string]string{"STORE_DRIVER": DriverNeo4j, "NEO4J_URI": ""}},
		{name: "postgres without url", env: map[string]string{"STORE_DRIVER": DriverPostgres, "DATABASE_URL": ""}},
		{name: "malformed duration", env: map[string]string{"STORE_DRIVER": DriverMemory, "SYNC_INTERVAL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	memoryEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
