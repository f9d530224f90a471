package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSpawner_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadSpawner(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSpawner(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadSpawner_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	raw := `
log_level: debug
rules:
  directories: [rules, mods/rules]
  watch_interval: 2s
scan:
  batch_size: 4
  tick_interval: 20ms
state:
  backend: postgres
  slot: save-3
  database:
    host: db
    password: secret
seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadSpawner(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"rules", "mods/rules"}, cfg.Rules.Directories)
	assert.Equal(t, "rules/default.json", cfg.Rules.DefaultFile, "unset fields keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Rules.WatchInterval)
	assert.Equal(t, 4, cfg.Scan.BatchSize)
	assert.Equal(t, 20*time.Millisecond, cfg.Scan.TickInterval)
	assert.Equal(t, BackendPostgres, cfg.State.Backend)
	assert.Equal(t, "save-3", cfg.State.Slot)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "postgres://spawner:secret@db:5432/spawner?sslmode=disable", cfg.State.Database.DSN())

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadSpawner_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	raw := `
log_level: loud
scan:
  batch_size: 0
state:
  backend: redis
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := LoadSpawner(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "scan.batch_size")
	assert.Contains(t, err.Error(), `state.backend "redis"`)
}

func TestLoadSpawner_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [oops"), 0o644))

	_, err := LoadSpawner(path)
	assert.ErrorContains(t, err, "parsing config")
}
