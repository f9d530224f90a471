package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/config"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
)

func TestOpenStore_LocalBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, backend := range []string{config.BackendFile, config.BackendSQLite, config.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.DefaultSpawner().State
			cfg.Backend = backend
			cfg.Dir = filepath.Join(dir, "files")
			cfg.SQLitePath = filepath.Join(dir, "triggers.db")

			store, closeStore, err := openStore(ctx, cfg)
			require.NoError(t, err)
			defer closeStore()

			_, err = store.Load(ctx, cfg.Slot)
			assert.ErrorIs(t, err, trigger.ErrNoRecord)

			rec := trigger.Record{SessionID: "s", Rules: map[string]trigger.RuleState{"a": {Fired: true, Firings: 1}}}
			require.NoError(t, store.Save(ctx, cfg.Slot, rec))
			got, err := store.Load(ctx, cfg.Slot)
			require.NoError(t, err)
			assert.Equal(t, "s", got.SessionID)
			assert.True(t, got.Rules["a"].Fired)
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := config.DefaultSpawner().State
	cfg.Backend = "redis"
	_, _, err := openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown state backend "redis"`)
}
