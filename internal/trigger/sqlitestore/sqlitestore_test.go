package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "triggers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Load(ctx, "city1")
	require.ErrorIs(t, err, trigger.ErrNoRecord)

	rec := trigger.Record{
		SessionID: "city1-seed42",
		SavedAt:   time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		Rules: map[string]trigger.RuleState{
			"NoteInMailbox": {Fired: true, Occurrences: 1, Firings: 1},
			"ThirdKill":     {Occurrences: 2},
		},
		SpawnedItems: []string{"Knife", "Note", "Note"},
	}
	require.NoError(t, s.Save(ctx, "city1", rec))

	got, err := s.Load(ctx, "city1")
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, got.SessionID)
	assert.True(t, rec.SavedAt.Equal(got.SavedAt))
	assert.Equal(t, rec.Rules, got.Rules)
	assert.Equal(t, rec.SpawnedItems, got.SpawnedItems)
}

func TestStore_SaveReplacesSlot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, "a", trigger.Record{
		SessionID: "old",
		Rules:     map[string]trigger.RuleState{"gone": {Fired: true}},
	}))
	require.NoError(t, s.Save(ctx, "b", trigger.Record{
		SessionID: "other",
		Rules:     map[string]trigger.RuleState{"kept": {Occurrences: 1}},
	}))
	require.NoError(t, s.Save(ctx, "a", trigger.Record{
		SessionID: "new",
		Rules:     map[string]trigger.RuleState{"fresh": {Occurrences: 3}},
	}))

	a, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", a.SessionID)
	assert.Equal(t, map[string]trigger.RuleState{"fresh": {Occurrences: 3}}, a.Rules)
	assert.Empty(t, a.SpawnedItems)

	b, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Contains(t, b.Rules, "kept")
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, "a", trigger.Record{
		SessionID:    "s",
		Rules:        map[string]trigger.RuleState{"r": {Fired: true}},
		SpawnedItems: []string{"Note"},
	}))
	require.NoError(t, s.Clear(ctx, "a"))

	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, trigger.ErrNoRecord)
	require.NoError(t, s.Clear(ctx, "a"))
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "triggers.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "slot", trigger.Record{SessionID: "persisted"}))
	require.NoError(t, s.Close())

	// Повторное открытие не должно заново применять миграции.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.SessionID)
}
