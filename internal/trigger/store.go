package trigger

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrNoRecord is returned by Store.Load when nothing was saved for a slot.
var ErrNoRecord = errors.New("no trigger record stored")

// Store persists trigger records per save slot.
//
// Implementations live in subpackages (file, sqlite) and in the db package
// (PostgreSQL).
type Store interface {
	Load(ctx context.Context, slot string) (Record, error)
	Save(ctx context.Context, slot string, rec Record) error
	Clear(ctx context.Context, slot string) error
}

// MemoryStore keeps records in memory. Used by tests and as a no-persistence
// backend.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, slot string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[slot]
	if !ok {
		return Record{}, ErrNoRecord
	}
	return cloneRecord(rec), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, slot string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[slot] = cloneRecord(rec)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, slot)
	return nil
}

func cloneRecord(rec Record) Record {
	rec.Rules = maps.Clone(rec.Rules)
	rec.SpawnedItems = slices.Clone(rec.SpawnedItems)
	return rec
}
