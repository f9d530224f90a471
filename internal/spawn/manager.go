// Package spawn materializes resolved placements through the host and applies
// ownership to the resulting objects.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/ownership"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/place"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// ErrRejected is returned by a Sink that refuses to materialize a request.
var ErrRejected = errors.New("host rejected placement")

// Request is what the host needs to create an object.
type Request struct {
	Rule      string
	ItemID    string
	Owner     *world.Actor
	Recipient *world.Actor
	Decision  place.Decision
}

// Handle is a materialized object.
type Handle interface {
	ID() uint32
	ownership.Marker
}

// Sink is the host's write interface.
type Sink interface {
	Materialize(ctx context.Context, req Request) (Handle, error)
	Destroy(ctx context.Context, h Handle) error
}

// Spawned describes a live object created by the manager.
type Spawned struct {
	ObjectID uint32
	Rule     string
	ItemID   string
	RoomID   int
	Pose     world.Pose
}

// Manager creates objects through a Sink and remembers what it created.
type Manager struct {
	sink    Sink
	objects sync.Map // map[uint32]Spawned, keyed by objectID

	spawnCount atomic.Int32 // cached count of live objects
}

// NewManager creates a spawn manager writing to sink.
func NewManager(sink Sink) *Manager {
	return &Manager{sink: sink}
}

// Spawn materializes the item and applies ownership. If ownership cannot be
// applied the object is destroyed again so a failed firing leaves nothing
// behind.
func (m *Manager) Spawn(ctx context.Context, rule, itemID string, a ownership.Assignment, d place.Decision) (Handle, error) {
	h, err := m.sink.Materialize(ctx, Request{
		Rule:      rule,
		ItemID:    itemID,
		Owner:     a.Owner,
		Recipient: a.Recipient,
		Decision:  d,
	})
	if err != nil {
		return nil, fmt.Errorf("materializing %s: %w", itemID, err)
	}

	if err := ownership.Apply(h, a); err != nil {
		// Rollback
		if derr := m.sink.Destroy(ctx, h); derr != nil {
			slog.Error("rollback of spawned item failed",
				"objectID", h.ID(),
				"item", itemID,
				"error", derr)
		}
		return nil, fmt.Errorf("applying ownership to %s: %w", itemID, err)
	}

	m.objects.Store(h.ID(), Spawned{
		ObjectID: h.ID(),
		Rule:     rule,
		ItemID:   itemID,
		RoomID:   d.RoomID,
		Pose:     d.Pose,
	})
	m.spawnCount.Add(1)

	slog.Info("item spawned",
		"objectID", h.ID(),
		"rule", rule,
		"item", itemID,
		"owner", a.Owner.Name,
		"recipient", a.Recipient.Name,
		"placer", d.Placer,
		"roomID", d.RoomID,
		"position", d.Pose.Position)

	return h, nil
}

// Despawn destroys an object created by Spawn.
func (m *Manager) Despawn(ctx context.Context, h Handle) error {
	if _, ok := m.objects.LoadAndDelete(h.ID()); !ok {
		return fmt.Errorf("object %d was not spawned by this manager", h.ID())
	}
	m.spawnCount.Add(-1)

	if err := m.sink.Destroy(ctx, h); err != nil {
		return fmt.Errorf("destroying object %d: %w", h.ID(), err)
	}
	slog.Info("item despawned", "objectID", h.ID())
	return nil
}

// Get returns the spawned object with the given ID.
func (m *Manager) Get(objectID uint32) (Spawned, bool) {
	v, ok := m.objects.Load(objectID)
	if !ok {
		return Spawned{}, false
	}
	return v.(Spawned), true
}

// Count returns the number of live spawned objects.
func (m *Manager) Count() int {
	return int(m.spawnCount.Load())
}
