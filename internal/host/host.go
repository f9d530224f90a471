// Package host is an in-memory placement sink over a world.City. The CLI uses
// it to replay events against a city fixture; tests use it end to end.
package host

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/spawn"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// Object is a materialized item.
type Object struct {
	id        uint32
	itemID    string
	rule      string
	recipient *world.Actor
	furniture *world.Furniture
	subobject int
	node      *world.Node
	pose      world.Pose

	mu     sync.Mutex
	owner  *world.Actor
	prints []*world.Actor
}

var _ spawn.Handle = (*Object)(nil)

func (o *Object) ID() uint32 { return o.id }

// SetOwner implements ownership.Marker.
func (o *Object) SetOwner(a *world.Actor) error {
	if a == nil {
		return fmt.Errorf("object %d: nil owner", o.id)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owner = a
	return nil
}

// AddFingerprint implements ownership.Marker.
func (o *Object) AddFingerprint(a *world.Actor) error {
	if a == nil {
		return fmt.Errorf("object %d: nil fingerprint", o.id)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prints = append(o.prints, a)
	return nil
}

func (o *Object) ItemID() string              { return o.itemID }
func (o *Object) Rule() string                { return o.rule }
func (o *Object) Recipient() *world.Actor     { return o.recipient }
func (o *Object) Furniture() *world.Furniture { return o.furniture }
func (o *Object) Subobject() int              { return o.subobject }
func (o *Object) Node() *world.Node           { return o.node }
func (o *Object) Pose() world.Pose            { return o.pose }

// Owner returns the primary owner.
func (o *Object) Owner() *world.Actor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner
}

// Fingerprints returns the secondary owners.
func (o *Object) Fingerprints() []*world.Actor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.prints)
}

// Option configures a Host.
type Option func(*Host)

// WithRejectFunc makes the host refuse requests for which reject returns true.
func WithRejectFunc(reject func(spawn.Request) bool) Option {
	return func(h *Host) { h.reject = reject }
}

// Host implements spawn.Sink.
type Host struct {
	ids    *world.ObjectIDGenerator
	reject func(spawn.Request) bool

	mu      sync.Mutex
	objects map[uint32]*Object
}

var _ spawn.Sink = (*Host)(nil)

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{
		ids:     world.NewObjectIDGenerator(),
		objects: make(map[uint32]*Object),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Materialize implements spawn.Sink. It marks the chosen subobject or node
// occupied and rejects requests whose spot was taken in the meantime.
func (h *Host) Materialize(_ context.Context, req spawn.Request) (spawn.Handle, error) {
	if h.reject != nil && h.reject(req) {
		return nil, spawn.ErrRejected
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	d := req.Decision
	switch {
	case d.OnFurniture():
		if _, ok := d.Furniture.Subobject(d.Subobject); !ok {
			return nil, fmt.Errorf("furniture %d has no subobject %d: %w", d.Furniture.ID, d.Subobject, spawn.ErrRejected)
		}
		if d.Furniture.IsOccupied(d.Subobject) {
			return nil, fmt.Errorf("subobject %d of furniture %d is taken: %w", d.Subobject, d.Furniture.ID, spawn.ErrRejected)
		}
	case d.Node != nil:
		if !d.Node.Usable() {
			return nil, fmt.Errorf("node %d is not usable: %w", d.Node.ID, spawn.ErrRejected)
		}
	}

	obj := &Object{
		id:        h.ids.NextItemID(),
		itemID:    req.ItemID,
		rule:      req.Rule,
		recipient: req.Recipient,
		subobject: d.Subobject,
		pose:      d.Pose,
	}
	switch {
	case d.OnFurniture():
		obj.furniture = d.Furniture
		d.Furniture.Occupy(d.Subobject, obj.id)
	case d.Node != nil:
		obj.node = d.Node
		d.Node.Occupied = true
	}
	h.objects[obj.id] = obj
	return obj, nil
}

// Destroy implements spawn.Sink and frees the occupied spot.
func (h *Host) Destroy(_ context.Context, handle spawn.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.objects[handle.ID()]
	if !ok {
		return fmt.Errorf("object %d not found", handle.ID())
	}
	delete(h.objects, obj.id)
	if obj.furniture != nil {
		obj.furniture.Release(obj.id)
	}
	if obj.node != nil {
		obj.node.Occupied = false
	}
	return nil
}

// Object returns the object with the given ID.
func (h *Host) Object(id uint32) (*Object, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.objects[id]
	return o, ok
}

// Objects returns all live objects ordered by ID.
func (h *Host) Objects() []*Object {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Object, 0, len(h.objects))
	for _, o := range h.objects {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b *Object) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of live objects.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}
