package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/place"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/spawn"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

func TestHost_FurnitureOccupancy(t *testing.T) {
	ctx := context.Background()
	h := New()
	desk := &world.Furniture{ID: 7, Subobjects: []world.Subobject{{Index: 0}, {Index: 1}}}
	req := spawn.Request{ItemID: "Note", Decision: place.Decision{Furniture: desk, Subobject: 1}}

	handle, err := h.Materialize(ctx, req)
	require.NoError(t, err)
	assert.True(t, desk.IsOccupied(1))

	_, err = h.Materialize(ctx, req)
	assert.ErrorIs(t, err, spawn.ErrRejected, "same subobject twice")

	require.NoError(t, h.Destroy(ctx, handle))
	assert.False(t, desk.IsOccupied(1))
	assert.Zero(t, h.Len())
	assert.Error(t, h.Destroy(ctx, handle))
}

func TestHost_NodeOccupancy(t *testing.T) {
	ctx := context.Background()
	h := New()
	node := &world.Node{ID: 3}
	req := spawn.Request{ItemID: "Knife", Decision: place.Decision{Node: node, Subobject: place.NoSubobject}}

	handle, err := h.Materialize(ctx, req)
	require.NoError(t, err)
	assert.True(t, node.Occupied)

	_, err = h.Materialize(ctx, req)
	assert.ErrorIs(t, err, spawn.ErrRejected)

	obj, ok := h.Object(handle.ID())
	require.True(t, ok)
	assert.Same(t, node, obj.Node())
	assert.Equal(t, "Knife", obj.ItemID())

	require.NoError(t, h.Destroy(ctx, handle))
	assert.False(t, node.Occupied)
}

func TestHost_OwnershipAndListing(t *testing.T) {
	ctx := context.Background()
	h := New()
	owner := &world.Actor{ID: 1, Name: "Owner"}
	other := &world.Actor{ID: 2, Name: "Other"}

	first, err := h.Materialize(ctx, spawn.Request{ItemID: "A", Decision: place.Decision{Subobject: place.NoSubobject}})
	require.NoError(t, err)
	second, err := h.Materialize(ctx, spawn.Request{ItemID: "B", Decision: place.Decision{Subobject: place.NoSubobject}})
	require.NoError(t, err)

	require.NoError(t, first.SetOwner(owner))
	require.NoError(t, first.AddFingerprint(other))
	assert.Error(t, second.SetOwner(nil))

	objs := h.Objects()
	require.Len(t, objs, 2)
	assert.Equal(t, first.ID(), objs[0].ID())
	assert.Less(t, objs[0].ID(), objs[1].ID())
	assert.Same(t, owner, objs[0].Owner())
	assert.Equal(t, []*world.Actor{other}, objs[0].Fingerprints())
}

func TestHost_RejectFunc(t *testing.T) {
	h := New(WithRejectFunc(func(req spawn.Request) bool { return req.ItemID == "Cursed" }))

	_, err := h.Materialize(context.Background(), spawn.Request{ItemID: "Cursed"})
	assert.ErrorIs(t, err, spawn.ErrRejected)

	_, err = h.Materialize(context.Background(), spawn.Request{ItemID: "Note", Decision: place.Decision{Subobject: place.NoSubobject}})
	assert.NoError(t, err)
}
