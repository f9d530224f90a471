package place

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/locate"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

func loadCity(t *testing.T) *world.City {
	t.Helper()
	city, err := world.LoadCity("../../testdata/city.yaml")
	require.NoError(t, err)
	return city
}

func room(t *testing.T, city *world.City, id int) *world.Room {
	t.Helper()
	r, ok := city.Room(id)
	require.True(t, ok)
	return r
}

func TestRoomFurniture_SubobjectExclusivity(t *testing.T) {
	city := loadCity(t)
	kitchen := room(t, city, 1010) // counter with subobjects 0 and 1
	counter := kitchen.Furniture[0]
	counter.Occupy(0, 0x30000001)

	target := locate.Target{Room: kitchen, UseFurniture: true, FurniturePresets: []string{"Counter"}}
	for seed := range uint64(50) {
		d, err := Resolve(target, rand.New(rand.NewPCG(seed, 7)))
		require.NoError(t, err)
		require.True(t, d.OnFurniture())
		assert.Equal(t, 1, d.Subobject, "occupied subobject must never be chosen")
		assert.Equal(t, "room_furniture", d.Placer)
		assert.Equal(t, 1010, d.RoomID)
	}

	// Both subobjects used: falls through to nodes.
	counter.Occupy(1, 0x30000002)
	d, err := Resolve(target, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.False(t, d.OnFurniture())
	assert.Equal(t, "room_nodes", d.Placer)
	require.NotNil(t, d.Node)
}

func TestRoomFurniture_PresetFilter(t *testing.T) {
	city := loadCity(t)
	lobby := room(t, city, 1001)

	target := locate.Target{Room: lobby, UseFurniture: true, FurniturePresets: []string{"sofa"}}
	d, err := Resolve(target, rand.New(rand.NewPCG(3, 3)))
	require.NoError(t, err)
	assert.Equal(t, "Lobby Sofa", d.Furniture.Name)

	// Empty preset list accepts any furniture.
	target.FurniturePresets = nil
	d, err = Resolve(target, rand.New(rand.NewPCG(3, 3)))
	require.NoError(t, err)
	assert.True(t, d.OnFurniture())
}

func TestRoomNodes_SkipsUnusableAndJitters(t *testing.T) {
	city := loadCity(t)
	lobby := room(t, city, 1001) // node 2 is an obstacle

	for seed := range uint64(100) {
		d, ok := RoomNodes{Room: lobby}.TryPlace(rand.New(rand.NewPCG(seed, 11)))
		require.True(t, ok)
		assert.NotEqual(t, 2, d.Node.ID)
		assert.InDelta(t, d.Node.Position.X, d.Pose.Position.X, nodeJitter)
		assert.InDelta(t, d.Node.Position.Z, d.Pose.Position.Z, nodeJitter)
		assert.Equal(t, d.Node.Position.Y, d.Pose.Position.Y)
		assert.GreaterOrEqual(t, d.Pose.Yaw, 0.0)
		assert.Less(t, d.Pose.Yaw, 360.0)
	}
}

func TestResolve_NoPlacement(t *testing.T) {
	city := loadCity(t)
	bedroom := room(t, city, 1012) // only an inaccessible node

	_, err := Resolve(locate.Target{Kind: rules.KindHome, Room: bedroom}, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, ErrNoPlacement)

	_, err = Resolve(locate.Target{}, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, ErrNoPlacement, "empty target")
}

func TestResolve_FixedFurnitureThenPose(t *testing.T) {
	city := loadCity(t)
	flat, _ := city.Address(10)
	mailbox := flat.Mailbox
	pose := world.Pose{Position: world.Vec3{X: 1, Z: 2}, Yaw: 180}

	target := locate.Target{Furniture: []*world.Furniture{mailbox}, Pose: &pose}
	d, err := Resolve(target, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Same(t, mailbox, d.Furniture)
	assert.Equal(t, "fixed_furniture", d.Placer)
	assert.Equal(t, 1001, d.RoomID, "room id comes from the furniture when the target has no room")

	mailbox.Occupy(0, 0x30000009)
	d, err = Resolve(target, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "fixed_pose", d.Placer)
	assert.Equal(t, pose, d.Pose, "fixed pose keeps its orientation")
	assert.Equal(t, NoSubobject, d.Subobject)
}

func TestChainFor_Order(t *testing.T) {
	city := loadCity(t)
	kitchen := room(t, city, 1010)
	pose := world.Pose{}

	names := func(c Chain) []string {
		var out []string
		for _, p := range c {
			out = append(out, p.Name())
		}
		return out
	}

	assert.Equal(t,
		[]string{"fixed_furniture", "room_furniture", "room_nodes"},
		names(ChainFor(locate.Target{Furniture: kitchen.Furniture, Room: kitchen, UseFurniture: true})))
	assert.Equal(t, []string{"room_nodes"}, names(ChainFor(locate.Target{Room: kitchen})))

	// Структурная точка: комната не участвует в размещении.
	assert.Equal(t,
		[]string{"fixed_furniture", "fixed_pose"},
		names(ChainFor(locate.Target{Furniture: kitchen.Furniture, Room: kitchen, UseFurniture: true, Pose: &pose})))
	assert.Equal(t, []string{"fixed_pose"}, names(ChainFor(locate.Target{Room: kitchen, Pose: &pose})))
}

func TestResolve_FullMailboxUsesFixedPose(t *testing.T) {
	city := loadCity(t)
	vera, _ := city.Actor(1)
	req := locate.Request{Recipient: vera, Graph: city, Rng: rand.New(rand.NewPCG(1, 2))}

	target, err := locate.Resolve(req, rules.Mailbox{})
	require.NoError(t, err)
	for _, f := range target.Furniture {
		for _, s := range f.Subobjects {
			f.Occupy(s.Index, 0x30000100+uint32(s.Index))
		}
	}

	for seed := range uint64(20) {
		d, err := Resolve(target, rand.New(rand.NewPCG(seed, 5)))
		require.NoError(t, err)
		assert.Equal(t, "fixed_pose", d.Placer)
		assert.Nil(t, d.Node, "lobby nodes are never used for a mailbox")
		assert.InDelta(t, 0, d.Pose.Position.X, 1e-9)
		assert.InDelta(t, 1, d.Pose.Position.Y, 1e-9)
		assert.InDelta(t, -8.5, d.Pose.Position.Z, 1e-9)
		assert.Equal(t, 180.0, d.Pose.Yaw)
		assert.Equal(t, 1001, d.RoomID)
	}
}

func TestResolve_InsideEntranceUsesFixedPose(t *testing.T) {
	city := loadCity(t)
	vera, _ := city.Actor(1)
	req := locate.Request{Recipient: vera, Graph: city, Rng: rand.New(rand.NewPCG(1, 2))}

	target, err := locate.Resolve(req, rules.BuildingEntrance{Side: rules.SideInside})
	require.NoError(t, err)
	require.NotNil(t, target.Room)

	for seed := range uint64(20) {
		d, err := Resolve(target, rand.New(rand.NewPCG(seed, 9)))
		require.NoError(t, err)
		assert.Equal(t, "fixed_pose", d.Placer)
		assert.Nil(t, d.Node)
		assert.InDelta(t, 0, d.Pose.Position.X, 1e-9)
		assert.InDelta(t, -9.5, d.Pose.Position.Z, 1e-9)
		assert.Equal(t, 180.0, d.Pose.Yaw, "yaw stays facing out of the building")
		assert.Equal(t, target.Room.ID, d.RoomID)
	}
}

func TestResolve_SubRoomIsPlacementRoom(t *testing.T) {
	city := loadCity(t)
	kitchen := room(t, city, 1010)
	bath := room(t, city, 1011)

	d, err := Resolve(locate.Target{Room: kitchen, SubRoom: bath}, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1011, d.RoomID)
	assert.Same(t, bath, d.Node.Room)
	assert.Same(t, kitchen, d.Room)
	assert.Same(t, bath, d.SubRoom)
}
