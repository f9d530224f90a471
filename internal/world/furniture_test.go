package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFurniture_Occupancy(t *testing.T) {
	f := &Furniture{Subobjects: []Subobject{{Index: 0}, {Index: 1}, {Index: 2}}}

	assert.Len(t, f.FreeSubobjects(), 3)
	f.Occupy(1, 0x30000001)
	assert.True(t, f.IsOccupied(1))
	assert.Equal(t, []Subobject{{Index: 0}, {Index: 2}}, f.FreeSubobjects())

	f.Release(0x30000001)
	assert.False(t, f.IsOccupied(1))
	assert.Len(t, f.FreeSubobjects(), 3)
}

func TestFurniture_SubobjectPose(t *testing.T) {
	f := &Furniture{
		Position:   Vec3{X: 10, Y: 0, Z: 10},
		Yaw:        90,
		Subobjects: []Subobject{{Index: 0, Offset: Vec3{Z: 1, Y: 0.5}}},
	}
	p := f.SubobjectPose(0)
	assert.InDelta(t, 11, p.Position.X, 1e-9)
	assert.InDelta(t, 0.5, p.Position.Y, 1e-9)
	assert.InDelta(t, 10, p.Position.Z, 1e-9)
	assert.Equal(t, 90.0, p.Yaw)
}

func TestNode_Usable(t *testing.T) {
	assert.True(t, (&Node{}).Usable())
	assert.False(t, (&Node{Inaccessible: true}).Usable())
	assert.False(t, (&Node{Obstacle: true}).Usable())
	assert.False(t, (&Node{Occupied: true}).Usable())
}

func TestPose_Geometry(t *testing.T) {
	fwd := Forward(180)
	assert.InDelta(t, 0, fwd.X, 1e-9)
	assert.InDelta(t, -1, fwd.Z, 1e-9)

	assert.Equal(t, 270.0, NormalizeYaw(-90))
	assert.Equal(t, 10.0, NormalizeYaw(370))
	assert.Equal(t, 0.0, NormalizeYaw(360))

	p := Pose{Yaw: 10}.WithYaw(-30)
	assert.Equal(t, 330.0, p.Yaw)

	assert.Equal(t, 25.0, Vec3{X: 3, Z: 4}.DistanceSquared(Vec3{}))
	assert.InDelta(t, math.Sqrt2, math.Sqrt(Vec3{X: 1, Z: 1}.DistanceSquared(Vec3{})), 1e-9)
}

func TestObjectIDGenerator(t *testing.T) {
	g := NewObjectIDGenerator()
	a := g.NextItemID()
	b := g.NextItemID()
	assert.Equal(t, uint32(0x30000001), a)
	assert.Equal(t, a+1, b)
}
