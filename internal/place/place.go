// Package place picks the concrete spot inside a resolved location: a free
// furniture subobject, an accessible node with a jittered pose, or the fixed
// pose of a structural spot.
//
// Occupancy is read from the live graph on every call; decisions are never
// cached.
package place

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/locate"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/match"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// ErrNoPlacement is returned when no placer found a free spot.
var ErrNoPlacement = errors.New("no free placement")

const (
	// nodeJitter is the maximum horizontal offset applied to node placements.
	nodeJitter = 0.1

	// NoSubobject marks decisions that do not use furniture.
	NoSubobject = -1
)

// Decision is one concrete placement.
type Decision struct {
	Room      *world.Room
	SubRoom   *world.Room
	Furniture *world.Furniture
	Subobject int
	Node      *world.Node
	Pose      world.Pose
	RoomID    int
	Placer    string
}

// OnFurniture reports whether the object goes into a furniture subobject.
func (d Decision) OnFurniture() bool {
	return d.Furniture != nil && d.Subobject != NoSubobject
}

// Placer tries to produce a decision.
type Placer interface {
	Name() string
	TryPlace(rng *rand.Rand) (Decision, bool)
}

// Chain tries placers in order.
type Chain []Placer

// TryPlace implements Placer.
func (c Chain) TryPlace(rng *rand.Rand) (Decision, bool) {
	for _, p := range c {
		if d, ok := p.TryPlace(rng); ok {
			d.Placer = p.Name()
			return d, true
		}
	}
	return Decision{}, false
}

// ChainFor builds the placer chain for a target: fixed furniture, room
// furniture when requested, room nodes.
//
// A target with a fixed pose is a structural spot (mailbox, door, entrance):
// its chain is the fixed furniture followed by the pose, and its room only
// feeds Decision.RoomID.
func ChainFor(t locate.Target) Chain {
	var c Chain
	if len(t.Furniture) > 0 {
		c = append(c, FixedFurniture{Candidates: t.Furniture})
	}
	if t.Pose != nil {
		return append(c, FixedPose{Pose: *t.Pose})
	}
	if room := t.PlacementRoom(); room != nil {
		if t.UseFurniture {
			c = append(c, RoomFurniture{Room: room, Presets: t.FurniturePresets})
		}
		c = append(c, RoomNodes{Room: room})
	}
	return c
}

// Resolve places an object for t.
func Resolve(t locate.Target, rng *rand.Rand) (Decision, error) {
	d, ok := ChainFor(t).TryPlace(rng)
	if !ok {
		return Decision{}, fmt.Errorf("%s via %s: %w", t.Kind, t.Strategy, ErrNoPlacement)
	}
	d.Room = t.Room
	d.SubRoom = t.SubRoom
	if room := t.PlacementRoom(); room != nil {
		d.RoomID = room.ID
	} else if d.Furniture != nil && d.Furniture.Room != nil {
		d.RoomID = d.Furniture.Room.ID
	}
	return d, nil
}

// FixedFurniture picks a free subobject among preselected furniture.
type FixedFurniture struct {
	Candidates []*world.Furniture
}

func (FixedFurniture) Name() string { return "fixed_furniture" }

func (p FixedFurniture) TryPlace(rng *rand.Rand) (Decision, bool) {
	return pickSubobject(p.Candidates, rng)
}

// RoomFurniture picks furniture in a room whose name or preset matches any of
// Presets (all furniture when Presets is empty), then a free subobject.
type RoomFurniture struct {
	Room    *world.Room
	Presets []string
}

func (RoomFurniture) Name() string { return "room_furniture" }

func (p RoomFurniture) TryPlace(rng *rand.Rand) (Decision, bool) {
	var candidates []*world.Furniture
	for _, f := range p.Room.Furniture {
		if len(p.Presets) == 0 || match.MatchAny(f.Name, p.Presets) || match.MatchAny(f.Preset, p.Presets) {
			candidates = append(candidates, f)
		}
	}
	return pickSubobject(candidates, rng)
}

func pickSubobject(candidates []*world.Furniture, rng *rand.Rand) (Decision, bool) {
	free := make([]*world.Furniture, 0, len(candidates))
	for _, f := range candidates {
		if len(f.FreeSubobjects()) > 0 {
			free = append(free, f)
		}
	}
	if len(free) == 0 {
		return Decision{}, false
	}
	f := free[rng.IntN(len(free))]
	subs := f.FreeSubobjects()
	sub := subs[rng.IntN(len(subs))]
	return Decision{
		Furniture: f,
		Subobject: sub.Index,
		Pose:      f.SubobjectPose(sub.Index),
	}, true
}

// RoomNodes picks a usable node in a room and jitters the pose.
type RoomNodes struct {
	Room *world.Room
}

func (RoomNodes) Name() string { return "room_nodes" }

func (p RoomNodes) TryPlace(rng *rand.Rand) (Decision, bool) {
	var usable []*world.Node
	for _, n := range p.Room.Nodes {
		if n.Usable() {
			usable = append(usable, n)
		}
	}
	if len(usable) == 0 {
		return Decision{}, false
	}
	n := usable[rng.IntN(len(usable))]
	pos := n.Position
	pos.X += (rng.Float64()*2 - 1) * nodeJitter
	pos.Z += (rng.Float64()*2 - 1) * nodeJitter
	return Decision{
		Node:      n,
		Subobject: NoSubobject,
		Pose:      world.Pose{Position: pos, Yaw: rng.Float64() * 360},
	}, true
}

// FixedPose places at a precomputed pose, orientation included.
type FixedPose struct {
	Pose world.Pose
}

func (FixedPose) Name() string { return "fixed_pose" }

func (p FixedPose) TryPlace(*rand.Rand) (Decision, bool) {
	return Decision{Subobject: NoSubobject, Pose: p.Pose}, true
}
