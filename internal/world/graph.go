// Package world describes the read-only view of the city graph that the spawner
// queries: buildings, floors, addresses, rooms, furniture, placement nodes and
// the actors living and working in them.
//
// The graph is owned by the host. The spawner never changes its shape; the only
// mutable state is subobject and node occupancy, which the host updates when it
// materializes an object.
package world

// Graph is the accessor the spawner consumes. Implementations must return the
// live graph (not a copy) so occupancy changes are visible to later lookups.
type Graph interface {
	Buildings() []*Building
}

// Building is a top-level structure with floors and street entrances.
type Building struct {
	ID        int
	Name      string
	Preset    string
	Floors    []*Floor
	Entrances []Entrance
}

// GroundFloor returns the floor with the lowest level, or nil for an empty building.
func (b *Building) GroundFloor() *Floor {
	var ground *Floor
	for _, f := range b.Floors {
		if ground == nil || f.Level < ground.Level {
			ground = f
		}
	}
	return ground
}

// StreetEntrances returns entrances that face the street.
func (b *Building) StreetEntrances() []Entrance {
	out := make([]Entrance, 0, len(b.Entrances))
	for _, e := range b.Entrances {
		if e.Street {
			out = append(out, e)
		}
	}
	return out
}

// Rooms returns every room of the building: address rooms and common areas.
func (b *Building) Rooms() []*Room {
	var out []*Room
	for _, f := range b.Floors {
		out = append(out, f.Rooms()...)
	}
	return out
}

// Floor is one level of a building. Common rooms (hallways, lobbies, stairwells)
// belong to the floor directly; everything else belongs to an address.
type Floor struct {
	ID          int
	Name        string
	Level       int
	Building    *Building
	Addresses   []*Address
	CommonRooms []*Room
}

// Rooms returns the common rooms followed by every address room on the floor.
func (f *Floor) Rooms() []*Room {
	out := make([]*Room, 0, len(f.CommonRooms))
	out = append(out, f.CommonRooms...)
	for _, a := range f.Addresses {
		out = append(out, a.Rooms...)
	}
	return out
}

// Address is a residence or company premises on a floor.
type Address struct {
	ID        int
	Name      string
	Preset    string
	Company   string
	Floor     *Floor
	Rooms     []*Room
	Entrances []Entrance
	Mailbox   *Furniture
}

// Building returns the building the address belongs to.
func (a *Address) Building() *Building {
	if a.Floor == nil {
		return nil
	}
	return a.Floor.Building
}

// Room is a named, preset-tagged space holding furniture and placement nodes.
// Address is nil for common rooms.
type Room struct {
	ID        int
	Name      string
	Preset    string
	Floor     *Floor
	Address   *Address
	Furniture []*Furniture
	Nodes     []*Node
}

// FloorName returns the name of the room's floor, or "" when detached.
func (r *Room) FloorName() string {
	if r.Floor == nil {
		return ""
	}
	return r.Floor.Name
}

// Building returns the building containing the room.
func (r *Room) Building() *Building {
	if r.Floor == nil {
		return nil
	}
	return r.Floor.Building
}

// Entrance is a door in a building or address wall. Facing is the yaw in
// degrees pointing away from the interior.
type Entrance struct {
	Position Vec3
	Facing   float64
	Street   bool
}

// Node is a discrete point on a room's navigable surface.
type Node struct {
	ID           int
	Position     Vec3
	Inaccessible bool
	Obstacle     bool
	Occupied     bool
	Room         *Room
}

// Usable reports whether an object may be placed on the node.
func (n *Node) Usable() bool {
	return !n.Inaccessible && !n.Obstacle && !n.Occupied
}
