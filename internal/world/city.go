package world

// City is an in-memory Graph. Hosts that already keep their own graph can
// implement Graph directly; tests and the CLI build a City.
type City struct {
	buildings []*Building
	actors    map[int]*Actor
	addresses map[int]*Address
	rooms     map[int]*Room
}

// NewCity creates an empty city.
func NewCity() *City {
	return &City{
		actors:    make(map[int]*Actor),
		addresses: make(map[int]*Address),
		rooms:     make(map[int]*Room),
	}
}

// Buildings implements Graph.
func (c *City) Buildings() []*Building {
	return c.buildings
}

// AddBuilding registers b and wires back-references of everything below it.
func (c *City) AddBuilding(b *Building) {
	for _, f := range b.Floors {
		f.Building = b
		for _, r := range f.CommonRooms {
			c.linkRoom(r, f, nil)
		}
		for _, a := range f.Addresses {
			a.Floor = f
			c.addresses[a.ID] = a
			for _, r := range a.Rooms {
				c.linkRoom(r, f, a)
			}
		}
	}
	c.buildings = append(c.buildings, b)
}

func (c *City) linkRoom(r *Room, f *Floor, a *Address) {
	r.Floor = f
	r.Address = a
	for _, fu := range r.Furniture {
		fu.Room = r
	}
	for _, n := range r.Nodes {
		n.Room = r
	}
	c.rooms[r.ID] = r
}

// AddActor registers an actor.
func (c *City) AddActor(a *Actor) {
	c.actors[a.ID] = a
}

// Actor returns the actor with the given ID.
func (c *City) Actor(id int) (*Actor, bool) {
	a, ok := c.actors[id]
	return a, ok
}

// Address returns the address with the given ID.
func (c *City) Address(id int) (*Address, bool) {
	a, ok := c.addresses[id]
	return a, ok
}

// Room returns the room with the given ID.
func (c *City) Room(id int) (*Room, bool) {
	r, ok := c.rooms[id]
	return r, ok
}

// RoomCount returns the number of registered rooms.
func (c *City) RoomCount() int {
	return len(c.rooms)
}
