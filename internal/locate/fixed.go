package locate

import (
	"math"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/match"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// frontOffset is how far in front of a door or mailbox a fixed pose sits.
const frontOffset = 0.5

// MailboxStrategy targets the mailbox of the recipient's home address.
type MailboxStrategy struct{}

func (MailboxStrategy) Name() string { return "mailbox" }

func (MailboxStrategy) TryResolve(req Request) (Target, bool) {
	home := req.Recipient.Home
	if home == nil || home.Mailbox == nil {
		return Target{}, false
	}
	mb := home.Mailbox
	pose := frontPose(mb.Position, mb.Yaw, frontOffset)
	return Target{
		Address:   home,
		Room:      mb.Room,
		Furniture: []*world.Furniture{mb},
		Pose:      &pose,
	}, true
}

// DoormatStrategy targets the hiding place nearest the recipient's front door.
// When the hallway has no hiding place the object goes just outside the door.
type DoormatStrategy struct{}

func (DoormatStrategy) Name() string { return "doormat" }

func (DoormatStrategy) TryResolve(req Request) (Target, bool) {
	home := req.Recipient.Home
	if home == nil || len(home.Entrances) == 0 {
		return Target{}, false
	}

	var hiding []*world.Furniture
	if home.Floor != nil {
		for _, r := range home.Floor.CommonRooms {
			for _, f := range r.Furniture {
				if f.HidingPlace {
					hiding = append(hiding, f)
				}
			}
		}
	}

	door := home.Entrances[0]
	t := Target{Address: home}
	if f := nearestFurniture(hiding, home.Entrances); f != nil {
		t.Room = f.Room
		t.Furniture = []*world.Furniture{f}
		door = nearestEntrance(home.Entrances, f.Position)
	}
	pose := frontPose(door.Position, door.Facing, frontOffset)
	t.Pose = &pose
	return t, true
}

// LobbyStrategy targets the lobby on the ground floor of the recipient's home
// building.
type LobbyStrategy struct {
	UseFurniture     bool
	FurniturePresets []string
}

func (LobbyStrategy) Name() string { return "lobby" }

func (s LobbyStrategy) TryResolve(req Request) (Target, bool) {
	home := req.Recipient.Home
	if home == nil || home.Building() == nil {
		return Target{}, false
	}
	b := home.Building()
	ground := b.GroundFloor()
	if ground == nil {
		return Target{}, false
	}

	var lobbies []*world.Room
	for _, r := range ground.CommonRooms {
		if isLobby(r) {
			lobbies = append(lobbies, r)
		}
	}
	if len(lobbies) == 0 {
		return Target{}, false
	}

	t := Target{
		Address:          home,
		Room:             lobbies[0],
		UseFurniture:     s.UseFurniture,
		FurniturePresets: s.FurniturePresets,
	}
	if s.UseFurniture {
		return t, true
	}

	var hiding []*world.Furniture
	for _, r := range lobbies {
		for _, f := range r.Furniture {
			if f.HidingPlace {
				hiding = append(hiding, f)
			}
		}
	}
	entrances := b.StreetEntrances()
	if len(entrances) == 0 {
		entrances = b.Entrances
	}
	if f := nearestFurniture(hiding, entrances); f != nil {
		t.Room = f.Room
		t.Furniture = []*world.Furniture{f}
	}
	return t, true
}

func isLobby(r *world.Room) bool {
	return match.MatchName(r.Name, "lobby") || match.MatchName(r.Preset, "lobby")
}

// BuildingEntranceStrategy targets the street entrance of the recipient's home
// building closest to the home address. The yaw is fixed facing out of the
// building.
type BuildingEntranceStrategy struct {
	Side rules.EntranceSide
}

func (BuildingEntranceStrategy) Name() string { return "building_entrance" }

func (s BuildingEntranceStrategy) TryResolve(req Request) (Target, bool) {
	home := req.Recipient.Home
	if home == nil || home.Building() == nil {
		return Target{}, false
	}
	b := home.Building()
	entrances := b.StreetEntrances()
	if len(entrances) == 0 {
		entrances = b.Entrances
	}
	if len(entrances) == 0 {
		return Target{}, false
	}

	door := nearestEntrance(entrances, addressAnchor(home))
	offset := frontOffset
	if s.Side == rules.SideInside {
		offset = -frontOffset
	}
	pose := frontPose(door.Position, door.Facing, offset)

	t := Target{Address: home, Pose: &pose}
	if s.Side == rules.SideInside {
		if ground := b.GroundFloor(); ground != nil {
			t.Room = nearestRoom(ground.CommonRooms, door.Position)
		}
	}
	return t, true
}

// frontPose returns a pose offset along yaw's forward vector, keeping yaw.
func frontPose(origin world.Vec3, yaw, offset float64) world.Pose {
	return world.Pose{
		Position: origin.Add(world.Forward(yaw).Scale(offset)),
		Yaw:      world.NormalizeYaw(yaw),
	}
}

// addressAnchor is a representative position of an address: its first door,
// else its mailbox, else the first node of its first room.
func addressAnchor(a *world.Address) world.Vec3 {
	if len(a.Entrances) > 0 {
		return a.Entrances[0].Position
	}
	if a.Mailbox != nil {
		return a.Mailbox.Position
	}
	for _, r := range a.Rooms {
		if len(r.Nodes) > 0 {
			return r.Nodes[0].Position
		}
	}
	return world.Vec3{}
}

func nearestEntrance(entrances []world.Entrance, to world.Vec3) world.Entrance {
	best := entrances[0]
	bestDist := math.Inf(1)
	for _, e := range entrances {
		if d := e.Position.DistanceSquared(to); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func nearestFurniture(furniture []*world.Furniture, entrances []world.Entrance) *world.Furniture {
	var best *world.Furniture
	bestDist := math.Inf(1)
	for _, f := range furniture {
		for _, e := range entrances {
			if d := f.Position.DistanceSquared(e.Position); d < bestDist {
				best, bestDist = f, d
			}
		}
	}
	return best
}

func nearestRoom(rooms []*world.Room, to world.Vec3) *world.Room {
	var best *world.Room
	bestDist := math.Inf(1)
	for _, r := range rooms {
		for _, n := range r.Nodes {
			if d := n.Position.DistanceSquared(to); d < bestDist {
				best, bestDist = r, d
			}
		}
	}
	if best == nil && len(rooms) > 0 {
		best = rooms[0]
	}
	return best
}
