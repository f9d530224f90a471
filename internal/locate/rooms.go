package locate

import (
	"log/slog"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/match"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// roomMatcher compiles the room part of a filter.
func roomMatcher(f rules.RoomFilter) *match.Matcher {
	return match.Compile(match.Criteria{
		Names:   f.RoomNames,
		Presets: f.RoomPresets,
		Floors:  f.FloorNames,
	})
}

func roomCandidate(r *world.Room) match.Candidate {
	return match.Candidate{Name: r.Name, Preset: r.Preset, Floor: r.FloorName()}
}

func matchingRooms(m *match.Matcher, rooms []*world.Room) []*world.Room {
	var out []*world.Room
	for _, r := range rooms {
		if m.Matches(roomCandidate(r)) {
			out = append(out, r)
		}
	}
	return out
}

func addressTarget(req Request, a *world.Address, f rules.RoomFilter) (Target, bool) {
	if a == nil {
		return Target{}, false
	}
	rooms := matchingRooms(roomMatcher(f), a.Rooms)
	if len(rooms) == 0 {
		return Target{}, false
	}
	return Target{
		Address:          a,
		Room:             rooms[req.Rng.IntN(len(rooms))],
		UseFurniture:     f.UseFurniture,
		FurniturePresets: f.FurniturePresets,
	}, true
}

// HomeStrategy picks a random matching room of the recipient's home.
type HomeStrategy struct {
	Filter rules.RoomFilter
}

func (HomeStrategy) Name() string { return "home" }

func (s HomeStrategy) TryResolve(req Request) (Target, bool) {
	return addressTarget(req, req.Recipient.Home, s.Filter)
}

// WorkplaceStrategy picks a random matching room of the recipient's
// workplace.
type WorkplaceStrategy struct {
	Filter rules.RoomFilter
}

func (WorkplaceStrategy) Name() string { return "workplace" }

func (s WorkplaceStrategy) TryResolve(req Request) (Target, bool) {
	return addressTarget(req, req.Recipient.Workplace, s.Filter)
}

// WorkplaceOrHome resolves the workplace when the recipient has one and the
// home only when it does not. A workplace whose rooms miss the filter is a
// miss; the home is not tried.
type WorkplaceOrHome struct {
	Filter rules.RoomFilter
}

func (WorkplaceOrHome) Name() string { return "workplace_or_home" }

func (s WorkplaceOrHome) TryResolve(req Request) (Target, bool) {
	var inner Strategy = WorkplaceStrategy{Filter: s.Filter}
	if !req.Recipient.HasWorkplace() {
		slog.Info("recipient has no workplace, using home instead",
			"recipient", req.Recipient.Name)
		inner = HomeStrategy{Filter: s.Filter}
	}
	t, ok := inner.TryResolve(req)
	if ok {
		t.Strategy = inner.Name()
	}
	return t, ok
}

// CustomStrategy picks a random room from the matches of a completed scan.
type CustomStrategy struct {
	Filter rules.RoomFilter
	Rooms  []*world.Room
}

func (CustomStrategy) Name() string { return "custom" }

func (s CustomStrategy) TryResolve(req Request) (Target, bool) {
	if len(s.Rooms) == 0 {
		return Target{}, false
	}
	r := s.Rooms[req.Rng.IntN(len(s.Rooms))]
	return Target{
		Address:          r.Address,
		Room:             r,
		UseFurniture:     s.Filter.UseFurniture,
		FurniturePresets: s.Filter.FurniturePresets,
	}, true
}
