package locate

import (
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/match"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/scan"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// location is one unit of scan work: an address, or the common rooms of a floor.
type location struct {
	rooms []*world.Room
}

// RoomScan searches every address of every building passing the building
// filter for rooms passing the room filter. It implements scan.Task.
//
// Buildings are expanded into locations only when the walk reaches them. One
// unit of work is either expanding one building or visiting one location, and
// a Step does at most batch units.
type RoomScan struct {
	buildings *scan.Cursor[*world.Building]
	filter    *match.Matcher
	rooms     *match.Matcher

	queue   []location
	walked  bool
	visited int
	known   int
	matches []*world.Room
}

var _ scan.Task = (*RoomScan)(nil)

// NewRoomScan prepares a scan of g for spec. Nothing is walked until Step.
func NewRoomScan(g world.Graph, spec rules.Custom) *RoomScan {
	s := &RoomScan{
		filter: match.Compile(match.Criteria{
			Names:   spec.BuildingNames,
			Presets: spec.BuildingPresets,
		}),
		rooms: roomMatcher(spec.Filter),
	}
	s.buildings = scan.NewCursor(g.Buildings(), s.expand)
	return s
}

func (s *RoomScan) expand(b *world.Building) bool {
	if !s.filter.Matches(match.Candidate{Name: b.Name, Preset: b.Preset}) {
		return false
	}
	for _, f := range b.Floors {
		if len(f.CommonRooms) > 0 {
			s.queue = append(s.queue, location{rooms: f.CommonRooms})
		}
		for _, a := range f.Addresses {
			if len(a.Rooms) > 0 {
				s.queue = append(s.queue, location{rooms: a.Rooms})
			}
		}
	}
	s.known = s.visited + len(s.queue)
	return false
}

func (s *RoomScan) visit(loc location) {
	for _, r := range loc.rooms {
		if s.rooms.Matches(roomCandidate(r)) {
			s.matches = append(s.matches, r)
		}
	}
	s.visited++
}

// Step implements scan.Task.
func (s *RoomScan) Step(batch int) bool {
	if s.buildings.Cancelled() {
		return true
	}
	for range max(batch, 1) {
		if len(s.queue) > 0 {
			loc := s.queue[0]
			s.queue[0] = location{}
			s.queue = s.queue[1:]
			s.visit(loc)
			continue
		}
		if s.walked {
			break
		}
		s.walked = s.buildings.Step(1)
	}
	return s.walked && len(s.queue) == 0
}

// Cancel implements scan.Task.
func (s *RoomScan) Cancel() {
	s.buildings.Cancel()
}

// Cancelled reports whether the scan was cancelled.
func (s *RoomScan) Cancelled() bool {
	return s.buildings.Cancelled()
}

// Progress returns the number of visited locations and the number of
// locations known so far. known grows as buildings are expanded.
func (s *RoomScan) Progress() (visited, known int) {
	return s.visited, s.known
}

// Matches returns the rooms found so far.
func (s *RoomScan) Matches() []*world.Room {
	return s.matches
}

// RunToCompletion steps the scan until it finishes. Intended for tools and
// tests; the engine always goes through the scheduler.
func (s *RoomScan) RunToCompletion(batch int) {
	for !s.Step(batch) {
	}
}
