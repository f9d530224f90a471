package locate

import (
	"strings"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/match"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// SubRoomChain refines a target that already has a room: first a matching
// sub-room in the same building, then the parent room itself unless the
// filter makes the sub-room mandatory.
func SubRoomChain(parent Target, f rules.RoomFilter) Chain {
	return Chain{
		MatchingSubRoom{Parent: parent, Filter: f},
		ParentRoom{Parent: parent, Required: f.SubRoomRequired},
	}
}

// MatchingSubRoom searches the parent room's building for rooms matching the
// sub-room criteria. Rooms whose name carries the parent room's name or the
// address company are preferred, then rooms of the same address, then any.
type MatchingSubRoom struct {
	Parent Target
	Filter rules.RoomFilter
}

func (MatchingSubRoom) Name() string { return "sub_room" }

func (s MatchingSubRoom) TryResolve(req Request) (Target, bool) {
	parent := s.Parent.Room
	if parent == nil || parent.Building() == nil {
		return Target{}, false
	}
	m := match.Compile(match.Criteria{Names: s.Filter.SubRoomNames, Presets: s.Filter.SubRoomPresets})

	var prefixed, sameAddress, other []*world.Room
	prefixes := subRoomPrefixes(parent)
	for _, r := range parent.Building().Rooms() {
		if r == parent || !m.Matches(roomCandidate(r)) {
			continue
		}
		switch {
		case hasAnyPrefix(r.Name, prefixes):
			prefixed = append(prefixed, r)
		case parent.Address != nil && r.Address == parent.Address:
			sameAddress = append(sameAddress, r)
		default:
			other = append(other, r)
		}
	}

	for _, tier := range [][]*world.Room{prefixed, sameAddress, other} {
		if len(tier) == 0 {
			continue
		}
		t := s.Parent
		t.SubRoom = tier[req.Rng.IntN(len(tier))]
		t.Strategy = s.Parent.Strategy
		return t, true
	}
	return Target{}, false
}

func subRoomPrefixes(parent *world.Room) []string {
	out := []string{strings.ToLower(strings.TrimSpace(parent.Name))}
	if parent.Address != nil && parent.Address.Company != "" {
		out = append(out, strings.ToLower(strings.TrimSpace(parent.Address.Company)))
	}
	return out
}

func hasAnyPrefix(name string, prefixes []string) bool {
	lowered := strings.ToLower(name)
	for _, p := range prefixes {
		if p != "" && strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// ParentRoom keeps the parent room when no sub-room matched.
type ParentRoom struct {
	Parent   Target
	Required bool
}

func (ParentRoom) Name() string { return "parent_room" }

func (s ParentRoom) TryResolve(Request) (Target, bool) {
	if s.Required {
		return Target{}, false
	}
	return s.Parent, true
}
