package locate

import (
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/match"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

const maxSuggestions = 3

// Suggestions lists room names close to the filter's room and sub-room
// criteria within the scope spec searched. Used for "did you mean" logging
// after a miss; returns nil for structural kinds.
func Suggestions(g world.Graph, recipient *world.Actor, spec rules.LocationSpec) []string {
	f := filterOf(spec)
	if f == nil {
		return nil
	}

	var scope []*world.Room
	switch spec.(type) {
	case rules.Home:
		if recipient.HasHome() {
			scope = recipient.Home.Rooms
		}
	case rules.Workplace:
		switch {
		case recipient.HasWorkplace():
			scope = recipient.Workplace.Rooms
		case recipient.HasHome():
			scope = recipient.Home.Rooms
		}
	case rules.Custom:
		for _, b := range g.Buildings() {
			scope = append(scope, b.Rooms()...)
		}
	}

	names := make([]string, 0, len(scope)*2)
	for _, r := range scope {
		names = append(names, r.Name, r.Preset)
	}

	criteria := make([]string, 0, len(f.RoomNames)+len(f.RoomPresets)+len(f.SubRoomNames)+len(f.SubRoomPresets))
	criteria = append(criteria, f.RoomNames...)
	criteria = append(criteria, f.RoomPresets...)
	criteria = append(criteria, f.SubRoomNames...)
	criteria = append(criteria, f.SubRoomPresets...)
	return match.SuggestNames(criteria, names, maxSuggestions)
}
