package rules

import (
	"fmt"
	"strings"
)

// Kind names a location variant.
type Kind string

const (
	KindMailbox          Kind = "Mailbox"
	KindDoormat          Kind = "Doormat"
	KindLobby            Kind = "Lobby"
	KindBuildingEntrance Kind = "BuildingEntrance"
	KindHome             Kind = "Home"
	KindWorkplace        Kind = "Workplace"
	KindCustom           Kind = "Custom"
)

var allKinds = []Kind{
	KindMailbox, KindDoormat, KindLobby, KindBuildingEntrance,
	KindHome, KindWorkplace, KindCustom,
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown location kind %q", s)
}

// LocationSpec is a closed set of location variants. Only types in this
// package implement it; switch on the concrete type to handle each kind.
type LocationSpec interface {
	Kind() Kind
	isLocationSpec()
}

// Mailbox places the item in the recipient's home mailbox.
type Mailbox struct{}

// Doormat places the item at the hiding place nearest the recipient's front door.
type Doormat struct{}

// Lobby places the item in the lobby of the recipient's home building.
type Lobby struct {
	UseFurniture     bool
	FurniturePresets []string
}

// EntranceSide selects which side of the building entrance wall is used.
type EntranceSide string

const (
	SideOutside EntranceSide = "outside"
	SideInside  EntranceSide = "inside"
)

// IsValid reports whether s is a recognised side.
func (s EntranceSide) IsValid() bool {
	return s == SideOutside || s == SideInside
}

// BuildingEntrance places the item by the street entrance of the recipient's
// home building.
type BuildingEntrance struct {
	Side EntranceSide
}

// RoomFilter narrows open-ended searches. Empty lists are wildcards.
type RoomFilter struct {
	RoomNames        []string
	RoomPresets      []string
	FloorNames       []string
	SubRoomNames     []string
	SubRoomPresets   []string
	SubRoomRequired  bool
	UseFurniture     bool
	FurniturePresets []string
}

// HasSubRoom reports whether a sub-room criterion is configured.
func (f RoomFilter) HasSubRoom() bool {
	return len(f.SubRoomNames) > 0 || len(f.SubRoomPresets) > 0
}

// Home searches the recipient's home address.
type Home struct {
	Filter RoomFilter
}

// Workplace searches the recipient's workplace, falling back to home.
type Workplace struct {
	Filter RoomFilter
}

// Custom searches every address in the city.
type Custom struct {
	Filter          RoomFilter
	BuildingNames   []string
	BuildingPresets []string
}

func (Mailbox) Kind() Kind          { return KindMailbox }
func (Doormat) Kind() Kind          { return KindDoormat }
func (Lobby) Kind() Kind            { return KindLobby }
func (BuildingEntrance) Kind() Kind { return KindBuildingEntrance }
func (Home) Kind() Kind             { return KindHome }
func (Workplace) Kind() Kind        { return KindWorkplace }
func (Custom) Kind() Kind           { return KindCustom }

func (Mailbox) isLocationSpec()          {}
func (Doormat) isLocationSpec()          {}
func (Lobby) isLocationSpec()            {}
func (BuildingEntrance) isLocationSpec() {}
func (Home) isLocationSpec()             {}
func (Workplace) isLocationSpec()        {}
func (Custom) isLocationSpec()           {}

// NeedsHome reports whether resolving spec requires the recipient to have a
// home address. Workplace needs home only as its fallback, Custom never.
func NeedsHome(spec LocationSpec) bool {
	switch spec.(type) {
	case Mailbox, Doormat, Lobby, BuildingEntrance, Home:
		return true
	}
	return false
}
