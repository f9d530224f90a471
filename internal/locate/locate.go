// Package locate turns a rule's LocationSpec into a concrete target: an
// address, a room (optionally a sub-room) and, for structural spots, fixed
// furniture candidates or a fixed pose.
//
// Every location kind is an ordered list of strategies tried in sequence
// (workplace → home, sub-room → parent room). The Custom kind searches the
// whole city and therefore runs as a RoomScan advanced by the scan scheduler;
// its results feed the chain once the scan completes.
package locate

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

var (
	// ErrNoLocation is returned when no strategy in the chain produced a target.
	ErrNoLocation = errors.New("no location matched")

	// ErrNeedsScan is returned by Resolve for kinds that must be scanned first.
	ErrNeedsScan = errors.New("location kind requires a city scan")
)

// Request is the input every strategy sees.
type Request struct {
	Recipient *world.Actor
	Graph     world.Graph
	Rng       *rand.Rand
}

// Target is a resolved location, not yet a placement.
type Target struct {
	Kind    rules.Kind
	Address *world.Address
	Room    *world.Room
	SubRoom *world.Room

	// Furniture lists fixed furniture candidates (mailbox, hiding places).
	Furniture []*world.Furniture
	// Pose is the fixed fallback pose for structural spots; its yaw is kept.
	Pose *world.Pose

	UseFurniture     bool
	FurniturePresets []string

	// Strategy names the strategy that produced the target.
	Strategy string
}

// PlacementRoom returns the room objects go into: the sub-room when one was
// resolved, the room otherwise.
func (t Target) PlacementRoom() *world.Room {
	if t.SubRoom != nil {
		return t.SubRoom
	}
	return t.Room
}

// Strategy tries to produce a target for one request.
type Strategy interface {
	Name() string
	TryResolve(req Request) (Target, bool)
}

// Chain tries strategies in order; the first success wins.
type Chain []Strategy

// TryResolve implements Strategy.
func (c Chain) TryResolve(req Request) (Target, bool) {
	for _, s := range c {
		if t, ok := s.TryResolve(req); ok {
			if t.Strategy == "" {
				t.Strategy = s.Name()
			}
			return t, true
		}
	}
	return Target{}, false
}

// Name implements Strategy.
func (c Chain) Name() string {
	return "chain"
}

// NeedsScan reports whether spec is resolved by a full-city RoomScan.
func NeedsScan(spec rules.LocationSpec) bool {
	_, ok := spec.(rules.Custom)
	return ok
}

// ChainFor builds the strategy chain for every kind that resolves within a
// single call. Custom returns nil; use NewRoomScan and ResolveScanned.
func ChainFor(spec rules.LocationSpec) Chain {
	switch s := spec.(type) {
	case rules.Mailbox:
		return Chain{MailboxStrategy{}}
	case rules.Doormat:
		return Chain{DoormatStrategy{}}
	case rules.Lobby:
		return Chain{LobbyStrategy{UseFurniture: s.UseFurniture, FurniturePresets: s.FurniturePresets}}
	case rules.BuildingEntrance:
		return Chain{BuildingEntranceStrategy{Side: s.Side}}
	case rules.Home:
		return Chain{HomeStrategy{Filter: s.Filter}}
	case rules.Workplace:
		return Chain{WorkplaceOrHome{Filter: s.Filter}}
	case rules.Custom:
		return nil
	}
	return nil
}

// Resolve runs the chain for spec and refines the room with the sub-room
// chain when the filter asks for one.
func Resolve(req Request, spec rules.LocationSpec) (Target, error) {
	if NeedsScan(spec) {
		return Target{}, ErrNeedsScan
	}
	chain := ChainFor(spec)
	if chain == nil {
		return Target{}, fmt.Errorf("location kind %T: %w", spec, ErrNoLocation)
	}
	return finish(req, chain, spec.Kind(), filterOf(spec))
}

// ResolveScanned finishes a Custom spec with the rooms a completed scan found.
func ResolveScanned(req Request, spec rules.Custom, scan *RoomScan) (Target, error) {
	chain := Chain{CustomStrategy{Filter: spec.Filter, Rooms: scan.Matches()}}
	return finish(req, chain, spec.Kind(), &spec.Filter)
}

func finish(req Request, chain Chain, kind rules.Kind, filter *rules.RoomFilter) (Target, error) {
	t, ok := chain.TryResolve(req)
	if !ok {
		return Target{}, fmt.Errorf("%s: %w", kind, ErrNoLocation)
	}
	t.Kind = kind
	if filter == nil || !filter.HasSubRoom() || t.Room == nil {
		return t, nil
	}

	refined, ok := SubRoomChain(t, *filter).TryResolve(req)
	if !ok {
		return Target{}, fmt.Errorf("%s: required sub-room not found: %w", kind, ErrNoLocation)
	}
	return refined, nil
}

func filterOf(spec rules.LocationSpec) *rules.RoomFilter {
	switch s := spec.(type) {
	case rules.Home:
		return &s.Filter
	case rules.Workplace:
		return &s.Filter
	case rules.Custom:
		return &s.Filter
	}
	return nil
}
