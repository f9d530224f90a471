// Package ownership maps a rule's abstract roles to the actors of the current
// case and marks spawned objects with their primary and secondary owners.
package ownership

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// ErrUnresolved is returned when a role has no actor or the actor lacks the
// address a location needs.
var ErrUnresolved = errors.New("role not resolvable")

// Cast is the set of actors the host reports for the current case.
type Cast struct {
	Victim   *world.Actor
	Murderer *world.Actor
	Player   *world.Actor
}

// Resolver resolves roles against a cast.
type Resolver struct {
	cast Cast
	rng  *rand.Rand
}

// NewResolver creates a resolver. rng decides the Random role.
func NewResolver(cast Cast, rng *rand.Rand) *Resolver {
	return &Resolver{cast: cast, rng: rng}
}

// Cast returns the cast the resolver uses.
func (r *Resolver) Cast() Cast {
	return r.cast
}

// Resolve maps role to an actor. Random picks victim or murderer with equal
// probability on every call.
func (r *Resolver) Resolve(role rules.Role) (*world.Actor, error) {
	if role == rules.RoleRandom {
		role = r.randomRole()
	}
	return r.resolveFixed(role)
}

func (r *Resolver) randomRole() rules.Role {
	if r.rng.IntN(2) == 0 {
		return rules.RoleVictim
	}
	return rules.RoleMurderer
}

func (r *Resolver) resolveFixed(role rules.Role) (*world.Actor, error) {
	var a *world.Actor
	switch role {
	case rules.RoleVictim:
		a = r.cast.Victim
	case rules.RoleMurderer:
		a = r.cast.Murderer
	case rules.RolePlayer:
		a = r.cast.Player
	case rules.RoleVictimDoctor:
		a = related(r.cast.Victim, func(x *world.Actor) *world.Actor { return x.Doctor })
	case rules.RoleMurdererDoctor:
		a = related(r.cast.Murderer, func(x *world.Actor) *world.Actor { return x.Doctor })
	case rules.RoleVictimLandlord:
		a = related(r.cast.Victim, func(x *world.Actor) *world.Actor { return x.Landlord })
	case rules.RoleMurdererLandlord:
		a = related(r.cast.Murderer, func(x *world.Actor) *world.Actor { return x.Landlord })
	case rules.RoleVictimEmployer:
		a = related(r.cast.Victim, func(x *world.Actor) *world.Actor { return x.Employer })
	case rules.RoleMurdererEmployer:
		a = related(r.cast.Murderer, func(x *world.Actor) *world.Actor { return x.Employer })
	default:
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrUnresolved)
	}
	if a == nil {
		return nil, fmt.Errorf("role %s: %w", role, ErrUnresolved)
	}
	return a, nil
}

func related(a *world.Actor, rel func(*world.Actor) *world.Actor) *world.Actor {
	if a == nil {
		return nil
	}
	return rel(a)
}

// Assignment is the resolved ownership of one firing.
type Assignment struct {
	Owner     *world.Actor
	Recipient *world.Actor
	Extra     []*world.Actor
}

// ResolveRule resolves owner, recipient and extra owners of rule. A missing
// owner or recipient, or a recipient without the address the location kind
// needs, is a hard failure. Extra owners that do not resolve are dropped.
// Random is rolled once per call, so owner and recipient agree.
func (r *Resolver) ResolveRule(rule *rules.SpawnRule) (Assignment, error) {
	random := r.randomRole()
	pick := func(role rules.Role) (*world.Actor, error) {
		if role == rules.RoleRandom {
			role = random
		}
		return r.resolveFixed(role)
	}

	owner, err := pick(rule.Owner)
	if err != nil {
		return Assignment{}, fmt.Errorf("owner: %w", err)
	}
	recipient, err := pick(rule.Recipient)
	if err != nil {
		return Assignment{}, fmt.Errorf("recipient: %w", err)
	}
	if err := checkAddress(recipient, rule.Location); err != nil {
		return Assignment{}, err
	}

	a := Assignment{Owner: owner, Recipient: recipient}
	for _, role := range rule.ExtraOwners {
		extra, err := pick(role)
		if err != nil {
			continue
		}
		a.Extra = append(a.Extra, extra)
	}
	return a, nil
}

func checkAddress(recipient *world.Actor, spec rules.LocationSpec) error {
	switch spec.(type) {
	case rules.Workplace:
		if !recipient.HasWorkplace() && !recipient.HasHome() {
			return fmt.Errorf("recipient %s has neither workplace nor home: %w", recipient.Name, ErrUnresolved)
		}
	default:
		if rules.NeedsHome(spec) && !recipient.HasHome() {
			return fmt.Errorf("recipient %s has no home: %w", recipient.Name, ErrUnresolved)
		}
	}
	return nil
}

// Marker is the part of a spawned object handle that carries ownership.
type Marker interface {
	SetOwner(*world.Actor) error
	AddFingerprint(*world.Actor) error
}

// Apply sets the primary owner, then adds each extra owner as a fingerprint.
// Extras equal to the owner or already added are skipped.
func Apply(m Marker, a Assignment) error {
	if err := m.SetOwner(a.Owner); err != nil {
		return fmt.Errorf("setting owner: %w", err)
	}
	seen := map[*world.Actor]struct{}{a.Owner: {}}
	for _, extra := range a.Extra {
		if _, dup := seen[extra]; dup {
			continue
		}
		seen[extra] = struct{}{}
		if err := m.AddFingerprint(extra); err != nil {
			return fmt.Errorf("adding fingerprint of %s: %w", extra.Name, err)
		}
	}
	return nil
}
