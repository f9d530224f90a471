// Package rules defines spawn rules and loads them from JSON rule files.
//
// A rule says: when one of these events happens (optionally only for these
// murder methods), with this chance, put this item at this kind of location,
// owned by this role and addressed to that role. Rule files are merged into a
// single RuleSet that the dispatcher owns for the lifetime of a session.
package rules

import (
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Role is an abstract actor reference resolved at firing time.
type Role string

const (
	RoleVictim           Role = "Victim"
	RoleMurderer         Role = "Murderer"
	RolePlayer           Role = "Player"
	RoleVictimDoctor     Role = "VictimDoctor"
	RoleMurdererDoctor   Role = "MurdererDoctor"
	RoleVictimLandlord   Role = "VictimLandlord"
	RoleMurdererLandlord Role = "MurdererLandlord"
	RoleVictimEmployer   Role = "VictimEmployer"
	RoleMurdererEmployer Role = "MurdererEmployer"
	RoleRandom           Role = "Random"
)

var allRoles = []Role{
	RoleVictim, RoleMurderer, RolePlayer,
	RoleVictimDoctor, RoleMurdererDoctor,
	RoleVictimLandlord, RoleMurdererLandlord,
	RoleVictimEmployer, RoleMurdererEmployer,
	RoleRandom,
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// SpawnRule is one configured spawn intent.
type SpawnRule struct {
	Name    string
	Enabled bool

	TriggerEvents []string
	MurderMethods []string

	ItemID   string
	Chance   float64
	Location LocationSpec

	Owner       Role
	Recipient   Role
	ExtraOwners []Role

	// Once stops the rule after its first successful firing.
	Once bool
	// RequiredOccurrences is how many matching events must be seen before the
	// rule attempts to fire.
	RequiredOccurrences int
	// RequiresItem gates the rule until an object with this item ID has been
	// spawned in the current session.
	RequiresItem string
}

// TriggeredBy reports whether the rule listens for eventName.
func (r *SpawnRule) TriggeredBy(eventName string) bool {
	return slices.ContainsFunc(r.TriggerEvents, func(e string) bool {
		return strings.EqualFold(e, eventName)
	})
}

// AcceptsMethod reports whether the murder-method filter admits method.
// An empty filter admits everything.
func (r *SpawnRule) AcceptsMethod(method string) bool {
	if len(r.MurderMethods) == 0 {
		return true
	}
	return slices.ContainsFunc(r.MurderMethods, func(m string) bool {
		return strings.EqualFold(m, method)
	})
}

// RuleSet is the merged content of every rule file.
type RuleSet struct {
	Enabled bool
	Verbose bool
	Rules   []SpawnRule
	Sources []string
}

// Rule returns the rule with the given name.
func (rs *RuleSet) Rule(name string) (*SpawnRule, bool) {
	for i := range rs.Rules {
		if rs.Rules[i].Name == name {
			return &rs.Rules[i], true
		}
	}
	return nil, false
}

// Names returns rule names in order.
func (rs *RuleSet) Names() []string {
	names := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		names = append(names, r.Name)
	}
	return names
}

// Digest returns a stable BLAKE2b-256 fingerprint of the rule set content.
// Trigger state is keyed by rule name, not by digest; the digest only tells
// operators that rules changed between a save and a load.
func (rs *RuleSet) Digest() string {
	docs := make([]ruleDoc, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		docs = append(docs, toDoc(r))
	}
	raw, _ := json.Marshal(fileDoc{Enabled: rs.Enabled, ShowDebugMessages: rs.Verbose, SpawnRules: docs})
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
