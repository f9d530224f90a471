// Package trigger tracks which spawn rules have fired in the current session.
//
// State per rule moves Untriggered → PartiallyTriggered(k) → Ready →
// Triggered. Occurrences of the rule's events are counted until the required
// count is reached; the rule is then Ready and fires on the next successful
// placement. Fire-once rules become Triggered after that; other rules stay
// Ready. A failed placement never advances the state.
//
// State is keyed by rule name so it survives rule-file edits between sessions.
package trigger

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
)

// Phase is the externally visible state of a rule.
type Phase byte

const (
	PhaseUntriggered Phase = iota
	PhasePartial
	PhaseReady
	PhaseTriggered
)

func (p Phase) String() string {
	switch p {
	case PhaseUntriggered:
		return "untriggered"
	case PhasePartial:
		return "partially_triggered"
	case PhaseReady:
		return "ready"
	case PhaseTriggered:
		return "triggered"
	}
	return "unknown"
}

// RuleState is the persisted state of a single rule.
type RuleState struct {
	Fired       bool `json:"fired"`
	Occurrences int  `json:"occurrences,omitempty"`
	Firings     int  `json:"firings,omitempty"`
}

// Record is the flat, persistable form of the tracker.
type Record struct {
	SessionID    string               `json:"sessionId"`
	SavedAt      time.Time            `json:"savedAt"`
	Rules        map[string]RuleState `json:"rules"`
	SpawnedItems []string             `json:"spawnedItems,omitempty"`
}

// Tracker holds trigger state for one session. Safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	sessionID string
	states    map[string]RuleState
	items     map[string]int
	changed   bool
}

// NewTracker creates an empty tracker for sessionID.
func NewTracker(sessionID string) *Tracker {
	return &Tracker{
		sessionID: sessionID,
		states:    make(map[string]RuleState, 32),
		items:     make(map[string]int, 8),
	}
}

// SessionID returns the session the state belongs to.
func (t *Tracker) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// Phase returns the phase of rule r.
func (t *Tracker) Phase(r *rules.SpawnRule) Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return phaseOf(r, t.states[r.Name])
}

func phaseOf(r *rules.SpawnRule, st RuleState) Phase {
	switch {
	case st.Fired && r.Once:
		return PhaseTriggered
	case st.Occurrences >= max(r.RequiredOccurrences, 1):
		return PhaseReady
	case st.Occurrences > 0:
		return PhasePartial
	}
	return PhaseUntriggered
}

// State returns the raw state of a rule name.
func (t *Tracker) State(name string) RuleState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[name]
}

// IsTriggered reports whether the rule must not fire again this session.
func (t *Tracker) IsTriggered(r *rules.SpawnRule) bool {
	return t.Phase(r) == PhaseTriggered
}

// Observe counts one matching event occurrence for r and returns the new
// phase. Triggered rules are not counted.
func (t *Tracker) Observe(r *rules.SpawnRule) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.states[r.Name]
	if phaseOf(r, st) == PhaseTriggered {
		return PhaseTriggered
	}
	st.Occurrences++
	t.states[r.Name] = st
	t.changed = true
	return phaseOf(r, st)
}

// MarkFired records a successful firing of r that spawned itemID.
func (t *Tracker) MarkFired(r *rules.SpawnRule, itemID string) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.states[r.Name]
	st.Fired = true
	st.Firings++
	t.states[r.Name] = st
	if itemID != "" {
		t.items[itemID]++
	}
	t.changed = true
	return phaseOf(r, st)
}

// HasSpawned reports whether an object with itemID was spawned this session.
func (t *Tracker) HasSpawned(itemID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.items[itemID] > 0
}

// Reset clears every rule back to Untriggered and starts sessionID.
func (t *Tracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = sessionID
	clear(t.states)
	clear(t.items)
	t.changed = true
}

// IsChanged reports whether state changed since the last Snapshot or Restore.
func (t *Tracker) IsChanged() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.changed
}

// Snapshot returns a copy of the state for persistence and clears the dirty flag.
func (t *Tracker) Snapshot(now time.Time) Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := Record{
		SessionID: t.sessionID,
		SavedAt:   now.UTC(),
		Rules:     maps.Clone(t.states),
	}
	if rec.Rules == nil {
		rec.Rules = make(map[string]RuleState)
	}
	for item, n := range t.items {
		for range n {
			rec.SpawnedItems = append(rec.SpawnedItems, item)
		}
	}
	slices.Sort(rec.SpawnedItems)
	t.changed = false
	return rec
}

// Restore replaces the state with rec. Entries for rules that no longer exist
// are kept so a later rule-file edit that restores them picks up their state.
func (t *Tracker) Restore(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessionID = rec.SessionID
	t.states = make(map[string]RuleState, len(rec.Rules))
	maps.Copy(t.states, rec.Rules)
	t.items = make(map[string]int, len(rec.SpawnedItems))
	for _, item := range rec.SpawnedItems {
		t.items[item]++
	}
	t.changed = false
}

// Summary counts rules per phase for the given rule set, for logging.
func (t *Tracker) Summary(rs *rules.RuleSet) map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]int, 4)
	for i := range rs.Rules {
		out[phaseOf(&rs.Rules[i], t.states[rs.Rules[i].Name]).String()]++
	}
	return out
}
