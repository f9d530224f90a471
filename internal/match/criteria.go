package match

import "strings"

// Criteria is a filter set. Every non-empty field must be satisfied by at
// least one of its entries; empty fields are wildcards.
type Criteria struct {
	Names   []string
	Presets []string
	Floors  []string
}

// IsEmpty reports whether the criteria accept everything.
func (c Criteria) IsEmpty() bool {
	return len(c.Names) == 0 && len(c.Presets) == 0 && len(c.Floors) == 0
}

// Candidate is the matchable view of a room, building or floor.
type Candidate struct {
	Name   string
	Preset string
	Floor  string
}

// Matcher is a compiled Criteria. Criteria strings are trimmed and lowercased
// once so scanning thousands of rooms does not repeat the work.
type Matcher struct {
	names   []string
	presets []string
	floors  []string
}

// Compile prepares c for repeated matching.
func Compile(c Criteria) *Matcher {
	return &Matcher{
		names:   lowerAll(c.Names),
		presets: lowerAll(c.Presets),
		floors:  lowerAll(c.Floors),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsEmpty reports whether the matcher accepts every candidate.
func (m *Matcher) IsEmpty() bool {
	return len(m.names) == 0 && len(m.presets) == 0 && len(m.floors) == 0
}

// Precheck is the cheap first phase: it reports whether any criterion occurs
// anywhere in the candidate. Every matching rule implies substring
// containment, so a false result means Matches is false too.
func (m *Matcher) Precheck(c Candidate) bool {
	if m.IsEmpty() {
		return true
	}
	hay := strings.ToLower(c.Name + "\x00" + c.Preset + "\x00" + c.Floor)
	for _, list := range [][]string{m.names, m.presets, m.floors} {
		for _, crit := range list {
			if strings.Contains(hay, crit) {
				return true
			}
		}
	}
	return false
}

// Matches runs the precheck and then confirms every provided field.
func (m *Matcher) Matches(c Candidate) bool {
	if !m.Precheck(c) {
		return false
	}
	return fieldMatches(c.Name, m.names) &&
		fieldMatches(c.Preset, m.presets) &&
		fieldMatches(c.Floor, m.floors)
}

func fieldMatches(value string, criteria []string) bool {
	if len(criteria) == 0 {
		return true
	}
	v := strings.ToLower(strings.TrimSpace(value))
	for _, crit := range criteria {
		if matchLowered(v, crit) {
			return true
		}
	}
	return false
}

// Matches is a convenience wrapper for one-off checks.
func Matches(c Candidate, crit Criteria) bool {
	return Compile(crit).Matches(c)
}
