// Package match decides whether a named, preset-tagged place satisfies a
// rule's filter criteria.
//
// Matching is fuzzy but ordered. For each criterion the first applicable rule
// decides:
//
//  1. case-insensitive equality;
//  2. common terms ("bathroom", "kitchen", ...) match as substrings;
//  3. criteria containing a separator must appear verbatim (case-insensitive)
//     inside the candidate, so "CityHall_Top" matches "CityHall_Top (Floor 4)"
//     but not "CityHall_Bottom";
//  4. anything else must equal one whole token of the candidate.
package match

import (
	"strings"
)

// commonTerms match by plain substring containment.
var commonTerms = map[string]struct{}{
	"room":     {},
	"bathroom": {},
	"kitchen":  {},
	"basement": {},
	"floor":    {},
	"lobby":    {},
	"bedroom":  {},
	"office":   {},
	"hallway":  {},
	"lounge":   {},
	"storage":  {},
	"toilet":   {},
	"shower":   {},
	"bar":      {},
	"cafe":     {},
}

// IsCommonTerm reports whether term is matched by substring containment.
func IsCommonTerm(term string) bool {
	_, ok := commonTerms[strings.ToLower(strings.TrimSpace(term))]
	return ok
}

func isCriterionSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-'
}

func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '_', '-', '(', ')', '.', ',':
		return true
	}
	return false
}

// MatchName reports whether candidate satisfies a single criterion. Any
// non-empty string matches itself, blank ones included.
func MatchName(candidate, criterion string) bool {
	if candidate != "" && strings.EqualFold(candidate, criterion) {
		return true
	}
	return matchLowered(strings.ToLower(strings.TrimSpace(candidate)), strings.ToLower(strings.TrimSpace(criterion)))
}

// matchLowered expects both arguments trimmed and lowercased.
func matchLowered(candidate, criterion string) bool {
	if candidate == "" || criterion == "" {
		return false
	}
	if candidate == criterion {
		return true
	}
	if _, ok := commonTerms[criterion]; ok {
		return strings.Contains(candidate, criterion)
	}
	if strings.ContainsFunc(criterion, isCriterionSeparator) {
		return strings.Contains(candidate, criterion)
	}
	for _, tok := range strings.FieldsFunc(candidate, isTokenSeparator) {
		if tok == criterion {
			return true
		}
	}
	return false
}

// MatchAny reports whether candidate satisfies at least one criterion.
func MatchAny(candidate string, criteria []string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	for _, crit := range criteria {
		if candidate != "" && strings.EqualFold(candidate, crit) {
			return true
		}
		if matchLowered(c, strings.ToLower(strings.TrimSpace(crit))) {
			return true
		}
	}
	return false
}
