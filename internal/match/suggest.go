package match

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Suggestion is a candidate name ranked by similarity to a criterion.
type Suggestion struct {
	Name  string
	Score float64
}

// minSuggestScore drops candidates that share almost nothing with the criterion.
const minSuggestScore = 0.7

// Suggest returns up to n distinct candidate names most similar to criterion
// by Jaro-Winkler distance. It is used only for diagnostics when a filter
// matched nothing, so it favours readability over speed.
func Suggest(criterion string, candidates []string, n int) []Suggestion {
	crit := strings.ToLower(strings.TrimSpace(criterion))
	if crit == "" || n <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]Suggestion, 0, n)
	for _, name := range candidates {
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}

		lowered := strings.ToLower(name)
		score := matchr.JaroWinkler(crit, lowered, false)
		// Compare against individual tokens too: "bathroom" vs "Public Bathroom Stall".
		for _, tok := range strings.FieldsFunc(lowered, isTokenSeparator) {
			if s := matchr.JaroWinkler(crit, tok, false); s > score {
				score = s
			}
		}
		if score >= minSuggestScore {
			out = append(out, Suggestion{Name: name, Score: score})
		}
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// SuggestNames is Suggest without scores, for log attributes.
func SuggestNames(criteria []string, candidates []string, n int) []string {
	var names []string
	for _, crit := range criteria {
		for _, s := range Suggest(crit, candidates, n) {
			if !slices.Contains(names, s.Name) {
				names = append(names, s.Name)
			}
		}
	}
	if len(names) > n {
		names = names[:n]
	}
	return names
}
