package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchName(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		criterion string
		want      bool
	}{
		{"exact", "Kitchen", "Kitchen", true},
		{"case insensitive", "Room A", "room a", true},
		{"surrounding spaces", "  Lobby ", "lobby", true},
		{"common term substring", "Public Bathroom Stall 2", "bathroom", true},
		{"common term inside word", "BathroomMale", "Bathroom", true},
		{"compound identifier", "CityHall_Top (Floor 4)", "CityHall_Top", true},
		{"compound identifier mismatch", "CityHall_Bottom", "CityHall_Top", false},
		{"compound with space", "Diner Back Room", "back room", true},
		{"whole token", "Office 12 Reception", "reception", true},
		{"token in parentheses", "Hall (Annex)", "annex", true},
		{"partial token rejected", "Receptionist Desk", "reception", false},
		{"empty criterion", "Kitchen", "", false},
		{"empty candidate", "", "kitchen", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchName(tt.candidate, tt.criterion))
		})
	}
}

func TestMatchName_Reflexive(t *testing.T) {
	for _, s := range []string{"A", "Apartment 3B", "CityHall_Top", "x-y z", "Lobby", "(weird)"} {
		assert.True(t, MatchName(s, s), "MatchName(%q, %q)", s, s)
		assert.True(t, Matches(Candidate{Name: s, Preset: s}, Criteria{Names: []string{s}}), "Matches reflexive for %q", s)
	}
}

func TestMatchName_BlankNames(t *testing.T) {
	for _, s := range []string{" ", "  ", "\t"} {
		assert.True(t, MatchName(s, s), "MatchName(%q, %q)", s, s)
		assert.True(t, MatchAny(s, []string{"Kitchen", s}), "MatchAny(%q)", s)
	}
	assert.False(t, MatchName("Kitchen", "  "), "blank criterion matches only itself")
	assert.False(t, MatchName("  ", " "))
	assert.False(t, MatchName("", ""))
}

func TestIsCommonTerm(t *testing.T) {
	assert.True(t, IsCommonTerm("Bathroom"))
	assert.True(t, IsCommonTerm(" lobby "))
	assert.False(t, IsCommonTerm("CityHall"))
}

func TestMatchAny(t *testing.T) {
	assert.True(t, MatchAny("BathroomFemale", []string{"Kitchen", "Bathroom"}))
	assert.False(t, MatchAny("Storeroom", []string{"Kitchen", "Bedroom"}))
	assert.False(t, MatchAny("Kitchen", nil))
}

func TestMatcher_Fields(t *testing.T) {
	room := Candidate{Name: "Men's Restroom", Preset: "BathroomMale", Floor: "GroundFloor"}

	tests := []struct {
		name string
		crit Criteria
		want bool
	}{
		{"empty criteria are wildcards", Criteria{}, true},
		{"preset only", Criteria{Presets: []string{"Bathroom"}}, true},
		{"preset and floor", Criteria{Presets: []string{"Bathroom"}, Floors: []string{"GroundFloor"}}, true},
		{"wrong floor", Criteria{Presets: []string{"Bathroom"}, Floors: []string{"FirstFloor"}}, false},
		{"any entry of a list", Criteria{Presets: []string{"Kitchen", "Bathroom"}}, true},
		{"name list fails", Criteria{Names: []string{"Kitchen"}, Presets: []string{"Bathroom"}}, false},
		{"blank entries ignored", Criteria{Names: []string{"  "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compile(tt.crit).Matches(room))
		})
	}
}

func TestMatcher_PrecheckIsNecessary(t *testing.T) {
	candidates := []Candidate{
		{Name: "Kitchen", Preset: "Kitchen", Floor: "GroundFloor"},
		{Name: "CityHall_Top (Floor 4)", Preset: "Office", Floor: "Floor4"},
		{Name: "Stairwell", Preset: "Stairwell", Floor: "Basement"},
	}
	criteria := []Criteria{
		{Names: []string{"kitchen"}},
		{Names: []string{"CityHall_Top"}},
		{Presets: []string{"office"}, Floors: []string{"floor4"}},
		{Floors: []string{"basement"}},
		{Names: []string{"lobby"}},
	}

	for _, crit := range criteria {
		m := Compile(crit)
		for _, c := range candidates {
			if m.Matches(c) {
				require.True(t, m.Precheck(c), "precheck rejected a match: %+v vs %+v", c, crit)
			}
		}
	}

	m := Compile(Criteria{Names: []string{"lobby"}})
	assert.False(t, m.Precheck(candidates[0]))
}

func TestSuggest(t *testing.T) {
	names := []string{"Bathroom", "Bedroom", "Kitchen", "Bathroom", "Lobby"}

	got := Suggest("bathrom", names, 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "Bathroom", got[0].Name)
	assert.LessOrEqual(t, len(got), 2)

	assert.Empty(t, Suggest("", names, 3))
	assert.Empty(t, Suggest("zzzzzz", names, 3))
}

func TestSuggestNames(t *testing.T) {
	got := SuggestNames([]string{"kitchn", "lobbby"}, []string{"Kitchen", "Lobby", "Garage"}, 5)
	assert.Contains(t, got, "Kitchen")
	assert.Contains(t, got, "Lobby")
	assert.NotContains(t, got, "Garage")
}
