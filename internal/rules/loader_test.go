package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `{
  "enabled": true,
  "showDebugMessages": true,
  "spawnRules": [
    {
      "name": "NoteInMailbox",
      "triggerEvents": ["OnVictimKilled"],
      "itemId": "Note",
      "location": {"kind": "Mailbox"}
    },
    {
      "name": "KnifeInBathroom",
      "triggerEvents": ["OnVictimKilled", "OnMurderCompleted"],
      "murderMethods": ["Stabbing"],
      "itemId": "Knife",
      "chance": 0.25,
      "location": {
        "kind": "custom",
        "roomPresets": ["Bathroom"],
        "floorNames": ["GroundFloor"],
        "useFurniture": true
      },
      "owner": "Murderer",
      "recipient": "Random",
      "extraOwners": ["Victim", "VictimDoctor"],
      "once": false,
      "requiredOccurrences": 2,
      "requiresItem": "Note"
    },
    {
      "name": "Entrance",
      "triggerEvents": ["OnVictimKilled"],
      "itemId": "Flyer",
      "location": {"kind": "BuildingEntrance", "side": "Inside"}
    }
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	rs, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	assert.True(t, rs.Enabled)
	assert.True(t, rs.Verbose)
	require.Len(t, rs.Rules, 3)

	note := rs.Rules[0]
	assert.Equal(t, "NoteInMailbox", note.Name)
	assert.True(t, note.Enabled)
	assert.Equal(t, 1.0, note.Chance)
	assert.True(t, note.Once)
	assert.Equal(t, 1, note.RequiredOccurrences)
	assert.Equal(t, RoleMurderer, note.Owner)
	assert.Equal(t, RoleVictim, note.Recipient)
	assert.Equal(t, Mailbox{}, note.Location)

	knife := rs.Rules[1]
	assert.Equal(t, 0.25, knife.Chance)
	assert.False(t, knife.Once)
	assert.Equal(t, 2, knife.RequiredOccurrences)
	assert.Equal(t, RoleRandom, knife.Recipient)
	assert.Equal(t, []Role{RoleVictim, RoleVictimDoctor}, knife.ExtraOwners)
	assert.Equal(t, "Note", knife.RequiresItem)

	custom, ok := knife.Location.(Custom)
	require.True(t, ok, "location should be Custom, got %T", knife.Location)
	assert.Equal(t, []string{"Bathroom"}, custom.Filter.RoomPresets)
	assert.Equal(t, []string{"GroundFloor"}, custom.Filter.FloorNames)
	assert.True(t, custom.Filter.UseFurniture)

	assert.Equal(t, BuildingEntrance{Side: SideInside}, rs.Rules[2].Location)
}

func TestSpawnRule_Filters(t *testing.T) {
	rs, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	knife := rs.Rules[1]
	assert.True(t, knife.TriggeredBy("onvictimkilled"))
	assert.False(t, knife.TriggeredBy("OnPlayerArrested"))
	assert.True(t, knife.AcceptsMethod("stabbing"))
	assert.False(t, knife.AcceptsMethod("Shooting"))
	assert.False(t, knife.AcceptsMethod(""))

	note := rs.Rules[0]
	assert.True(t, note.AcceptsMethod(""), "empty filter admits everything")
}

func TestParse_SchemaViolation(t *testing.T) {
	tests := map[string]string{
		"not json":        `{"spawnRules": [`,
		"missing rules":   `{"enabled": true}`,
		"unknown field":   `{"spawnRules": [{"name": "a", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Home"}, "colour": "red"}]}`,
		"chance too high": `{"spawnRules": [{"name": "a", "triggerEvents": ["e"], "itemId": "i", "chance": 1.5, "location": {"kind": "Home"}}]}`,
		"no location":     `{"spawnRules": [{"name": "a", "triggerEvents": ["e"], "itemId": "i"}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_InvalidRuleSkipped(t *testing.T) {
	raw := `{"enabled": true, "spawnRules": [
	  {"name": "bad-kind", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Attic"}},
	  {"name": "bad-role", "triggerEvents": ["e"], "itemId": "i", "owner": "Butler", "location": {"kind": "Home"}},
	  {"name": "bad-side", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "BuildingEntrance", "side": "roof"}},
	  {"name": "good", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Home"}}
	]}`

	rs, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, rs.Names())
}

func TestLoad_MergesDirectories(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	writeFile(t, dirA, "01.json", `{"enabled": true, "spawnRules": [
	  {"name": "a1", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Home"}}]}`)
	writeFile(t, dirA, "02.json", `{"enabled": true, "spawnRules": [`)
	writeFile(t, dirA, "notes.txt", `ignored`)
	writeFile(t, dirB, "00.json", `{"enabled": true, "spawnRules": [
	  {"name": "b1", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Lobby"}},
	  {"name": "a1", "triggerEvents": ["e"], "itemId": "dup", "location": {"kind": "Home"}}]}`)
	writeFile(t, dirB, "off.json", `{"enabled": false, "showDebugMessages": true, "spawnRules": [
	  {"name": "off1", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Home"}}]}`)

	rs, err := Load(context.Background(), []string{dirA, dirB, filepath.Join(dirA, "missing")}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "b1"}, rs.Names())
	assert.True(t, rs.Enabled)
	assert.True(t, rs.Verbose)
	assert.Len(t, rs.Sources, 3, "malformed file must not be listed as a source")

	a1, ok := rs.Rule("a1")
	require.True(t, ok)
	assert.Equal(t, "i", a1.ItemID, "first definition wins")
}

func TestLoad_WritesDefault(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "rules", "default.json")

	rs, err := Load(context.Background(), []string{filepath.Join(dir, "rules")}, defaultPath)
	require.NoError(t, err)

	assert.FileExists(t, defaultPath)
	assert.True(t, rs.Enabled)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, Mailbox{}, rs.Rules[0].Location)

	// Второй запуск читает уже записанный файл.
	again, err := Load(context.Background(), []string{filepath.Join(dir, "rules")}, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, rs.Digest(), again.Digest())
}

func TestWrite_RoundTrip(t *testing.T) {
	rs, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Write(path, rs))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	back, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, rs.Digest(), back.Digest())
	assert.Equal(t, rs.Rules, back.Rules)
}

func TestDigest_ChangesWithContent(t *testing.T) {
	a := DefaultRuleSet()
	b := DefaultRuleSet()
	assert.Equal(t, a.Digest(), b.Digest())

	b.Rules[0].Chance = 0.5
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestWatcher_Check(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"enabled": true, "spawnRules": [
	  {"name": "a", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Home"}}]}`)

	var got *RuleSet
	w, err := NewWatcher([]string{dir}, "", func(rs *RuleSet) { got = rs })
	require.NoError(t, err)
	defer w.Stop()

	assert.False(t, w.Check(context.Background()), "unchanged directory must not reload")
	assert.Nil(t, got)

	writeFile(t, dir, "b.json", `{"enabled": true, "spawnRules": [
	  {"name": "b", "triggerEvents": ["e"], "itemId": "i", "location": {"kind": "Home"}}]}`)

	assert.True(t, w.Check(context.Background()))
	require.NotNil(t, got)
	assert.Equal(t, []string{"a", "b"}, got.Names())
}

func TestLoad_ShippedRules(t *testing.T) {
	rs, err := Load(context.Background(), []string{"../../rules"}, "")
	require.NoError(t, err)
	require.Len(t, rs.Rules, 4)

	knife, ok := rs.Rule("BloodyKnifeInGroundFloorBathroom")
	require.True(t, ok)
	assert.IsType(t, Custom{}, knife.Location)

	payslip, ok := rs.Rule("PayslipInOffice")
	require.True(t, ok)
	assert.Equal(t, "Note", payslip.RequiresItem)
}
