package world

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestCity(t *testing.T) *City {
	t.Helper()
	city, err := LoadCity("../../testdata/city.yaml")
	require.NoError(t, err)
	return city
}

func TestLoadCity_Links(t *testing.T) {
	city := loadTestCity(t)

	require.Len(t, city.Buildings(), 2)
	assert.Equal(t, 13, city.RoomCount())

	bath, ok := city.Room(1011)
	require.True(t, ok)
	assert.Equal(t, "GroundFloor", bath.FloorName())
	assert.Equal(t, "Maple Apartments", bath.Building().Name)
	require.NotNil(t, bath.Address)
	assert.Equal(t, "Flat 1", bath.Address.Name)
	assert.Same(t, bath, bath.Nodes[0].Room)
	assert.Same(t, bath, bath.Furniture[0].Room)

	lobby, _ := city.Room(1001)
	assert.Nil(t, lobby.Address, "common rooms have no address")

	flat1, ok := city.Address(10)
	require.True(t, ok)
	require.NotNil(t, flat1.Mailbox)
	assert.Same(t, lobby, flat1.Mailbox.Room)
	assert.Equal(t, "Maple Apartments", flat1.Building().Name)

	vera, ok := city.Actor(1)
	require.True(t, ok)
	assert.Same(t, flat1, vera.Home)
	assert.True(t, vera.HasWorkplace())
	assert.Equal(t, "Dana Doctor", vera.Doctor.Name)
	assert.Equal(t, "Emma Employer", vera.Employer.Name)

	player, _ := city.Actor(3)
	assert.False(t, player.HasHome())
}

func TestBuilding_Helpers(t *testing.T) {
	city := loadTestCity(t)
	maple := city.Buildings()[0]

	assert.Equal(t, "GroundFloor", maple.GroundFloor().Name)
	assert.Len(t, maple.StreetEntrances(), 2)
	assert.Len(t, maple.Rooms(), 8)

	acme := city.Buildings()[1]
	assert.Equal(t, "Basement", acme.GroundFloor().Name, "lowest level wins")
	assert.Nil(t, (&Building{}).GroundFloor())
}

func TestLoadCity_DanglingReferences(t *testing.T) {
	raw := `
buildings:
  - id: 1
    name: B
    floors:
      - id: 1
        name: F
        addresses:
          - id: 10
            name: A
            mailbox: {id: 1, name: M, room: 999}
actors:
  - {id: 1, name: X, home: 42, doctor: 7}
`
	_, err := LoadCityFromReader(strings.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox room 999")
	assert.Contains(t, err.Error(), "home address 42")
	assert.Contains(t, err.Error(), "doctor 7")
}

func TestLoadCity_UnknownField(t *testing.T) {
	_, err := LoadCityFromReader(strings.NewReader("buildings: []\nweather: rain\n"))
	assert.Error(t, err)
}

func TestLoadCity_MissingFile(t *testing.T) {
	_, err := LoadCity("does-not-exist.yaml")
	assert.Error(t, err)
}
