package world

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// cityFile is the YAML layout of a city fixture.
type cityFile struct {
	Buildings []buildingDef `yaml:"buildings"`
	Actors    []actorDef    `yaml:"actors"`
}

type buildingDef struct {
	ID        int           `yaml:"id"`
	Name      string        `yaml:"name"`
	Preset    string        `yaml:"preset"`
	Entrances []entranceDef `yaml:"entrances"`
	Floors    []floorDef    `yaml:"floors"`
}

type floorDef struct {
	ID          int          `yaml:"id"`
	Name        string       `yaml:"name"`
	Level       int          `yaml:"level"`
	CommonRooms []roomDef    `yaml:"common_rooms"`
	Addresses   []addressDef `yaml:"addresses"`
}

type addressDef struct {
	ID        int           `yaml:"id"`
	Name      string        `yaml:"name"`
	Preset    string        `yaml:"preset"`
	Company   string        `yaml:"company"`
	Entrances []entranceDef `yaml:"entrances"`
	Mailbox   *furnitureDef `yaml:"mailbox"`
	Rooms     []roomDef     `yaml:"rooms"`
}

type roomDef struct {
	ID        int            `yaml:"id"`
	Name      string         `yaml:"name"`
	Preset    string         `yaml:"preset"`
	Furniture []furnitureDef `yaml:"furniture"`
	Nodes     []nodeDef      `yaml:"nodes"`
}

type furnitureDef struct {
	ID          int     `yaml:"id"`
	Name        string  `yaml:"name"`
	Preset      string  `yaml:"preset"`
	Room        int     `yaml:"room"` // mailbox only: room the mailbox stands in
	Position    Vec3    `yaml:"position"`
	Yaw         float64 `yaml:"yaw"`
	HidingPlace bool    `yaml:"hiding_place"`
	Subobjects  []Vec3  `yaml:"subobjects"`
}

type nodeDef struct {
	ID           int  `yaml:"id"`
	Position     Vec3 `yaml:"position"`
	Inaccessible bool `yaml:"inaccessible"`
	Obstacle     bool `yaml:"obstacle"`
}

type entranceDef struct {
	Position Vec3    `yaml:"position"`
	Facing   float64 `yaml:"facing"`
	Street   bool    `yaml:"street"`
}

type actorDef struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Home      int    `yaml:"home"`
	Workplace int    `yaml:"workplace"`
	Doctor    int    `yaml:"doctor"`
	Landlord  int    `yaml:"landlord"`
	Employer  int    `yaml:"employer"`
}

// LoadCity reads a YAML city fixture from path.
func LoadCity(path string) (*City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening city fixture %s: %w", path, err)
	}
	defer f.Close()

	city, err := LoadCityFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing city fixture %s: %w", path, err)
	}
	return city, nil
}

// LoadCityFromReader decodes a YAML city fixture. Actor references are
// resolved after all buildings are linked; dangling references are errors.
func LoadCityFromReader(r io.Reader) (*City, error) {
	var doc cityFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	city := NewCity()
	for _, bd := range doc.Buildings {
		city.AddBuilding(bd.build())
	}

	var errs []error
	for _, b := range doc.Buildings {
		for _, fd := range b.Floors {
			for _, ad := range fd.Addresses {
				if ad.Mailbox == nil || ad.Mailbox.Room == 0 {
					continue
				}
				addr, _ := city.Address(ad.ID)
				room, ok := city.Room(ad.Mailbox.Room)
				if !ok {
					errs = append(errs, fmt.Errorf("address %d: mailbox room %d not found", ad.ID, ad.Mailbox.Room))
					continue
				}
				addr.Mailbox.Room = room
			}
		}
	}

	for _, ad := range doc.Actors {
		city.AddActor(&Actor{ID: ad.ID, Name: ad.Name})
	}
	for _, ad := range doc.Actors {
		a, _ := city.Actor(ad.ID)
		if ad.Home != 0 {
			if a.Home, _ = city.Address(ad.Home); a.Home == nil {
				errs = append(errs, fmt.Errorf("actor %d: home address %d not found", ad.ID, ad.Home))
			}
		}
		if ad.Workplace != 0 {
			if a.Workplace, _ = city.Address(ad.Workplace); a.Workplace == nil {
				errs = append(errs, fmt.Errorf("actor %d: workplace address %d not found", ad.ID, ad.Workplace))
			}
		}
		a.Doctor = city.relation(ad.ID, "doctor", ad.Doctor, &errs)
		a.Landlord = city.relation(ad.ID, "landlord", ad.Landlord, &errs)
		a.Employer = city.relation(ad.ID, "employer", ad.Employer, &errs)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return city, nil
}

func (c *City) relation(actorID int, kind string, id int, errs *[]error) *Actor {
	if id == 0 {
		return nil
	}
	other, ok := c.Actor(id)
	if !ok {
		*errs = append(*errs, fmt.Errorf("actor %d: %s %d not found", actorID, kind, id))
	}
	return other
}

func (d buildingDef) build() *Building {
	b := &Building{
		ID:        d.ID,
		Name:      d.Name,
		Preset:    d.Preset,
		Entrances: buildEntrances(d.Entrances),
	}
	for _, fd := range d.Floors {
		f := &Floor{ID: fd.ID, Name: fd.Name, Level: fd.Level}
		for _, rd := range fd.CommonRooms {
			f.CommonRooms = append(f.CommonRooms, rd.build())
		}
		for _, ad := range fd.Addresses {
			a := &Address{
				ID:        ad.ID,
				Name:      ad.Name,
				Preset:    ad.Preset,
				Company:   ad.Company,
				Entrances: buildEntrances(ad.Entrances),
			}
			if ad.Mailbox != nil {
				a.Mailbox = ad.Mailbox.build()
			}
			for _, rd := range ad.Rooms {
				a.Rooms = append(a.Rooms, rd.build())
			}
			f.Addresses = append(f.Addresses, a)
		}
		b.Floors = append(b.Floors, f)
	}
	return b
}

func (d roomDef) build() *Room {
	r := &Room{ID: d.ID, Name: d.Name, Preset: d.Preset}
	for _, fd := range d.Furniture {
		r.Furniture = append(r.Furniture, fd.build())
	}
	for _, nd := range d.Nodes {
		r.Nodes = append(r.Nodes, &Node{
			ID:           nd.ID,
			Position:     nd.Position,
			Inaccessible: nd.Inaccessible,
			Obstacle:     nd.Obstacle,
		})
	}
	return r
}

func (d furnitureDef) build() *Furniture {
	f := &Furniture{
		ID:          d.ID,
		Name:        d.Name,
		Preset:      d.Preset,
		Position:    d.Position,
		Yaw:         d.Yaw,
		HidingPlace: d.HidingPlace,
	}
	for i, off := range d.Subobjects {
		f.Subobjects = append(f.Subobjects, Subobject{Index: i, Offset: off})
	}
	return f
}

func buildEntrances(defs []entranceDef) []Entrance {
	out := make([]Entrance, 0, len(defs))
	for _, d := range defs {
		out = append(out, Entrance{Position: d.Position, Facing: d.Facing, Street: d.Street})
	}
	return out
}
