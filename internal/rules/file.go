package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// fileDoc is the on-disk layout of a rule file.
type fileDoc struct {
	Enabled           bool      `json:"enabled"`
	ShowDebugMessages bool      `json:"showDebugMessages"`
	SpawnRules        []ruleDoc `json:"spawnRules"`
}

type ruleDoc struct {
	Name                string      `json:"name"`
	Enabled             *bool       `json:"enabled,omitempty"`
	TriggerEvents       []string    `json:"triggerEvents"`
	MurderMethods       []string    `json:"murderMethods,omitempty"`
	ItemID              string      `json:"itemId"`
	Chance              *float64    `json:"chance,omitempty"`
	Location            locationDoc `json:"location"`
	Owner               string      `json:"owner,omitempty"`
	Recipient           string      `json:"recipient,omitempty"`
	ExtraOwners         []string    `json:"extraOwners,omitempty"`
	Once                *bool       `json:"once,omitempty"`
	RequiredOccurrences int         `json:"requiredOccurrences,omitempty"`
	RequiresItem        string      `json:"requiresItem,omitempty"`
}

type locationDoc struct {
	Kind             string   `json:"kind"`
	RoomNames        []string `json:"roomNames,omitempty"`
	RoomPresets      []string `json:"roomPresets,omitempty"`
	FloorNames       []string `json:"floorNames,omitempty"`
	SubRoomNames     []string `json:"subRoomNames,omitempty"`
	SubRoomPresets   []string `json:"subRoomPresets,omitempty"`
	SubRoomRequired  bool     `json:"subRoomRequired,omitempty"`
	UseFurniture     bool     `json:"useFurniture,omitempty"`
	FurniturePresets []string `json:"furniturePresets,omitempty"`
	BuildingNames    []string `json:"buildingNames,omitempty"`
	BuildingPresets  []string `json:"buildingPresets,omitempty"`
	Side             string   `json:"side,omitempty"`
}

// decodeFile validates raw against the rule-file schema and decodes it.
func decodeFile(raw []byte) (fileDoc, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return fileDoc{}, fmt.Errorf("decoding json: %w", err)
	}
	if err := validateSchema(generic); err != nil {
		return fileDoc{}, err
	}

	var doc fileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fileDoc{}, fmt.Errorf("decoding rule file: %w", err)
	}
	return doc, nil
}

// fromDoc converts and validates a single rule. Defaults: enabled, chance 1,
// fire once, one occurrence, owner Murderer, recipient Victim.
func fromDoc(d ruleDoc) (SpawnRule, error) {
	r := SpawnRule{
		Name:                strings.TrimSpace(d.Name),
		Enabled:             true,
		TriggerEvents:       d.TriggerEvents,
		MurderMethods:       d.MurderMethods,
		ItemID:              strings.TrimSpace(d.ItemID),
		Chance:              1,
		Owner:               RoleMurderer,
		Recipient:           RoleVictim,
		Once:                true,
		RequiredOccurrences: 1,
		RequiresItem:        strings.TrimSpace(d.RequiresItem),
	}
	if d.Enabled != nil {
		r.Enabled = *d.Enabled
	}
	if d.Chance != nil {
		r.Chance = *d.Chance
	}
	if d.Once != nil {
		r.Once = *d.Once
	}
	if d.RequiredOccurrences != 0 {
		r.RequiredOccurrences = d.RequiredOccurrences
	}

	var errs []error
	if r.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.ItemID == "" {
		errs = append(errs, errors.New("itemId is required"))
	}
	if len(r.TriggerEvents) == 0 {
		errs = append(errs, errors.New("triggerEvents must not be empty"))
	}
	if r.Chance < 0 || r.Chance > 1 {
		errs = append(errs, fmt.Errorf("chance %.3f is out of range [0, 1]", r.Chance))
	}
	if r.RequiredOccurrences < 1 {
		errs = append(errs, fmt.Errorf("requiredOccurrences %d must be at least 1", r.RequiredOccurrences))
	}

	if d.Owner != "" {
		role, ok := ParseRole(d.Owner)
		if !ok {
			errs = append(errs, fmt.Errorf("owner %q is not a known role", d.Owner))
		}
		r.Owner = role
	}
	if d.Recipient != "" {
		role, ok := ParseRole(d.Recipient)
		if !ok {
			errs = append(errs, fmt.Errorf("recipient %q is not a known role", d.Recipient))
		}
		r.Recipient = role
	}
	for _, name := range d.ExtraOwners {
		role, ok := ParseRole(name)
		if !ok {
			errs = append(errs, fmt.Errorf("extraOwners entry %q is not a known role", name))
			continue
		}
		r.ExtraOwners = append(r.ExtraOwners, role)
	}

	loc, err := d.Location.spec()
	if err != nil {
		errs = append(errs, fmt.Errorf("location: %w", err))
	}
	r.Location = loc

	if err := errors.Join(errs...); err != nil {
		return SpawnRule{}, fmt.Errorf("rule %q: %w", d.Name, err)
	}
	return r, nil
}

func (d locationDoc) filter() RoomFilter {
	return RoomFilter{
		RoomNames:        d.RoomNames,
		RoomPresets:      d.RoomPresets,
		FloorNames:       d.FloorNames,
		SubRoomNames:     d.SubRoomNames,
		SubRoomPresets:   d.SubRoomPresets,
		SubRoomRequired:  d.SubRoomRequired,
		UseFurniture:     d.UseFurniture,
		FurniturePresets: d.FurniturePresets,
	}
}

func (d locationDoc) spec() (LocationSpec, error) {
	kind, err := ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindMailbox:
		return Mailbox{}, nil
	case KindDoormat:
		return Doormat{}, nil
	case KindLobby:
		return Lobby{UseFurniture: d.UseFurniture, FurniturePresets: d.FurniturePresets}, nil
	case KindBuildingEntrance:
		side := SideOutside
		if d.Side != "" {
			side = EntranceSide(strings.ToLower(strings.TrimSpace(d.Side)))
		}
		if !side.IsValid() {
			return nil, fmt.Errorf("side %q is invalid; valid values: outside, inside", d.Side)
		}
		return BuildingEntrance{Side: side}, nil
	case KindHome:
		return Home{Filter: d.filter()}, nil
	case KindWorkplace:
		return Workplace{Filter: d.filter()}, nil
	case KindCustom:
		return Custom{Filter: d.filter(), BuildingNames: d.BuildingNames, BuildingPresets: d.BuildingPresets}, nil
	}
	return nil, fmt.Errorf("unhandled location kind %q", kind)
}

func toDoc(r SpawnRule) ruleDoc {
	enabled := r.Enabled
	chance := r.Chance
	once := r.Once
	d := ruleDoc{
		Name:                r.Name,
		Enabled:             &enabled,
		TriggerEvents:       r.TriggerEvents,
		MurderMethods:       r.MurderMethods,
		ItemID:              r.ItemID,
		Chance:              &chance,
		Owner:               string(r.Owner),
		Recipient:           string(r.Recipient),
		Once:                &once,
		RequiredOccurrences: r.RequiredOccurrences,
		RequiresItem:        r.RequiresItem,
	}
	for _, role := range r.ExtraOwners {
		d.ExtraOwners = append(d.ExtraOwners, string(role))
	}
	if r.Location != nil {
		d.Location = locationToDoc(r.Location)
	}
	return d
}

func filterToDoc(kind Kind, f RoomFilter) locationDoc {
	return locationDoc{
		Kind:             string(kind),
		RoomNames:        f.RoomNames,
		RoomPresets:      f.RoomPresets,
		FloorNames:       f.FloorNames,
		SubRoomNames:     f.SubRoomNames,
		SubRoomPresets:   f.SubRoomPresets,
		SubRoomRequired:  f.SubRoomRequired,
		UseFurniture:     f.UseFurniture,
		FurniturePresets: f.FurniturePresets,
	}
}

func locationToDoc(spec LocationSpec) locationDoc {
	switch s := spec.(type) {
	case Mailbox, Doormat:
		return locationDoc{Kind: string(s.Kind())}
	case Lobby:
		return locationDoc{Kind: string(KindLobby), UseFurniture: s.UseFurniture, FurniturePresets: s.FurniturePresets}
	case BuildingEntrance:
		return locationDoc{Kind: string(KindBuildingEntrance), Side: string(s.Side)}
	case Home:
		return filterToDoc(KindHome, s.Filter)
	case Workplace:
		return filterToDoc(KindWorkplace, s.Filter)
	case Custom:
		d := filterToDoc(KindCustom, s.Filter)
		d.BuildingNames = s.BuildingNames
		d.BuildingPresets = s.BuildingPresets
		return d
	}
	return locationDoc{Kind: string(spec.Kind())}
}
