package world

import "slices"

// Subobject is an attachment point on a furniture instance, relative to the
// furniture's origin.
type Subobject struct {
	Index  int
	Offset Vec3
}

// PlacedObject records an object integrated into a furniture subobject.
type PlacedObject struct {
	ObjectID  uint32
	Subobject int
}

// Furniture is a furniture instance inside a room.
type Furniture struct {
	ID          int
	Name        string
	Preset      string
	Position    Vec3
	Yaw         float64
	HidingPlace bool
	Room        *Room
	Subobjects  []Subobject
	Placed      []PlacedObject
}

// IsOccupied reports whether a placed object already references the subobject.
func (f *Furniture) IsOccupied(index int) bool {
	return slices.ContainsFunc(f.Placed, func(p PlacedObject) bool {
		return p.Subobject == index
	})
}

// FreeSubobjects returns the subobjects not referenced by any placed object.
func (f *Furniture) FreeSubobjects() []Subobject {
	out := make([]Subobject, 0, len(f.Subobjects))
	for _, s := range f.Subobjects {
		if !f.IsOccupied(s.Index) {
			out = append(out, s)
		}
	}
	return out
}

// Subobject returns the subobject with the given index.
func (f *Furniture) Subobject(index int) (Subobject, bool) {
	for _, s := range f.Subobjects {
		if s.Index == index {
			return s, true
		}
	}
	return Subobject{}, false
}

// Occupy marks a subobject as used by objectID. The host calls this after it
// integrates an object into the furniture.
func (f *Furniture) Occupy(index int, objectID uint32) {
	f.Placed = append(f.Placed, PlacedObject{ObjectID: objectID, Subobject: index})
}

// Release removes objectID from the placed list.
func (f *Furniture) Release(objectID uint32) {
	f.Placed = slices.DeleteFunc(f.Placed, func(p PlacedObject) bool {
		return p.ObjectID == objectID
	})
}

// SubobjectPose returns the world pose of a subobject, inheriting the
// furniture's yaw.
func (f *Furniture) SubobjectPose(index int) Pose {
	s, _ := f.Subobject(index)
	return Pose{Position: f.Position.Add(s.Offset.RotateY(f.Yaw)), Yaw: f.Yaw}
}
