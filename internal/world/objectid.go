package world

import "sync/atomic"

// ObjectIDGenerator hands out IDs for materialized objects.
//
// ID ranges (convention):
//
//	0x00000000 - 0x2FFFFFFF: reserved for host-owned objects
//	0x30000000 - 0xFFFFFFFF: spawned items
type ObjectIDGenerator struct {
	nextItemID atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextItemID.Store(0x30000000)
	return gen
}

// NextItemID returns the next unique item object ID.
// Thread-safe via atomic increment.
func (g *ObjectIDGenerator) NextItemID() uint32 {
	return g.nextItemID.Add(1)
}
