// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// Actor IDs of the shared city fixture.
const (
	Vera   = 1 // victim; home Flat 1 (GroundFloor), works at Acme
	Mike   = 2 // murderer; home Flat 2 (FirstFloor), no workplace
	Player = 3 // no home
	Dana   = 4 // doctor; home Flat 3: no mailbox, no entrances
	Leo    = 5 // landlord
	Emma   = 6 // employer
)

// CityPath returns the absolute path of testdata/city.yaml.
func CityPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata", "city.yaml")
}

// City loads a fresh copy of the shared city fixture. Every call returns new
// furniture and nodes, so occupancy never leaks between tests.
func City(t testing.TB) *world.City {
	t.Helper()
	city, err := world.LoadCity(CityPath())
	require.NoError(t, err)
	return city
}

// Actor returns actor id of city and fails the test if it does not exist.
func Actor(t testing.TB, city *world.City, id int) *world.Actor {
	t.Helper()
	a, ok := city.Actor(id)
	require.True(t, ok, "actor %d not in fixture", id)
	return a
}

// Rng returns a deterministic random source.
func Rng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// ContextWithTimeout создаёт context с timeout и автоматически отменяет его при завершении теста.
func ContextWithTimeout(t testing.TB, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
