package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/ownership"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// Scenario is a recorded case replayed against the dispatcher.
type Scenario struct {
	Session string `yaml:"session"`
	// Resume loads stored trigger state instead of starting a new session.
	Resume bool        `yaml:"resume"`
	Cast   castDef     `yaml:"cast"`
	Events []eventStep `yaml:"events"`
}

type castDef struct {
	Victim   int `yaml:"victim"`
	Murderer int `yaml:"murderer"`
	Player   int `yaml:"player"`
}

type eventStep struct {
	Name   string `yaml:"name"`
	Method string `yaml:"method"`
	// Repeat delivers the event this many times (default 1).
	Repeat int `yaml:"repeat"`
	// Wait pauses after the event so scans can progress.
	Wait time.Duration `yaml:"wait"`
}

// LoadScenario reads a scenario YAML file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	var errs []error
	if sc.Session == "" {
		errs = append(errs, errors.New("session is required"))
	}
	for i, ev := range sc.Events {
		if ev.Name == "" {
			errs = append(errs, fmt.Errorf("event %d: name is required", i))
		}
		if ev.Repeat < 0 {
			errs = append(errs, fmt.Errorf("event %d: repeat must not be negative", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Scenario{}, fmt.Errorf("validating scenario %s: %w", path, err)
	}
	return sc, nil
}

// Resolve maps the cast actor IDs to city actors. Zero IDs stay unset.
func (c castDef) Resolve(city *world.City) (ownership.Cast, error) {
	var (
		cast ownership.Cast
		errs []error
	)
	pick := func(role string, id int) *world.Actor {
		if id == 0 {
			return nil
		}
		a, ok := city.Actor(id)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: unknown actor %d", role, id))
		}
		return a
	}
	cast.Victim = pick("victim", c.Victim)
	cast.Murderer = pick("murderer", c.Murderer)
	cast.Player = pick("player", c.Player)
	return cast, errors.Join(errs...)
}
