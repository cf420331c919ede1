package simulator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ridedispatch/core/model"
)

// ErrExpectation is returned by Scenario.Check when a report differs from
// the expected counts.
var ErrExpectation = errors.New("scenario expectation not met")

type VehicleDef struct {
	ID     int    `yaml:"id"`
	Driver string `yaml:"driver"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
}

type PointDef struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (p PointDef) ToModel() model.Location { return model.Loc(p.X, p.Y) }

type RequestDef struct {
	ID          int      `yaml:"id"`
	Pickup      PointDef `yaml:"pickup"`
	Destination PointDef `yaml:"destination"`
}

func (r RequestDef) ToModel() model.RideRequest {
	return model.RideRequest{ID: r.ID, Pickup: r.Pickup.ToModel(), Destination: r.Destination.ToModel()}
}

// Expected holds optional counts a scenario run must reproduce.
type Expected struct {
	Assigned  *int        `yaml:"assigned,omitempty"`
	Unmatched *int        `yaml:"unmatched,omitempty"`
	Vehicles  map[int]int `yaml:"vehicles,omitempty"`
}

// Scenario is a scripted fleet and request sequence.
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Vehicles    []VehicleDef `yaml:"vehicles"`
	Requests    []RequestDef `yaml:"requests"`
	Expected    Expected     `yaml:"expected"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// Run registers the scenario vehicles in file order, then submits its
// requests in file order.
func (sc *Scenario) Run(ctx context.Context, d Dispatcher) (Report, error) {
	var outcomes []model.Outcome
	for _, v := range sc.Vehicles {
		outcomes = append(outcomes, d.RegisterVehicle(v.ID, v.Driver, model.Loc(v.X, v.Y))...)
	}
	for _, r := range sc.Requests {
		outs, err := d.Dispatch(ctx, r.ToModel())
		if err != nil {
			return Report{}, fmt.Errorf("submit request %d: %w", r.ID, err)
		}
		outcomes = append(outcomes, outs...)
	}
	return Summarize(outcomes), nil
}

// Check compares rep with the expected counts. Unset expectations match.
func (sc *Scenario) Check(rep Report) error {
	exp := sc.Expected
	if exp.Assigned != nil && rep.Assigned != *exp.Assigned {
		return fmt.Errorf("%w: assigned %d, want %d", ErrExpectation, rep.Assigned, *exp.Assigned)
	}
	if exp.Unmatched != nil && rep.Unmatched != *exp.Unmatched {
		return fmt.Errorf("%w: unmatched %d, want %d", ErrExpectation, rep.Unmatched, *exp.Unmatched)
	}
	for id, want := range exp.Vehicles {
		if got := rep.TripsPerVehicle[id]; got != want {
			return fmt.Errorf("%w: vehicle %d trips %d, want %d", ErrExpectation, id, got, want)
		}
	}
	return nil
}
