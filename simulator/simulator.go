package simulator

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Config holds the simulation parameters.
type Config struct {
	Vehicles int
	Requests int
	Grid     int
	Seed     int64
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if c.Vehicles < 0 {
		return fmt.Errorf("vehicles must not be negative")
	}
	if c.Requests < 0 {
		return fmt.Errorf("requests must not be negative")
	}
	if c.Grid <= 0 {
		return fmt.Errorf("grid must be positive")
	}
	return nil
}

// Dispatcher is the part of dispatch.Dispatcher a simulation drives.
type Dispatcher interface {
	RegisterVehicle(id int, driver string, loc model.Location) []model.Outcome
	Dispatch(ctx context.Context, req model.RideRequest) ([]model.Outcome, error)
}

// Report summarises the outcomes of a simulation.
type Report struct {
	Requests  int
	Assigned  int
	Unmatched int
	Queued    int
	// Pickup distance statistics over assigned requests.
	MeanDistance   float64
	StdDevDistance float64
	MaxDistance    float64
	// TripsPerVehicle counts assignments by vehicle id.
	TripsPerVehicle map[int]int
}

// Run registers a generated fleet on d and submits the generated requests
// in id order. Outcomes of queued requests served by a later registration
// are counted as assigned.
func Run(ctx context.Context, d Dispatcher, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	fleet := GenerateFleet(rng, cfg.Vehicles, cfg.Grid)
	requests := GenerateRequests(rng, cfg.Requests, cfg.Grid)

	var outcomes []model.Outcome
	for _, v := range fleet {
		outcomes = append(outcomes, d.RegisterVehicle(v.ID, v.Driver, v.Location)...)
	}
	for _, r := range requests {
		outs, err := d.Dispatch(ctx, r)
		if err != nil {
			return Report{}, fmt.Errorf("submit request %d: %w", r.ID, err)
		}
		outcomes = append(outcomes, outs...)
	}
	return Summarize(outcomes), nil
}

// Summarize builds a report from outcomes. A request that was queued and
// later assigned appears twice; only its final outcome is counted.
func Summarize(outcomes []model.Outcome) Report {
	final := make(map[int]model.Outcome, len(outcomes))
	order := make([]int, 0, len(outcomes))
	for _, o := range outcomes {
		if _, seen := final[o.RequestID]; !seen {
			order = append(order, o.RequestID)
		}
		final[o.RequestID] = o
	}

	rep := Report{Requests: len(order), TripsPerVehicle: make(map[int]int)}
	var dists []float64
	for _, id := range order {
		o := final[id]
		switch o.Status {
		case model.StatusAssigned:
			rep.Assigned++
			rep.TripsPerVehicle[o.VehicleID]++
			dists = append(dists, o.Distance)
		case model.StatusQueued:
			rep.Queued++
		default:
			rep.Unmatched++
		}
	}
	if len(dists) > 0 {
		rep.MeanDistance = stat.Mean(dists, nil)
		rep.MaxDistance = floats.Max(dists)
	}
	if len(dists) > 1 {
		rep.StdDevDistance = stat.StdDev(dists, nil)
	}
	return rep
}

// Write prints the report in a human readable form.
func (r Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "requests: %d\nassigned: %d\nno vehicle: %d\nqueued: %d\n",
		r.Requests, r.Assigned, r.Unmatched, r.Queued); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "pickup distance: mean %.2f, stddev %.2f, max %.2f\n",
		r.MeanDistance, r.StdDevDistance, r.MaxDistance); err != nil {
		return err
	}
	ids := make([]int, 0, len(r.TripsPerVehicle))
	for id := range r.TripsPerVehicle {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if _, err := fmt.Fprintf(w, "vehicle %d: %d trips\n", id, r.TripsPerVehicle[id]); err != nil {
			return err
		}
	}
	return nil
}
