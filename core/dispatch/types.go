package dispatch

import (
	"context"
	"errors"

	"github.com/kilianp07/ridedispatch/core/model"
)

// ErrNilMatcher is returned by NewDispatcher when no matcher is provided.
var ErrNilMatcher = errors.New("dispatch: nil matcher")

// Candidate is the vehicle chosen by a Matcher and its pickup distance.
type Candidate struct {
	VehicleID int
	Distance  float64
}

// VehicleFilter selects the vehicles eligible for the request.
type VehicleFilter interface {
	Filter(vehicles []model.Vehicle, req model.RideRequest) []model.Vehicle
}

// Matcher picks one vehicle for the pickup location. ok is false when no
// vehicle can serve it.
type Matcher interface {
	Match(vehicles []model.Vehicle, pickup model.Location) (c Candidate, ok bool)
}

// Notifier informs the outside world about assignments, for example the
// vehicle's driver app.
type Notifier interface {
	NotifyAssignment(ctx context.Context, out model.Outcome) error
}
