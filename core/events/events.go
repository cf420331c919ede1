package events

import (
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Event is anything published on the dispatch bus.
type Event interface {
	Kind() string
}

// RegistrationEvent is published when a vehicle is registered.
type RegistrationEvent struct {
	Vehicle  model.Vehicle
	Replaced bool
	Time     time.Time
}

func (RegistrationEvent) Kind() string { return "registration" }

// AssignmentEvent is published at the pickup moment.
type AssignmentEvent struct {
	TripID   string
	Request  model.RideRequest
	Vehicle  model.Vehicle
	Distance float64
	Time     time.Time
}

func (AssignmentEvent) Kind() string { return "assignment" }

// CompletionEvent is published once the vehicle reached the destination.
type CompletionEvent struct {
	TripID  string
	Request model.RideRequest
	Vehicle model.Vehicle
	Time    time.Time
}

func (CompletionEvent) Kind() string { return "completion" }

// UnmatchedEvent is published when no vehicle could take a request.
// Queued is true when the request was kept for deferred matching.
type UnmatchedEvent struct {
	Request model.RideRequest
	Queued  bool
	Time    time.Time
}

func (UnmatchedEvent) Kind() string { return "unmatched" }
