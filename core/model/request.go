package model

import "encoding/json"

// RideRequest asks for a vehicle at Pickup to drive to Destination.
type RideRequest struct {
	ID          int      `json:"id"`
	Pickup      Location `json:"pickup"`
	Destination Location `json:"destination"`
}

// OutcomeStatus tells how a ride request was resolved.
type OutcomeStatus int

const (
	// StatusAssigned means a vehicle was matched and completed the trip.
	StatusAssigned OutcomeStatus = iota
	// StatusNoVehicle means no vehicle was available and the request was dropped.
	StatusNoVehicle
	// StatusQueued means no vehicle was available and the request waits in
	// the pending queue.
	StatusQueued
)

// String returns a human-readable representation of the status.
func (s OutcomeStatus) String() string {
	switch s {
	case StatusAssigned:
		return "assigned"
	case StatusNoVehicle:
		return "no_vehicle"
	case StatusQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status using its string form.
func (s OutcomeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status produced by MarshalText.
func (s *OutcomeStatus) UnmarshalText(b []byte) error {
	v, ok := ParseOutcomeStatus(string(b))
	if !ok {
		return &UnknownStatusError{Value: string(b)}
	}
	*s = v
	return nil
}

// ParseOutcomeStatus converts the string form back into a status.
func ParseOutcomeStatus(s string) (OutcomeStatus, bool) {
	switch s {
	case "assigned":
		return StatusAssigned, true
	case "no_vehicle":
		return StatusNoVehicle, true
	case "queued":
		return StatusQueued, true
	default:
		return 0, false
	}
}

// UnknownStatusError is returned when decoding an unknown status or state string.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return "unknown status " + e.Value
}

// Outcome is the result of submitting a ride request.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	RequestID   int           `json:"request_id"`
	TripID      string        `json:"trip_id,omitempty"`
	VehicleID   int           `json:"vehicle_id"`
	Driver      string        `json:"driver,omitempty"`
	Pickup      Location      `json:"pickup"`
	Destination Location      `json:"destination"`
	// Distance is the distance the vehicle travelled to reach the pickup.
	Distance float64 `json:"distance"`
}

// outcomeJSON omits the vehicle fields of unassigned outcomes. Assigned
// outcomes always carry them, zero values included.
type outcomeJSON struct {
	Status      OutcomeStatus `json:"status"`
	RequestID   int           `json:"request_id"`
	TripID      string        `json:"trip_id,omitempty"`
	VehicleID   *int          `json:"vehicle_id,omitempty"`
	Driver      string        `json:"driver,omitempty"`
	Pickup      Location      `json:"pickup"`
	Destination Location      `json:"destination"`
	Distance    *float64      `json:"distance,omitempty"`
}

// MarshalJSON encodes the outcome, keying the vehicle fields off Status.
func (o Outcome) MarshalJSON() ([]byte, error) {
	w := outcomeJSON{
		Status:      o.Status,
		RequestID:   o.RequestID,
		TripID:      o.TripID,
		Driver:      o.Driver,
		Pickup:      o.Pickup,
		Destination: o.Destination,
	}
	if o.Assigned() {
		w.VehicleID = &o.VehicleID
		w.Distance = &o.Distance
	}
	return json.Marshal(w)
}

// Assigned reports whether a vehicle served the request.
func (o Outcome) Assigned() bool {
	return o.Status == StatusAssigned
}
