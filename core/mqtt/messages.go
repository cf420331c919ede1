package mqtt

import (
	"fmt"
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// AssignmentTopic returns the topic an assignment for the vehicle is sent on.
func AssignmentTopic(vehicleID int) string {
	return fmt.Sprintf("vehicle/%d/assignment", vehicleID)
}

// AssignmentMessage is the payload published to a vehicle when it is
// assigned a trip.
type AssignmentMessage struct {
	MessageID   string         `json:"message_id"`
	TripID      string         `json:"trip_id"`
	RequestID   int            `json:"request_id"`
	VehicleID   int            `json:"vehicle_id"`
	Driver      string         `json:"driver"`
	Pickup      model.Location `json:"pickup"`
	Destination model.Location `json:"destination"`
	Distance    float64        `json:"distance"`
	Timestamp   int64          `json:"timestamp"`
}

// NewAssignmentMessage builds the payload for an assigned outcome.
func NewAssignmentMessage(id string, out model.Outcome, at time.Time) AssignmentMessage {
	return AssignmentMessage{
		MessageID:   id,
		TripID:      out.TripID,
		RequestID:   out.RequestID,
		VehicleID:   out.VehicleID,
		Driver:      out.Driver,
		Pickup:      out.Pickup,
		Destination: out.Destination,
		Distance:    out.Distance,
		Timestamp:   at.UnixMilli(),
	}
}

// AckMessage is sent back by a vehicle once it accepted an assignment.
type AckMessage struct {
	MessageID string `json:"message_id"`
}

// RequestMessage is the payload of a ride request received over MQTT.
// Pickup and destination are pointers so a missing field can be told apart
// from the origin.
type RequestMessage struct {
	ID          *int            `json:"id"`
	Pickup      *model.Location `json:"pickup"`
	Destination *model.Location `json:"destination"`
}

// Request validates the message and converts it to a RideRequest.
func (m RequestMessage) Request() (model.RideRequest, error) {
	switch {
	case m.ID == nil:
		return model.RideRequest{}, fmt.Errorf("%w: missing id", ErrInvalidRequest)
	case m.Pickup == nil:
		return model.RideRequest{}, fmt.Errorf("%w: missing pickup", ErrInvalidRequest)
	case m.Destination == nil:
		return model.RideRequest{}, fmt.Errorf("%w: missing destination", ErrInvalidRequest)
	}
	return model.RideRequest{ID: *m.ID, Pickup: *m.Pickup, Destination: *m.Destination}, nil
}
