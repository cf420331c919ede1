// Package triplog persists the outcome of every submitted ride request.
package triplog

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("triplog: unknown backend")

// Record captures one ride request and how it was resolved.
type Record struct {
	Timestamp time.Time     `json:"timestamp"`
	Outcome   model.Outcome `json:"outcome"`
	// LatencyMicros is the time spent matching and completing the request.
	LatencyMicros int64 `json:"latency_us"`
}

// Query defines filters for retrieving records. Nil or zero fields match
// everything.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID *int
	Status    *model.OutcomeStatus
	// Limit caps the number of returned records, oldest first.
	Limit int
}

// Matches reports whether r satisfies every filter of q except Limit.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Status != nil && r.Outcome.Status != *q.Status {
		return false
	}
	if q.VehicleID != nil && (!r.Outcome.Assigned() || r.Outcome.VehicleID != *q.VehicleID) {
		return false
	}
	return true
}

func (q Query) full(n int) bool {
	return q.Limit > 0 && n >= q.Limit
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
