// Package vehiclestatus keeps a per vehicle projection of the dispatch
// events: current state and location, trip count and the last trip.
package vehiclestatus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/model"
)

// LastTrip summarises the most recent trip of a vehicle.
type LastTrip struct {
	TripID      string         `json:"trip_id"`
	RequestID   int            `json:"request_id"`
	Pickup      model.Location `json:"pickup"`
	Destination model.Location `json:"destination"`
	Distance    float64        `json:"distance"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Status captures the current known state of a vehicle.
type Status struct {
	VehicleID int                `json:"vehicle_id"`
	Driver    string             `json:"driver"`
	State     model.VehicleState `json:"state"`
	Location  model.Location     `json:"location"`
	Trips     int                `json:"trips"`
	LastTrip  *LastTrip          `json:"last_trip,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Filter restricts List results. A nil State matches every vehicle.
type Filter struct {
	State *model.VehicleState
	// MinTrips keeps vehicles with at least this many trips.
	MinTrips int
}

type Store interface {
	Apply(events.Event)
	Get(id int) (Status, bool)
	List(Filter) []Status
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[int]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[int]Status{}}
}

// Apply updates the projection with one event. Registration resets the
// trip count since it replaces the vehicle.
func (s *MemoryStore) Apply(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e := ev.(type) {
	case events.RegistrationEvent:
		s.data[e.Vehicle.ID] = Status{
			VehicleID: e.Vehicle.ID,
			Driver:    e.Vehicle.Driver,
			State:     e.Vehicle.State,
			Location:  e.Vehicle.Location,
			UpdatedAt: e.Time,
		}
	case events.AssignmentEvent:
		st := s.data[e.Vehicle.ID]
		st.VehicleID = e.Vehicle.ID
		st.Driver = e.Vehicle.Driver
		st.State = e.Vehicle.State
		st.Location = e.Vehicle.Location
		st.Trips++
		st.LastTrip = &LastTrip{
			TripID:      e.TripID,
			RequestID:   e.Request.ID,
			Pickup:      e.Request.Pickup,
			Destination: e.Request.Destination,
			Distance:    e.Distance,
			Timestamp:   e.Time,
		}
		st.UpdatedAt = e.Time
		s.data[e.Vehicle.ID] = st
	case events.CompletionEvent:
		st, ok := s.data[e.Vehicle.ID]
		if !ok {
			return
		}
		st.State = e.Vehicle.State
		st.Location = e.Vehicle.Location
		st.UpdatedAt = e.Time
		s.data[e.Vehicle.ID] = st
	}
}

func (s *MemoryStore) Get(id int) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	return st, ok
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.State != nil && st.State != *f.State {
			continue
		}
		if st.Trips < f.MinTrips {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].VehicleID < res[j].VehicleID })
	return res
}

// Follow applies events from ch until it is closed or ctx is done.
func Follow(ctx context.Context, s Store, ch <-chan events.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.Apply(ev)
		case <-ctx.Done():
			return
		}
	}
}
