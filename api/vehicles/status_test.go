package vehicles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/vehiclestatus"
)

func statusStore() *vehiclestatus.MemoryStore {
	s := vehiclestatus.NewMemoryStore()
	s.Apply(events.RegistrationEvent{Vehicle: model.Vehicle{ID: 1, Driver: "Alice"}})
	s.Apply(events.RegistrationEvent{Vehicle: model.Vehicle{ID: 2, Driver: "Bob"}})
	s.Apply(events.AssignmentEvent{TripID: "t1", Vehicle: model.Vehicle{ID: 2, Driver: "Bob", State: model.StateOnTrip}})
	return s
}

func TestStatusHandler_Basic(t *testing.T) {
	h := NewStatusHandler(statusStore())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []vehiclestatus.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].VehicleID != 1 || out[1].Trips != 1 {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestStatusHandler_Filter(t *testing.T) {
	h := NewStatusHandler(statusStore())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/status?state=on-trip", nil))
	var out []vehiclestatus.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].VehicleID != 2 {
		t.Fatalf("unexpected filter result %#v", out)
	}
}

func TestStatusHandler_Empty(t *testing.T) {
	h := NewStatusHandler(vehiclestatus.NewMemoryStore())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vehicles/status", nil))
	if rr.Body.String() != "[]\n" {
		t.Fatalf("expected empty array got %s", rr.Body.String())
	}
}

func TestStatusHandler_BadParams(t *testing.T) {
	h := NewStatusHandler(vehiclestatus.NewMemoryStore())
	for _, url := range []string{"/api/vehicles/status?state=parked", "/api/vehicles/status?min_trips=x"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", url, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", url, rr.Code)
		}
	}
}
