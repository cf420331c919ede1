package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationDistance(t *testing.T) {
	assert.Equal(t, 5.0, Loc(0, 0).DistanceTo(Loc(3, 4)))
	assert.Equal(t, 0.0, Loc(7, -2).DistanceTo(Loc(7, -2)))
	assert.InDelta(t, math.Sqrt2, Loc(0, 0).DistanceTo(Loc(1, 1)), 1e-12)
}

func TestLocationDistanceSymmetric(t *testing.T) {
	pts := []Location{Loc(0, 0), Loc(1, 1), Loc(-5, 3), Loc(10, 10), Loc(-100, 42)}
	for _, a := range pts {
		for _, b := range pts {
			if a.DistanceTo(b) != b.DistanceTo(a) {
				t.Fatalf("distance not symmetric for %v %v", a, b)
			}
			if a.DistanceTo(b) < 0 {
				t.Fatalf("negative distance for %v %v", a, b)
			}
		}
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "(3, -4)", Loc(3, -4).String())
}

func TestVehicleAvailable(t *testing.T) {
	v := Vehicle{ID: 1, Driver: "Alice"}
	assert.True(t, v.Available())
	v.State = StateOnTrip
	assert.False(t, v.Available())
	assert.Equal(t, "on-trip", v.State.String())
}

func TestOutcomeStatusJSON(t *testing.T) {
	o := Outcome{Status: StatusNoVehicle, RequestID: 3}
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"no_vehicle"`)

	var back Outcome
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, StatusNoVehicle, back.Status)

	var bad OutcomeStatus
	assert.Error(t, bad.UnmarshalText([]byte("lost")))
}

func TestOutcomeJSONKeepsZeroVehicleFields(t *testing.T) {
	out := Outcome{Status: StatusAssigned, RequestID: 3, TripID: "t", VehicleID: 0, Driver: "Zed", Pickup: Loc(1, 1), Destination: Loc(2, 2)}
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"vehicle_id":0`)
	assert.Contains(t, string(b), `"distance":0`)

	var back Outcome
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, out, back)

	b, err = json.Marshal(Outcome{Status: StatusNoVehicle, RequestID: 4})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "vehicle_id")
	assert.NotContains(t, string(b), "distance")
}
