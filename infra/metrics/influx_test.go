package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/model"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *bodyRecorder) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies...)
}

func TestInfluxSinkRecordOutcome(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	out := model.Outcome{
		Status:    model.StatusAssigned,
		RequestID: 4,
		TripID:    "trip-4",
		VehicleID: 2,
		Distance:  1.41421,
	}
	require.NoError(t, sink.RecordOutcome(coremetrics.OutcomeEvent{Outcome: out, Latency: 1500 * time.Microsecond, Time: now}))

	p := write.NewPointWithMeasurement("ride_outcome").
		AddTag("status", "assigned").
		AddTag("component", "dispatcher").
		AddTag("vehicle_id", "2").
		AddField("trip_id", "trip-4").
		AddField("distance", 1.414).
		AddField("request_id", 4).
		AddField("latency_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	bodies := rec.all()
	require.Len(t, bodies, 1)
	assert.Equal(t, expected, bodies[0])
}

func TestInfluxSinkRecordUnmatched(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	ev := coremetrics.OutcomeEvent{Outcome: model.Outcome{Status: model.StatusNoVehicle, RequestID: 9}, Time: time.Now()}
	require.NoError(t, sink.RecordOutcome(ev))

	bodies := rec.all()
	require.Len(t, bodies, 1)
	assert.True(t, strings.HasPrefix(bodies[0], "ride_outcome,"))
	assert.Contains(t, bodies[0], "status=no_vehicle")
	assert.NotContains(t, bodies[0], "vehicle_id")
}

func TestInfluxSinkRecordFleetSize(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	sink.now = func() time.Time { return now }
	require.NoError(t, sink.RecordFleetSize(3))

	p := write.NewPointWithMeasurement("fleet_size").
		AddTag("component", "dispatcher").
		AddField("vehicles", 3).
		SetTime(now)
	bodies := rec.all()
	require.Len(t, bodies, 1)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)), bodies[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	var mu sync.Mutex
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			mu.Lock()
			called = true
			mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, ok := sink.(*InfluxSink)
	assert.False(t, ok, "expected NopSink on failing health check")
	mu.Lock()
	assert.True(t, called, "health endpoint not called")
	mu.Unlock()
}
