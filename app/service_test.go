package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/config"
	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/factory"
	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/triplog"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
)

func newService(t *testing.T, cfg *config.Config) (*Service, *mqtt.MockNotifier) {
	t.Helper()
	n := mqtt.NewMockNotifier()
	svc, err := New(cfg, Options{Logger: logger.NopLogger{}, Notifier: n})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, n
}

func TestServiceHandlerFlow(t *testing.T) {
	cfg := config.Default()
	cfg.API.Token = "tok"
	svc, notifier := newService(t, cfg)
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	for _, body := range []string{`{"id":1,"driver":"Alice","x":0,"y":0}`, `{"id":2,"driver":"Bob","x":5,"y":5}`} {
		resp, err := http.Post(srv.URL+"/api/vehicles", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Post(srv.URL+"/api/requests", "application/json",
		strings.NewReader(`{"id":100,"pickup":{"x":1,"y":1},"destination":{"x":3,"y":3}}`))
	require.NoError(t, err)
	var out model.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, model.StatusAssigned, out.Status)
	assert.Equal(t, 1, out.VehicleID)

	sent := notifier.Outcomes()
	require.Len(t, sent, 1)
	assert.Equal(t, out.TripID, sent[0].TripID)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/trips?vehicle_id=1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var recs []triplog.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.NoError(t, resp.Body.Close())
	require.Len(t, recs, 1)
	assert.Equal(t, 100, recs[0].Outcome.RequestID)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServiceWithoutTripLog(t *testing.T) {
	cfg := config.Default()
	cfg.TripLog.Backend = "none"
	svc, _ := newService(t, cfg)
	assert.Nil(t, svc.Store)

	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trips", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServiceRunTracksStatusAndStops(t *testing.T) {
	cfg := config.Default()
	cfg.API.Addr = "127.0.0.1:0"
	svc, _ := newService(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	svc.Dispatcher.RegisterVehicle(1, "Alice", model.Loc(0, 0))
	_, err := svc.Dispatcher.SubmitRequest(ctx, model.RideRequest{ID: 1, Pickup: model.Loc(1, 0), Destination: model.Loc(2, 0)})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		st, ok := svc.Status.Get(1)
		return ok && st.Trips == 1 && st.Location == model.Loc(2, 0)
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceOfflineSkipsMQTT(t *testing.T) {
	cfg := config.Default()
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = "tcp://127.0.0.1:1"
	svc, err := New(cfg, Options{Logger: logger.NopLogger{}, Offline: true})
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.Nil(t, svc.mqtt)
}

func TestNewRejectsBadSink(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg, Options{Logger: logger.NopLogger{}})
	require.Error(t, err)
}

type closeCountingSink struct {
	coremetrics.NopSink
	closed *atomic.Int32
}

func (s closeCountingSink) Close() { s.closed.Add(1) }

var sinkCloses atomic.Int32

func init() {
	_ = coremetrics.RegisterMetricsSink("close-counting", func(map[string]any) (coremetrics.MetricsSink, error) {
		return closeCountingSink{closed: &sinkCloses}, nil
	})
}

func TestCloseClosesMetricsSinks(t *testing.T) {
	before := sinkCloses.Load()
	cfg := config.Default()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "close-counting"}, {Type: "close-counting"}}
	svc, err := New(cfg, Options{Logger: logger.NopLogger{}, Offline: true})
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.Equal(t, before+2, sinkCloses.Load())
}

func TestEventFields(t *testing.T) {
	f := eventFields(events.AssignmentEvent{TripID: "t", Request: model.RideRequest{ID: 3}, Vehicle: model.Vehicle{ID: 2}, Distance: 1.5})
	assert.Equal(t, "assignment", f["kind"])
	assert.Equal(t, "t", f["trip_id"])
	assert.Equal(t, 3, f["request_id"])
	assert.Equal(t, 2, f["vehicle_id"])

	f = eventFields(events.UnmatchedEvent{Request: model.RideRequest{ID: 4}, Queued: true})
	assert.Equal(t, true, f["queued"])
}
