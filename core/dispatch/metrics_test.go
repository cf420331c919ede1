package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	requestsTotal.WithLabelValues("assigned").Inc()
	pickupDistance.Observe(1.5)
	matchLatency.Observe(0.001)
	registeredVehicles.Set(2)
	pendingRequests.Set(0)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"ride_requests_total",
		"ride_pickup_distance",
		"ride_match_duration_seconds",
		"registered_vehicles",
		"pending_ride_requests",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}

func TestDispatcherUpdatesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	d := newTestDispatcher(t, Config{})
	d.RegisterVehicle(1, "Alice", locAt(0, 0))
	submit(t, d, 1, locAt(3, 4), locAt(5, 5))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		switch *mf.Name {
		case "ride_requests_total":
			if got := mf.Metric[0].GetCounter().GetValue(); got != 1 {
				t.Errorf("requests counter = %v", got)
			}
		case "registered_vehicles":
			if got := mf.Metric[0].GetGauge().GetValue(); got != 1 {
				t.Errorf("registered gauge = %v", got)
			}
		case "ride_pickup_distance":
			if got := mf.Metric[0].GetHistogram().GetSampleSum(); got != 5 {
				t.Errorf("pickup distance sum = %v", got)
			}
		}
	}
}
