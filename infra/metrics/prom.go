package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
)

// PromSink records ride outcomes in Prometheus metrics.
type PromSink struct {
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	fleet    prometheus.Gauge
}

// NewPromSink registers outcome metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_outcomes_total",
		Help: "Total number of ride request outcomes per vehicle",
	}, []string{"vehicle_id", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ride_outcome_latency_seconds",
		Help:    "Time spent resolving a ride request",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ride_fleet_vehicles",
		Help: "Number of vehicles in the dispatch registry",
	})

	var err error
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if fleet, err = register(reg, fleet); err != nil {
		return nil, err
	}
	return &PromSink{outcomes: outcomes, latency: latency, fleet: fleet}, nil
}

// register returns the already registered collector when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordOutcome counts the outcome and observes its latency.
func (s *PromSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	vehicle := "none"
	if ev.Outcome.Assigned() {
		vehicle = strconv.Itoa(ev.Outcome.VehicleID)
	}
	status := ev.Outcome.Status.String()
	s.outcomes.WithLabelValues(vehicle, status).Inc()
	s.latency.WithLabelValues(status).Observe(ev.Latency.Seconds())
	return nil
}

// RecordFleetSize sets the gauge to the number of registered vehicles.
func (s *PromSink) RecordFleetSize(size int) error {
	if s.fleet != nil {
		s.fleet.Set(float64(size))
	}
	return nil
}
