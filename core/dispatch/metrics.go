package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal      *prometheus.CounterVec
	pickupDistance     prometheus.Histogram
	matchLatency       prometheus.Histogram
	registeredVehicles prometheus.Gauge
	pendingRequests    prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Histogram, prometheus.Gauge, prometheus.Gauge) {
	req := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_requests_total",
			Help: "Number of ride requests by outcome",
		},
		[]string{"status"},
	)
	dist := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ride_pickup_distance",
			Help:    "Distance between the assigned vehicle and the pickup",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ride_match_duration_seconds",
			Help:    "Time spent matching and completing a ride request",
			Buckets: prometheus.DefBuckets,
		},
	)
	veh := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registered_vehicles",
			Help: "Number of vehicles in the registry",
		},
	)
	pend := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_ride_requests",
			Help: "Number of ride requests waiting for a vehicle",
		},
	)
	return req, dist, lat, veh, pend
}

func init() {
	requestsTotal, pickupDistance, matchLatency, registeredVehicles, pendingRequests = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(requestsTotal, pickupDistance, matchLatency, registeredVehicles, pendingRequests)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	requestsTotal, pickupDistance, matchLatency, registeredVehicles, pendingRequests = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
