package metrics

import "github.com/kilianp07/ridedispatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint used by
	// the serve command. Empty disables the standalone endpoint.
	PrometheusAddr string `json:"prometheus_addr"`
}
