// Package metrics defines the sinks recording ride dispatch outcomes. Sinks
// like PromSink and InfluxSink (package infra/metrics) record one event per
// submitted request and can be combined with NewMultiSink. NewMetricsSink
// builds the configured sinks from the factory registry and returns a
// MultiSink automatically when several are configured.
package metrics
