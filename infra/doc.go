// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, the Prometheus and InfluxDB metrics sinks and the MQTT client
// that notifies vehicles and receives ride requests.
package infra
