// Package telemetry holds the node's logging setup and its Prometheus
// metrics. Metrics are package level and registered once on Registry.
package telemetry
