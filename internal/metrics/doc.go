// Package metrics exports blinkhub's Prometheus collectors: storage latency
// and bytes (as a pebblestore.MetricsHook), HTTP request counts and latency,
// and retention/snapshot counters.
package metrics
