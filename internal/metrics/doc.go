// Package metrics exposes Prometheus counters for the relay channel.
package metrics
