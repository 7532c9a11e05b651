package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keeperbridge"

// Metrics holds the channel collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	reg *prometheus.Registry

	connectAttempts *prometheus.CounterVec
	framesEmitted   *prometheus.CounterVec
	inbound         *prometheus.CounterVec
	sinkDropped     prometheus.Counter
	connected       prometheus.Gauge
}

// New registers the channel collectors, plus the Go and process collectors,
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "connect_attempts_total",
			Help:      "Relay connect attempts by result.",
		}, []string{"result"}),
		framesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "frames_emitted_total",
			Help:      "Frames handed to the relay transport.",
		}, []string{"event", "encrypted"}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "inbound_messages_total",
			Help:      "Inbound channel messages by result.",
		}, []string{"result"}),
		sinkDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "dropped_total",
			Help:      "Inbound messages dropped by a full sink.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "connected",
			Help:      "1 while a relay connection is live.",
		}),
	}
	m.reg.MustRegister(
		m.connectAttempts,
		m.framesEmitted,
		m.inbound,
		m.sinkDropped,
		m.connected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ConnectAttempt records one dial; result is "ok", "timeout" or "error".
func (m *Metrics) ConnectAttempt(result string) {
	if m == nil {
		return
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

// FrameEmitted records one frame queued for the relay.
func (m *Metrics) FrameEmitted(event string, encrypted bool) {
	if m == nil {
		return
	}
	enc := "false"
	if encrypted {
		enc = "true"
	}
	m.framesEmitted.WithLabelValues(event, enc).Inc()
}

// Inbound records one processed inbound message.
func (m *Metrics) Inbound(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.inbound.WithLabelValues(result).Inc()
}

// SinkDropped records a message lost to a full sink.
func (m *Metrics) SinkDropped() {
	if m == nil {
		return
	}
	m.sinkDropped.Inc()
}

// SetConnected flips the connection gauge.
func (m *Metrics) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}
