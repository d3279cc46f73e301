// Package metrics exposes a logging.ConnectionTracer backed by Prometheus
// counters and gauges, the way the teacher's metrics package exposes its
// connection and transport tracers.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
	"github.com/johanvos/kwik/logging"
)

const metricNamespace = "kwik"

var (
	connsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "connections_started_total",
		Help:      "Connections started",
	})
	connsClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "connections_closed_total",
		Help:      "Connections closed",
	})
	connDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricNamespace,
		Name:      "connection_duration_seconds",
		Help:      "Duration of a connection",
		Buckets:   prometheus.ExponentialBuckets(1.0/16, 2, 20),
	})
	packetsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "packets_sent_total",
		Help:      "Packets sent, by packet type",
	}, []string{"packet_type"})
	packetsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "packets_received_total",
		Help:      "Packets received, by packet type",
	}, []string{"packet_type"})
	packetsLost = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "packets_lost_total",
		Help:      "Packets declared lost, by packet type",
	}, []string{"packet_type"})
	congestionWindow = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Name:      "congestion_window_bytes",
		Help:      "Current congestion window",
	})
	bytesInFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Name:      "bytes_in_flight",
		Help:      "Current bytes in flight",
	})
)

// NewConnectionTracer creates a logging.ConnectionTracer registered against
// the default Prometheus registerer. Safe to call once per connection; the
// collectors themselves are process-wide singletons.
func NewConnectionTracer() logging.ConnectionTracer {
	return NewConnectionTracerWithRegisterer(prometheus.DefaultRegisterer)
}

// NewConnectionTracerWithRegisterer creates a logging.ConnectionTracer using
// a given Prometheus registerer.
func NewConnectionTracerWithRegisterer(registerer prometheus.Registerer) logging.ConnectionTracer {
	for _, c := range [...]prometheus.Collector{
		connsStarted, connsClosed, connDuration,
		packetsSent, packetsReceived, packetsLost,
		congestionWindow, bytesInFlightGauge,
	} {
		if err := registerer.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
	return &connectionTracer{}
}

type connectionTracer struct {
	startTime time.Time
}

func (t *connectionTracer) StartedConnection(protocol.ConnectionID, protocol.ConnectionID, protocol.Version) {
	t.startTime = time.Now()
	connsStarted.Inc()
}

func (t *connectionTracer) SentPacket(packetType protocol.PacketType, _ protocol.PacketNumber, _ protocol.ByteCount, _ []wire.Frame) {
	packetsSent.WithLabelValues(packetType.String()).Inc()
}

func (t *connectionTracer) ReceivedPacket(packetType protocol.PacketType, _ protocol.PacketNumber, _ protocol.ByteCount, _ []wire.Frame) {
	packetsReceived.WithLabelValues(packetType.String()).Inc()
}

func (t *connectionTracer) ReceivedVersionNegotiationPacket([]protocol.Version) {}

func (t *connectionTracer) ReceivedRetry() {
	packetsReceived.WithLabelValues(protocol.PacketTypeRetry.String()).Inc()
}

func (t *connectionTracer) UpdatedCongestionState(cwnd, bytesInFlight protocol.ByteCount) {
	congestionWindow.Set(float64(cwnd))
	bytesInFlightGauge.Set(float64(bytesInFlight))
}

func (t *connectionTracer) LostPacket(packetType protocol.PacketType, _ protocol.PacketNumber) {
	packetsLost.WithLabelValues(packetType.String()).Inc()
}

func (t *connectionTracer) ClosedConnection(error) {
	connsClosed.Inc()
	if !t.startTime.IsZero() {
		connDuration.Observe(time.Since(t.startTime).Seconds())
	}
}

func (t *connectionTracer) Close() error { return nil }
