// Package logging defines the structured connection-lifecycle event sink a
// connection reports to. The taxonomy of events is an ambient concern
// shared by every consumer (a qlog file, Prometheus counters, both at
// once); the connection itself only ever talks to the ConnectionTracer
// interface.
package logging

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

// ConnectionTracer records the lifecycle of a single connection. Every
// method may be called from the connection's single run loop only.
type ConnectionTracer interface {
	// StartedConnection records connectivity:connection_started.
	StartedConnection(srcConnID, destConnID protocol.ConnectionID, version protocol.Version)
	// SentPacket records transport:packet_sent.
	SentPacket(packetType protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount, frames []wire.Frame)
	// ReceivedPacket records transport:packet_received.
	ReceivedPacket(packetType protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount, frames []wire.Frame)
	// ReceivedVersionNegotiationPacket records transport:version_information.
	ReceivedVersionNegotiationPacket(versions []protocol.Version)
	// ReceivedRetry records transport:packet_received for a Retry packet.
	ReceivedRetry()
	// UpdatedCongestionState records recovery:congestion_state_updated.
	UpdatedCongestionState(cwnd, bytesInFlight protocol.ByteCount)
	// LostPacket records recovery:packet_lost.
	LostPacket(packetType protocol.PacketType, pn protocol.PacketNumber)
	// ClosedConnection records connectivity:connection_closed. err is nil for
	// a locally initiated, no-error close.
	ClosedConnection(err error)
	// Close flushes and releases any resources the tracer holds.
	Close() error
}

// MultiTracer fans one connection's events out to every tracer in ts, the
// way a connection built with both a qlog sink and a metrics sink needs.
type MultiTracer struct {
	tracers []ConnectionTracer
}

// NewMultiTracer returns a ConnectionTracer that forwards every event to
// each of ts in order. A nil entry in ts is skipped.
func NewMultiTracer(ts ...ConnectionTracer) ConnectionTracer {
	filtered := make([]ConnectionTracer, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return NullConnectionTracer
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &MultiTracer{tracers: filtered}
}

func (m *MultiTracer) StartedConnection(srcConnID, destConnID protocol.ConnectionID, version protocol.Version) {
	for _, t := range m.tracers {
		t.StartedConnection(srcConnID, destConnID, version)
	}
}

func (m *MultiTracer) SentPacket(packetType protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount, frames []wire.Frame) {
	for _, t := range m.tracers {
		t.SentPacket(packetType, pn, size, frames)
	}
}

func (m *MultiTracer) ReceivedPacket(packetType protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount, frames []wire.Frame) {
	for _, t := range m.tracers {
		t.ReceivedPacket(packetType, pn, size, frames)
	}
}

func (m *MultiTracer) ReceivedVersionNegotiationPacket(versions []protocol.Version) {
	for _, t := range m.tracers {
		t.ReceivedVersionNegotiationPacket(versions)
	}
}

func (m *MultiTracer) ReceivedRetry() {
	for _, t := range m.tracers {
		t.ReceivedRetry()
	}
}

func (m *MultiTracer) UpdatedCongestionState(cwnd, bytesInFlight protocol.ByteCount) {
	for _, t := range m.tracers {
		t.UpdatedCongestionState(cwnd, bytesInFlight)
	}
}

func (m *MultiTracer) LostPacket(packetType protocol.PacketType, pn protocol.PacketNumber) {
	for _, t := range m.tracers {
		t.LostPacket(packetType, pn)
	}
}

func (m *MultiTracer) ClosedConnection(err error) {
	for _, t := range m.tracers {
		t.ClosedConnection(err)
	}
}

func (m *MultiTracer) Close() error {
	var first error
	for _, t := range m.tracers {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
