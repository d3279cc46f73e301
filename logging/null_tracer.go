package logging

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

// NullConnectionTracer is a ConnectionTracer that does nothing. Useful for
// embedding, and as the default when NewConnection is given a nil tracer.
var NullConnectionTracer ConnectionTracer = &nullConnectionTracer{}

type nullConnectionTracer struct{}

func (nullConnectionTracer) StartedConnection(srcConnID, destConnID protocol.ConnectionID, version protocol.Version) {
}
func (nullConnectionTracer) SentPacket(protocol.PacketType, protocol.PacketNumber, protocol.ByteCount, []wire.Frame) {
}
func (nullConnectionTracer) ReceivedPacket(protocol.PacketType, protocol.PacketNumber, protocol.ByteCount, []wire.Frame) {
}
func (nullConnectionTracer) ReceivedVersionNegotiationPacket([]protocol.Version)     {}
func (nullConnectionTracer) ReceivedRetry()                                          {}
func (nullConnectionTracer) UpdatedCongestionState(cwnd, bytesInFlight protocol.ByteCount) {}
func (nullConnectionTracer) LostPacket(protocol.PacketType, protocol.PacketNumber)    {}
func (nullConnectionTracer) ClosedConnection(error)                                  {}
func (nullConnectionTracer) Close() error                                            { return nil }
