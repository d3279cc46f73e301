package wire

import "github.com/johanvos/kwik/internal/protocol"

// A PingFrame carries no data; its only purpose is to keep a connection
// alive or to elicit an acknowledgment for RTT measurement.
type PingFrame struct{}

func (f *PingFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	return append(b, byte(PingFrameType)), nil
}

func (f *PingFrame) Length(_ protocol.Version) protocol.ByteCount { return 1 }
