package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A StopSendingFrame asks the peer to stop sending on a stream (RFC 9000
// §19.5).
type StopSendingFrame struct {
	StreamID  protocol.StreamID
	ErrorCode uint64
}

func (f *StopSendingFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.StreamID)) + quicvarint.Len(f.ErrorCode)
}

func (f *StopSendingFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(StopSendingFrameType))
	b = quicvarint.Append(b, uint64(f.StreamID))
	return quicvarint.Append(b, f.ErrorCode), nil
}

func ParseStopSendingFrame(r quicvarint.Reader, _ protocol.Version) (*StopSendingFrame, error) {
	sid, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	code, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &StopSendingFrame{StreamID: protocol.StreamID(sid), ErrorCode: code}, nil
}
