package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A StreamDataBlockedFrame tells the peer the sender wanted to send more
// data on a stream but was blocked by that stream's flow-control limit
// (RFC 9000 §19.13).
type StreamDataBlockedFrame struct {
	StreamID          protocol.StreamID
	MaximumStreamData protocol.ByteCount
}

func (f *StreamDataBlockedFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.StreamID)) + quicvarint.Len(uint64(f.MaximumStreamData))
}

func (f *StreamDataBlockedFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(StreamDataBlockedFrameType))
	b = quicvarint.Append(b, uint64(f.StreamID))
	return quicvarint.Append(b, uint64(f.MaximumStreamData)), nil
}

func ParseStreamDataBlockedFrame(r quicvarint.Reader, _ protocol.Version) (*StreamDataBlockedFrame, error) {
	sid, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	max, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &StreamDataBlockedFrame{StreamID: protocol.StreamID(sid), MaximumStreamData: protocol.ByteCount(max)}, nil
}
