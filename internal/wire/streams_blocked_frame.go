package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A StreamsBlockedFrame tells the peer the sender wanted to open a stream
// of the given type but was blocked by its stream-count limit (RFC 9000
// §19.14).
type StreamsBlockedFrame struct {
	Type        protocol.StreamType
	StreamLimit uint64
}

func (f *StreamsBlockedFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(f.StreamLimit)
}

func (f *StreamsBlockedFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	typ := BidiStreamsBlockedFrameType
	if f.Type == protocol.StreamTypeUni {
		typ = UniStreamsBlockedFrameType
	}
	b = append(b, byte(typ))
	return quicvarint.Append(b, f.StreamLimit), nil
}

func ParseStreamsBlockedFrame(r quicvarint.Reader, typeByte byte, _ protocol.Version) (*StreamsBlockedFrame, error) {
	limit, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	f := &StreamsBlockedFrame{StreamLimit: limit}
	if FrameType(typeByte) == UniStreamsBlockedFrameType {
		f.Type = protocol.StreamTypeUni
	}
	return f, nil
}
