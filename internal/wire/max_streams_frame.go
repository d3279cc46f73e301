package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A MaxStreamsFrame raises the number of streams of one directionality the
// peer may open (RFC 9000 §19.11).
type MaxStreamsFrame struct {
	Type           protocol.StreamType
	MaxStreamCount uint64
}

func (f *MaxStreamsFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(f.MaxStreamCount)
}

func (f *MaxStreamsFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	typ := BidiMaxStreamsFrameType
	if f.Type == protocol.StreamTypeUni {
		typ = UniMaxStreamsFrameType
	}
	b = append(b, byte(typ))
	return quicvarint.Append(b, f.MaxStreamCount), nil
}

func ParseMaxStreamsFrame(r quicvarint.Reader, typeByte byte, _ protocol.Version) (*MaxStreamsFrame, error) {
	count, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	f := &MaxStreamsFrame{MaxStreamCount: count}
	if FrameType(typeByte) == UniMaxStreamsFrameType {
		f.Type = protocol.StreamTypeUni
	}
	return f, nil
}
