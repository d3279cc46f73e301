package wire

import (
	"io"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A StreamFrame carries a chunk of one stream's byte stream (RFC 9000
// §19.8). The type byte's low three bits encode FIN (0x01), LEN (0x02) and
// OFF (0x04); this codec always sets LEN so Length is self-describing.
type StreamFrame struct {
	StreamID protocol.StreamID
	Offset   protocol.ByteCount
	Data     []byte
	Fin      bool
}

func (f *StreamFrame) Length(_ protocol.Version) protocol.ByteCount {
	n := protocol.ByteCount(1) + quicvarint.Len(uint64(f.StreamID)) + quicvarint.Len(uint64(len(f.Data))) + protocol.ByteCount(len(f.Data))
	if f.Offset > 0 {
		n += quicvarint.Len(uint64(f.Offset))
	}
	return n
}

func (f *StreamFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	typ := byte(0x08) | 0x02 // STREAM base type, LEN always set
	if f.Fin {
		typ |= 0x01
	}
	if f.Offset > 0 {
		typ |= 0x04
	}
	b = append(b, typ)
	b = quicvarint.Append(b, uint64(f.StreamID))
	if f.Offset > 0 {
		b = quicvarint.Append(b, uint64(f.Offset))
	}
	b = quicvarint.Append(b, uint64(len(f.Data)))
	return append(b, f.Data...), nil
}

func ParseStreamFrame(r quicvarint.Reader, typeByte byte, _ protocol.Version) (*StreamFrame, error) {
	f := &StreamFrame{Fin: typeByte&0x01 != 0}
	sid, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	f.StreamID = protocol.StreamID(sid)
	if typeByte&0x04 != 0 {
		off, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		f.Offset = protocol.ByteCount(off)
	}
	if typeByte&0x02 != 0 {
		length, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		f.Data = make([]byte, length)
		if _, err := readFull(r, f.Data); err != nil {
			return nil, err
		}
		return f, nil
	}
	// No LEN bit: data extends to the end of the packet. The caller passes a
	// Reader scoped to the remaining packet bytes, so drain the rest.
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.Data = rest
	return f, nil
}
