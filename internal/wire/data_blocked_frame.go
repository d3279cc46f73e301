package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A DataBlockedFrame tells the peer the sender wanted to send more data but
// was blocked by the connection-level flow-control limit (RFC 9000 §19.12).
type DataBlockedFrame struct {
	MaximumData protocol.ByteCount
}

func (f *DataBlockedFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.MaximumData))
}

func (f *DataBlockedFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(DataBlockedFrameType))
	return quicvarint.Append(b, uint64(f.MaximumData)), nil
}

func ParseDataBlockedFrame(r quicvarint.Reader, _ protocol.Version) (*DataBlockedFrame, error) {
	v, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &DataBlockedFrame{MaximumData: protocol.ByteCount(v)}, nil
}
