package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A MaxStreamDataFrame raises one stream's flow-control send limit
// (RFC 9000 §19.10).
type MaxStreamDataFrame struct {
	StreamID    protocol.StreamID
	MaximumData protocol.ByteCount
}

func (f *MaxStreamDataFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.StreamID)) + quicvarint.Len(uint64(f.MaximumData))
}

func (f *MaxStreamDataFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(MaxStreamDataFrameType))
	b = quicvarint.Append(b, uint64(f.StreamID))
	return quicvarint.Append(b, uint64(f.MaximumData)), nil
}

func ParseMaxStreamDataFrame(r quicvarint.Reader, _ protocol.Version) (*MaxStreamDataFrame, error) {
	sid, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	max, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &MaxStreamDataFrame{StreamID: protocol.StreamID(sid), MaximumData: protocol.ByteCount(max)}, nil
}
