package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A MaxDataFrame raises the connection-level flow-control send limit
// (RFC 9000 §19.9).
type MaxDataFrame struct {
	MaximumData protocol.ByteCount
}

func (f *MaxDataFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.MaximumData))
}

func (f *MaxDataFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(MaxDataFrameType))
	return quicvarint.Append(b, uint64(f.MaximumData)), nil
}

func ParseMaxDataFrame(r quicvarint.Reader, _ protocol.Version) (*MaxDataFrame, error) {
	v, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &MaxDataFrame{MaximumData: protocol.ByteCount(v)}, nil
}
