package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A RetireConnectionIDFrame asks the peer to stop using a connection ID it
// issued, identified by sequence number (RFC 9000 §19.16).
type RetireConnectionIDFrame struct {
	SequenceNumber uint64
}

func (f *RetireConnectionIDFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(f.SequenceNumber)
}

func (f *RetireConnectionIDFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(RetireConnectionIDFrameType))
	return quicvarint.Append(b, f.SequenceNumber), nil
}

func ParseRetireConnectionIDFrame(r quicvarint.Reader, _ protocol.Version) (*RetireConnectionIDFrame, error) {
	seq, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &RetireConnectionIDFrame{SequenceNumber: seq}, nil
}
