package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A ResetStreamFrame abruptly terminates the sending side of a stream
// (RFC 9000 §19.4).
type ResetStreamFrame struct {
	StreamID  protocol.StreamID
	ErrorCode uint64
	FinalSize protocol.ByteCount
}

func (f *ResetStreamFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.StreamID)) + quicvarint.Len(f.ErrorCode) + quicvarint.Len(uint64(f.FinalSize))
}

func (f *ResetStreamFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(ResetStreamFrameType))
	b = quicvarint.Append(b, uint64(f.StreamID))
	b = quicvarint.Append(b, f.ErrorCode)
	return quicvarint.Append(b, uint64(f.FinalSize)), nil
}

func ParseResetStreamFrame(r quicvarint.Reader, _ protocol.Version) (*ResetStreamFrame, error) {
	sid, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	code, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	size, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	return &ResetStreamFrame{StreamID: protocol.StreamID(sid), ErrorCode: code, FinalSize: protocol.ByteCount(size)}, nil
}
