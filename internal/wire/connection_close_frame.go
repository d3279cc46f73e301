package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A ConnectionCloseFrame terminates the connection immediately (RFC 9000
// §19.19). IsApplicationError distinguishes the 0x1d (application) wire
// type, which omits the triggering frame type, from 0x1c (transport).
type ConnectionCloseFrame struct {
	IsApplicationError bool
	ErrorCode          uint64
	FrameType          uint64
	ReasonPhrase       string
}

func (f *ConnectionCloseFrame) Length(_ protocol.Version) protocol.ByteCount {
	n := protocol.ByteCount(1) + quicvarint.Len(f.ErrorCode) +
		quicvarint.Len(uint64(len(f.ReasonPhrase))) + protocol.ByteCount(len(f.ReasonPhrase))
	if !f.IsApplicationError {
		n += quicvarint.Len(f.FrameType)
	}
	return n
}

func (f *ConnectionCloseFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	if f.IsApplicationError {
		b = append(b, byte(ApplicationCloseFrameType))
	} else {
		b = append(b, byte(ConnectionCloseFrameType))
	}
	b = quicvarint.Append(b, f.ErrorCode)
	if !f.IsApplicationError {
		b = quicvarint.Append(b, f.FrameType)
	}
	b = quicvarint.Append(b, uint64(len(f.ReasonPhrase)))
	return append(b, []byte(f.ReasonPhrase)...), nil
}

func ParseConnectionCloseFrame(r quicvarint.Reader, typeByte byte, _ protocol.Version) (*ConnectionCloseFrame, error) {
	f := &ConnectionCloseFrame{IsApplicationError: FrameType(typeByte) == ApplicationCloseFrameType}
	code, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	f.ErrorCode = code
	if !f.IsApplicationError {
		ft, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		f.FrameType = ft
	}
	length, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	reason := make([]byte, length)
	if _, err := readFull(r, reason); err != nil {
		return nil, err
	}
	f.ReasonPhrase = string(reason)
	return f, nil
}
