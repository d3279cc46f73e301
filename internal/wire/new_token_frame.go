package wire

import (
	"errors"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A NewTokenFrame provides an address-validation token the client can use
// on a future connection (RFC 9000 §19.7).
type NewTokenFrame struct {
	Token []byte
}

func (f *NewTokenFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(len(f.Token))) + protocol.ByteCount(len(f.Token))
}

func (f *NewTokenFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(NewTokenFrameType))
	b = quicvarint.Append(b, uint64(len(f.Token)))
	return append(b, f.Token...), nil
}

func ParseNewTokenFrame(r quicvarint.Reader, _ protocol.Version) (*NewTokenFrame, error) {
	length, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, errors.New("NewTokenFrame: empty token")
	}
	token := make([]byte, length)
	if _, err := readFull(r, token); err != nil {
		return nil, err
	}
	return &NewTokenFrame{Token: token}, nil
}
