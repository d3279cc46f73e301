package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A CryptoFrame carries a chunk of the TLS handshake byte stream at a given
// encryption level (RFC 9000 §19.6).
type CryptoFrame struct {
	Offset protocol.ByteCount
	Data   []byte
}

func (f *CryptoFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(uint64(f.Offset)) + quicvarint.Len(uint64(len(f.Data))) + protocol.ByteCount(len(f.Data))
}

func (f *CryptoFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(CryptoFrameType))
	b = quicvarint.Append(b, uint64(f.Offset))
	b = quicvarint.Append(b, uint64(len(f.Data)))
	return append(b, f.Data...), nil
}

func ParseCryptoFrame(r quicvarint.Reader, _ protocol.Version) (*CryptoFrame, error) {
	offset, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	length, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, length)
	if _, err := readFull(r, data); err != nil {
		return nil, err
	}
	return &CryptoFrame{Offset: protocol.ByteCount(offset), Data: data}, nil
}
