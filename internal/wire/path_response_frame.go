package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A PathResponseFrame echoes the data from a PATH_CHALLENGE frame back to
// the peer (RFC 9000 §19.18).
type PathResponseFrame struct {
	Data [8]byte
}

func (f *PathResponseFrame) Length(_ protocol.Version) protocol.ByteCount { return 9 }

func (f *PathResponseFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(PathResponseFrameType))
	return append(b, f.Data[:]...), nil
}

func ParsePathResponseFrame(r quicvarint.Reader, _ protocol.Version) (*PathResponseFrame, error) {
	f := &PathResponseFrame{}
	if _, err := readFull(r, f.Data[:]); err != nil {
		return nil, err
	}
	return f, nil
}
