package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// A PathChallengeFrame asks the peer to prove reachability of a path by
// echoing 8 bytes of data back in a PATH_RESPONSE frame (RFC 9000 §19.17).
type PathChallengeFrame struct {
	Data [8]byte
}

func (f *PathChallengeFrame) Length(_ protocol.Version) protocol.ByteCount { return 9 }

func (f *PathChallengeFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(PathChallengeFrameType))
	return append(b, f.Data[:]...), nil
}

func ParsePathChallengeFrame(r quicvarint.Reader, _ protocol.Version) (*PathChallengeFrame, error) {
	f := &PathChallengeFrame{}
	if _, err := readFull(r, f.Data[:]); err != nil {
		return nil, err
	}
	return f, nil
}
