package wire

import "github.com/johanvos/kwik/internal/protocol"

// A PaddingFrame is one or more zero bytes; it carries no semantic value
// beyond making a packet reach a minimum size.
type PaddingFrame struct {
	Length_ int
}

func (f *PaddingFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	for i := 0; i < f.Length_; i++ {
		b = append(b, 0)
	}
	return b, nil
}

func (f *PaddingFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(f.Length_)
}
