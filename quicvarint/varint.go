package quicvarint

import (
	"fmt"
	"io"

	"github.com/johanvos/kwik/internal/protocol"
)

// Max is the largest value expressible as a QUIC variable-length integer.
const Max = uint64(1)<<62 - 1

const (
	len1 = 1
	len2 = 2
	len4 = 4
	len8 = 8
)

// Read reads a variable-length integer from r.
func Read(r io.ByteReader) (uint64, error) {
	firstByte, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	length := 1 << (firstByte >> 6)
	b1 := firstByte & 0x3f
	if length == len1 {
		return uint64(b1), nil
	}
	val := uint64(b1)
	for i := 1; i < length; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		val = val<<8 + uint64(b)
	}
	return val, nil
}

// Parse reads a variable-length integer from the beginning of b. It returns
// the value and the number of bytes consumed.
func Parse(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, io.EOF
	}
	length := 1 << (b[0] >> 6)
	if len(b) < length {
		return 0, 0, io.EOF
	}
	val := uint64(b[0] & 0x3f)
	for i := 1; i < length; i++ {
		val = val<<8 + uint64(b[i])
	}
	return val, length, nil
}

// Len returns the number of bytes Append will write for v.
func Len(v uint64) protocol.ByteCount {
	switch {
	case v <= 63:
		return len1
	case v <= 16383:
		return len2
	case v <= 1073741823:
		return len4
	case v <= Max:
		return len8
	default:
		panic(fmt.Sprintf("value %#x too large for varint encoding", v))
	}
}

// Append appends the variable-length encoding of v to b.
func Append(b []byte, v uint64) []byte {
	switch Len(v) {
	case len1:
		return append(b, byte(v))
	case len2:
		return append(b, byte(v>>8)|0x40, byte(v))
	case len4:
		return append(b, byte(v>>24)|0x80, byte(v>>16), byte(v>>8), byte(v))
	case len8:
		return append(b,
			byte(v>>56)|0xc0, byte(v>>48), byte(v>>40), byte(v>>32),
			byte(v>>24), byte(v>>16), byte(v>>8), byte(v),
		)
	default:
		panic("unreachable")
	}
}

// AppendWithLen appends v using exactly length bytes (1, 2, 4, or 8),
// overriding the minimal encoding Append would choose. Used to pad the
// Initial packet's token length or similarly fixed-width fields.
func AppendWithLen(b []byte, v uint64, length int) []byte {
	switch length {
	case len1:
		return append(b, byte(v))
	case len2:
		return append(b, byte(v>>8)|0x40, byte(v))
	case len4:
		return append(b, byte(v>>24)|0x80, byte(v>>16), byte(v>>8), byte(v))
	case len8:
		return append(b,
			byte(v>>56)|0xc0, byte(v>>48), byte(v>>40), byte(v>>32),
			byte(v>>24), byte(v>>16), byte(v>>8), byte(v),
		)
	default:
		panic(fmt.Sprintf("invalid varint length: %d", length))
	}
}
