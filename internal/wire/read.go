package wire

import (
	"io"

	"github.com/johanvos/kwik/quicvarint"
)

// readFull drains exactly len(b) bytes from r, the way every length-prefixed
// frame body (CRYPTO, STREAM, NEW_TOKEN, CONNECTION_CLOSE reason phrase) is
// read off the wire.
func readFull(r quicvarint.Reader, b []byte) (int, error) {
	return io.ReadFull(r, b)
}
