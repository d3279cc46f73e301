// Package quicvarint implements the QUIC variable-length integer encoding
// described in RFC 9000 section 16.
package quicvarint

import (
	"bytes"
	"io"
)

// Reader implements both the io.ByteReader and io.Reader interfaces.
type Reader interface {
	io.ByteReader
	io.Reader
}

var _ Reader = &bytes.Reader{}

type reader struct {
	io.ByteReader
	io.Reader
}

var _ Reader = &reader{}

type byteReader struct {
	io.Reader
}

var _ Reader = &byteReader{}

// NewReader returns a Reader for r. If r already implements both
// io.ByteReader and io.Reader, NewReader returns r unchanged.
func NewReader(r io.Reader) Reader {
	if rr, ok := r.(Reader); ok {
		return rr
	}
	if br, ok := r.(io.ByteReader); ok {
		return &reader{br, r}
	}
	return &byteReader{r}
}

func (r *byteReader) ReadByte() (byte, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r.Reader, b); err != nil {
		return 0, err
	}
	return b[0], nil
}
