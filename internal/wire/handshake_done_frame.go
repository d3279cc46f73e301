package wire

import "github.com/johanvos/kwik/internal/protocol"

// A HandshakeDoneFrame confirms completion of the handshake; it is sent
// only by a server, but a client must be able to parse it (RFC 9000
// §19.20).
type HandshakeDoneFrame struct{}

func (f *HandshakeDoneFrame) Length(_ protocol.Version) protocol.ByteCount { return 1 }

func (f *HandshakeDoneFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	return append(b, byte(HandshakeDoneFrameType)), nil
}
