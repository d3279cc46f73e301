package kwik

import "github.com/johanvos/kwik/internal/protocol"

// TLSEngine is the consumed TLS 1.3 handshake engine: it turns CRYPTO-frame
// payloads into handshake progress and, per encryption level, traffic
// secrets, and signals when the handshake has completed.
type TLSEngine interface {
	// StartHandshake begins the handshake for alpn, returning the first
	// ClientHello bytes to carry in a CRYPTO frame at EncryptionInitial.
	StartHandshake(alpn string) ([]byte, error)
	// HandleCryptoData feeds received CRYPTO-frame payload at encLevel
	// into the engine, returning any handshake bytes the engine produces
	// in response (to be sent at the same or a higher encryption level)
	// and whether the handshake has now completed.
	HandleCryptoData(encLevel protocol.EncryptionLevel, data []byte) (out []byte, handshakeComplete bool, err error)
	// HandshakeComplete reports whether the handshake has completed.
	HandshakeComplete() bool
}
