package handshake

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/johanvos/kwik/internal/protocol"
)

// retryAEADParams is the fixed AES-128-GCM key/nonce pair a QUIC version
// uses to compute its Retry integrity tag (RFC 9001 §5.8).
type retryAEADParams struct {
	key   [16]byte
	nonce [12]byte
}

// retryParamsByVersion holds the versions this engine understands. v1's
// constants are RFC 9001 Appendix A.4's; v2's are RFC 9369 §3.3.3's.
var retryParamsByVersion = map[protocol.Version]retryAEADParams{
	protocol.Version1: {
		key:   [16]byte{0xbe, 0x0c, 0x69, 0x0b, 0x9f, 0x66, 0x57, 0x5a, 0x1d, 0x76, 0x6b, 0x54, 0xe3, 0x68, 0xc8, 0x4e},
		nonce: [12]byte{0x46, 0x15, 0x99, 0xd3, 0x5d, 0x63, 0x2b, 0xf2, 0x23, 0x98, 0x25, 0xbb},
	},
	protocol.Version2: {
		key:   [16]byte{0x8f, 0xb4, 0xb0, 0x1b, 0x56, 0xac, 0x48, 0xe2, 0x60, 0xfb, 0xcb, 0xce, 0xad, 0x7c, 0xcc, 0x92},
		nonce: [12]byte{0xd8, 0x69, 0x69, 0xbc, 0x2d, 0x7c, 0x6d, 0x99, 0x90, 0xef, 0xb0, 0x4a},
	},
}

// RetryIntegrityTag computes the 16-byte tag that authenticates a Retry
// packet: an AES-128-GCM seal with empty plaintext, over the additional
// data (length-prefixed original destination CID || retry pseudo-packet),
// using the version-specific fixed key and nonce.
func RetryIntegrityTag(version protocol.Version, retryPseudoPacket []byte, origDestConnID protocol.ConnectionID) (*[16]byte, error) {
	params, ok := retryParamsByVersion[version]
	if !ok {
		return nil, fmt.Errorf("handshake: no Retry integrity parameters for version %s", version)
	}
	block, err := aes.NewCipher(params.key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	var additionalData bytes.Buffer
	additionalData.WriteByte(byte(origDestConnID.Len()))
	additionalData.Write(origDestConnID.Bytes())
	additionalData.Write(retryPseudoPacket)

	var tag [16]byte
	sealed := aead.Seal(tag[:0], params.nonce[:], nil, additionalData.Bytes())
	if len(sealed) != 16 {
		return nil, fmt.Errorf("handshake: unexpected Retry integrity tag length %d", len(sealed))
	}
	return &tag, nil
}

// VerifyRetryIntegrityTag reports whether tag matches the tag this client
// computes for the same Retry packet and original destination CID.
func VerifyRetryIntegrityTag(version protocol.Version, retryPseudoPacket []byte, origDestConnID protocol.ConnectionID, tag [16]byte) bool {
	expected, err := RetryIntegrityTag(version, retryPseudoPacket, origDestConnID)
	if err != nil {
		return false
	}
	return *expected == tag
}
