package handshake

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/hkdf"

	"github.com/johanvos/kwik/internal/protocol"
)

// ErrDecryptionFailed is returned by LongHeaderOpener.Open on AEAD failure,
// deliberately stripped of the underlying cipher error so callers never
// leak an oracle distinguishing authentication failure from other errors.
var ErrDecryptionFailed = errors.New("handshake: decryption failed")

// initialSaltByVersion is the salt HKDF-Extract uses to derive a
// connection's Initial secret from its destination connection ID (RFC 9001
// §5.2, RFC 9369 §3.3.1 for v2).
var initialSaltByVersion = map[protocol.Version][]byte{
	protocol.Version1: {0x38, 0x76, 0x2c, 0xf7, 0xf5, 0x59, 0x34, 0xb3, 0x4d, 0x17, 0x9a, 0xe6, 0xa4, 0xc8, 0x0c, 0xad, 0xcc, 0xbb, 0x7f, 0x0a},
	protocol.Version2: {0x0d, 0xed, 0xe3, 0xde, 0xf7, 0x00, 0xa6, 0xdb, 0x81, 0x93, 0x81, 0xbe, 0x6e, 0x26, 0x9d, 0xcb, 0xf9, 0xbd, 0x2e, 0xd9},
}

// LongHeaderSealer encrypts one long-header packet's payload and applies
// header protection to its first byte and packet-number bytes.
type LongHeaderSealer interface {
	Seal(dst, src []byte, pn protocol.PacketNumber, ad []byte) []byte
	EncryptHeader(sample []byte, firstByte *byte, pnBytes []byte)
	Overhead() int
}

// LongHeaderOpener reverses LongHeaderSealer.
type LongHeaderOpener interface {
	Open(dst, src []byte, pn protocol.PacketNumber, ad []byte) ([]byte, error)
	DecryptHeader(sample []byte, firstByte *byte, pnBytes []byte)
}

// NewInitialAEAD derives this client's Initial sealer (for packets it
// sends) and opener (for packets the server sends back), per RFC 9001
// §5.2: HKDF-Extract the connection ID under the version's fixed salt,
// then HKDF-Expand-Label into a "client in"/"server in" secret pair.
func NewInitialAEAD(connID protocol.ConnectionID, version protocol.Version) (LongHeaderSealer, LongHeaderOpener, error) {
	salt, ok := initialSaltByVersion[version]
	if !ok {
		return nil, nil, fmt.Errorf("handshake: no Initial salt for version %s", version)
	}
	clientSecret, serverSecret := computeInitialSecrets(connID, salt)

	clientKey, clientHPKey, clientIV := computeInitialKeyAndIV(clientSecret)
	serverKey, serverHPKey, serverIV := computeInitialKeyAndIV(serverSecret)

	sealAEAD, err := newAESGCM(clientKey)
	if err != nil {
		return nil, nil, err
	}
	sealHP, err := aes.NewCipher(clientHPKey)
	if err != nil {
		return nil, nil, err
	}
	openAEAD, err := newAESGCM(serverKey)
	if err != nil {
		return nil, nil, err
	}
	openHP, err := aes.NewCipher(serverHPKey)
	if err != nil {
		return nil, nil, err
	}
	return newLongHeaderSealer(sealAEAD, clientIV, sealHP), newLongHeaderOpener(openAEAD, serverIV, openHP), nil
}

func computeInitialSecrets(connID protocol.ConnectionID, salt []byte) (clientSecret, serverSecret []byte) {
	initialSecret := hkdfExtract(connID.Bytes(), salt)
	clientSecret = hkdfExpandLabel(initialSecret, nil, "client in", sha256.Size)
	serverSecret = hkdfExpandLabel(initialSecret, nil, "server in", sha256.Size)
	return
}

func computeInitialKeyAndIV(secret []byte) (key, hpKey, iv []byte) {
	key = hkdfExpandLabel(secret, nil, "quic key", 16)
	hpKey = hkdfExpandLabel(secret, nil, "quic hp", 16)
	iv = hkdfExpandLabel(secret, nil, "quic iv", 12)
	return
}

func hkdfExtract(secret, salt []byte) []byte {
	return hkdf.Extract(sha256.New, secret, salt)
}

// hkdfExpandLabel implements HKDF-Expand-Label from RFC 8446 §7.1, the
// construction every QUIC key derivation builds on.
func hkdfExpandLabel(secret, context []byte, label string, length int) []byte {
	b := make([]byte, 3, 3+6+len(label)+1+len(context))
	binary.BigEndian.PutUint16(b, uint16(length))
	b[2] = uint8(6 + len(label))
	b = append(b, []byte("tls13 ")...)
	b = append(b, []byte(label)...)
	b = b[:3+6+len(label)+1]
	b[3+6+len(label)] = uint8(len(context))
	b = append(b, context...)

	out := make([]byte, length)
	r := hkdf.Expand(sha256.New, secret, b)
	if _, err := r.Read(out); err != nil {
		panic(fmt.Errorf("handshake: HKDF-Expand-Label failed: %w", err))
	}
	return out
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

type sealer struct {
	aead        cipher.AEAD
	hpEncrypter cipher.Block
	iv          []byte
	nonceBuf    []byte
	hpMask      []byte
}

func newLongHeaderSealer(aead cipher.AEAD, iv []byte, hpEncrypter cipher.Block) LongHeaderSealer {
	return &sealer{
		aead:        aead,
		hpEncrypter: hpEncrypter,
		iv:          iv,
		nonceBuf:    make([]byte, aead.NonceSize()),
		hpMask:      make([]byte, hpEncrypter.BlockSize()),
	}
}

// Seal XORs the packet number into the IV-derived nonce per RFC 9001
// §5.3, then seals with the packet's header bytes as additional data.
func (s *sealer) Seal(dst, src []byte, pn protocol.PacketNumber, ad []byte) []byte {
	copy(s.nonceBuf, s.iv)
	binary.BigEndian.PutUint64(s.nonceBuf[len(s.nonceBuf)-8:], uint64(pn)^binary.BigEndian.Uint64(s.iv[len(s.iv)-8:]))
	return s.aead.Seal(dst, s.nonceBuf, src, ad)
}

func (s *sealer) EncryptHeader(sample []byte, firstByte *byte, pnBytes []byte) {
	if len(sample) != s.hpEncrypter.BlockSize() {
		panic("handshake: invalid header-protection sample size")
	}
	s.hpEncrypter.Encrypt(s.hpMask, sample)
	*firstByte ^= s.hpMask[0] & 0xf
	for i := range pnBytes {
		pnBytes[i] ^= s.hpMask[i+1]
	}
}

func (s *sealer) Overhead() int { return s.aead.Overhead() }

type longHeaderOpener struct {
	aead        cipher.AEAD
	pnDecrypter cipher.Block
	iv          []byte
	nonceBuf    []byte
	hpMask      []byte
}

func newLongHeaderOpener(aead cipher.AEAD, iv []byte, pnDecrypter cipher.Block) LongHeaderOpener {
	return &longHeaderOpener{
		aead:        aead,
		pnDecrypter: pnDecrypter,
		iv:          iv,
		nonceBuf:    make([]byte, aead.NonceSize()),
		hpMask:      make([]byte, pnDecrypter.BlockSize()),
	}
}

func (o *longHeaderOpener) Open(dst, src []byte, pn protocol.PacketNumber, ad []byte) ([]byte, error) {
	copy(o.nonceBuf, o.iv)
	binary.BigEndian.PutUint64(o.nonceBuf[len(o.nonceBuf)-8:], uint64(pn)^binary.BigEndian.Uint64(o.iv[len(o.iv)-8:]))
	dec, err := o.aead.Open(dst, o.nonceBuf, src, ad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return dec, nil
}

func (o *longHeaderOpener) DecryptHeader(sample []byte, firstByte *byte, pnBytes []byte) {
	if len(sample) != o.pnDecrypter.BlockSize() {
		panic("handshake: invalid header-protection sample size")
	}
	o.pnDecrypter.Encrypt(o.hpMask, sample)
	*firstByte ^= o.hpMask[0] & 0xf
	for i := range pnBytes {
		pnBytes[i] ^= o.hpMask[i+1]
	}
}
