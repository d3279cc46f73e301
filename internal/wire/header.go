package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
	"github.com/johanvos/kwik/quicvarint"
)

// ErrUnsupportedVersion is returned when parsing a long header whose
// version this engine does not implement.
var ErrUnsupportedVersion = errors.New("unsupported version")

// IsLongHeaderPacket reports whether firstByte belongs to a long header
// packet (Initial, 0-RTT, Handshake, Retry, or Version Negotiation).
func IsLongHeaderPacket(firstByte byte) bool { return firstByte&0x80 > 0 }

// IsVersionNegotiationPacket reports whether b starts a Version
// Negotiation packet: a long header with a four-byte all-zero version
// field (RFC 9000 §17.2.1).
func IsVersionNegotiationPacket(b []byte) bool {
	return len(b) >= 5 && b[0]&0x80 > 0 && b[1] == 0 && b[2] == 0 && b[3] == 0 && b[4] == 0
}

// Header is the version-independent, decrypted portion of a long header
// packet (everything up to and including the Length field; the packet
// number itself lives under header protection and is read separately by the
// caller once the header-protection mask has been removed).
type Header struct {
	typeByte byte
	Type     protocol.PacketType

	Version          protocol.Version
	DestConnectionID protocol.ConnectionID
	SrcConnectionID  protocol.ConnectionID

	Token  []byte
	Length protocol.ByteCount

	parsedLen protocol.ByteCount
}

// ParsedLen returns how many bytes ParseLongHeader consumed.
func (h *Header) ParsedLen() protocol.ByteCount { return h.parsedLen }

// ParseLongHeader parses a long header packet from the front of data,
// splitting it into this packet's bytes and whatever (coalesced) data
// follows. If the version is one this engine doesn't implement, it
// returns ErrUnsupportedVersion along with the partially parsed header
// (enough to recognize a Retry/VN exchange is not in play).
func ParseLongHeader(data []byte) (*Header, []byte, []byte, error) {
	r := bytes.NewReader(data)
	h, err := parseLongHeader(r)
	if err != nil {
		if err == ErrUnsupportedVersion {
			return h, nil, nil, ErrUnsupportedVersion
		}
		return nil, nil, nil, err
	}
	packetLen := int(h.parsedLen + h.Length)
	if len(data) < packetLen {
		return nil, nil, nil, fmt.Errorf("wire: packet length (%d) smaller than expected (%d)", len(data), packetLen)
	}
	return h, data[:packetLen], data[packetLen:], nil
}

func parseLongHeader(r *bytes.Reader) (*Header, error) {
	start := r.Len()
	typeByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	h := &Header{typeByte: typeByte}
	if err := h.parse(r); err != nil {
		return h, err
	}
	h.parsedLen = protocol.ByteCount(start - r.Len())
	return h, nil
}

func (h *Header) parse(r *bytes.Reader) error {
	v, err := utils.BigEndian.ReadUint32(r)
	if err != nil {
		return err
	}
	h.Version = protocol.Version(v)
	if h.Version != 0 && h.typeByte&0x40 == 0 {
		return errors.New("wire: not a QUIC packet")
	}
	destLen, err := r.ReadByte()
	if err != nil {
		return err
	}
	if h.DestConnectionID, err = protocol.ReadConnectionID(r, int(destLen)); err != nil {
		return err
	}
	srcLen, err := r.ReadByte()
	if err != nil {
		return err
	}
	if h.SrcConnectionID, err = protocol.ReadConnectionID(r, int(srcLen)); err != nil {
		return err
	}
	if h.Version == 0 {
		return nil // Version Negotiation packet; caller re-parses the supported-version list
	}
	if !protocol.IsSupported(h.Version) {
		return ErrUnsupportedVersion
	}
	switch (h.typeByte & 0x30) >> 4 {
	case 0x0:
		h.Type = protocol.PacketTypeInitial
	case 0x1:
		h.Type = protocol.PacketType0RTT
	case 0x2:
		h.Type = protocol.PacketTypeHandshake
	case 0x3:
		h.Type = protocol.PacketTypeRetry
	}
	if h.Type == protocol.PacketTypeRetry {
		tokenLen := r.Len() - 16
		if tokenLen <= 0 {
			return io.EOF
		}
		h.Token = make([]byte, tokenLen)
		if _, err := io.ReadFull(r, h.Token); err != nil {
			return err
		}
		_, err := r.Seek(16, io.SeekCurrent)
		return err
	}
	if h.Type == protocol.PacketTypeInitial {
		tokenLen, err := quicvarint.Read(r)
		if err != nil {
			return err
		}
		if tokenLen > uint64(r.Len()) {
			return io.EOF
		}
		h.Token = make([]byte, tokenLen)
		if _, err := io.ReadFull(r, h.Token); err != nil {
			return err
		}
	}
	length, err := quicvarint.Read(r)
	if err != nil {
		return err
	}
	h.Length = protocol.ByteCount(length)
	return nil
}

// EncryptionLevel returns the encryption level implied by the packet type.
func (h *Header) EncryptionLevel() protocol.EncryptionLevel {
	switch h.Type {
	case protocol.PacketTypeInitial:
		return protocol.EncryptionInitial
	case protocol.PacketTypeHandshake:
		return protocol.EncryptionHandshake
	default:
		return protocol.Encryption0RTT
	}
}

// ExtendedHeader adds the packet number, visible only once header
// protection has been removed.
type ExtendedHeader struct {
	Header
	PacketNumber    protocol.PacketNumber
	PacketNumberLen protocol.PacketNumberLen
}

// AppendLongHeader serializes the version-independent long header fields,
// not including the packet number (the caller appends that separately so
// it can apply header protection afterward).
func (h *Header) AppendLongHeader(b []byte, typeBits byte) []byte {
	b = append(b, 0x80|0x40|typeBits)
	b = utils.BigEndian.WriteUint32(b, uint32(h.Version))
	b = append(b, byte(h.DestConnectionID.Len()))
	b = append(b, h.DestConnectionID.Bytes()...)
	b = append(b, byte(h.SrcConnectionID.Len()))
	b = append(b, h.SrcConnectionID.Bytes()...)
	if h.Type == protocol.PacketTypeInitial {
		b = quicvarint.Append(b, uint64(len(h.Token)))
		b = append(b, h.Token...)
	}
	return b
}
