package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

var errInvalidReservedBits = errors.New("wire: invalid reserved bits")

// ShortHeader is the 1-RTT packet header (RFC 9000 §17.3). Unlike the long
// header it carries no version or source connection ID.
type ShortHeader struct {
	DestConnectionID protocol.ConnectionID
	PacketNumber     protocol.PacketNumber
	PacketNumberLen  protocol.PacketNumberLen
	KeyPhase         protocol.KeyPhaseBit
}

// ParseShortHeader parses a 1-RTT packet's header. connIDLen is this
// endpoint's own connection-ID length, since the short header omits a
// length field for the (destination) connection ID.
func ParseShortHeader(data []byte, connIDLen int) (*ShortHeader, error) {
	if len(data) == 0 {
		return nil, io.EOF
	}
	if data[0]&0x80 > 0 {
		return nil, errors.New("wire: not a short header packet")
	}
	if data[0]&0x40 == 0 {
		return nil, errors.New("wire: not a QUIC packet")
	}
	pnLen := protocol.PacketNumberLen(data[0]&0x03) + 1
	if len(data) < 1+connIDLen+int(pnLen) {
		return nil, io.EOF
	}
	destConnID := protocol.ParseConnectionID(data[1 : 1+connIDLen])
	pos := 1 + connIDLen
	var pn protocol.PacketNumber
	switch pnLen {
	case protocol.PacketNumberLen1:
		pn = protocol.PacketNumber(data[pos])
	case protocol.PacketNumberLen2:
		pn = protocol.PacketNumber(uint16(data[pos])<<8 | uint16(data[pos+1]))
	case protocol.PacketNumberLen3:
		pn = protocol.PacketNumber(uint32(data[pos])<<16 | uint32(data[pos+1])<<8 | uint32(data[pos+2]))
	case protocol.PacketNumberLen4:
		pn = protocol.PacketNumber(uint32(data[pos])<<24 | uint32(data[pos+1])<<16 | uint32(data[pos+2])<<8 | uint32(data[pos+3]))
	default:
		return nil, fmt.Errorf("wire: invalid packet number length: %d", pnLen)
	}
	kp := protocol.KeyPhaseZero
	if data[0]&0x04 > 0 {
		kp = protocol.KeyPhaseOne
	}
	var err error
	if data[0]&0x18 != 0 {
		err = errInvalidReservedBits
	}
	return &ShortHeader{DestConnectionID: destConnID, PacketNumber: pn, PacketNumberLen: pnLen, KeyPhase: kp}, err
}

// Len returns the header's serialized length, excluding header protection.
func (h *ShortHeader) Len() protocol.ByteCount {
	return 1 + protocol.ByteCount(h.DestConnectionID.Len()) + protocol.ByteCount(h.PacketNumberLen)
}

// Append serializes the short header, before header-protection masking is
// applied to the first byte and packet number.
func (h *ShortHeader) Append(b []byte) []byte {
	typeByte := byte(0x40)
	if h.KeyPhase == protocol.KeyPhaseOne {
		typeByte |= 0x04
	}
	typeByte |= byte(h.PacketNumberLen - 1)
	b = append(b, typeByte)
	b = append(b, h.DestConnectionID.Bytes()...)
	switch h.PacketNumberLen {
	case protocol.PacketNumberLen1:
		b = append(b, byte(h.PacketNumber))
	case protocol.PacketNumberLen2:
		b = utils.BigEndian.WriteUint16(b, uint16(h.PacketNumber))
	case protocol.PacketNumberLen3:
		b = utils.BigEndian.WriteUint24(b, uint32(h.PacketNumber))
	case protocol.PacketNumberLen4:
		b = utils.BigEndian.WriteUint32(b, uint32(h.PacketNumber))
	}
	return b
}

func (h *ShortHeader) Log(logger utils.Logger) {
	logger.Debugf("\tShort Header{DestConnectionID: %s, PacketNumber: %d, KeyPhase: %s}", h.DestConnectionID, h.PacketNumber, h.KeyPhase)
}
