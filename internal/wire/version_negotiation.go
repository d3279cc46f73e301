package wire

import (
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

// ParseVersionNegotiationPacket parses a server's Version Negotiation
// packet: the invariant long header (version field all-zero) followed by
// the list of versions it supports.
func ParseVersionNegotiationPacket(data []byte) (dest, src protocol.ConnectionID, versions []protocol.Version, err error) {
	if len(data) < 7 {
		return nil, nil, nil, errInvalidReservedBits
	}
	pos := 5 // type byte + 4-byte zero version
	destLen := int(data[pos])
	pos++
	dest = protocol.ParseConnectionID(data[pos : pos+destLen])
	pos += destLen
	srcLen := int(data[pos])
	pos++
	src = protocol.ParseConnectionID(data[pos : pos+srcLen])
	pos += srcLen
	versions, err = protocol.ParseVersionNegotiationPayload(data[pos:])
	return dest, src, versions, err
}

// ComposeVersionNegotiation is provided for tests that need to synthesize a
// server response; production code never sends one (this is a client-only
// engine).
func ComposeVersionNegotiation(dest, src protocol.ConnectionID, versions []protocol.Version) []byte {
	b := make([]byte, 0, 16+4*len(versions))
	b = append(b, 0x80)
	b = utils.BigEndian.WriteUint32(b, 0)
	b = append(b, byte(dest.Len()))
	b = append(b, dest.Bytes()...)
	b = append(b, byte(src.Len()))
	b = append(b, src.Bytes()...)
	for _, v := range versions {
		b = utils.BigEndian.WriteUint32(b, uint32(v))
	}
	return b
}
