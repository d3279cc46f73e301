package wire

import (
	"bytes"
	"fmt"
	"time"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// Transport parameter IDs this client understands, per RFC 9000 §18.2.
const (
	paramOriginalDestinationConnectionID uint64 = 0x00
	paramMaxIdleTimeout                  uint64 = 0x01
	paramStatelessResetToken             uint64 = 0x02
	paramMaxUDPPayloadSize               uint64 = 0x03
	paramInitialMaxData                  uint64 = 0x04
	paramInitialMaxStreamDataBidiLocal   uint64 = 0x05
	paramInitialMaxStreamDataBidiRemote  uint64 = 0x06
	paramInitialMaxStreamDataUni         uint64 = 0x07
	paramInitialMaxStreamsBidi           uint64 = 0x08
	paramInitialMaxStreamsUni            uint64 = 0x09
	paramAckDelayExponent                uint64 = 0x0a
	paramMaxAckDelay                     uint64 = 0x0b
	paramDisableActiveMigration          uint64 = 0x0c
	paramActiveConnectionIDLimit         uint64 = 0x0e
	paramInitialSourceConnectionID       uint64 = 0x0f
	paramRetrySourceConnectionID         uint64 = 0x10
)

// TransportParameters holds the negotiated connection-level limits and
// connection-ID identities exchanged during the handshake (RFC 9000 §18).
type TransportParameters struct {
	InitialMaxData                  protocol.ByteCount
	InitialMaxStreamDataBidiLocal   protocol.ByteCount
	InitialMaxStreamDataBidiRemote  protocol.ByteCount
	InitialMaxStreamDataUni         protocol.ByteCount
	InitialMaxStreamsBidi           uint64
	InitialMaxStreamsUni            uint64
	ActiveConnectionIDLimit         uint64
	AckDelayExponent                uint8
	MaxAckDelay                     time.Duration
	MaxIdleTimeout                  time.Duration
	MaxUDPPayloadSize                protocol.ByteCount
	DisableActiveMigration          bool

	OriginalDestinationConnectionID protocol.ConnectionID
	InitialSourceConnectionID       protocol.ConnectionID
	RetrySourceConnectionID         protocol.ConnectionID
	retrySourceConnectionIDSet      bool

	StatelessResetToken *[16]byte
}

// defaultTransportParameters are the values this client advertises for
// itself, absent an explicit Config override.
func defaultTransportParameters() *TransportParameters {
	return &TransportParameters{
		InitialMaxData:                 15 << 20,
		InitialMaxStreamDataBidiLocal:  6 << 20,
		InitialMaxStreamDataBidiRemote: 6 << 20,
		InitialMaxStreamDataUni:        6 << 20,
		InitialMaxStreamsBidi:          100,
		InitialMaxStreamsUni:           100,
		ActiveConnectionIDLimit:        4,
		AckDelayExponent:               protocol.DefaultAckDelayExponent,
		MaxAckDelay:                    protocol.MaxAckDelay,
		MaxIdleTimeout:                 30 * time.Second,
		MaxUDPPayloadSize:              1452,
	}
}

// Marshal appends this client's transport parameters in the TLS extension
// format: a flat sequence of (varint id, varint length, value) tuples.
func (p *TransportParameters) Marshal(initialSourceCID protocol.ConnectionID) []byte {
	var b []byte
	b = appendVarintParam(b, paramInitialMaxData, uint64(p.InitialMaxData))
	b = appendVarintParam(b, paramInitialMaxStreamDataBidiLocal, uint64(p.InitialMaxStreamDataBidiLocal))
	b = appendVarintParam(b, paramInitialMaxStreamDataBidiRemote, uint64(p.InitialMaxStreamDataBidiRemote))
	b = appendVarintParam(b, paramInitialMaxStreamDataUni, uint64(p.InitialMaxStreamDataUni))
	b = appendVarintParam(b, paramInitialMaxStreamsBidi, p.InitialMaxStreamsBidi)
	b = appendVarintParam(b, paramInitialMaxStreamsUni, p.InitialMaxStreamsUni)
	b = appendVarintParam(b, paramActiveConnectionIDLimit, p.ActiveConnectionIDLimit)
	b = appendVarintParam(b, paramAckDelayExponent, uint64(p.AckDelayExponent))
	b = appendVarintParam(b, paramMaxAckDelay, uint64(p.MaxAckDelay/time.Millisecond))
	b = appendVarintParam(b, paramMaxIdleTimeout, uint64(p.MaxIdleTimeout/time.Millisecond))
	b = appendVarintParam(b, paramMaxUDPPayloadSize, uint64(p.MaxUDPPayloadSize))
	if p.DisableActiveMigration {
		b = quicvarint.Append(b, paramDisableActiveMigration)
		b = quicvarint.Append(b, 0)
	}
	b = appendBytesParam(b, paramInitialSourceConnectionID, initialSourceCID.Bytes())
	return b
}

func appendVarintParam(b []byte, id, value uint64) []byte {
	b = quicvarint.Append(b, id)
	b = quicvarint.Append(b, uint64(quicvarint.Len(value)))
	return quicvarint.Append(b, value)
}

func appendBytesParam(b []byte, id uint64, value []byte) []byte {
	b = quicvarint.Append(b, id)
	b = quicvarint.Append(b, uint64(len(value)))
	return append(b, value...)
}

// ParseTransportParameters parses the peer's transport parameter
// extension. Unknown parameter IDs are skipped, per RFC 9000 §7.4.1.
func ParseTransportParameters(data []byte) (*TransportParameters, error) {
	p := &TransportParameters{
		AckDelayExponent: protocol.DefaultAckDelayExponent,
		MaxAckDelay:      protocol.MaxAckDelay,
	}
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		id, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		length, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		if uint64(r.Len()) < length {
			return nil, fmt.Errorf("wire: transport parameter %#x truncated", id)
		}
		val := make([]byte, length)
		if _, err := r.Read(val); err != nil {
			return nil, err
		}
		if err := p.parseOne(id, val); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *TransportParameters) parseOne(id uint64, val []byte) error {
	switch id {
	case paramInitialMaxData:
		p.InitialMaxData = protocol.ByteCount(readVarintParam(val))
	case paramInitialMaxStreamDataBidiLocal:
		p.InitialMaxStreamDataBidiLocal = protocol.ByteCount(readVarintParam(val))
	case paramInitialMaxStreamDataBidiRemote:
		p.InitialMaxStreamDataBidiRemote = protocol.ByteCount(readVarintParam(val))
	case paramInitialMaxStreamDataUni:
		p.InitialMaxStreamDataUni = protocol.ByteCount(readVarintParam(val))
	case paramInitialMaxStreamsBidi:
		p.InitialMaxStreamsBidi = readVarintParam(val)
	case paramInitialMaxStreamsUni:
		p.InitialMaxStreamsUni = readVarintParam(val)
	case paramActiveConnectionIDLimit:
		p.ActiveConnectionIDLimit = readVarintParam(val)
	case paramAckDelayExponent:
		p.AckDelayExponent = uint8(readVarintParam(val))
	case paramMaxAckDelay:
		p.MaxAckDelay = time.Duration(readVarintParam(val)) * time.Millisecond
	case paramMaxIdleTimeout:
		p.MaxIdleTimeout = time.Duration(readVarintParam(val)) * time.Millisecond
	case paramMaxUDPPayloadSize:
		p.MaxUDPPayloadSize = protocol.ByteCount(readVarintParam(val))
	case paramDisableActiveMigration:
		p.DisableActiveMigration = true
	case paramOriginalDestinationConnectionID:
		p.OriginalDestinationConnectionID = protocol.ConnectionID(append([]byte{}, val...))
	case paramInitialSourceConnectionID:
		p.InitialSourceConnectionID = protocol.ConnectionID(append([]byte{}, val...))
	case paramRetrySourceConnectionID:
		p.RetrySourceConnectionID = protocol.ConnectionID(append([]byte{}, val...))
		p.retrySourceConnectionIDSet = true
	case paramStatelessResetToken:
		if len(val) != 16 {
			return fmt.Errorf("wire: invalid stateless_reset_token length: %d", len(val))
		}
		var tok [16]byte
		copy(tok[:], val)
		p.StatelessResetToken = &tok
	default:
		// unknown parameter: ignore
	}
	return nil
}

func readVarintParam(val []byte) uint64 {
	v, _, err := quicvarint.Parse(val)
	if err != nil {
		return 0
	}
	return v
}

// ValidateForClient checks the RFC 9000 §7.3 consistency rules a client
// must enforce on the server's transport parameters: that the connection
// IDs it echoes back match what this client actually put on the wire.
// usedDestConnID is the destination CID the client used on the wire (the
// post-Retry value, if Retry occurred); origDestConnID is the CID used
// before any Retry; retrySrcConnID is the Retry packet's source CID, or
// nil if no Retry occurred.
func (p *TransportParameters) ValidateForClient(usedDestConnID, origDestConnID, retrySrcConnID protocol.ConnectionID) error {
	if !p.InitialSourceConnectionID.Equal(usedDestConnID) {
		return fmt.Errorf("initial_source_connection_id mismatch: got %s, want %s", p.InitialSourceConnectionID, usedDestConnID)
	}
	if !p.OriginalDestinationConnectionID.Equal(origDestConnID) {
		return fmt.Errorf("original_destination_connection_id mismatch: got %s, want %s", p.OriginalDestinationConnectionID, origDestConnID)
	}
	if retrySrcConnID != nil {
		if !p.retrySourceConnectionIDSet || !p.RetrySourceConnectionID.Equal(retrySrcConnID) {
			return fmt.Errorf("retry_source_connection_id mismatch: got %s, want %s", p.RetrySourceConnectionID, retrySrcConnID)
		}
	} else if p.retrySourceConnectionIDSet {
		return fmt.Errorf("retry_source_connection_id present without a Retry having occurred")
	}
	return nil
}
