package wire

import (
	"bytes"
	"errors"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

var errUnknownFrameType = errors.New("unknown frame type")

// FrameParser parses one QUIC frame at a time out of a packet payload,
// tracking the ack_delay_exponent needed to decode ACK frames' delay field.
type FrameParser struct {
	AckDelayExponent uint8
}

// NewFrameParser returns a FrameParser using the default ack delay exponent
// until SetAckDelayExponent is called with the peer's transport parameter.
func NewFrameParser() *FrameParser {
	return &FrameParser{AckDelayExponent: protocol.DefaultAckDelayExponent}
}

// SetAckDelayExponent applies the peer's negotiated ack_delay_exponent.
func (p *FrameParser) SetAckDelayExponent(exp uint8) { p.AckDelayExponent = exp }

// ParseNext parses a single frame from the front of data, returning the
// frame and the number of bytes consumed. PADDING frames are returned as
// *PaddingFrame rather than silently skipped, so that a packet consisting
// only of padding is visible to the caller.
func (p *FrameParser) ParseNext(data []byte, encLevel protocol.EncryptionLevel, v protocol.Version) (Frame, int, error) {
	if len(data) == 0 {
		return nil, 0, errors.New("FrameParser: no data")
	}
	typ, typeLen, err := quicvarint.Parse(data)
	if err != nil {
		return nil, 0, err
	}
	if typ == uint64(PaddingFrameType) {
		n := typeLen
		for n < len(data) && data[n] == 0 {
			n++
		}
		return &PaddingFrame{Length_: n}, n, nil
	}
	if !frameAllowedAtEncLevel(FrameType(typ), encLevel) {
		return nil, 0, errors.New("FrameParser: frame not allowed at this encryption level")
	}
	r := quicvarint.NewReader(bytes.NewReader(data[typeLen:]))
	frame, err := p.parseBody(FrameType(typ), byte(typ), r, v)
	if err != nil {
		return nil, 0, err
	}
	// quicvarint.NewReader wraps a *bytes.Reader; recover how much it consumed.
	br := r.(interface{ Len() int })
	consumed := typeLen + (len(data) - typeLen - br.Len())
	return frame, consumed, nil
}

func (p *FrameParser) parseBody(typ FrameType, typeByte byte, r quicvarint.Reader, v protocol.Version) (Frame, error) {
	if IsStreamFrameType(uint64(typ)) {
		return ParseStreamFrame(r, typeByte, v)
	}
	switch typ {
	case PingFrameType:
		return &PingFrame{}, nil
	case AckFrameType, AckECNFrameType:
		return ParseAckFrame(r, typeByte, p.AckDelayExponent)
	case ResetStreamFrameType:
		return ParseResetStreamFrame(r, v)
	case StopSendingFrameType:
		return ParseStopSendingFrame(r, v)
	case CryptoFrameType:
		return ParseCryptoFrame(r, v)
	case NewTokenFrameType:
		return ParseNewTokenFrame(r, v)
	case MaxDataFrameType:
		return ParseMaxDataFrame(r, v)
	case MaxStreamDataFrameType:
		return ParseMaxStreamDataFrame(r, v)
	case BidiMaxStreamsFrameType, UniMaxStreamsFrameType:
		return ParseMaxStreamsFrame(r, typeByte, v)
	case DataBlockedFrameType:
		return ParseDataBlockedFrame(r, v)
	case StreamDataBlockedFrameType:
		return ParseStreamDataBlockedFrame(r, v)
	case BidiStreamsBlockedFrameType, UniStreamsBlockedFrameType:
		return ParseStreamsBlockedFrame(r, typeByte, v)
	case NewConnectionIDFrameType:
		return ParseNewConnectionIDFrame(r, v)
	case RetireConnectionIDFrameType:
		return ParseRetireConnectionIDFrame(r, v)
	case PathChallengeFrameType:
		return ParsePathChallengeFrame(r, v)
	case PathResponseFrameType:
		return ParsePathResponseFrame(r, v)
	case ConnectionCloseFrameType, ApplicationCloseFrameType:
		return ParseConnectionCloseFrame(r, typeByte, v)
	case HandshakeDoneFrameType:
		return &HandshakeDoneFrame{}, nil
	default:
		return nil, errUnknownFrameType
	}
}

// frameAllowedAtEncLevel mirrors RFC 9000 §12.4's table of which frames may
// appear at each encryption level.
func frameAllowedAtEncLevel(t FrameType, encLevel protocol.EncryptionLevel) bool {
	switch encLevel {
	case protocol.EncryptionInitial, protocol.EncryptionHandshake:
		switch t {
		case CryptoFrameType, AckFrameType, AckECNFrameType, ConnectionCloseFrameType, PingFrameType, PaddingFrameType:
			return true
		default:
			return false
		}
	case protocol.Encryption0RTT:
		switch t {
		case CryptoFrameType, AckFrameType, AckECNFrameType, ApplicationCloseFrameType, NewTokenFrameType,
			PathResponseFrameType, RetireConnectionIDFrameType:
			return false
		default:
			return true
		}
	default:
		return true
	}
}
