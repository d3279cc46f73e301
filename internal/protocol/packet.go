package protocol

import "time"

// ByteCount counts bytes, used throughout for congestion and flow control
// accounting.
type ByteCount int64

// PacketNumber is a QUIC packet number: monotone and unique within a single
// packet-number space.
type PacketNumber int64

// InvalidPacketNumber is used as a sentinel where no packet number applies.
const InvalidPacketNumber PacketNumber = -1

// MaxPacketNumber returns the larger of two packet numbers.
func MaxPacketNumber(a, b PacketNumber) PacketNumber {
	if a > b {
		return a
	}
	return b
}

// PacketType identifies the long-header packet type.
type PacketType uint8

const (
	PacketTypeInitial PacketType = iota
	PacketType0RTT
	PacketTypeHandshake
	PacketTypeRetry
	PacketTypeVersionNegotiation
	PacketType1RTT
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeInitial:
		return "initial"
	case PacketType0RTT:
		return "0RTT"
	case PacketTypeHandshake:
		return "handshake"
	case PacketTypeRetry:
		return "retry"
	case PacketTypeVersionNegotiation:
		return "version_negotiation"
	case PacketType1RTT:
		return "1RTT"
	default:
		return "unknown"
	}
}

// EncryptionLevel identifies a packet-number space / key phase pairing.
// Every long-header packet type except Retry and Version Negotiation maps to
// exactly one encryption level; 1-RTT packets are always Application.
type EncryptionLevel uint8

const (
	EncryptionInitial EncryptionLevel = iota
	EncryptionHandshake
	Encryption0RTT
	Encryption1RTT
)

func (e EncryptionLevel) String() string {
	switch e {
	case EncryptionInitial:
		return "initial"
	case EncryptionHandshake:
		return "handshake"
	case Encryption0RTT:
		return "0RTT"
	case Encryption1RTT:
		return "1RTT"
	default:
		return "unknown"
	}
}

// PacketNumberSpace identifies one of the three independent packet-number
// spaces a connection maintains (§3).
type PacketNumberSpace uint8

const (
	PNSpaceInitial PacketNumberSpace = iota
	PNSpaceHandshake
	PNSpaceApplication
	PNSpaceCount
)

func (s PacketNumberSpace) String() string {
	switch s {
	case PNSpaceInitial:
		return "initial"
	case PNSpaceHandshake:
		return "handshake"
	case PNSpaceApplication:
		return "application"
	default:
		return "unknown"
	}
}

// SpaceForEncryptionLevel maps an encryption level to its packet-number
// space: Initial and Handshake each get their own space, while 0-RTT and
// 1-RTT share the Application space.
func SpaceForEncryptionLevel(e EncryptionLevel) PacketNumberSpace {
	switch e {
	case EncryptionInitial:
		return PNSpaceInitial
	case EncryptionHandshake:
		return PNSpaceHandshake
	default:
		return PNSpaceApplication
	}
}

// TimerGranularity is the minimum granularity of the loss-detection timer
// (kGranularity in RFC 9002).
const TimerGranularity = 1 * time.Millisecond

// InitialRTT is used before any RTT sample has been taken (kInitialRtt).
const InitialRTT = 333 * time.Millisecond

// MaxAckDelay is the default maximum amount of time a client will delay
// sending an acknowledgement, absent transport parameters to the contrary.
const MaxAckDelay = 25 * time.Millisecond

// DefaultAckDelayExponent is used until the peer's transport parameters are
// applied.
const DefaultAckDelayExponent = 3

// WindowUpdateThreshold is the fraction of a flow-control window that must
// remain before a receiver withholds a window update.
const WindowUpdateThreshold = 0.25

// DefaultMaxReceiveWindow bounds how far a stream or connection's receive
// window may auto-tune upward.
const DefaultMaxReceiveWindow ByteCount = 6 << 20
