package protocol

// StreamID identifies a QUIC stream. The low two bits encode who opened it
// and whether it is bidirectional or unidirectional (§4.2).
type StreamID uint64

// StreamType distinguishes bidirectional from unidirectional streams.
type StreamType uint8

const (
	StreamTypeBidi StreamType = iota
	StreamTypeUni
)

// firstClientBidiStreamID and firstClientUniStreamID are the lowest stream
// IDs a client may open of each type; this engine is client-only (Non-goals
// exclude server acceptance), so no server-initiated numbering is modeled.
const (
	firstClientBidiStreamID StreamID = 0
	firstClientUniStreamID  StreamID = 2
)

// ClientStreamID returns the n-th (0-indexed) client-initiated stream ID of
// the given type. Successive IDs of the same kind differ by 4.
func ClientStreamID(typ StreamType, n uint64) StreamID {
	switch typ {
	case StreamTypeUni:
		return firstClientUniStreamID + StreamID(4*n)
	default:
		return firstClientBidiStreamID + StreamID(4*n)
	}
}

// IsUnidirectional reports whether s is a unidirectional stream ID.
func (s StreamID) IsUnidirectional() bool { return s%4 >= 2 }

// IsClientInitiated reports whether s was opened by the client.
func (s StreamID) IsClientInitiated() bool { return s%2 == 0 }
