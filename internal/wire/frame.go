// Package wire implements the QUIC packet and frame codec: parsing and
// serializing long/short header packets and the frame types RFC 9000
// defines, plus version negotiation and transport parameters.
package wire

import "github.com/johanvos/kwik/internal/protocol"

// A Frame is any QUIC frame the engine can send or receive.
type Frame interface {
	// Append appends the wire encoding of the frame to b and returns the
	// extended slice.
	Append(b []byte, version protocol.Version) ([]byte, error)
	// Length returns the number of bytes Append will add.
	Length(version protocol.Version) protocol.ByteCount
}

// IsAckEliciting reports whether sending f requires the peer to
// acknowledge the packet it travels in, per RFC 9000 §13.2. PADDING, ACK
// and CONNECTION_CLOSE frames are not ack-eliciting by themselves.
func IsAckEliciting(f Frame) bool {
	switch f.(type) {
	case *AckFrame, *ConnectionCloseFrame, *PaddingFrame:
		return false
	default:
		return true
	}
}
