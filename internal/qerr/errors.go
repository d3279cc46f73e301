package qerr

import "fmt"

// TransportError is a QUIC-layer error, either one the engine detected
// locally or one it received in a CONNECTION_CLOSE frame from the peer.
type TransportError struct {
	ErrorCode    TransportErrorCode
	FrameType    uint64 // only meaningful when Remote is false and the error was detected parsing a specific frame
	Remote       bool
	ErrorMessage string
}

func (e *TransportError) Error() string {
	s := fmt.Sprintf("%s", e.ErrorCode)
	if e.ErrorMessage != "" {
		s += ": " + e.ErrorMessage
	}
	if e.Remote {
		s = "remote: " + s
	}
	return s
}

// Is reports whether target is a *TransportError with the same error code,
// so errors.Is(err, &qerr.TransportError{ErrorCode: qerr.ProtocolViolation})
// matches regardless of message, frame type or Remote.
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*TransportError)
	if !ok {
		return false
	}
	return e.ErrorCode == t.ErrorCode
}

// NewLocalError builds a TransportError for a failure the engine itself
// detected, with no peer involved yet.
func NewLocalError(code TransportErrorCode, msg string) *TransportError {
	return &TransportError{ErrorCode: code, ErrorMessage: msg}
}

// NewLocalFrameError is like NewLocalError but records which frame type
// triggered it, for inclusion in the CONNECTION_CLOSE frame the engine sends.
func NewLocalFrameError(code TransportErrorCode, frameType uint64, msg string) *TransportError {
	return &TransportError{ErrorCode: code, FrameType: frameType, ErrorMessage: msg}
}

// NewRemoteError builds a TransportError representing a CONNECTION_CLOSE
// frame (of type 0x1c) received from the peer.
func NewRemoteError(code TransportErrorCode, msg string) *TransportError {
	return &TransportError{ErrorCode: code, Remote: true, ErrorMessage: msg}
}

// ApplicationError is an application-layer error, carried in a
// CONNECTION_CLOSE frame of type 0x1d. The engine itself never raises one;
// it only surfaces application errors it receives from, or is told to send
// to, the peer.
type ApplicationError struct {
	ErrorCode    uint64
	Remote       bool
	ErrorMessage string
}

func (e *ApplicationError) Error() string {
	s := fmt.Sprintf("application error %#x", e.ErrorCode)
	if e.ErrorMessage != "" {
		s += ": " + e.ErrorMessage
	}
	if e.Remote {
		s = "remote: " + s
	}
	return s
}

func NewLocalApplicationError(code uint64, msg string) *ApplicationError {
	return &ApplicationError{ErrorCode: code, ErrorMessage: msg}
}

func NewRemoteApplicationError(code uint64, msg string) *ApplicationError {
	return &ApplicationError{ErrorCode: code, Remote: true, ErrorMessage: msg}
}

// VersionNegotiationError is returned when the client's offered version is
// not present in a Version Negotiation packet's supported-version list, or
// when no mutually supported version exists.
type VersionNegotiationError struct {
	Ours   []uint32
	Theirs []uint32
}

func (e *VersionNegotiationError) Error() string {
	return fmt.Sprintf("no compatible QUIC version: ours=%v theirs=%v", e.Ours, e.Theirs)
}

// StatelessResetError is returned when the engine recognizes an incoming
// datagram as a stateless reset token matching an active connection ID.
type StatelessResetError struct {
	Token [16]byte
}

func (e *StatelessResetError) Error() string {
	return "received a stateless reset"
}

// HandshakeTimeoutError is returned when the handshake does not complete
// within the configured deadline.
type HandshakeTimeoutError struct{}

func (e *HandshakeTimeoutError) Error() string { return "handshake timed out" }

// IdleTimeoutError is returned when no packet has been received from the
// peer within the negotiated idle timeout.
type IdleTimeoutError struct {
	Remote bool
}

func (e *IdleTimeoutError) Error() string {
	if e.Remote {
		return "timeout: no recent network activity (remote)"
	}
	return "timeout: no recent network activity"
}
