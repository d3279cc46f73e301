package flowcontrol

import (
	"errors"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

// ErrReceivedSmallerByteOffset is returned when a STREAM frame reports a
// final size smaller than an offset already seen for that stream; callers
// must treat reordered frames (where this is expected and harmless)
// differently from an actual reset carrying a shrunk final size.
var ErrReceivedSmallerByteOffset = errors.New("flowcontrol: received a smaller byte offset than previously seen")

// StreamFlowController is the per-stream flow-control window of §4.6: a
// send ceiling raised by MAX_STREAM_DATA, and a receive window that emits
// its own MAX_STREAM_DATA as the stream is read.
type StreamFlowController struct {
	baseFlowController

	streamID                protocol.StreamID
	contributesToConnection bool
	connection              *ConnectionFlowController
}

// NewStreamFlowController returns a controller for streamID. If conn is
// non-nil, bytes read from this stream also credit the connection-level
// window (every stream but the crypto stream contributes).
func NewStreamFlowController(streamID protocol.StreamID, conn *ConnectionFlowController, receiveWindow, maxReceiveWindow, initialSendWindow protocol.ByteCount, rttStats *utils.RTTStats) *StreamFlowController {
	return &StreamFlowController{
		streamID:                streamID,
		contributesToConnection: conn != nil,
		connection:              conn,
		baseFlowController:      newBaseFlowController(receiveWindow, maxReceiveWindow, initialSendWindow, rttStats),
	}
}

// UpdateHighestReceived folds a STREAM frame's end offset into the
// controller, returning the number of newly-seen bytes (for crediting the
// connection-level window) or ErrReceivedSmallerByteOffset if frames
// arrived out of order in a way that shrinks the final size - expected on
// reordering, an error only when it follows a RESET_STREAM.
func (c *StreamFlowController) UpdateHighestReceived(offset protocol.ByteCount) (protocol.ByteCount, error) {
	if offset == c.highestReceived {
		return 0, nil
	}
	if offset > c.highestReceived {
		increment := offset - c.highestReceived
		c.highestReceived = offset
		return increment, nil
	}
	return 0, ErrReceivedSmallerByteOffset
}

// AddBytesRead records n bytes consumed from the stream by the
// application, crediting the connection-level window too when this stream
// contributes to it.
func (c *StreamFlowController) AddBytesRead(n protocol.ByteCount) {
	c.baseFlowController.AddBytesRead(n)
	if c.contributesToConnection {
		c.connection.AddBytesRead(n)
	}
}

// MaybeQueueWindowUpdate reports whether enough of the stream's receive
// window has been consumed to emit a MAX_STREAM_DATA frame, and if so the
// new offset to advertise.
func (c *StreamFlowController) MaybeQueueWindowUpdate() (bool, protocol.ByteCount) {
	return c.maybeUpdateWindow()
}

// StreamID returns the ID this controller was created for.
func (c *StreamFlowController) StreamID() protocol.StreamID { return c.streamID }
