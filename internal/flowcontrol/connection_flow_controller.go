package flowcontrol

import (
	"time"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

// ConnectionFlowController is the connection-level flow-control window of
// §4.6: a send ceiling raised by MAX_DATA, and a receive window credited
// by every contributing stream's consumption, emitting MAX_DATA once
// cumulative unadvertised consumption crosses the increment.
type ConnectionFlowController struct {
	baseFlowController
}

// NewConnectionFlowController returns a controller seeded with this
// client's own advertised receive window and the peer's initial_max_data
// as the send ceiling (zero until transport parameters are applied).
func NewConnectionFlowController(receiveWindow, maxReceiveWindow protocol.ByteCount, rttStats *utils.RTTStats) *ConnectionFlowController {
	return &ConnectionFlowController{baseFlowController: newBaseFlowController(receiveWindow, maxReceiveWindow, 0, rttStats)}
}

// IncrementHighestReceived adds increment (a newly-seen span of some
// stream's data) to the connection's running total, without per-stream
// offset bookkeeping of its own.
func (c *ConnectionFlowController) IncrementHighestReceived(increment protocol.ByteCount) {
	c.highestReceived += increment
}

// IncreaseFlowControlLimit implements increase_flow_control_limit(stream,
// desired): the actual number of bytes the caller may hand to stream right
// now is the minimum of what it asked for, the stream's own send ceiling,
// and the connection's remaining send credit.
func (c *ConnectionFlowController) IncreaseFlowControlLimit(stream *StreamFlowController, desired protocol.ByteCount) protocol.ByteCount {
	limit := utils.MinByteCount(desired, stream.SendWindowSize())
	return utils.MinByteCount(limit, c.SendWindowSize())
}

// UpdateConnectionFlowControl implements update_connection_flow_control(delta):
// credits delta consumed bytes to the connection window, returning whether
// cumulative unadvertised consumption has now crossed flow_control_increment
// and, if so, the new offset a MAX_DATA frame must advertise.
func (c *ConnectionFlowController) UpdateConnectionFlowControl(delta protocol.ByteCount) (bool, protocol.ByteCount) {
	c.AddBytesRead(delta)
	return c.maybeUpdateWindow()
}

// EnsureMinimumWindowIncrement raises this connection's window increment to
// at least inc, called when a stream's own window increment grows past the
// connection's - the connection-level window must never be the bottleneck
// for a single fast stream.
func (c *ConnectionFlowController) EnsureMinimumWindowIncrement(inc protocol.ByteCount) {
	if inc > c.receiveWindowIncrement {
		c.receiveWindowIncrement = utils.MinByteCount(inc, c.maxReceiveWindowIncrement)
		c.lastWindowUpdateTime = time.Time{}
	}
}
