// Package flowcontrol implements the per-stream and per-connection flow
// control windows of §4.6: a send-side ceiling raised by MAX_DATA /
// MAX_STREAM_DATA frames, and a receive-side window that auto-tunes and
// emits its own MAX_DATA / MAX_STREAM_DATA frames as the application
// consumes data.
package flowcontrol

import (
	"time"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

// baseFlowController holds the bookkeeping shared by the stream- and
// connection-level controllers, grounded on quic-go's baseFlowController.
type baseFlowController struct {
	rttStats *utils.RTTStats

	bytesSent  protocol.ByteCount
	sendWindow protocol.ByteCount

	lastWindowUpdateTime time.Time

	bytesRead                 protocol.ByteCount
	highestReceived           protocol.ByteCount
	receiveWindow             protocol.ByteCount
	receiveWindowIncrement    protocol.ByteCount
	maxReceiveWindowIncrement protocol.ByteCount
}

func newBaseFlowController(receiveWindow, maxReceiveWindow, initialSendWindow protocol.ByteCount, rttStats *utils.RTTStats) baseFlowController {
	return baseFlowController{
		rttStats:                  rttStats,
		receiveWindow:             receiveWindow,
		receiveWindowIncrement:    receiveWindow,
		maxReceiveWindowIncrement: maxReceiveWindow,
		sendWindow:                initialSendWindow,
	}
}

// AddBytesSent records n more bytes handed to the sender against this
// controller's send window.
func (c *baseFlowController) AddBytesSent(n protocol.ByteCount) { c.bytesSent += n }

// UpdateSendWindow raises the send ceiling to offset if it exceeds the
// current one; a MAX_DATA/MAX_STREAM_DATA carrying a smaller value is a
// no-op, per §4.2's monotonicity rule.
func (c *baseFlowController) UpdateSendWindow(offset protocol.ByteCount) bool {
	if offset > c.sendWindow {
		c.sendWindow = offset
		return true
	}
	return false
}

// SendWindowSize reports how many more bytes this controller currently
// permits sending.
func (c *baseFlowController) SendWindowSize() protocol.ByteCount {
	if c.bytesSent > c.sendWindow {
		return 0
	}
	return c.sendWindow - c.bytesSent
}

// IsBlocked reports whether the send window is fully consumed.
func (c *baseFlowController) IsBlocked() bool { return c.SendWindowSize() == 0 }

// AddBytesRead records n bytes the application has consumed from the
// receive side.
func (c *baseFlowController) AddBytesRead(n protocol.ByteCount) {
	if c.bytesRead == 0 {
		c.lastWindowUpdateTime = time.Now()
	}
	c.bytesRead += n
}

// maybeUpdateWindow recomputes the receive window once cumulative
// unadvertised consumption has crossed one full receiveWindowIncrement,
// doubling the increment (auto-tuning) if updates are happening faster than
// every 2 RTTs. It reports whether an update frame must be emitted and the
// new window offset to advertise.
func (c *baseFlowController) maybeUpdateWindow() (bool, protocol.ByteCount) {
	bytesRemaining := c.receiveWindow - c.bytesRead
	if bytesRemaining > 0 {
		return false, 0
	}
	c.maybeAdjustWindowIncrement()
	c.receiveWindow = c.bytesRead + c.receiveWindowIncrement
	c.lastWindowUpdateTime = time.Now()
	return true, c.receiveWindow
}

func (c *baseFlowController) maybeAdjustWindowIncrement() {
	if c.lastWindowUpdateTime.IsZero() {
		return
	}
	rtt := c.rttStats.SmoothedRTT()
	if rtt == 0 {
		return
	}
	if time.Since(c.lastWindowUpdateTime) >= 2*rtt {
		return
	}
	c.receiveWindowIncrement = utils.MinByteCount(2*c.receiveWindowIncrement, c.maxReceiveWindowIncrement)
}

// CheckFlowControlViolation reports whether the peer has sent beyond the
// advertised receive window.
func (c *baseFlowController) CheckFlowControlViolation() bool { return c.highestReceived > c.receiveWindow }
