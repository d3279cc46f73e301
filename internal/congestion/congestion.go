// Package congestion implements RFC 9002 congestion control: the NewReno
// controller every packet-number space's loss detector drives, plus a
// fixed-window controller used in tests.
package congestion

import (
	"time"

	"github.com/johanvos/kwik/internal/protocol"
)

// InitialMaxDatagramSize is the datagram size this client assumes before it
// has measured anything about the path, per RFC 9002 §7.2.
const InitialMaxDatagramSize protocol.ByteCount = 1472

// InitialWindow is the initial congestion window: 10 times the maximum
// datagram size.
const InitialWindow = 10 * InitialMaxDatagramSize

// MinWindow is the smallest the congestion window may shrink to in
// response to loss.
const MinWindow = 2 * InitialMaxDatagramSize

// lossReductionFactor halves the window on a new congestion event.
const lossReductionFactor = 2

// Controller is the interface the loss detector drives; every method may
// be called from the connection's single-threaded run loop only.
type Controller interface {
	OnPacketSent(sentBytes protocol.ByteCount)
	OnPacketsAcked(acked []AckedPacket)
	OnPacketsLost(lost []LostPacket)
	OnPacketDiscarded(sentBytes protocol.ByteCount)
	CanSend(n protocol.ByteCount) bool
	CongestionWindow() protocol.ByteCount
}

// AckedPacket is the minimal information the congestion controller needs
// about a newly acknowledged packet.
type AckedPacket struct {
	Size     protocol.ByteCount
	SentTime time.Time
}

// LostPacket is the minimal information the congestion controller needs
// about a packet declared lost.
type LostPacket struct {
	Size     protocol.ByteCount
	SentTime time.Time
}

// NewRenoController implements RFC 9002 Appendix B's reference congestion
// controller: slow start below ssthresh, additive increase above it, and a
// multiplicative window cut on loss.
type NewRenoController struct {
	bytesInFlight     protocol.ByteCount
	congestionWindow  protocol.ByteCount
	slowStartThreshold protocol.ByteCount
	recoveryStartTime time.Time
}

// NewNewRenoController returns a controller starting in slow start with
// an unbounded slow-start threshold.
func NewNewRenoController() *NewRenoController {
	return &NewRenoController{
		congestionWindow:   InitialWindow,
		slowStartThreshold: 1<<62 - 1,
	}
}

func (c *NewRenoController) OnPacketSent(sentBytes protocol.ByteCount) {
	c.bytesInFlight += sentBytes
}

func (c *NewRenoController) OnPacketDiscarded(sentBytes protocol.ByteCount) {
	c.subtractInFlight(sentBytes)
}

func (c *NewRenoController) subtractInFlight(sentBytes protocol.ByteCount) {
	if c.bytesInFlight < sentBytes {
		c.bytesInFlight = 0
		return
	}
	c.bytesInFlight -= sentBytes
}

func (c *NewRenoController) OnPacketsAcked(acked []AckedPacket) {
	for _, p := range acked {
		c.subtractInFlight(p.Size)
		if c.inRecovery(p.SentTime) {
			continue
		}
		if c.congestionWindow < c.slowStartThreshold {
			c.congestionWindow += p.Size
		} else {
			c.congestionWindow += InitialMaxDatagramSize * p.Size / c.congestionWindow
		}
	}
}

func (c *NewRenoController) OnPacketsLost(lost []LostPacket) {
	var largestLostSentTime time.Time
	for _, p := range lost {
		c.subtractInFlight(p.Size)
		if p.SentTime.After(largestLostSentTime) {
			largestLostSentTime = p.SentTime
		}
	}
	if largestLostSentTime.IsZero() {
		return
	}
	c.onNewCongestionEvent(largestLostSentTime)
}

func (c *NewRenoController) onNewCongestionEvent(sentTime time.Time) {
	if c.inRecovery(sentTime) {
		return
	}
	c.recoveryStartTime = sentTime
	c.congestionWindow /= lossReductionFactor
	if c.congestionWindow < MinWindow {
		c.congestionWindow = MinWindow
	}
	c.slowStartThreshold = c.congestionWindow
}

func (c *NewRenoController) inRecovery(sentTime time.Time) bool {
	return !c.recoveryStartTime.IsZero() && !sentTime.After(c.recoveryStartTime)
}

// CollapseWindow drops the congestion window to the minimum, on detecting
// persistent congestion (RFC 9002 §7.6).
func (c *NewRenoController) CollapseWindow() { c.congestionWindow = MinWindow }

func (c *NewRenoController) CanSend(n protocol.ByteCount) bool {
	return c.bytesInFlight+n <= c.congestionWindow
}

func (c *NewRenoController) CongestionWindow() protocol.ByteCount { return c.congestionWindow }

func (c *NewRenoController) BytesInFlight() protocol.ByteCount { return c.bytesInFlight }

// FixedWindowController never changes its window; useful for deterministic
// tests of components layered above congestion control.
type FixedWindowController struct {
	Window        protocol.ByteCount
	bytesInFlight protocol.ByteCount
}

func NewFixedWindowController(window protocol.ByteCount) *FixedWindowController {
	return &FixedWindowController{Window: window}
}

func (c *FixedWindowController) OnPacketSent(sentBytes protocol.ByteCount) { c.bytesInFlight += sentBytes }

func (c *FixedWindowController) OnPacketDiscarded(sentBytes protocol.ByteCount) {
	if c.bytesInFlight < sentBytes {
		c.bytesInFlight = 0
		return
	}
	c.bytesInFlight -= sentBytes
}

func (c *FixedWindowController) OnPacketsAcked(acked []AckedPacket) {
	for _, p := range acked {
		if c.bytesInFlight < p.Size {
			c.bytesInFlight = 0
			continue
		}
		c.bytesInFlight -= p.Size
	}
}

func (c *FixedWindowController) OnPacketsLost(lost []LostPacket) {
	for _, p := range lost {
		if c.bytesInFlight < p.Size {
			c.bytesInFlight = 0
			continue
		}
		c.bytesInFlight -= p.Size
	}
}

func (c *FixedWindowController) CanSend(n protocol.ByteCount) bool {
	return c.bytesInFlight+n <= c.Window
}

func (c *FixedWindowController) CongestionWindow() protocol.ByteCount { return c.Window }
