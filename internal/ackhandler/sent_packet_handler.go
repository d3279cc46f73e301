// Package ackhandler tracks sent packets per packet-number space and runs
// RFC 9002 loss detection over them, driving a congestion.Controller.
package ackhandler

import (
	"time"

	"github.com/johanvos/kwik/internal/congestion"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
	"github.com/johanvos/kwik/internal/wire"
)

// packetThreshold is kPacketThreshold from RFC 9002 §6.1.1.
const packetThreshold = 3

// timeThresholdNum/Den express the 9/8 multiplier from RFC 9002 §6.1.2
// without floating point.
const timeThresholdNum = 9
const timeThresholdDen = 8

// LostCallback is invoked once per packet the loss detector declares lost,
// carrying the frames that packet contained so the caller can decide which
// ones to retransmit.
type LostCallback func(frames []wire.Frame)

// SentPacket records everything the loss detector and congestion
// controller need to know about a packet after it has been sent.
type SentPacket struct {
	PacketNumber protocol.PacketNumber
	SentTime     time.Time
	Size         protocol.ByteCount
	Frames       []wire.Frame
	AckEliciting bool
	InFlight     bool
	OnLost       LostCallback
}

// newSentPacket classifies a packet's frames per RFC 9000 §13.2: ack-eliciting
// unless every frame is ACK, PADDING or CONNECTION_CLOSE; in-flight if it is
// ack-eliciting or carries PADDING, so a packet of only ACK and/or
// CONNECTION_CLOSE frames is not in flight.
func newSentPacket(pn protocol.PacketNumber, now time.Time, size protocol.ByteCount, frames []wire.Frame, onLost LostCallback) *SentPacket {
	p := &SentPacket{PacketNumber: pn, SentTime: now, Size: size, Frames: frames, OnLost: onLost}
	for _, f := range frames {
		switch f.(type) {
		case *wire.AckFrame, *wire.PaddingFrame, *wire.ConnectionCloseFrame:
		default:
			p.AckEliciting = true
			p.InFlight = true
		}
	}
	if !p.AckEliciting {
		for _, f := range frames {
			if _, ok := f.(*wire.PaddingFrame); ok {
				p.InFlight = true
			}
		}
	}
	return p
}

type packetNumberSpace struct {
	sent []*SentPacket // ascending by PacketNumber

	largestAcked       protocol.PacketNumber // InvalidPacketNumber until an ack is received
	largestSent        protocol.PacketNumber
	lossTime           time.Time
	lastAckElicitingSentTime time.Time
	ackElicitingInFlightCount int
	noAckReceived      bool
}

func newPacketNumberSpace() *packetNumberSpace {
	return &packetNumberSpace{largestAcked: protocol.InvalidPacketNumber, noAckReceived: true}
}

// SentPacketHandler is the per-connection owner of all three packet-number
// spaces' sent-packet history, RTT estimation, and congestion control.
type SentPacketHandler struct {
	spaces     [protocol.PNSpaceCount]*packetNumberSpace
	rttStats   *utils.RTTStats
	congestion congestion.Controller
	ptoCount   uint8
	logger     utils.Logger

	handshakeConfirmed bool
}

// NewSentPacketHandler returns a handler using a NewReno congestion
// controller and the given RTT tracker.
func NewSentPacketHandler(rttStats *utils.RTTStats, logger utils.Logger) *SentPacketHandler {
	h := &SentPacketHandler{rttStats: rttStats, congestion: congestion.NewNewRenoController(), logger: logger}
	for i := range h.spaces {
		h.spaces[i] = newPacketNumberSpace()
	}
	return h
}

// SetCongestionController overrides the default NewReno controller, used by
// tests that want a FixedWindowController.
func (h *SentPacketHandler) SetCongestionController(c congestion.Controller) { h.congestion = c }

// CanSend reports whether the congestion controller currently allows
// sending n more bytes.
func (h *SentPacketHandler) CanSend(n protocol.ByteCount) bool { return h.congestion.CanSend(n) }

// PacketSent records a newly sent packet in the given space.
func (h *SentPacketHandler) PacketSent(space protocol.PacketNumberSpace, pn protocol.PacketNumber, now time.Time, size protocol.ByteCount, frames []wire.Frame, onLost LostCallback) {
	p := newSentPacket(pn, now, size, frames, onLost)
	s := h.spaces[space]
	s.sent = append(s.sent, p)
	if len(s.sent) == 1 || pn > s.largestSent {
		s.largestSent = pn
	}
	if p.InFlight {
		if p.AckEliciting {
			s.lastAckElicitingSentTime = now
			s.ackElicitingInFlightCount++
		}
		h.congestion.OnPacketSent(size)
	}
}

// ReceivedAck processes an ACK frame received in the given space at time
// now, running loss detection afterward. It returns the packets newly
// acknowledged (ack-eliciting ones only are meaningful for RTT purposes).
func (h *SentPacketHandler) ReceivedAck(ack *wire.AckFrame, space protocol.PacketNumberSpace, ackDelay time.Duration, now time.Time) []*SentPacket {
	s := h.spaces[space]
	s.noAckReceived = false
	largestAcked := ack.LargestAcked()
	if s.largestAcked == protocol.InvalidPacketNumber || largestAcked > s.largestAcked {
		s.largestAcked = largestAcked
	}

	var ackedPackets []*SentPacket
	remaining := s.sent[:0:0]
	hasAckEliciting := false
	for _, p := range s.sent {
		if ack.AcksPacket(p.PacketNumber) {
			ackedPackets = append(ackedPackets, p)
			if p.AckEliciting {
				hasAckEliciting = true
				s.ackElicitingInFlightCount--
			}
			continue
		}
		remaining = append(remaining, p)
	}
	s.sent = remaining
	if len(ackedPackets) == 0 {
		h.congestion.OnPacketsAcked(nil)
		return nil
	}

	largest := ackedPackets[len(ackedPackets)-1]
	if hasAckEliciting && largest.PacketNumber == largestAcked {
		d := ackDelay
		if space != protocol.PNSpaceApplication {
			d = 0
		}
		h.rttStats.UpdateRTT(now.Sub(largest.SentTime), d)
	}

	var acked []congestion.AckedPacket
	for _, p := range ackedPackets {
		if p.InFlight {
			acked = append(acked, congestion.AckedPacket{Size: p.Size, SentTime: p.SentTime})
		}
	}
	h.congestion.OnPacketsAcked(acked)

	h.detectLostPackets(space, now)
	h.ptoCount = 0
	return ackedPackets
}

// detectLostPackets implements RFC 9002 Appendix A.10: a packet is lost
// once it is far enough behind the largest acked, either in sequence
// (packet threshold) or in time (time threshold).
func (h *SentPacketHandler) detectLostPackets(space protocol.PacketNumberSpace, now time.Time) {
	s := h.spaces[space]
	if s.largestAcked == protocol.InvalidPacketNumber {
		return
	}
	lossDelay := h.rttStats.SmoothedRTT()
	if h.rttStats.LatestRTT() > lossDelay {
		lossDelay = h.rttStats.LatestRTT()
	}
	lossDelay = lossDelay * timeThresholdNum / timeThresholdDen
	if lossDelay < protocol.TimerGranularity {
		lossDelay = protocol.TimerGranularity
	}
	lostSendTime := now.Add(-lossDelay)

	var lost []*SentPacket
	var remaining []*SentPacket
	var lossTime time.Time
	for _, p := range s.sent {
		// An ack-only packet is never declared lost (RFC 9002 only tracks
		// ack-eliciting packets for loss detection); it just stays pending
		// until its own ACK arrives.
		if !p.AckEliciting {
			remaining = append(remaining, p)
			continue
		}
		if p.PacketNumber > s.largestAcked {
			remaining = append(remaining, p)
			continue
		}
		if !p.SentTime.After(lostSendTime) || s.largestAcked >= p.PacketNumber+packetThreshold {
			lost = append(lost, p)
			s.ackElicitingInFlightCount--
			continue
		}
		tm := p.SentTime.Add(lossDelay)
		if lossTime.IsZero() || tm.Before(lossTime) {
			lossTime = tm
		}
		remaining = append(remaining, p)
	}
	s.sent = remaining
	s.lossTime = lossTime

	if len(lost) == 0 {
		return
	}
	var lostForCongestion []congestion.LostPacket
	for _, p := range lost {
		if p.InFlight {
			lostForCongestion = append(lostForCongestion, congestion.LostPacket{Size: p.Size, SentTime: p.SentTime})
		}
		if p.OnLost != nil {
			p.OnLost(p.Frames)
		}
	}
	h.congestion.OnPacketsLost(lostForCongestion)
}

// LossTime returns the earliest time at which a pending packet in any space
// will be declared lost by the time-threshold rule, or the zero Time if
// none is pending.
func (h *SentPacketHandler) LossTime() time.Time {
	var earliest time.Time
	for _, s := range h.spaces {
		if s.lossTime.IsZero() {
			continue
		}
		if earliest.IsZero() || s.lossTime.Before(earliest) {
			earliest = s.lossTime
		}
	}
	return earliest
}

// OnLossDetectionTimeout re-runs loss detection for whichever space's
// lossTime has elapsed; if none is pending, a PTO has fired, and the caller
// should send a probe.
func (h *SentPacketHandler) OnLossDetectionTimeout(now time.Time) {
	lossTime := h.LossTime()
	if !lossTime.IsZero() {
		for space, s := range h.spaces {
			if !s.lossTime.IsZero() {
				h.detectLostPackets(protocol.PacketNumberSpace(space), now)
			}
		}
		return
	}
	h.ptoCount++
}

// PTOCount returns the number of consecutive probe timeouts without a
// received ack, used to scale the next PTO interval (RFC 9002 §6.2.1).
func (h *SentPacketHandler) PTOCount() uint8 { return h.ptoCount }

// ProbeTimeout returns the current PTO duration, scaled by 2^ptoCount.
func (h *SentPacketHandler) ProbeTimeout() time.Duration {
	pto := h.rttStats.PTO(h.handshakeConfirmed)
	return pto << h.ptoCount
}

// SetHandshakeConfirmed records that the handshake has completed, after
// which max_ack_delay applies to PTO calculation for the Application space.
func (h *SentPacketHandler) SetHandshakeConfirmed() { h.handshakeConfirmed = true }

// Unacked returns the ack-eliciting packets still awaiting acknowledgment
// in the given space.
func (h *SentPacketHandler) Unacked(space protocol.PacketNumberSpace) []*SentPacket {
	s := h.spaces[space]
	var out []*SentPacket
	for _, p := range s.sent {
		if p.AckEliciting {
			out = append(out, p)
		}
	}
	return out
}

// AckElicitingInFlight reports whether any ack-eliciting packet in space is
// still unacknowledged.
func (h *SentPacketHandler) AckElicitingInFlight(space protocol.PacketNumberSpace) bool {
	return h.spaces[space].ackElicitingInFlightCount > 0
}

// NoAckReceived reports whether no ACK has ever been received in space.
func (h *SentPacketHandler) NoAckReceived(space protocol.PacketNumberSpace) bool {
	return h.spaces[space].noAckReceived
}

// Reset discards all pending packets in space, releasing their bytes from
// the congestion controller's in-flight accounting. Used when a packet
// number space's keys are dropped (Initial/Handshake completion).
func (h *SentPacketHandler) Reset(space protocol.PacketNumberSpace) {
	s := h.spaces[space]
	var discarded protocol.ByteCount
	for _, p := range s.sent {
		if p.InFlight {
			discarded += p.Size
		}
	}
	if discarded > 0 {
		h.congestion.OnPacketDiscarded(discarded)
	}
	h.spaces[space] = newPacketNumberSpace()
}

// CongestionWindow exposes the current congestion window, for qlog/metrics.
func (h *SentPacketHandler) CongestionWindow() protocol.ByteCount { return h.congestion.CongestionWindow() }
