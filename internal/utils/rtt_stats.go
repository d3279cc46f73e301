package utils

import (
	"time"

	"github.com/johanvos/kwik/internal/protocol"
)

// RTTStats tracks the smoothed RTT, RTT variance and minimum RTT of a
// connection, per RFC 9002 §5. It is shared between the loss detector and
// the congestion controller, the way goburrow's lossRecovery folds both
// concerns into a single struct.
type RTTStats struct {
	latestRTT   time.Duration
	smoothedRTT time.Duration
	rttVariance time.Duration
	minRTT      time.Duration
	maxAckDelay time.Duration
}

// NewRTTStats returns an RTTStats with no samples yet. LatestRTT and MinRTT
// read as zero, and SmoothedRTT as protocol.InitialRTT, until the first call
// to UpdateRTT.
func NewRTTStats() *RTTStats {
	return &RTTStats{maxAckDelay: protocol.MaxAckDelay}
}

// SetMaxAckDelay overrides the peer's max_ack_delay transport parameter,
// used to cap the ack delay subtracted out of a sample in UpdateRTT.
func (s *RTTStats) SetMaxAckDelay(d time.Duration) { s.maxAckDelay = d }

// UpdateRTT folds a new RTT sample, taken between sending a packet and
// receiving an acknowledgment for it, into the smoothed estimate. ackDelay
// is the peer-reported delay between receiving the packet and sending the
// ACK (ACK_DELAY field, already decoded); it is capped at maxAckDelay, and
// not used at all for the first sample.
func (s *RTTStats) UpdateRTT(latestRTT, ackDelay time.Duration) {
	if latestRTT < 0 {
		return
	}
	s.latestRTT = latestRTT
	if s.smoothedRTT == 0 {
		s.minRTT = latestRTT
		s.smoothedRTT = latestRTT
		s.rttVariance = latestRTT / 2
		return
	}
	if s.minRTT > latestRTT {
		s.minRTT = latestRTT
	}
	if ackDelay > s.maxAckDelay {
		ackDelay = s.maxAckDelay
	}
	adjustedRTT := latestRTT
	if adjustedRTT > s.minRTT+ackDelay {
		adjustedRTT -= ackDelay
	}
	delta := s.smoothedRTT - adjustedRTT
	if delta < 0 {
		delta = -delta
	}
	s.rttVariance = s.rttVariance*3/4 + delta/4
	s.smoothedRTT = s.smoothedRTT*7/8 + adjustedRTT/8
}

// LatestRTT returns the most recent RTT sample.
func (s *RTTStats) LatestRTT() time.Duration { return s.latestRTT }

// SmoothedRTT returns the exponentially-weighted moving average RTT, or
// protocol.InitialRTT if no sample has been taken yet.
func (s *RTTStats) SmoothedRTT() time.Duration {
	if s.smoothedRTT == 0 {
		return protocol.InitialRTT
	}
	return s.smoothedRTT
}

// MinRTT returns the smallest RTT observed so far, ignoring ack delay.
func (s *RTTStats) MinRTT() time.Duration { return s.minRTT }

// RTTVariance returns the mean deviation of observed RTT samples.
func (s *RTTStats) RTTVariance() time.Duration { return s.rttVariance }

// PTO returns the probe timeout duration per RFC 9002 §6.2.1:
// smoothed_rtt + max(4*rttvar, kGranularity) + max_ack_delay.
func (s *RTTStats) PTO(includeMaxAckDelay bool) time.Duration {
	if s.smoothedRTT == 0 {
		return protocol.InitialRTT * 2
	}
	dev := 4 * s.rttVariance
	if dev < protocol.TimerGranularity {
		dev = protocol.TimerGranularity
	}
	pto := s.smoothedRTT + dev
	if includeMaxAckDelay {
		pto += s.maxAckDelay
	}
	return pto
}
