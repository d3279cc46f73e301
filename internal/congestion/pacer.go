package congestion

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/johanvos/kwik/internal/protocol"
)

// pacerBurst bounds how many bytes the pacer lets through in a single burst
// above its steady-state rate, the same ten-datagram allowance the teacher's
// hand-rolled pacer grants via maxBurstSize.
const pacerBurst = 10 * InitialMaxDatagramSize

// Pacer spaces packet emission within the congestion window so a whole
// cwnd's worth of packets isn't released in one burst. It wraps
// golang.org/x/time/rate's token bucket, sized in bytes rather than whole
// packets, in place of the teacher's own budget/lastSentTime bookkeeping.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer permitting bandwidthBytesPerSec bytes/s, with a
// burst allowance of ten maximum-sized datagrams.
func NewPacer(bandwidthBytesPerSec protocol.ByteCount) *Pacer {
	if bandwidthBytesPerSec <= 0 {
		bandwidthBytesPerSec = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(bandwidthBytesPerSec), int(pacerBurst))}
}

// SetBandwidth updates the pacing rate. Called whenever the congestion
// controller's cwnd/RTT-derived bandwidth estimate changes.
func (p *Pacer) SetBandwidth(bandwidthBytesPerSec protocol.ByteCount) {
	if bandwidthBytesPerSec <= 0 {
		bandwidthBytesPerSec = 1
	}
	p.limiter.SetLimit(rate.Limit(bandwidthBytesPerSec))
}

// TimeUntilSend reports when a packet of size n may next be sent, or the
// zero Time if it may be sent immediately. It reserves the tokens for that
// packet as a side effect; callers that decide not to send after all must
// not call it again for the same packet.
func (p *Pacer) TimeUntilSend(now time.Time, n protocol.ByteCount) time.Time {
	r := p.limiter.ReserveN(now, int(n))
	if !r.OK() {
		r.Cancel()
		return now
	}
	if delay := r.DelayFrom(now); delay > 0 {
		return now.Add(delay)
	}
	return time.Time{}
}

// BandwidthFromCongestionWindow estimates available bandwidth as cwnd/RTT,
// the same ratio quic-go's pacer derives from its BDP estimate.
func BandwidthFromCongestionWindow(cwnd protocol.ByteCount, rtt time.Duration) protocol.ByteCount {
	if rtt <= 0 {
		rtt = protocol.InitialRTT
	}
	return protocol.ByteCount(float64(cwnd) / rtt.Seconds())
}
