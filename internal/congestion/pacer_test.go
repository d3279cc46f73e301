package congestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/johanvos/kwik/internal/protocol"
)

func TestPacer_FirstBurstSendsImmediately(t *testing.T) {
	p := NewPacer(InitialMaxDatagramSize) // 1 datagram/sec
	now := time.Now()
	send := p.TimeUntilSend(now, InitialMaxDatagramSize)
	assert.True(t, send.IsZero())
}

func TestPacer_ExhaustedBurstDelaysSend(t *testing.T) {
	p := NewPacer(InitialMaxDatagramSize) // 1 datagram/sec, burst of 10
	now := time.Now()
	for i := 0; i < 10; i++ {
		p.TimeUntilSend(now, InitialMaxDatagramSize)
	}
	send := p.TimeUntilSend(now, InitialMaxDatagramSize)
	assert.True(t, send.After(now))
}

func TestBandwidthFromCongestionWindow(t *testing.T) {
	bw := BandwidthFromCongestionWindow(protocol.ByteCount(10000), time.Second)
	assert.Equal(t, protocol.ByteCount(10000), bw)

	// A zero/negative RTT falls back to InitialRTT rather than dividing by
	// zero.
	bw2 := BandwidthFromCongestionWindow(protocol.ByteCount(1000), 0)
	assert.Greater(t, bw2, protocol.ByteCount(0))
}
