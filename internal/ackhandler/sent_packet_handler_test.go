package ackhandler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
	"github.com/johanvos/kwik/internal/wire"
)

func TestSentPacketHandler_PacketThresholdLoss(t *testing.T) {
	h := NewSentPacketHandler(utils.NewRTTStats(), utils.DefaultLogger())

	var lostCount int
	onLost := func(frames []wire.Frame) { lostCount++ }

	now := time.Now()
	for pn := protocol.PacketNumber(1); pn <= 4; pn++ {
		h.PacketSent(protocol.PNSpaceApplication, pn, now, 100, []wire.Frame{&wire.PingFrame{}}, onLost)
	}

	ack := &wire.AckFrame{AckRanges: []wire.AckRange{{Smallest: 2, Largest: 4}}}
	h.ReceivedAck(ack, protocol.PNSpaceApplication, 0, now.Add(time.Millisecond))

	assert.Equal(t, 1, lostCount)
	assert.Empty(t, h.Unacked(protocol.PNSpaceApplication))
}

func TestSentPacketHandler_AckOnlyPacketNeverDeclaredLost(t *testing.T) {
	h := NewSentPacketHandler(utils.NewRTTStats(), utils.DefaultLogger())

	var lostCount int
	onLost := func(frames []wire.Frame) { lostCount++ }

	now := time.Now()
	// An ack-only packet: not ack-eliciting, so detectLostPackets must skip
	// it even though it falls far behind the largest acked packet number.
	h.PacketSent(protocol.PNSpaceApplication, 1, now, 50, []wire.Frame{&wire.AckFrame{}}, onLost)
	for pn := protocol.PacketNumber(2); pn <= 5; pn++ {
		h.PacketSent(protocol.PNSpaceApplication, pn, now, 100, []wire.Frame{&wire.PingFrame{}}, onLost)
	}

	ack := &wire.AckFrame{AckRanges: []wire.AckRange{{Smallest: 2, Largest: 5}}}
	h.ReceivedAck(ack, protocol.PNSpaceApplication, 0, now.Add(time.Millisecond))

	assert.Equal(t, 0, lostCount)
	unacked := h.Unacked(protocol.PNSpaceApplication)
	assert.Empty(t, unacked) // all ack-eliciting packets were acked; the ack-only one is invisible to Unacked
}

func TestSentPacketHandler_ResetDiscardsInFlight(t *testing.T) {
	h := NewSentPacketHandler(utils.NewRTTStats(), utils.DefaultLogger())
	now := time.Now()
	h.PacketSent(protocol.PNSpaceInitial, 0, now, 1200, []wire.Frame{&wire.CryptoFrame{}}, nil)
	require.True(t, h.AckElicitingInFlight(protocol.PNSpaceInitial))

	h.Reset(protocol.PNSpaceInitial)
	assert.False(t, h.AckElicitingInFlight(protocol.PNSpaceInitial))
	assert.Empty(t, h.Unacked(protocol.PNSpaceInitial))
}

func TestSentPacketHandler_ProbeTimeoutScalesWithPTOCount(t *testing.T) {
	h := NewSentPacketHandler(utils.NewRTTStats(), utils.DefaultLogger())
	base := h.ProbeTimeout()

	h.OnLossDetectionTimeout(time.Now()) // no pending loss time -> counts as a PTO
	assert.Equal(t, uint8(1), h.PTOCount())
	assert.Equal(t, base<<1, h.ProbeTimeout())
}
