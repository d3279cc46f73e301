package cid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanvos/kwik/internal/ackhandler"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/qerr"
	"github.com/johanvos/kwik/internal/wire"
)

func collectingQueue() (QueueFrame, *[]wire.Frame) {
	var frames []wire.Frame
	return func(f wire.Frame, _ protocol.EncryptionLevel, _ ackhandler.LostCallback) {
		frames = append(frames, f)
	}, &frames
}

func TestSourceManager_OnPacketReceivedReplenishes(t *testing.T) {
	initial := protocol.ConnectionID{0x01, 0x02, 0x03, 0x04}
	queue, frames := collectingQueue()
	m := NewSourceManager(initial, queue)
	m.SetActiveConnectionIDLimit(2)

	require.NoError(t, m.OnPacketReceived(initial))
	require.Len(t, *frames, 1)
	_, ok := (*frames)[0].(*wire.NewConnectionIDFrame)
	assert.True(t, ok)

	// A second packet on the same (now USED) CID must not replenish again.
	require.NoError(t, m.OnPacketReceived(initial))
	assert.Len(t, *frames, 1)
}

func TestSourceManager_RetireReplenishesUnderLimit(t *testing.T) {
	initial := protocol.ConnectionID{0x01, 0x02, 0x03, 0x04}
	queue, frames := collectingQueue()
	m := NewSourceManager(initial, queue)
	m.SetActiveConnectionIDLimit(2)

	require.NoError(t, m.Retire(0))
	assert.Equal(t, protocol.CIDStatusRetired, m.cids[0].status)
	require.Len(t, *frames, 1)

	// Retiring the same sequence twice is a no-op.
	require.NoError(t, m.Retire(0))
	assert.Len(t, *frames, 1)
}

func TestSourceManager_RetireBeyondLargestIssuedIsProtocolViolation(t *testing.T) {
	initial := protocol.ConnectionID{0x01, 0x02, 0x03, 0x04}
	queue, frames := collectingQueue()
	m := NewSourceManager(initial, queue)

	err := m.Retire(99)
	require.Error(t, err)
	te, ok := err.(*qerr.TransportError)
	require.True(t, ok)
	assert.Equal(t, qerr.ProtocolViolation, te.ErrorCode)
	assert.Empty(t, *frames)
}
