package cid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

func TestDestinationManager_RetirePriorToAboveSequenceIsViolation(t *testing.T) {
	queue, frames := collectingQueue()
	m := NewDestinationManager(protocol.ConnectionID{0x00}, queue)

	err := m.Add(&wire.NewConnectionIDFrame{SequenceNumber: 1, RetirePriorTo: 2, ConnectionID: protocol.ConnectionID{0x01}})
	require.Error(t, err)
	assert.Empty(t, *frames)
}

func TestDestinationManager_ActivatesAndRetiresOldActive(t *testing.T) {
	queue, frames := collectingQueue()
	m := NewDestinationManager(protocol.ConnectionID{0x00}, queue)

	require.NoError(t, m.Add(&wire.NewConnectionIDFrame{SequenceNumber: 1, RetirePriorTo: 1, ConnectionID: protocol.ConnectionID{0x01}}))
	assert.Equal(t, protocol.ConnectionID{0x01}, m.Active())
	require.Len(t, *frames, 1)
	rcf, ok := (*frames)[0].(*wire.RetireConnectionIDFrame)
	require.True(t, ok)
	assert.Equal(t, uint64(0), rcf.SequenceNumber)
}

func TestDestinationManager_ReorderedFrameBelowThresholdIsImmediatelyRetired(t *testing.T) {
	queue, frames := collectingQueue()
	m := NewDestinationManager(protocol.ConnectionID{0x00}, queue)

	// Advance the retirement threshold to 2 via a frame for sequence 2.
	require.NoError(t, m.Add(&wire.NewConnectionIDFrame{SequenceNumber: 2, RetirePriorTo: 2, ConnectionID: protocol.ConnectionID{0x02}}))
	assert.Equal(t, protocol.ConnectionID{0x02}, m.Active())
	require.Len(t, *frames, 1) // retires old active (seq 0)

	// A reordered NEW_CONNECTION_ID for seq 1 (below the threshold of 2)
	// arrives afterward; it must be retired immediately, never queued or
	// activated.
	require.NoError(t, m.Add(&wire.NewConnectionIDFrame{SequenceNumber: 1, RetirePriorTo: 0, ConnectionID: protocol.ConnectionID{0x01}}))
	assert.Equal(t, protocol.ConnectionID{0x02}, m.Active())
	require.Len(t, *frames, 2)
	rcf, ok := (*frames)[1].(*wire.RetireConnectionIDFrame)
	require.True(t, ok)
	assert.Equal(t, uint64(1), rcf.SequenceNumber)
}

func TestDestinationManager_QueuedBelowThresholdRetiredOnLaterAdvance(t *testing.T) {
	queue, frames := collectingQueue()
	m := NewDestinationManager(protocol.ConnectionID{0x00}, queue)

	require.NoError(t, m.Add(&wire.NewConnectionIDFrame{SequenceNumber: 1, RetirePriorTo: 0, ConnectionID: protocol.ConnectionID{0x01}}))
	assert.Empty(t, *frames) // queued, active (seq 0) still >= threshold (0)

	require.NoError(t, m.Add(&wire.NewConnectionIDFrame{SequenceNumber: 2, RetirePriorTo: 2, ConnectionID: protocol.ConnectionID{0x02}}))
	// seq 1 was queued and now falls below the advanced threshold of 2, so
	// it must be retired even though it was never active.
	var retired []uint64
	for _, f := range *frames {
		retired = append(retired, f.(*wire.RetireConnectionIDFrame).SequenceNumber)
	}
	assert.Contains(t, retired, uint64(0)) // old active
	assert.Contains(t, retired, uint64(1)) // queued, now below threshold
	assert.Equal(t, protocol.ConnectionID{0x02}, m.Active())
}
