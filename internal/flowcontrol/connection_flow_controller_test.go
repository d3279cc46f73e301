package flowcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/utils"
)

func TestConnectionFlowController_EmitsOnlyOnFullIncrementCrossing(t *testing.T) {
	const increment = protocol.ByteCount(1000)
	c := NewConnectionFlowController(increment, increment, utils.NewRTTStats())

	// Consuming less than a full increment must never trigger an emit.
	emit, _ := c.UpdateConnectionFlowControl(300)
	assert.False(t, emit)
	emit, _ = c.UpdateConnectionFlowControl(400)
	assert.False(t, emit)

	// The cumulative total (300+400+300=1000) now exactly crosses the
	// increment: exactly one emit, advertising bytesRead+increment.
	emit, offset := c.UpdateConnectionFlowControl(300)
	assert.True(t, emit)
	assert.Equal(t, protocol.ByteCount(1000+increment), offset)

	// Below the next threshold again: no emit.
	emit, _ = c.UpdateConnectionFlowControl(500)
	assert.False(t, emit)

	// Crossing the next full increment emits again, advertising the new
	// cumulative bytesRead (2100) plus one more increment.
	emit, offset = c.UpdateConnectionFlowControl(600)
	assert.True(t, emit)
	assert.Equal(t, protocol.ByteCount(2100+increment), offset)
}
