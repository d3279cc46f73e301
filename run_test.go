package kwik

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/johanvos/kwik/internal/mocks"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/logging"
)

func newRunTestConnection(t *testing.T, ctrl *gomock.Controller, idleTimeout time.Duration) *Connection {
	cfg, err := NewBuilder().URI("example.com:443").MaxIdleTimeout(idleTimeout).Build()
	require.NoError(t, err)
	sender := mocks.NewMockSender(ctrl)
	tls := mocks.NewMockTLSEngine(ctrl)
	c, err := NewConnection(cfg, sender, tls, logging.NullConnectionTracer)
	require.NoError(t, err)
	c.state = StateConnected
	c.lastActivity = time.Now()
	return c
}

func TestRun_IdleTimeoutClosesConnectionSilently(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newRunTestConnection(t, ctrl, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := c.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, StateClosed, c.State())
}

func TestRun_StopsWhenContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newRunTestConnection(t, ctrl, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestNextSendTime_FirstPacketSendsImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newRunTestConnection(t, ctrl, time.Hour)

	send := c.NextSendTime(protocol.ByteCount(100))
	assert.True(t, send.IsZero())
}
