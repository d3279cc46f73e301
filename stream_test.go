package kwik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/johanvos/kwik/internal/mocks"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/logging"
)

func newConnectedTestConnection(t *testing.T, ctrl *gomock.Controller) (*Connection, *mocks.MockSender) {
	cfg, err := NewBuilder().URI("example.com:443").Build()
	require.NoError(t, err)
	sender := mocks.NewMockSender(ctrl)
	tls := mocks.NewMockTLSEngine(ctrl)
	c, err := NewConnection(cfg, sender, tls, logging.NullConnectionTracer)
	require.NoError(t, err)
	c.state = StateConnected
	return c, sender
}

func TestStream_WriteAdvancesOffsetAndSends(t *testing.T) {
	ctrl := gomock.NewController(t)
	c, sender := newConnectedTestConnection(t, ctrl)

	s, err := c.createStream(true)
	require.NoError(t, err)

	sender.EXPECT().Send(gomock.Any(), protocol.Encryption1RTT, gomock.Any()).Times(2)
	n, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, protocol.ByteCount(10), s.sendOffset)
}

func TestStream_CloseHalfClosesAndRejectsFurtherWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	c, sender := newConnectedTestConnection(t, ctrl)

	s, err := c.createStream(false)
	require.NoError(t, err)

	sender.EXPECT().Send(gomock.Any(), protocol.Encryption1RTT, gomock.Any()).Times(1)
	require.NoError(t, s.Close())
	assert.Equal(t, StreamStateHalfClosed, s.state)

	_, err = s.Write([]byte("too late"))
	assert.Error(t, err)

	require.NoError(t, s.Close()) // idempotent
}
