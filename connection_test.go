package kwik

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/johanvos/kwik/internal/handshake"
	"github.com/johanvos/kwik/internal/mocks"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/qerr"
	"github.com/johanvos/kwik/internal/wire"
	"github.com/johanvos/kwik/logging"
)

func newTestConfig(t *testing.T) *Config {
	cfg, err := NewBuilder().URI("example.com:443").ConnectionIDLength(4).Build()
	require.NoError(t, err)
	return cfg
}

// newTestConnection builds a Connection with a fixed original destination
// CID, so Retry packets built against that CID produce a reproducible
// integrity tag.
func newTestConnection(t *testing.T, ctrl *gomock.Controller, origDestConnID protocol.ConnectionID) (*Connection, *mocks.MockSender, *mocks.MockTLSEngine) {
	sender := mocks.NewMockSender(ctrl)
	tls := mocks.NewMockTLSEngine(ctrl)
	c, err := NewConnection(newTestConfig(t), sender, tls, logging.NullConnectionTracer)
	require.NoError(t, err)
	c.origDestConnID = origDestConnID
	c.usedDestConnID = origDestConnID
	return c, sender, tls
}

// buildRetryPacket assembles a wire-format Retry packet carrying token,
// with its integrity tag computed the same way handleRetry verifies it.
func buildRetryPacket(t *testing.T, version protocol.Version, destConnID, srcConnID, origDestConnID protocol.ConnectionID, token []byte) []byte {
	b := []byte{0x80 | 0x40 | 0x30}
	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], uint32(version))
	b = append(b, versionBytes[:]...)
	b = append(b, byte(destConnID.Len()))
	b = append(b, destConnID.Bytes()...)
	b = append(b, byte(srcConnID.Len()))
	b = append(b, srcConnID.Bytes()...)
	b = append(b, token...)

	tag, err := handshake.RetryIntegrityTag(version, b, origDestConnID)
	require.NoError(t, err)
	return append(b, tag[:]...)
}

func TestHandleRetry_SetsInitialTokenOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	origDestConnID := protocol.ConnectionID{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
	c, sender, tls := newTestConnection(t, ctrl, origDestConnID)

	tls.EXPECT().StartHandshake("h3").Return([]byte("client-hello"), nil)
	sender.EXPECT().Send(gomock.Any(), protocol.EncryptionInitial, gomock.Any()).AnyTimes()
	require.NoError(t, c.Connect("h3"))

	token := []byte{0x01, 0x02, 0x03}
	srcConnID := protocol.ConnectionID{0x0b, 0x0b, 0x0b, 0x0b}
	packet := buildRetryPacket(t, c.version, c.initialSrcConnID, srcConnID, origDestConnID, token)

	sender.EXPECT().SetInitialToken(token).Times(1)
	require.NoError(t, c.HandlePacket(packet, time.Now()))
	assert.True(t, c.retryProcessed)
	assert.Equal(t, srcConnID, c.retrySrcConnID)
}

func TestHandleRetry_SecondRetryIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	origDestConnID := protocol.ConnectionID{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
	c, sender, tls := newTestConnection(t, ctrl, origDestConnID)

	tls.EXPECT().StartHandshake("h3").Return([]byte("client-hello"), nil)
	sender.EXPECT().Send(gomock.Any(), protocol.EncryptionInitial, gomock.Any()).AnyTimes()
	require.NoError(t, c.Connect("h3"))

	srcConnID := protocol.ConnectionID{0x0b, 0x0b, 0x0b, 0x0b}
	first := buildRetryPacket(t, c.version, c.initialSrcConnID, srcConnID, origDestConnID, []byte{0x01, 0x02, 0x03})
	sender.EXPECT().SetInitialToken(gomock.Any()).Times(1)
	require.NoError(t, c.HandlePacket(first, time.Now()))

	second := buildRetryPacket(t, c.version, c.initialSrcConnID, srcConnID, origDestConnID, []byte{0x04, 0x05, 0x06})
	require.NoError(t, c.HandlePacket(second, time.Now()))
}

func TestHandleRetry_BadIntegrityTagRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	origDestConnID := protocol.ConnectionID{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
	c, sender, tls := newTestConnection(t, ctrl, origDestConnID)

	tls.EXPECT().StartHandshake("h3").Return([]byte("client-hello"), nil)
	sender.EXPECT().Send(gomock.Any(), protocol.EncryptionInitial, gomock.Any()).AnyTimes()
	require.NoError(t, c.Connect("h3"))

	srcConnID := protocol.ConnectionID{0x0b, 0x0b, 0x0b, 0x0b}
	packet := buildRetryPacket(t, c.version, c.initialSrcConnID, srcConnID, origDestConnID, []byte{0x01, 0x02, 0x03})
	packet[len(packet)-1] ^= 0xff // corrupt the tag

	err := c.HandlePacket(packet, time.Now())
	require.Error(t, err)
	assert.False(t, c.retryProcessed)
}

func TestCompleteHandshake_MissingOriginalDestConnID(t *testing.T) {
	ctrl := gomock.NewController(t)
	origDestConnID := protocol.ConnectionID{0x01, 0x02, 0x03, 0x04}
	c, sender, tls := newTestConnection(t, ctrl, origDestConnID)

	tls.EXPECT().StartHandshake("h3").Return([]byte("client-hello"), nil)
	sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	require.NoError(t, c.Connect("h3"))

	// Peer's transport parameters echo the right initial_source_connection_id
	// but are missing original_destination_connection_id, so ValidateForClient
	// fails; the connection closes immediately with TRANSPORT_PARAMETER_ERROR,
	// and the client has no 1-RTT keys yet, so the close must go out at the
	// Handshake encryption level.
	c.peerTP = &wire.TransportParameters{InitialSourceConnectionID: c.usedDestConnID}
	tls.EXPECT().HandleCryptoData(protocol.EncryptionHandshake, []byte("server-hello")).
		Return(nil, true, nil)
	sender.EXPECT().SendWithoutRetransmission(gomock.Any(), protocol.EncryptionHandshake).Times(1)

	err := c.handleCryptoFrame(&wire.CryptoFrame{Data: []byte("server-hello")}, protocol.EncryptionHandshake)
	require.Error(t, err)
	te, ok := err.(*qerr.TransportError)
	require.True(t, ok)
	assert.Equal(t, qerr.TransportParameterError, te.ErrorCode)
	assert.Equal(t, StateClosing, c.state)
}

func TestCreateStream_AssignsIncreasingClientIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	c, sender, tls := newTestConnection(t, ctrl, protocol.ConnectionID{0x01, 0x02, 0x03, 0x04})
	_ = sender
	_ = tls
	c.state = StateConnected

	s1, err := c.createStream(true)
	require.NoError(t, err)
	s2, err := c.createStream(true)
	require.NoError(t, err)

	assert.Equal(t, protocol.StreamID(0), s1.ID())
	assert.Equal(t, protocol.StreamID(4), s2.ID())
}

func TestHandleAckFrame_DeclaresOneLossPerGap(t *testing.T) {
	ctrl := gomock.NewController(t)
	c, sender, tls := newTestConnection(t, ctrl, protocol.ConnectionID{0x01, 0x02, 0x03, 0x04})
	_ = tls
	c.state = StateConnected

	lost := 0
	onLost := func(frames []wire.Frame) { lost++ }
	now := time.Now()
	sender.EXPECT().Send(gomock.Any(), protocol.Encryption1RTT, gomock.Any()).Times(4)
	for i := 0; i < 4; i++ {
		c.sendFrame(&wire.PingFrame{}, protocol.Encryption1RTT, onLost)
	}

	ack := &wire.AckFrame{AckRanges: []wire.AckRange{{Smallest: 1, Largest: 3}}}
	require.NoError(t, c.handleAckFrame(ack, protocol.Encryption1RTT, now.Add(time.Second)))

	assert.Equal(t, 1, lost)
}

func TestParseVersionNegotiationPacket(t *testing.T) {
	data := []byte{
		0xff, 0x00, 0x00, 0x00, 0x00,
		0x04, 0x0a, 0x0b, 0x0c, 0x0d,
		0x04, 0x0f, 0x0e, 0x0d, 0x0c,
		0xff, 0x00, 0x00, 0x18,
	}
	dest, src, versions, err := wire.ParseVersionNegotiationPacket(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.ConnectionID{0x0a, 0x0b, 0x0c, 0x0d}, dest)
	assert.Equal(t, protocol.ConnectionID{0x0f, 0x0e, 0x0d, 0x0c}, src)
	require.Len(t, versions, 1)
	assert.Equal(t, protocol.Version(0xff000018), versions[0])
}
