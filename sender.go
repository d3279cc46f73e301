package kwik

import (
	"github.com/johanvos/kwik/internal/ackhandler"
	"github.com/johanvos/kwik/internal/congestion"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

// Sender is the façade the connection hands outgoing frames to; per §6 it
// may run on its own task, reading a queue of (frame, encryption_level,
// lost_callback) and batching them into datagrams.
type Sender interface {
	// Send enqueues f for transmission at encLevel. onLost, if non-nil, is
	// invoked with f's carrying packet's frame list if that packet is
	// later declared lost.
	Send(f wire.Frame, encLevel protocol.EncryptionLevel, onLost ackhandler.LostCallback)
	// SendWithoutRetransmission enqueues f without retransmission
	// bookkeeping, used for ConnectionClose.
	SendWithoutRetransmission(f wire.Frame, encLevel protocol.EncryptionLevel)
	// SetInitialToken stamps the Retry token onto subsequent Initial
	// packets.
	SetInitialToken(token []byte)
	// CongestionController exposes read-only access to the congestion
	// controller driving this connection's Initial/Handshake/Application
	// sends.
	CongestionController() congestion.Controller
}
