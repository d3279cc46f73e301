package kwik

import (
	"fmt"
	"sync"

	"github.com/johanvos/kwik/internal/flowcontrol"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

// StreamState tracks a stream's position in the half-closing lifecycle a
// client-only engine actually needs to observe: a stream moves from open to
// half-closed once this side has sent everything it intends to, and to
// closed once both directions (for a bidirectional stream) are done.
type StreamState uint8

const (
	StreamStateOpen StreamState = iota
	StreamStateHalfClosed
	StreamStateClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamStateOpen:
		return "open"
	case StreamStateHalfClosed:
		return "half-closed"
	case StreamStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream is a single QUIC stream opened by this client. It carries its own
// send offset and flow-control window; the connection it belongs to
// multiplexes its STREAM frames onto the wire and routes MAX_STREAM_DATA
// updates back into flowController.
type Stream struct {
	mu sync.Mutex

	id    protocol.StreamID
	typ   protocol.StreamType
	state StreamState

	conn           *Connection
	flowController *flowcontrol.StreamFlowController

	sendOffset protocol.ByteCount
}

// createStream implements open_stream(bidi) of §4.4: it assigns the next
// unused client-initiated stream ID of the requested type, in strictly
// increasing order four apart, and wires up a flow controller seeded from
// this client's own transport parameters (the receive side) and whatever
// send window the peer has granted so far (zero until transport parameters
// are applied, same as the connection-level controller).
func (c *Connection) createStream(bidi bool) (*Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return nil, fmt.Errorf("kwik: createStream called in state %s", c.state)
	}

	typ := protocol.StreamTypeUni
	if bidi {
		typ = protocol.StreamTypeBidi
	}
	var n uint64
	if bidi {
		n = c.nextBidiStream
		c.nextBidiStream++
	} else {
		n = c.nextUniStream
		c.nextUniStream++
	}
	id := protocol.ClientStreamID(typ, n)

	receiveWindow := c.localTP.InitialMaxStreamDataBidiLocal
	if !bidi {
		receiveWindow = c.localTP.InitialMaxStreamDataUni
	}
	initialSendWindow := protocol.ByteCount(0)
	if c.peerTP != nil {
		if bidi {
			initialSendWindow = c.peerTP.InitialMaxStreamDataBidiRemote
		} else {
			initialSendWindow = c.peerTP.InitialMaxStreamDataUni
		}
	}

	fc := flowcontrol.NewStreamFlowController(id, c.connFC, receiveWindow, protocol.DefaultMaxReceiveWindow, initialSendWindow, c.rttStats)
	s := &Stream{id: id, typ: typ, conn: c, flowController: fc}
	c.streams[id] = s
	return s, nil
}

// CreateStream is the exported entry point for createStream.
func (c *Connection) CreateStream(bidi bool) (*Stream, error) { return c.createStream(bidi) }

// ID returns the stream's assigned stream ID.
func (s *Stream) ID() protocol.StreamID { return s.id }

// Write sends data on the stream, splitting it into one STREAM frame per
// call and advancing the send offset. It blocks on neither the connection-
// nor stream-level flow-control window; callers needing backpressure should
// check those via the connection before calling.
func (s *Stream) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StreamStateClosed || s.state == StreamStateHalfClosed {
		return 0, fmt.Errorf("kwik: write on %s stream %d", s.state, s.id)
	}
	s.flowController.AddBytesSent(protocol.ByteCount(len(data)))
	offset := s.sendOffset
	s.sendOffset += protocol.ByteCount(len(data))

	f := &wire.StreamFrame{StreamID: s.id, Offset: offset, Data: data}
	s.conn.sendStreamFrame(f)
	return len(data), nil
}

// Close half-closes the stream: this side will send no further data. A
// bidirectional stream only fully closes once the peer's side has also
// finished, which this engine's Non-goals leave unobserved beyond the send
// direction.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StreamStateOpen {
		return nil
	}
	s.state = StreamStateHalfClosed
	f := &wire.StreamFrame{StreamID: s.id, Offset: s.sendOffset, Fin: true}
	s.conn.sendStreamFrame(f)
	return nil
}
