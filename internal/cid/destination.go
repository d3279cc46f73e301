package cid

import (
	"fmt"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/wire"
)

type destinationCID struct {
	seq    uint64
	cid    protocol.ConnectionID
	token  *[16]byte
	status protocol.CIDStatus
}

// DestinationManager tracks the connection IDs the peer has issued for
// this client to address it by, and which one is currently in use.
type DestinationManager struct {
	active *destinationCID
	queued map[uint64]*destinationCID // NEW, not yet activated

	// largestRetirePriorTo is the highest retire_prior_to value seen across
	// every NEW_CONNECTION_ID frame so far. It only ever increases, so a
	// reordered frame carrying a smaller retire_prior_to can never lower
	// the threshold a later frame already advanced.
	largestRetirePriorTo uint64

	queue     QueueFrame
	connLevel protocol.EncryptionLevel
}

// NewDestinationManager seeds the manager with the CID used to address the
// peer before any NEW_CONNECTION_ID frame has been received (the server's
// source CID from its first Initial, or the post-Retry one).
func NewDestinationManager(initial protocol.ConnectionID, queue QueueFrame) *DestinationManager {
	return &DestinationManager{
		active:    &destinationCID{seq: 0, cid: initial, status: protocol.CIDStatusUsed},
		queued:    make(map[uint64]*destinationCID),
		queue:     queue,
		connLevel: protocol.Encryption1RTT,
	}
}

// Add processes a NEW_CONNECTION_ID frame from the peer: it retires any
// queued (not yet active) CID below the highest retire_prior_to seen so
// far, retires the active CID and activates the newly offered one if the
// active sequence number itself falls below that threshold, immediately
// retires the newly-offered CID if it arrives already below the
// threshold (a reordered frame), and otherwise just enqueues the new CID
// for later use.
func (m *DestinationManager) Add(f *wire.NewConnectionIDFrame) error {
	if f.RetirePriorTo > f.SequenceNumber {
		return fmt.Errorf("cid: NEW_CONNECTION_ID retire_prior_to %d exceeds sequence_number %d", f.RetirePriorTo, f.SequenceNumber)
	}
	if existing, ok := m.queued[f.SequenceNumber]; ok {
		if !existing.cid.Equal(f.ConnectionID) {
			return fmt.Errorf("cid: conflicting connection IDs for sequence %d", f.SequenceNumber)
		}
		return nil
	}
	if m.active.seq == f.SequenceNumber && !m.active.cid.Equal(f.ConnectionID) {
		return fmt.Errorf("cid: conflicting connection IDs for sequence %d", f.SequenceNumber)
	}

	if f.RetirePriorTo > m.largestRetirePriorTo {
		m.largestRetirePriorTo = f.RetirePriorTo
	}

	for seq := range m.queued {
		if seq < m.largestRetirePriorTo {
			m.retireDestinationConnectionID(seq)
			delete(m.queued, seq)
		}
	}

	token := f.StatelessResetToken
	if f.SequenceNumber < m.largestRetirePriorTo {
		m.retireDestinationConnectionID(f.SequenceNumber)
		return nil
	}

	if m.active.seq >= m.largestRetirePriorTo {
		m.queued[f.SequenceNumber] = &destinationCID{seq: f.SequenceNumber, cid: f.ConnectionID, token: &token, status: protocol.CIDStatusNew}
		return nil
	}

	oldActive := m.active.seq
	m.active = &destinationCID{seq: f.SequenceNumber, cid: f.ConnectionID, token: &token, status: protocol.CIDStatusUsed}
	m.retireDestinationConnectionID(oldActive)
	return nil
}

// Active returns the connection ID currently used to address the peer.
func (m *DestinationManager) Active() protocol.ConnectionID { return m.active.cid }

// retireDestinationConnectionID implements retire_destination_connection_id(seq):
// sends RETIRE_CONNECTION_ID(seq); the lost-callback re-enqueues the same
// frame, which is always safe since RETIRE is idempotent by sequence
// number at the peer.
func (m *DestinationManager) retireDestinationConnectionID(seq uint64) {
	var resend func([]wire.Frame)
	resend = func(_ []wire.Frame) {
		m.queue(&wire.RetireConnectionIDFrame{SequenceNumber: seq}, m.connLevel, resend)
	}
	m.queue(&wire.RetireConnectionIDFrame{SequenceNumber: seq}, m.connLevel, resend)
}
