// Package cid implements the connection-ID manager of §4.7: the set of
// source CIDs this client has issued to the peer, and the set of
// destination CIDs the peer has issued to it, each moving through the
// NEW -> USED -> RETIRED lifecycle of protocol.CIDStatus.
package cid

import (
	"crypto/rand"
	"fmt"

	"github.com/johanvos/kwik/internal/ackhandler"
	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/internal/qerr"
	"github.com/johanvos/kwik/internal/wire"
)

type sourceCID struct {
	seq    uint64
	cid    protocol.ConnectionID
	token  [16]byte
	status protocol.CIDStatus
}

// QueueFrame enqueues f for transmission at encLevel; onLost is invoked if
// the packet carrying it is declared lost, so the caller can decide
// whether to retransmit.
type QueueFrame func(f wire.Frame, encLevel protocol.EncryptionLevel, onLost ackhandler.LostCallback)

// SourceManager issues and tracks the connection IDs this client has given
// the peer permission to address it by.
type SourceManager struct {
	nextSeq               uint64
	cids                  map[uint64]*sourceCID
	activeConnIDLimit     uint64
	queue                 QueueFrame
	connLevel             protocol.EncryptionLevel
	connIDLen             int
}

// NewSourceManager seeds the manager with the connection ID carried in the
// first Initial packet, at sequence 0 and in state NEW until a packet
// addressed to it arrives. Every CID issued later has the same length.
func NewSourceManager(initial protocol.ConnectionID, queue QueueFrame) *SourceManager {
	m := &SourceManager{
		connIDLen:         initial.Len(),
		cids:              make(map[uint64]*sourceCID),
		activeConnIDLimit: 2,
		queue:             queue,
		connLevel:         protocol.Encryption1RTT,
	}
	m.cids[0] = &sourceCID{seq: 0, cid: initial, status: protocol.CIDStatusNew}
	m.nextSeq = 1
	return m
}

// SetActiveConnectionIDLimit records the peer's active_connection_id_limit
// transport parameter, capping how many unretired CIDs this client may
// have outstanding.
func (m *SourceManager) SetActiveConnectionIDLimit(n uint64) {
	if n > 0 {
		m.activeConnIDLimit = n
	}
}

// NewConnectionIDs implements new_connection_ids(count, retire_prior_to):
// generates count new source CIDs with increasing sequence numbers,
// schedules a NEW_CONNECTION_ID frame for each, and returns their bytes.
func (m *SourceManager) NewConnectionIDs(count int, retirePriorTo uint64) ([]protocol.ConnectionID, error) {
	out := make([]protocol.ConnectionID, 0, count)
	for i := 0; i < count; i++ {
		raw, err := protocol.GenerateConnectionID(m.connIDLen)
		if err != nil {
			return out, err
		}
		var token [16]byte
		if _, err := rand.Read(token[:]); err != nil {
			return out, err
		}
		seq := m.nextSeq
		m.nextSeq++
		sc := &sourceCID{seq: seq, cid: raw, token: token, status: protocol.CIDStatusNew}
		m.cids[seq] = sc
		m.queue(&wire.NewConnectionIDFrame{
			SequenceNumber:      seq,
			RetirePriorTo:       retirePriorTo,
			ConnectionID:        raw,
			StatelessResetToken: token,
		}, m.connLevel, nil)
		out = append(out, raw)
	}
	m.retirePriorTo(retirePriorTo)
	return out, nil
}

func (m *SourceManager) retirePriorTo(seq uint64) {
	for s, sc := range m.cids {
		if s < seq && sc.status != protocol.CIDStatusRetired {
			sc.status = protocol.CIDStatusRetired
		}
	}
}

// OnPacketReceived implements §4.7's "receiving a packet with a
// previously-unused local CID" rule: the first time a packet addressed to
// usedCID arrives, it is marked USED, and if the peer's
// active_connection_id_limit is not yet saturated, one replacement CID is
// generated and announced. A packet on an already-used CID has no effect.
func (m *SourceManager) OnPacketReceived(usedCID protocol.ConnectionID) error {
	for _, sc := range m.cids {
		if !sc.cid.Equal(usedCID) {
			continue
		}
		if sc.status == protocol.CIDStatusUsed {
			return nil
		}
		if sc.status == protocol.CIDStatusRetired {
			return fmt.Errorf("cid: packet received on retired connection ID %s", usedCID)
		}
		sc.status = protocol.CIDStatusUsed
		if uint64(m.activeCount()) < m.activeConnIDLimit {
			if _, err := m.NewConnectionIDs(1, 0); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// Retire implements §4.3's RetireConnectionIdFrame handling for a local
// (source) CID: the peer is telling this client it will no longer address
// it by seq. It is marked RETIRED; if that drops the number of live local
// CIDs below the peer's active_connection_id_limit, one replacement CID is
// issued, the same replenishment OnPacketReceived performs. A sequence
// number this client never issued (seq >= nextSeq) is a protocol violation.
func (m *SourceManager) Retire(seq uint64) error {
	if seq >= m.nextSeq {
		return qerr.NewLocalError(qerr.ProtocolViolation, fmt.Sprintf("RETIRE_CONNECTION_ID for sequence %d, but only %d issued", seq, m.nextSeq))
	}
	sc, ok := m.cids[seq]
	if !ok {
		return nil
	}
	if sc.status == protocol.CIDStatusRetired {
		return nil
	}
	sc.status = protocol.CIDStatusRetired
	if uint64(m.activeCount()) < m.activeConnIDLimit {
		if _, err := m.NewConnectionIDs(1, 0); err != nil {
			return err
		}
	}
	return nil
}

func (m *SourceManager) activeCount() int {
	n := 0
	for _, sc := range m.cids {
		if sc.status != protocol.CIDStatusRetired {
			n++
		}
	}
	return n
}
