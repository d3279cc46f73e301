package wire

import (
	"errors"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

var errInvalidNewConnectionIDFrame = errors.New("NewConnectionIDFrame: invalid connection ID length")

// A NewConnectionIDFrame offers the peer a new connection ID to address
// this endpoint with, along with its stateless reset token (RFC 9000
// §19.15).
type NewConnectionIDFrame struct {
	SequenceNumber      uint64
	RetirePriorTo       uint64
	ConnectionID        protocol.ConnectionID
	StatelessResetToken [16]byte
}

func (f *NewConnectionIDFrame) Length(_ protocol.Version) protocol.ByteCount {
	return 1 + quicvarint.Len(f.SequenceNumber) + quicvarint.Len(f.RetirePriorTo) + 1 +
		protocol.ByteCount(f.ConnectionID.Len()) + 16
}

func (f *NewConnectionIDFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	if f.ConnectionID.Len() < 1 || f.ConnectionID.Len() > protocol.MaxConnIDLen {
		return nil, errInvalidNewConnectionIDFrame
	}
	b = append(b, byte(NewConnectionIDFrameType))
	b = quicvarint.Append(b, f.SequenceNumber)
	b = quicvarint.Append(b, f.RetirePriorTo)
	b = append(b, byte(f.ConnectionID.Len()))
	b = append(b, f.ConnectionID.Bytes()...)
	return append(b, f.StatelessResetToken[:]...), nil
}

func ParseNewConnectionIDFrame(r quicvarint.Reader, _ protocol.Version) (*NewConnectionIDFrame, error) {
	seq, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	retirePriorTo, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	if retirePriorTo > seq {
		return nil, errors.New("NewConnectionIDFrame: retire_prior_to exceeds sequence_number")
	}
	cidLen, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if cidLen < 1 || int(cidLen) > protocol.MaxConnIDLen {
		return nil, errInvalidNewConnectionIDFrame
	}
	cid := make(protocol.ConnectionID, cidLen)
	if _, err := readFull(r, cid); err != nil {
		return nil, err
	}
	f := &NewConnectionIDFrame{SequenceNumber: seq, RetirePriorTo: retirePriorTo, ConnectionID: cid}
	if _, err := readFull(r, f.StatelessResetToken[:]); err != nil {
		return nil, err
	}
	return f, nil
}
