package wire

import (
	"errors"
	"time"

	"github.com/johanvos/kwik/internal/protocol"
	"github.com/johanvos/kwik/quicvarint"
)

// AckRange is a contiguous range of acknowledged packet numbers.
type AckRange struct {
	Smallest protocol.PacketNumber
	Largest  protocol.PacketNumber
}

// Len returns the number of packet numbers the range covers.
func (r AckRange) Len() protocol.PacketNumber { return r.Largest - r.Smallest + 1 }

var errInvalidAckRanges = errors.New("AckFrame: invalid ACK ranges")

// An AckFrame carries the set of packet numbers the receiver has seen,
// expressed as the largest acknowledged plus a descending list of ranges
// (RFC 9000 §19.3).
type AckFrame struct {
	AckRanges []AckRange // sorted by descending Largest; AckRanges[0].Largest == largest acknowledged
	DelayTime time.Duration
	ECT0, ECT1, ECNCE uint64
	ECNCounts bool
}

// LargestAcked returns the largest acknowledged packet number.
func (f *AckFrame) LargestAcked() protocol.PacketNumber {
	return f.AckRanges[0].Largest
}

// SmallestAcked returns the smallest acknowledged packet number.
func (f *AckFrame) SmallestAcked() protocol.PacketNumber {
	return f.AckRanges[len(f.AckRanges)-1].Smallest
}

// AcksPacket reports whether p falls within any acknowledged range.
func (f *AckFrame) AcksPacket(p protocol.PacketNumber) bool {
	if p < f.SmallestAcked() || p > f.LargestAcked() {
		return false
	}
	for _, r := range f.AckRanges {
		if p > r.Largest {
			return false
		}
		if p >= r.Smallest {
			return true
		}
	}
	return false
}

func (f *AckFrame) Length(_ protocol.Version) protocol.ByteCount {
	largest := f.AckRanges[0].Largest
	firstRange := f.AckRanges[0].Len() - 1
	n := protocol.ByteCount(1) +
		quicvarint.Len(uint64(largest)) +
		quicvarint.Len(encodeAckDelay(f.DelayTime)) +
		quicvarint.Len(uint64(len(f.AckRanges)-1)) +
		quicvarint.Len(uint64(firstRange))
	smallest := f.AckRanges[0].Smallest
	for i := 1; i < len(f.AckRanges); i++ {
		gap := smallest - f.AckRanges[i].Largest - 2
		rangeLen := f.AckRanges[i].Len() - 1
		n += quicvarint.Len(uint64(gap)) + quicvarint.Len(uint64(rangeLen))
		smallest = f.AckRanges[i].Smallest
	}
	if f.ECNCounts {
		n += quicvarint.Len(f.ECT0) + quicvarint.Len(f.ECT1) + quicvarint.Len(f.ECNCE)
	}
	return n
}

func (f *AckFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	typ := byte(AckFrameType)
	if f.ECNCounts {
		typ = byte(AckECNFrameType)
	}
	b = append(b, typ)
	largest := f.AckRanges[0].Largest
	b = quicvarint.Append(b, uint64(largest))
	b = quicvarint.Append(b, encodeAckDelay(f.DelayTime))
	b = quicvarint.Append(b, uint64(len(f.AckRanges)-1))
	b = quicvarint.Append(b, uint64(f.AckRanges[0].Len()-1))
	smallest := f.AckRanges[0].Smallest
	for i := 1; i < len(f.AckRanges); i++ {
		gap := smallest - f.AckRanges[i].Largest - 2
		b = quicvarint.Append(b, uint64(gap))
		b = quicvarint.Append(b, uint64(f.AckRanges[i].Len()-1))
		smallest = f.AckRanges[i].Smallest
	}
	if f.ECNCounts {
		b = quicvarint.Append(b, f.ECT0)
		b = quicvarint.Append(b, f.ECT1)
		b = quicvarint.Append(b, f.ECNCE)
	}
	return b, nil
}

// ParseAckFrame parses an ACK or ACK_ECN frame; typeByte has already been
// consumed by the caller.
func ParseAckFrame(r quicvarint.Reader, typeByte byte, ackDelayExponent uint8) (*AckFrame, error) {
	f := &AckFrame{ECNCounts: FrameType(typeByte) == AckECNFrameType}
	largest, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	delay, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	f.DelayTime = decodeAckDelay(delay, ackDelayExponent)
	numRanges, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	firstRange, err := quicvarint.Read(r)
	if err != nil {
		return nil, err
	}
	if firstRange > largest {
		return nil, errInvalidAckRanges
	}
	smallest := protocol.PacketNumber(largest) - protocol.PacketNumber(firstRange)
	f.AckRanges = append(f.AckRanges, AckRange{Smallest: smallest, Largest: protocol.PacketNumber(largest)})
	for i := uint64(0); i < numRanges; i++ {
		gap, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		rangeLen, err := quicvarint.Read(r)
		if err != nil {
			return nil, err
		}
		newLargest := smallest - protocol.PacketNumber(gap) - 2
		newSmallest := newLargest - protocol.PacketNumber(rangeLen)
		if newSmallest > newLargest || newLargest >= smallest-1 {
			return nil, errInvalidAckRanges
		}
		f.AckRanges = append(f.AckRanges, AckRange{Smallest: newSmallest, Largest: newLargest})
		smallest = newSmallest
	}
	if f.ECNCounts {
		if f.ECT0, err = quicvarint.Read(r); err != nil {
			return nil, err
		}
		if f.ECT1, err = quicvarint.Read(r); err != nil {
			return nil, err
		}
		if f.ECNCE, err = quicvarint.Read(r); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// encodeAckDelay converts d into the microsecond count the wire carries,
// scaled down by protocol.DefaultAckDelayExponent (RFC 9000 §19.3.1), the
// exponent this client advertises for itself.
func encodeAckDelay(d time.Duration) uint64 {
	return uint64(d / time.Microsecond) >> protocol.DefaultAckDelayExponent
}

func decodeAckDelay(raw uint64, exponent uint8) time.Duration {
	return time.Duration(raw<<exponent) * time.Microsecond
}
