package protocol

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
)

// MaxConnIDLen is the maximum length of a QUIC v1/v2 connection ID.
const MaxConnIDLen = 20

// DefaultConnIDLen is the length this engine picks for its own connection
// IDs when the caller does not request a specific length.
const DefaultConnIDLen = 4

// ConnectionID is an opaque connection identifier, 0 to MaxConnIDLen bytes.
type ConnectionID []byte

// GenerateConnectionID returns a cryptographically random connection ID of
// the given length.
func GenerateConnectionID(length int) (ConnectionID, error) {
	if length < 0 || length > MaxConnIDLen {
		return nil, fmt.Errorf("invalid connection ID length: %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return ConnectionID(b), nil
}

// ParseConnectionID wraps length bytes of data as a ConnectionID without
// copying; callers must not retain data past the enclosing packet buffer's
// lifetime unless they clone first.
func ParseConnectionID(data []byte) ConnectionID { return ConnectionID(data) }

// ReadConnectionID reads length bytes from r as a connection ID.
func ReadConnectionID(r io.Reader, length int) (ConnectionID, error) {
	if length == 0 {
		return ConnectionID{}, nil
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return ConnectionID(b), nil
}

func (c ConnectionID) Len() int          { return len(c) }
func (c ConnectionID) Bytes() []byte     { return []byte(c) }
func (c ConnectionID) Equal(o ConnectionID) bool { return bytes.Equal(c, o) }

func (c ConnectionID) String() string {
	if len(c) == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("%x", []byte(c))
}

// CIDStatus is the lifecycle status of a connection ID, per §3: it may only
// move forward NEW -> USED -> RETIRED.
type CIDStatus uint8

const (
	CIDStatusNew CIDStatus = iota
	CIDStatusUsed
	CIDStatusRetired
)

func (s CIDStatus) String() string {
	switch s {
	case CIDStatusNew:
		return "new"
	case CIDStatusUsed:
		return "used"
	case CIDStatusRetired:
		return "retired"
	default:
		return "unknown"
	}
}
