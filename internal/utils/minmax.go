package utils

import "github.com/johanvos/kwik/internal/protocol"

// MinByteCount returns the smaller of a and b.
func MinByteCount(a, b protocol.ByteCount) protocol.ByteCount {
	if a < b {
		return a
	}
	return b
}

// MaxByteCount returns the larger of a and b.
func MaxByteCount(a, b protocol.ByteCount) protocol.ByteCount {
	if a > b {
		return a
	}
	return b
}
