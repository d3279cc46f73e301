package protocol

import "fmt"

// Version is a QUIC version number, as sent on the wire.
type Version uint32

// The versions this client is able to speak.
const (
	VersionUnknown Version = 0
	VersionTLS     Version = 0x1 // reserved value used by some test vectors; never negotiated

	VersionDraft23 Version = 0xff000017
	VersionDraft24 Version = 0xff000018
	VersionDraft25 Version = 0xff000019
	VersionDraft26 Version = 0xff00001a
	VersionDraft27 Version = 0xff00001b
	VersionDraft28 Version = 0xff00001c
	VersionDraft29 Version = 0xff00001d
	VersionDraft30 Version = 0xff00001e
	VersionDraft31 Version = 0xff00001f
	VersionDraft32 Version = 0xff000020
	VersionDraft33 Version = 0xff000021
	VersionDraft34 Version = 0xff000022

	Version1 Version = 0x00000001
	Version2 Version = 0x6b3343cf
)

// MinSupportedVersion is the oldest draft version a client built against this
// engine will offer.
const MinSupportedVersion = VersionDraft23

// SupportedVersions lists the versions offered by this client, most
// preferred first.
var SupportedVersions = []Version{
	Version1,
	Version2,
	VersionDraft34,
	VersionDraft33,
	VersionDraft32,
	VersionDraft31,
	VersionDraft30,
	VersionDraft29,
	VersionDraft28,
	VersionDraft27,
	VersionDraft26,
	VersionDraft25,
	VersionDraft24,
	VersionDraft23,
}

// isReservedVersion reports whether v is one of the versions reserved by
// RFC 9000 section 15 to force version negotiation (0x?a?a?a?a).
func isReservedVersion(v Version) bool {
	return uint32(v)&0x0f0f0f0f == 0x0a0a0a0a
}

// IsVersionNegotiation reports whether v marks a Version Negotiation packet.
func IsVersionNegotiation(v Version) bool { return v == VersionUnknown }

// versionRank orders versions by release epoch rather than raw wire value:
// the draft versions' 0xff0000xx wire encoding sorts numerically above the
// released v1/v2 codepoints, which would otherwise make v1/v2 look older
// than every draft. Unrecognized versions rank below all of these.
func versionRank(v Version) int {
	switch v {
	case Version1:
		return 1000
	case Version2:
		return 1001
	}
	if v >= VersionDraft23 && v <= VersionDraft34 {
		return int(v) - 0xff000000
	}
	return -1
}

// AtLeast reports whether v is at least as new as other. Reserved
// (greasing) versions never compare as "at least" anything but themselves.
func (v Version) AtLeast(other Version) bool {
	if isReservedVersion(v) || isReservedVersion(other) {
		return v == other
	}
	return versionRank(v) >= versionRank(other)
}

// Before reports whether v predates other.
func (v Version) Before(other Version) bool {
	return !v.AtLeast(other) && v != other
}

// IsSupported reports whether v is at least MinSupportedVersion and is one
// this client knows how to speak.
func IsSupported(v Version) bool {
	for _, sv := range SupportedVersions {
		if sv == v {
			return true
		}
	}
	return false
}

func (v Version) String() string {
	switch v {
	case VersionUnknown:
		return "version negotiation"
	case Version1:
		return "v1"
	case Version2:
		return "v2"
	default:
		if v >= VersionDraft23 && v <= VersionDraft34 {
			return fmt.Sprintf("draft-%d", uint32(v)-0xff000000)
		}
		return fmt.Sprintf("%#x", uint32(v))
	}
}

// ParseVersionNegotiationPayload splits the list of 32-bit version numbers
// carried in a Version Negotiation packet's payload.
func ParseVersionNegotiationPayload(b []byte) ([]Version, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid version negotiation payload length: %d", len(b))
	}
	versions := make([]Version, 0, len(b)/4)
	for len(b) > 0 {
		v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		versions = append(versions, Version(v))
		b = b[4:]
	}
	return versions, nil
}
