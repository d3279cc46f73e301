package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_V1AndV2AreAtLeastEveryDraft(t *testing.T) {
	assert.True(t, Version1.AtLeast(VersionDraft23))
	assert.True(t, Version1.AtLeast(VersionDraft34))
	assert.True(t, Version2.AtLeast(VersionDraft23))
	assert.False(t, Version1.Before(MinSupportedVersion))
	assert.False(t, Version2.Before(MinSupportedVersion))
}

func TestVersion_DraftOrderingUnaffected(t *testing.T) {
	assert.True(t, VersionDraft24.AtLeast(VersionDraft23))
	assert.False(t, VersionDraft23.AtLeast(VersionDraft24))
	assert.True(t, VersionDraft23.Before(VersionDraft24))
}

func TestVersion_ReservedVersionOnlyEqualsItself(t *testing.T) {
	reserved := Version(0x1a2a3a4a)
	assert.True(t, reserved.AtLeast(reserved))
	assert.False(t, reserved.AtLeast(Version1))
	assert.False(t, Version1.AtLeast(reserved))
}
