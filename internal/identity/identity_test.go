package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIDDeterministic(t *testing.T) {
	first := DeriveID("remotive", "12345")
	second := DeriveID("remotive", "12345")
	assert.Equal(t, first, second)
}

func TestDeriveIDDistinguishesSources(t *testing.T) {
	assert.NotEqual(t, DeriveID("remotive", "123"), DeriveID("remoteok", "123"))
}

func TestDeriveIDDistinguishesParts(t *testing.T) {
	assert.NotEqual(t, DeriveID("Acme Corp"), DeriveID("Acme"))
}

func TestDeriveIDBlankPartsUsePlaceholder(t *testing.T) {
	assert.Equal(t, DeriveID(""), DeriveID("unknown"))
	assert.Equal(t, DeriveID("  "), DeriveID("unknown"))
	assert.Equal(t, DeriveID("remotive", ""), DeriveID("remotive", "unknown"))
}

func TestDeriveIDTrimsWhitespace(t *testing.T) {
	assert.Equal(t, DeriveID(" Acme "), DeriveID("Acme"))
}

func TestDeriveIDIsUUID(t *testing.T) {
	id := DeriveID("remotive", "99")
	assert.Len(t, id, 36)
	assert.Equal(t, byte('-'), id[8])
}

func TestContentHashDeterministic(t *testing.T) {
	assert.Equal(t, ContentHash("build data pipelines"), ContentHash("build data pipelines"))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}

func TestContentHashLength(t *testing.T) {
	// blake3-256 hex digest.
	assert.Len(t, ContentHash(""), 64)
}
