// Package identity derives the stable identifiers the warehouse is keyed
// on. The same natural key always yields the same ID, which is what makes
// pipeline re-runs idempotent.
package identity

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

const missingPart = "unknown"

// DeriveID returns a deterministic identifier for a natural key. Empty or
// blank parts are replaced with a fixed placeholder before hashing so that
// missing fields still produce a consistent identity.
func DeriveID(parts ...string) string {
	canonical := make([]string, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			part = missingPart
		}
		canonical[i] = part
	}
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(canonical, "|"))).String()
}

// ContentHash returns the blake3-256 hex digest of text. Used as the
// enrichment cache key: a collision would serve another description's
// extraction, so this is a full cryptographic digest rather than the
// identity hash above.
func ContentHash(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
