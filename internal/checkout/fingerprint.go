package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"agentshop/internal/domain"
)

const fingerprintLen = 16

// Fingerprint derives a short deterministic digest of cart contents. Two carts
// with the same multiset of lines produce the same value regardless of line
// order; any change to quantity, price, or membership changes it.
//
// The digest is truncated: it is a staleness/tamper signal for a single
// short-lived credential, not a cryptographic integrity guarantee. Callers
// compare fingerprints only for equality.
func Fingerprint(lines []domain.CartLine) string {
	sorted := make([]domain.CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ItemID < sorted[j].ItemID
	})

	var b strings.Builder
	for i, line := range sorted {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%s:%d:%d", line.ItemID, line.Quantity, line.UnitPriceCents)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
