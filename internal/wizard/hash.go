package wizard

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashHeaderRow fingerprints a file's header row. Normalization is fixed so
// the same template survives re-export: each cell is trimmed, lowercased, and
// inner whitespace runs collapse to one space; cells join on a unit
// separator so cell boundaries stay unambiguous. Order-sensitive.
func HashHeaderRow(headerRow []string) string {
	parts := make([]string, 0, len(headerRow))
	for _, cell := range headerRow {
		parts = append(parts, strings.Join(strings.Fields(strings.ToLower(cell)), " "))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
