package roster

import "strings"

var nameReplacer = strings.NewReplacer(" ", "_", "\u00a0", "_")

// NormalizeName returns the canonical form of a display name: surrounding
// whitespace is trimmed and every space or non-breaking space becomes '_'.
// Case is preserved.
func NormalizeName(raw string) string {
	return nameReplacer.Replace(strings.TrimSpace(raw))
}
