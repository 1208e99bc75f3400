package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// labelPrefix matches leading labels such as "Unit 4.1 ", "Week 3: " or "2.1 ".
// The trailing whitespace is required, which keeps Normalize idempotent: its
// output never contains whitespace.
var labelPrefix = regexp.MustCompile(`(?i)^(?:(?:unit|topic|week)\s*)?[\d.]*[:\-]?\s+`)

// Normalize reduces a title to lower-case ASCII letters and digits after
// dropping any leading unit/topic/week label. Accents are folded first, so
// "Énergie" and "Energie" compare equal.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = labelPrefix.ReplaceAllString(s, "")

	// Transformers carry state, so each call builds its own chain.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
