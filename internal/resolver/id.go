package resolver

import (
	"regexp"
	"strings"
)

// A structural id needs at least one dot. Bare numbers are too easily page
// numbers or grades.
var dottedID = regexp.MustCompile(`\b(\d+(?:\.\d+)+)\b`)

// ExtractID returns the leftmost dotted identifier in s, e.g. "4.1.2" from
// "4.1.2 Describe the branches of chemistry".
//
// Only the first identifier is considered. A query naming two units
// ("4.1 and 4.2") resolves against the first.
func ExtractID(s string) (string, bool) {
	m := dottedID.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParentIDs returns the ancestors of a dotted id, nearest first:
// "4.1.2" gives ["4.1", "4"].
func ParentIDs(id string) []string {
	if !strings.Contains(id, ".") {
		return nil
	}
	parts := strings.Split(id, ".")
	parents := make([]string, 0, len(parts)-1)
	for i := len(parts) - 1; i > 0; i-- {
		parents = append(parents, strings.Join(parts[:i], "."))
	}
	return parents
}
