package curriculum

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrModuleNotFound is returned by a Store when no module exists for a key.
var ErrModuleNotFound = errors.New("curriculum module not found")

// ModuleKey identifies the module for one country, grade and subject.
type ModuleKey struct {
	Country string
	Grade   string
	Subject string
}

// Slug returns the storage name, e.g. "zambia_grade8_mathematics".
func (k ModuleKey) Slug() string {
	grade := strings.TrimPrefix(slugPart(k.Grade), "grade")
	grade = strings.TrimPrefix(grade, "_")
	return slugPart(k.Country) + "_grade" + grade + "_" + slugPart(k.Subject)
}

var slugPattern = regexp.MustCompile(`^(.+?)_grade([^_]+)_(.+)$`)

// ParseSlug is the inverse of Slug. Country and subject keep their
// underscores.
func ParseSlug(slug string) (ModuleKey, error) {
	m := slugPattern.FindStringSubmatch(strings.ToLower(slug))
	if m == nil {
		return ModuleKey{}, fmt.Errorf("module name %q is not country_gradeN_subject", slug)
	}
	return ModuleKey{Country: m[1], Grade: m[2], Subject: m[3]}, nil
}

func slugPart(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// Store returns modules by key. Returned modules are shared snapshots and
// must not be modified by callers.
type Store interface {
	GetModule(ctx context.Context, key ModuleKey) (*Module, error)
}
