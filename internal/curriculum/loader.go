package curriculum

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Loader loads and caches module documents from the filesystem. Each file is
// keyed by its stem, so "zambia_grade8_mathematics.json" serves
// ModuleKey{"Zambia", "8", "Mathematics"}.
type Loader struct {
	rootDir string
	modules map[string]*Module
	mu      sync.RWMutex
}

// NewLoader creates a new module loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		modules: make(map[string]*Module),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading modules: %w", err)
	}

	slog.Info("curriculum modules loaded", "dir", rootDir, "modules", len(l.modules))
	return l, nil
}

// GetModule returns the module stored under key.Slug().
func (l *Loader) GetModule(_ context.Context, key ModuleKey) (*Module, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.modules[key.Slug()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, key.Slug())
	}
	return m, nil
}

// Slugs returns the names of all loaded modules in sorted order.
func (l *Loader) Slugs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	slugs := make([]string, 0, len(l.modules))
	for s := range l.modules {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

func (l *Loader) loadAll() error {
	return filepath.WalkDir(l.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isModuleFile(path) {
			return nil
		}

		m, err := LoadFile(path)
		if err != nil {
			slog.Warn("skipping invalid module file", "path", path, "error", err)
			return nil
		}

		l.mu.Lock()
		l.modules[FileSlug(path)] = m
		l.mu.Unlock()

		return nil
	})
}

// LoadFile reads and parses a single module document.
func LoadFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

func isModuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// FileSlug returns the module name a file is served under: its lower-cased
// stem.
func FileSlug(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
