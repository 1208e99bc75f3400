// Package lookup serves topic lookups: it fetches the module for a
// country/grade/subject, resolves the caller's queries, and attaches the
// citation the caller should use.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/audit"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/resolver"
)

// DefaultReference is cited when nothing in the module matched and the
// caller supplied no scheme reference.
const DefaultReference = "Standard Syllabus"

// Request asks for the subtopic matching the first resolvable query.
type Request struct {
	Key             curriculum.ModuleKey
	Queries         []string
	SchemeReference string
	RequestID       string
}

// Result is a MatchResult plus the module it was resolved against and the
// reference to cite.
type Result struct {
	resolver.MatchResult
	Module    string `json:"module"`
	Reference string `json:"reference"`
}

// ServiceConfig holds dependencies for the lookup service.
type ServiceConfig struct {
	Store  curriculum.Store
	Events audit.Logger // optional, defaults to audit.NopLogger
}

// Service resolves lookups against modules from a Store.
type Service struct {
	store  curriculum.Store
	events audit.Logger
}

// NewService creates a lookup service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	events := cfg.Events
	if events == nil {
		events = audit.NopLogger{}
	}
	return &Service{store: cfg.Store, events: events}, nil
}

// Lookup resolves req. A module that does not exist gives an unmatched
// Result, not an error; only store failures are returned.
func (s *Service) Lookup(ctx context.Context, req Request) (Result, error) {
	slug := req.Key.Slug()

	var match resolver.MatchResult
	module, err := s.store.GetModule(ctx, req.Key)
	switch {
	case err == nil:
		match = resolver.ResolveFirst(module, req.Queries...)
	case errors.Is(err, curriculum.ErrModuleNotFound):
		slog.Warn("curriculum module not found", "module", slug, "request_id", req.RequestID)
		match = resolver.MatchResult{Query: firstQuery(req.Queries)}
	default:
		return Result{}, fmt.Errorf("loading module %s: %w", slug, err)
	}

	result := Result{
		MatchResult: match,
		Module:      slug,
		Reference:   Reference(match, req.SchemeReference),
	}

	slog.Info("topic lookup",
		"module", slug,
		"request_id", req.RequestID,
		"found", match.Found,
		"score", match.MatchScore,
		"subtopic_id", match.SubtopicID,
	)

	if err := s.events.LogEvent(ctx, audit.Event{
		RequestID:  req.RequestID,
		ModuleSlug: slug,
		Query:      match.Query,
		Found:      match.Found,
		Score:      match.MatchScore,
		SubtopicID: match.SubtopicID,
	}); err != nil {
		slog.Warn("failed to record match event", "module", slug, "error", err)
	}

	return result, nil
}

// Reference returns the citation for a lookup. A match with known pages cites
// the module unit and pages; anything else cites schemeRef, or
// DefaultReference when that is empty.
func Reference(m resolver.MatchResult, schemeRef string) string {
	if m.Found && m.Pages != "" && m.Pages != "N/A" {
		unit := m.SubtopicID
		if unit == "" {
			unit = m.TopicID
		}
		if unit == "" {
			return fmt.Sprintf("Official Module, Page %s", m.Pages)
		}
		return fmt.Sprintf("Official Module Unit %s, Page %s", unit, m.Pages)
	}
	if schemeRef != "" {
		return schemeRef
	}
	return DefaultReference
}

func firstQuery(queries []string) string {
	for _, q := range queries {
		if q != "" {
			return q
		}
	}
	return ""
}
