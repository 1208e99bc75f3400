package lookup_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/audit"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/lookup"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/resolver"
)

type mapStore map[string]*curriculum.Module

func (s mapStore) GetModule(_ context.Context, key curriculum.ModuleKey) (*curriculum.Module, error) {
	m, ok := s[key.Slug()]
	if !ok {
		return nil, curriculum.ErrModuleNotFound
	}
	return m, nil
}

type failingStore struct{}

func (failingStore) GetModule(context.Context, curriculum.ModuleKey) (*curriculum.Module, error) {
	return nil, errors.New("connection reset")
}

var chemistryKey = curriculum.ModuleKey{Country: "Zambia", Grade: "10", Subject: "Chemistry"}

func newTestService(t *testing.T) (*lookup.Service, *audit.MemoryLogger) {
	t.Helper()
	store := mapStore{
		chemistryKey.Slug(): {Topics: []curriculum.Topic{{
			ID:         "4",
			Title:      "Introduction to Chemistry",
			PageNumber: "30",
			SubTopics: []curriculum.Subtopic{
				{
					ID:     "4.1",
					Title:  "Branches of Chemistry",
					Page:   "31",
					Blocks: []curriculum.InstructionalBlock{{ActivityNumber: "4.1.A", Hook: "What do chemists do?"}},
				},
				{Title: "Laboratory Apparatus"},
			},
		}}},
	}
	events := audit.NewMemoryLogger()
	svc, err := lookup.NewService(lookup.ServiceConfig{Store: store, Events: events})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, events
}

func TestNewService_NilStore(t *testing.T) {
	if _, err := lookup.NewService(lookup.ServiceConfig{}); err == nil {
		t.Fatal("NewService() should reject a nil store")
	}
}

func TestService_Lookup_Match(t *testing.T) {
	svc, events := newTestService(t)

	got, err := svc.Lookup(t.Context(), lookup.Request{
		Key:             chemistryKey,
		Queries:         []string{"4.1 Branches of chemistry", "Introduction to Chemistry"},
		SchemeReference: "Grade 10 Pupil's Book",
		RequestID:       "req-42",
	})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if !got.Found || got.SubtopicID != "4.1" {
		t.Fatalf("Lookup() = %+v, want match on 4.1", got.MatchResult)
	}
	if got.Reference != "Official Module Unit 4.1, Page 31" {
		t.Errorf("Reference = %q", got.Reference)
	}
	if got.ContextText == "" {
		t.Error("ContextText should be set on a match")
	}
	if got.Module != "zambia_grade10_chemistry" {
		t.Errorf("Module = %q", got.Module)
	}

	logged := events.Events()
	if len(logged) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(logged))
	}
	if logged[0].RequestID != "req-42" || !logged[0].Found || logged[0].SubtopicID != "4.1" {
		t.Errorf("event = %+v", logged[0])
	}
}

func TestService_Lookup_ThemeFallback(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Lookup(t.Context(), lookup.Request{
		Key:     chemistryKey,
		Queries: []string{"quantum field theory", "Laboratory apparatus"},
	})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !got.Found || got.SubtopicTitle != "Laboratory Apparatus" {
		t.Fatalf("Lookup() = %+v, want theme match", got.MatchResult)
	}
	// A subtopic without id or page cites its topic.
	if got.Reference != "Official Module Unit 4, Page 30" {
		t.Errorf("Reference = %q", got.Reference)
	}
}

func TestService_Lookup_NoMatch(t *testing.T) {
	svc, events := newTestService(t)

	got, err := svc.Lookup(t.Context(), lookup.Request{
		Key:             chemistryKey,
		Queries:         []string{"medieval poetry"},
		SchemeReference: "Grade 10 Pupil's Book",
	})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Found {
		t.Fatal("Found = true, want false")
	}
	if got.Reference != "Grade 10 Pupil's Book" {
		t.Errorf("Reference = %q, want scheme reference", got.Reference)
	}
	if got.ContextText != "" {
		t.Error("ContextText should be empty without a match")
	}
	if len(events.Events()) != 1 {
		t.Error("unmatched lookups should still be recorded")
	}
}

func TestService_Lookup_ModuleNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Lookup(t.Context(), lookup.Request{
		Key:     curriculum.ModuleKey{Country: "Kenya", Grade: "10", Subject: "Chemistry"},
		Queries: []string{"4.1"},
	})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Found {
		t.Error("Found = true, want false")
	}
	if got.Reference != lookup.DefaultReference {
		t.Errorf("Reference = %q, want %q", got.Reference, lookup.DefaultReference)
	}
	if got.Query != "4.1" {
		t.Errorf("Query = %q, want 4.1", got.Query)
	}
}

func TestService_Lookup_StoreError(t *testing.T) {
	svc, err := lookup.NewService(lookup.ServiceConfig{Store: failingStore{}})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if _, err := svc.Lookup(t.Context(), lookup.Request{Key: chemistryKey, Queries: []string{"4.1"}}); err == nil {
		t.Fatal("Lookup() should return store errors")
	}
}

func TestReference(t *testing.T) {
	tests := []struct {
		name      string
		match     resolver.MatchResult
		schemeRef string
		want      string
	}{
		{"match with pages", resolver.MatchResult{Found: true, SubtopicID: "4.1", Pages: "31"}, "", "Official Module Unit 4.1, Page 31"},
		{"topic id fallback", resolver.MatchResult{Found: true, TopicID: "4", Pages: "30"}, "", "Official Module Unit 4, Page 30"},
		{"no unit", resolver.MatchResult{Found: true, Pages: "30"}, "", "Official Module, Page 30"},
		{"match without pages", resolver.MatchResult{Found: true, SubtopicID: "4.1", Pages: "N/A"}, "Book p.5", "Book p.5"},
		{"no match", resolver.MatchResult{}, "Book p.5", "Book p.5"},
		{"no match no scheme", resolver.MatchResult{}, "", "Standard Syllabus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lookup.Reference(tt.match, tt.schemeRef); got != tt.want {
				t.Errorf("Reference() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult_JSON(t *testing.T) {
	r := lookup.Result{
		MatchResult: resolver.MatchResult{Found: true, MatchScore: 1, SubtopicID: "4.1"},
		Module:      "zambia_grade10_chemistry",
		Reference:   "Official Module Unit 4.1, Page 31",
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	json.Unmarshal(data, &fields)
	for _, key := range []string{"found", "match_score", "subtopic_id", "module", "reference"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("JSON missing %q: %s", key, data)
		}
	}
}
