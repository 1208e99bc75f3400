// Package resolver matches a free-text scheme topic against a curriculum
// module and returns the subtopic's citation metadata and instructional
// content.
//
// Resolution is pure: it only reads the module it is given and keeps no
// state between calls, so it is safe for concurrent use.
package resolver

import (
	"math"
	"slices"
	"strings"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
)

const (
	// Threshold is the lowest score accepted as a match.
	Threshold = 0.45

	// idScore is only ever produced by an identifier match.
	idScore = 1.0

	// textScoreCeiling keeps identical titles just below an identifier match.
	textScoreCeiling = 0.999

	noPages = "N/A"
)

// MatchResult describes the subtopic a query resolved to. The zero value
// means no match.
type MatchResult struct {
	Found         bool     `json:"found"`
	Query         string   `json:"query,omitempty"`
	MatchScore    float64  `json:"match_score"`
	TopicTitle    string   `json:"topic_title,omitempty"`
	TopicID       string   `json:"topic_id,omitempty"`
	SubtopicTitle string   `json:"subtopic_title,omitempty"`
	SubtopicID    string   `json:"subtopic_id,omitempty"`
	Pages         string   `json:"pages,omitempty"`
	Competences   []string `json:"competences,omitempty"`
	ContextText   string   `json:"context_text,omitempty"`
}

type candidate struct {
	topic *curriculum.Topic
	sub   *curriculum.Subtopic
	score float64
	rank  int
}

// beats reports whether c should replace the current best. Equal candidates
// keep the earlier one, so document order decides ties.
func (c candidate) beats(best candidate) bool {
	if c.score != best.score {
		return c.score > best.score
	}
	return c.rank > best.rank
}

// Resolve finds the subtopic of module that best matches query.
//
// A subtopic whose id equals the query's dotted id, or is one of its
// ancestors, scores 1.0 and outranks any title similarity. Among identifier
// matches the exact id wins, then the nearest ancestor, wherever they sit in
// the document; unlike equal text scores, which keep the first seen.
// Otherwise the score is the similarity of the normalized query and title.
// Scores below Threshold, an empty module, or a nil module give a zero
// MatchResult.
func Resolve(module *curriculum.Module, query string) MatchResult {
	if module == nil || len(module.Topics) == 0 {
		return MatchResult{Query: query}
	}

	qID, hasID := ExtractID(query)
	var idRanks map[string]int
	if hasID {
		parents := ParentIDs(qID)
		idRanks = make(map[string]int, len(parents)+1)
		idRanks[qID] = len(parents) + 1
		for i, p := range parents {
			idRanks[p] = len(parents) - i
		}
	}
	qNorm := Normalize(query)

	var best candidate
	for ti := range module.Topics {
		topic := &module.Topics[ti]
		for si := range topic.SubTopics {
			sub := &topic.SubTopics[si]

			c := candidate{topic: topic, sub: sub}
			if rank, ok := idRanks[sub.ID]; ok {
				c.score, c.rank = idScore, rank
			} else {
				c.score = min(Similarity(qNorm, Normalize(sub.Title)), textScoreCeiling)
			}

			if c.beats(best) {
				best = c
			}
		}
	}

	if best.sub == nil || best.score < Threshold {
		return MatchResult{Query: query}
	}

	title := best.sub.Title
	if title == "" {
		title = best.sub.ID
	}

	return MatchResult{
		Found:         true,
		Query:         query,
		MatchScore:    math.Round(best.score*1000) / 1000,
		TopicTitle:    best.topic.Title,
		TopicID:       best.topic.ID,
		SubtopicTitle: title,
		SubtopicID:    best.sub.ID,
		Pages:         firstNonEmpty(best.sub.Page, best.topic.PageNumber, noPages),
		Competences:   slices.Clone(best.sub.Competences),
		ContextText:   contextText(best.sub.Blocks),
	}
}

// ResolveFirst tries each query in order, typically a subtopic and then its
// broader theme, and returns the first match. Blank queries are skipped.
func ResolveFirst(module *curriculum.Module, queries ...string) MatchResult {
	var last MatchResult
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		last = Resolve(module, q)
		if last.Found {
			return last
		}
	}
	return last
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
