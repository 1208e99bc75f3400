package resolver

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
)

// contextBlock is the prompt-facing view of an instructional block. Missing
// scalars serialize as null and missing lists as [].
type contextBlock struct {
	ActivityID   *string  `json:"activity_id"`
	Page         *string  `json:"page"`
	Hook         *string  `json:"hook"`
	TeacherSteps []string `json:"teacher_steps"`
	LearnerTasks []string `json:"learner_tasks"`
	Examples     []string `json:"examples"`
	ShortNotes   string   `json:"short_notes"`
}

// contextText renders blocks as indented JSON for verbatim prompt injection.
func contextText(blocks []curriculum.InstructionalBlock) string {
	chunks := make([]contextBlock, 0, len(blocks))
	for _, b := range blocks {
		chunks = append(chunks, contextBlock{
			ActivityID:   optional(b.ActivityNumber),
			Page:         optional(b.Page),
			Hook:         optional(b.Hook),
			TeacherSteps: orEmpty(b.TeacherSteps),
			LearnerTasks: orEmpty(b.LearnerTasks),
			Examples:     orEmpty(b.Examples),
			ShortNotes:   b.ShortNotes,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
