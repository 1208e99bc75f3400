// Package scheme reads a school scheme of work, resolves each week
// against a curriculum module, and writes the annotated scheme back out.
package scheme

import (
	"strconv"
	"strings"

	"github.com/spinkonweb-dotcom/booxclash-pro/internal/curriculum"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/lookup"
	"github.com/spinkonweb-dotcom/booxclash-pro/internal/resolver"
)

// Row is one week of a scheme of work.
type Row struct {
	Week      string
	Topic     string
	Subtopic  string
	Unit      string
	Reference string
}

// Queries returns the resolver queries for the row, most specific first.
func (r Row) Queries() []string {
	return []string{r.Subtopic, r.Unit, r.Topic}
}

// Resolved is a row together with its match.
type Resolved struct {
	Row
	Match    resolver.MatchResult
	Citation string
}

// FindWeek returns the first row for week. A row matches when its week
// cell is the bare number or reads like "Week 3" or "week 3 (term 1)".
func FindWeek(rows []Row, week int) (Row, bool) {
	key := strconv.Itoa(week)
	for _, r := range rows {
		if weekKey(r.Week) == key {
			return r, true
		}
	}
	return Row{}, false
}

func weekKey(cell string) string {
	s := strings.TrimSpace(strings.ToLower(cell))
	s = strings.TrimSpace(strings.TrimPrefix(s, "week"))
	if fields := strings.Fields(s); len(fields) > 0 {
		return strings.TrimRight(fields[0], ":.-")
	}
	return ""
}

// ResolveRows matches every row against module.
func ResolveRows(module *curriculum.Module, rows []Row) []Resolved {
	out := make([]Resolved, 0, len(rows))
	for _, r := range rows {
		m := resolver.ResolveFirst(module, r.Queries()...)
		out = append(out, Resolved{
			Row:      r,
			Match:    m,
			Citation: lookup.Reference(m, r.Reference),
		})
	}
	return out
}
