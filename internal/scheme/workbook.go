package scheme

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoTopicColumn is returned when a workbook has no topic or subtopic
// column to resolve, including a workbook with no header at all.
var ErrNoTopicColumn = errors.New("scheme has no topic or subtopic column")

const resultSheet = "Scheme"

// headerAliases maps normalized header text to Row fields.
var headerAliases = map[string]string{
	"week":        "week",
	"week_number": "week",
	"wk":          "week",
	"topic":       "topic",
	"theme":       "topic",
	"subtopic":    "subtopic",
	"sub_topic":   "subtopic",
	"unit":        "unit",
	"component":   "unit",
	"reference":   "reference",
	"references":  "reference",
	"refs":        "reference",
}

// ReadWorkbook reads rows from the first sheet of an xlsx workbook. The first
// non-empty row is the header; columns are matched by name, so their order
// and any extra columns do not matter.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}

	start := 0
	for start < len(cells) && blank(cells[start]) {
		start++
	}
	if start == len(cells) {
		return nil, ErrNoTopicColumn
	}

	columns := make(map[string]int)
	for i, h := range cells[start] {
		if field, ok := headerAliases[headerKey(h)]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	_, hasTopic := columns["topic"]
	_, hasSubtopic := columns["subtopic"]
	if !hasTopic && !hasSubtopic {
		return nil, ErrNoTopicColumn
	}

	cell := func(row []string, field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rows []Row
	for _, row := range cells[start+1:] {
		if blank(row) {
			continue
		}
		rows = append(rows, Row{
			Week:      cell(row, "week"),
			Topic:     cell(row, "topic"),
			Subtopic:  cell(row, "subtopic"),
			Unit:      cell(row, "unit"),
			Reference: cell(row, "reference"),
		})
	}
	return rows, nil
}

// WriteWorkbook writes resolved rows as a single-sheet xlsx workbook with the
// original columns followed by the match columns.
func WriteWorkbook(w io.Writer, resolved []Resolved) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := []any{
		"Week", "Topic", "Subtopic", "Unit", "Reference",
		"Found", "Score", "Matched Unit", "Matched Subtopic", "Pages", "Citation",
	}
	if err := f.SetSheetRow(resultSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range resolved {
		row := []any{
			r.Week, r.Topic, r.Subtopic, r.Unit, r.Reference,
			r.Match.Found, r.Match.MatchScore, r.Match.SubtopicID, r.Match.SubtopicTitle, r.Match.Pages, r.Citation,
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultSheet, cellName, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func headerKey(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
