// Package textproc post-processes raw OCR output: whitespace normalization
// and structure recovery (paragraphs, lists, table-like rows) from flat text.
package textproc

import (
	"regexp"
	"strings"
)

// StructuredData holds the structure recovered from flat OCR text.
// Every non-empty input line lands in exactly one of the three collections.
type StructuredData struct {
	Paragraphs []string   `json:"paragraphs"`
	Tables     [][]string `json:"tables"`
	Lists      []string   `json:"lists"`
}

// Precompiled patterns. Line classification checks these in a fixed order:
// list markers first, then delimiter-bearing lines, else paragraph text.
var (
	// "- item", "* item", "+ item", "• item"
	bulletRe = regexp.MustCompile(`^[-*+•]\s+`)

	// "1. item", "12) item"
	numberedRe = regexp.MustCompile(`^\d+[.)]\s+`)

	// Runs of whitespace that are not newlines.
	interWordSpaceRe = regexp.MustCompile(`[^\S\n]+`)

	// Spaces hugging a newline on either side.
	lineEdgeSpaceRe = regexp.MustCompile(` *\n *`)

	// Table cell delimiters: tabs and pipes.
	cellDelimRe = regexp.MustCompile(`[\t|]`)
)

// CleanText normalizes whitespace in OCR output. Runs of spaces and tabs
// collapse to a single space, newlines are preserved, and each line plus the
// whole string is trimmed. CleanText is idempotent.
func CleanText(text string) string {
	text = interWordSpaceRe.ReplaceAllString(text, " ")
	text = lineEdgeSpaceRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// ExtractStructure recovers paragraphs, lists, and table rows from flat
// recognized text in a single left-to-right pass. Blank lines are dropped.
// Consecutive plain lines accumulate into one paragraph; a list or table
// line flushes the accumulator first.
func ExtractStructure(text string) *StructuredData {
	data := &StructuredData{
		Paragraphs: []string{},
		Tables:     [][]string{},
		Lists:      []string{},
	}

	var paragraph strings.Builder
	flush := func() {
		if paragraph.Len() > 0 {
			data.Paragraphs = append(data.Paragraphs, paragraph.String())
			paragraph.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case bulletRe.MatchString(trimmed) || numberedRe.MatchString(trimmed):
			flush()
			data.Lists = append(data.Lists, trimmed)

		case strings.ContainsAny(trimmed, "\t|"):
			flush()
			data.Tables = append(data.Tables, splitCells(trimmed))

		default:
			if paragraph.Len() > 0 {
				paragraph.WriteByte(' ')
			}
			paragraph.WriteString(trimmed)
		}
	}
	flush()

	return data
}

// splitCells splits a table-like line on tabs and pipes, trimming each cell.
// Empty cells (from leading/trailing or doubled delimiters) are dropped.
func splitCells(line string) []string {
	parts := cellDelimRe.Split(line, -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
