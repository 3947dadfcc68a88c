package ingest

import (
	"strings"
)

var cellLineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\v", "\n")

// SplitCellLines splits a cell's raw text into its ordered sub-lines.
// Splitting happens only on embedded line breaks; each sub-line is
// trimmed and empty sub-lines are dropped. No merging or reinterpretation
// happens here.
func SplitCellLines(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(cellLineReplacer.Replace(raw), "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// whitespaceTokens flattens sub-lines and re-splits on any whitespace.
// Used to redistribute support-column values (unit, batch) when their
// sub-line count disagrees with the logical line count.
func whitespaceTokens(lines []string) []string {
	return strings.Fields(strings.Join(lines, " "))
}

// cellAt returns the cell text at the given column, tolerating the
// ragged rows excelize and csv readers produce.
func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
