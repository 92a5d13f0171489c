package audit

// table.go — Markdown rendering of an audit report.

import (
	"fmt"
	"strings"
	"time"
)

const minColWidth = 3 // minimum separator width for a valid Markdown table (---)

// header is shared by the Markdown table and the XLSX sheet.
var header = []string{
	"File", "Strategy", "Pages", "Corrupted", "Chars", "Lines",
	"Spaced", "Printable", "Wordlike", "Links", "Warnings", "Duration", "Error",
}

func (row Row) cells() []string {
	errText := ""
	if row.Err != nil {
		errText = row.Err.Error()
	}
	return []string{
		row.Path,
		string(row.Strategy),
		fmt.Sprint(row.Pages),
		fmt.Sprint(row.Corrupted),
		fmt.Sprint(row.Chars),
		fmt.Sprint(row.Lines),
		fmt.Sprintf("%.2f", row.SpacedRatio),
		fmt.Sprintf("%.2f", row.PrintableRatio),
		fmt.Sprintf("%.2f", row.WordlikeRatio),
		fmt.Sprint(len(row.Links)),
		fmt.Sprint(len(row.Warnings)),
		row.Duration.Round(time.Millisecond).String(),
		errText,
	}
}

// Markdown renders the report as a heading and a GitHub-Flavored Markdown
// table, one row per document.
func (r *Report) Markdown() string {
	rows := make([][]string, 0, len(r.Rows)+1)
	rows = append(rows, header)
	for _, row := range r.Rows {
		rows = append(rows, row.cells())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Extraction audit %s\n\n", r.ID)
	fmt.Fprintf(&sb, "%d documents, %d failed\n\n", len(r.Rows), r.Failed())
	sb.WriteString(renderMarkdownTable(rows))
	return sb.String()
}

// renderMarkdownTable converts a [][]string into a GitHub-Flavored Markdown
// table. The first row is treated as the header. Each column is padded to the
// width of its widest cell (minimum minColWidth).
func renderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	maxCols := 0
	for _, row := range rows {
		maxCols = max(maxCols, len(row))
	}
	if maxCols == 0 {
		return ""
	}

	widths := make([]int, maxCols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range rows {
		for i, raw := range row {
			widths[i] = max(widths[i], len([]rune(escapeCell(raw))))
		}
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return escapeCell(row[col])
		}
		return ""
	}
	pad := func(s string, w int) string {
		if n := len([]rune(s)); n < w {
			return s + strings.Repeat(" ", w-n)
		}
		return s
	}
	writeRow := func(sb *strings.Builder, row []string) {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			sb.WriteString(" " + pad(cell(row, i), widths[i]) + " |")
		}
		sb.WriteByte('\n')
	}

	var sb strings.Builder
	writeRow(&sb, rows[0])
	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + strings.Repeat("-", widths[i]) + " |")
	}
	sb.WriteByte('\n')
	for _, row := range rows[1:] {
		writeRow(&sb, row)
	}
	return sb.String()
}

// escapeCell keeps a value on one table line without breaking the syntax.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
