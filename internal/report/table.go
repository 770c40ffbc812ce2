package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	columnSep = " | "
	ruleSep   = "-+-"
)

// formatTable lays out headers and rows in fixed-width columns separated by
// " | ", with a rule under the header.
func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+2)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, nil))
		lines = append(lines, formatRule(widths))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString(columnSep)
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func formatRule(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, ruleSep)
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
