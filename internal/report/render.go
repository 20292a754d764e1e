package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

var columns = []string{"mount_name", "n_chunks", "duration_ms", "filesize", "spec", "speed_mb_s", "rel_duration"}

// renderRows prints one bordered fixed-width table. At most limit rows are
// shown; anything beyond is summarized in a trailing line so the output
// stays bounded (limit <= 0 disables eliding).
func renderRows(w io.Writer, rows []Row, limit int) {
	omitted := 0
	if limit > 0 && len(rows) > limit {
		omitted = len(rows) - limit
		rows = rows[:limit]
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.MountName,
			strconv.Itoa(r.NChunks),
			formatFloat(r.DurationMS),
			strconv.FormatInt(r.Filesize, 10),
			r.Spec,
			formatFloat(r.SpeedMBs),
			formatFloat(r.RelDuration),
		})
	}
	widths := columnWidths(columns, cells)
	border := buildBorder(widths)
	fmt.Fprintln(w, border)
	fmt.Fprintln(w, buildRow(columns, widths))
	fmt.Fprintln(w, border)
	for _, row := range cells {
		fmt.Fprintln(w, buildRow(row, widths))
	}
	fmt.Fprintln(w, border)
	if omitted > 0 {
		fmt.Fprintf(w, "(%d more rows)\n", omitted)
	}
}

// formatFloat uses the shortest decimal form, so derived integers print
// without a fraction and non-finite values print as +Inf/-Inf/NaN.
func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func buildBorder(widths []int) string {
	var b strings.Builder
	b.WriteString("+")
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteString("+")
	}
	return b.String()
}

func buildRow(values []string, widths []int) string {
	var b strings.Builder
	b.WriteString("|")
	for i, width := range widths {
		cell := ""
		if i < len(values) {
			cell = values[i]
		}
		b.WriteString(" ")
		b.WriteString(padRight(cell, width))
		b.WriteString(" |")
	}
	return b.String()
}

func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func separator(width int) string {
	return strings.Repeat("-", width)
}
