package output

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ansiPattern matches SGR color sequences so colored cells align.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ellipsis marks a truncated cell.
const ellipsis = "..."

// Table renders aligned columns for text output.
type Table struct {
	headers  []string
	rows     [][]string
	right    map[int]bool
	maxWidth map[int]int
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		right:    make(map[int]bool),
		maxWidth: make(map[int]int),
	}
}

// AlignRight right-aligns the given columns. Use it for amounts.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Truncate caps column col at width characters, cutting longer cells
// with an ellipsis.
func (t *Table) Truncate(col, width int) *Table {
	if width > len(ellipsis) {
		t.maxWidth[col] = width
	}
	return t
}

// AddRow adds a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = t.fit(i, c)
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a rule, and every row to w.
func (t *Table) Render(w io.Writer) error {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return nil
	}

	widths := t.widths()
	var sb strings.Builder
	if len(t.headers) > 0 {
		t.writeRow(&sb, t.headers, widths)
		rule := make([]string, len(widths))
		for i, n := range widths {
			rule[i] = strings.Repeat("-", n)
		}
		t.writeRow(&sb, rule, widths)
	}
	for _, row := range t.rows {
		t.writeRow(&sb, row, widths)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the rendered table.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table) fit(col int, cell string) string {
	limit, ok := t.maxWidth[col]
	if !ok || visibleWidth(cell) <= limit {
		return cell
	}
	plain := []rune(ansiPattern.ReplaceAllString(cell, ""))
	return string(plain[:limit-len(ellipsis)]) + ellipsis
}

func (t *Table) widths() []int {
	cols := len(t.headers)
	for _, row := range t.rows {
		cols = max(cols, len(row))
	}

	widths := make([]int, cols)
	for i, h := range t.headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], visibleWidth(cell))
		}
	}
	return widths
}

func (t *Table) writeRow(sb *strings.Builder, cells []string, widths []int) {
	var line strings.Builder
	for i, width := range widths {
		if i > 0 {
			line.WriteString("  ")
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-visibleWidth(cell))
		if t.right[i] {
			line.WriteString(pad + cell)
		} else {
			line.WriteString(cell + pad)
		}
	}
	sb.WriteString(strings.TrimRight(line.String(), " "))
	sb.WriteByte('\n')
}

func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiPattern.ReplaceAllString(s, ""))
}
