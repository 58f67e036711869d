// Package terminal renders list view-models as plain terminal tables.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/listview"
)

const (
	defaultMaxCell = 32
	columnGap      = "  "
)

var badgeColors = map[string]lipgloss.Color{
	"badge-success":   lipgloss.Color("2"),
	"badge-danger":    lipgloss.Color("1"),
	"badge-warning":   lipgloss.Color("3"),
	"badge-info":      lipgloss.Color("6"),
	"badge-secondary": lipgloss.Color("8"),
	"badge-gray":      lipgloss.Color("8"),
	"badge-dark":      lipgloss.Color("8"),
}

// Renderer writes listview.Table values to a terminal. Colours follow the
// capabilities of the writer, so piping to a file yields plain text.
type Renderer struct {
	out      io.Writer
	lg       *lipgloss.Renderer
	maxCell  int
	header   lipgloss.Style
	muted    lipgloss.Style
	errStyle lipgloss.Style
}

// New returns a Renderer writing to w.
func New(w io.Writer) *Renderer {
	lg := lipgloss.NewRenderer(w)
	return &Renderer{
		out:      w,
		lg:       lg,
		maxCell:  defaultMaxCell,
		header:   lg.NewStyle().Bold(true),
		muted:    lg.NewStyle().Foreground(lipgloss.Color("8")),
		errStyle: lg.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// WithMaxCell caps the printed width of a single cell.
func (r *Renderer) WithMaxCell(width int) *Renderer {
	if width > 3 {
		r.maxCell = width
	}
	return r
}

// Table prints the header, one line per row and the pagination footer.
func (r *Renderer) Table(t listview.Table) error {
	headers := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		headers = append(headers, c.Label)
	}
	headers = append(headers, "Actions")

	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		line := make([]string, 0, len(headers))
		for _, cell := range row.Cells {
			line = append(line, r.truncate(cellText(cell)))
		}
		for len(line) < len(headers)-1 {
			line = append(line, "")
		}
		line = append(line, actionLabels(row.Actions))
		rows = append(rows, line)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, line := range rows {
		for i, text := range line {
			widths[i] = max(widths[i], lipgloss.Width(text))
		}
	}

	var b strings.Builder
	b.WriteString(r.line(headers, widths, func(int, string) lipgloss.Style { return r.header }))
	b.WriteByte('\n')

	switch {
	case t.Error != "":
		b.WriteString(r.errStyle.Render("error: " + t.Error))
		b.WriteByte('\n')
	case t.Empty || len(t.Rows) == 0:
		b.WriteString(r.muted.Render(t.EmptyText))
		b.WriteByte('\n')
	default:
		for i, line := range rows {
			cells := t.Rows[i].Cells
			b.WriteString(r.line(line, widths, func(col int, _ string) lipgloss.Style {
				if col < len(cells) && cells[col].Badge != nil {
					return r.badge(*cells[col].Badge)
				}
				return r.lg.NewStyle()
			}))
			b.WriteByte('\n')
		}
	}

	if t.Error == "" {
		footer := t.PageInfo()
		if t.Pagination.TotalPages > 1 {
			footer += fmt.Sprintf(" · page %d of %d", t.Pagination.Page, t.Pagination.TotalPages)
		}
		b.WriteString(r.muted.Render(footer))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *Renderer) line(cells []string, widths []int, style func(int, string) lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, text := range cells {
		padded := text + strings.Repeat(" ", widths[i]-lipgloss.Width(text))
		if i == len(cells)-1 {
			padded = text
		}
		parts[i] = style(i, text).Render(padded)
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ")
}

func (r *Renderer) badge(b actions.Badge) lipgloss.Style {
	style := r.lg.NewStyle()
	if color, ok := badgeColors[b.Class]; ok {
		style = style.Foreground(color)
	}
	return style
}

func (r *Renderer) truncate(text string) string {
	if lipgloss.Width(text) <= r.maxCell {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > r.maxCell {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func cellText(c listview.Cell) string {
	text := c.Text
	if c.Badge != nil {
		text = c.Badge.Label
	}
	if c.Sub != "" {
		text += " (" + c.Sub + ")"
	}
	return strings.ReplaceAll(text, "\n", " ")
}

func actionLabels(list []actions.Action) string {
	labels := make([]string, 0, len(list))
	for _, a := range list {
		labels = append(labels, a.Label)
	}
	return strings.Join(labels, " / ")
}
