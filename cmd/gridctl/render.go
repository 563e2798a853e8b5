package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

const columnGap = "  "

type renderer struct {
	w io.Writer

	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	footer lipgloss.Style
	muted  lipgloss.Style
}

func newRenderer(w io.Writer, profile termenv.Profile) *renderer {
	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(profile)
	return &renderer{
		w:      w,
		title:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		header: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		cell:   lr.NewStyle(),
		footer: lr.NewStyle().Italic(true).Foreground(lipgloss.Color("3")),
		muted:  lr.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// render prints the visible page of view as an aligned table with its
// footers and a page line.
func (r *renderer) render(label string, model *grid.ColumnModel[core.TableRow], view grid.View[core.TableRow]) {
	cols := model.Visible()

	headers := make([]string, len(cols))
	widths := make([]int, len(cols))
	for i, c := range cols {
		headers[i] = c.Header + sortMarker(view.Sorting, c.ID)
		widths[i] = lipgloss.Width(headers[i])
	}

	cells := make([][]string, len(view.Rows))
	for i, row := range view.Rows {
		cells[i] = make([]string, len(cols))
		for j := range cols {
			cells[i][j] = cols[j].Format(row)
			widths[j] = max(widths[j], lipgloss.Width(cells[i][j]))
		}
	}

	footers := make([]string, len(cols))
	hasFooter := false
	for j, c := range cols {
		if f, ok := view.Footers[c.ID]; ok {
			footers[j] = f
			hasFooter = true
			widths[j] = max(widths[j], lipgloss.Width(f))
		}
	}

	if label != "" {
		fmt.Fprintln(r.w, r.title.Render(label))
	}
	fmt.Fprintln(r.w, r.line(cols, widths, headers, r.header))
	fmt.Fprintln(r.w, r.rule(widths))

	if len(cells) == 0 {
		fmt.Fprintln(r.w, r.muted.Render("No rows match the current filters."))
	}
	for _, row := range cells {
		fmt.Fprintln(r.w, r.line(cols, widths, row, r.cell))
	}

	if hasFooter {
		fmt.Fprintln(r.w, r.rule(widths))
		fmt.Fprintln(r.w, r.line(cols, widths, footers, r.footer))
	}
	fmt.Fprintln(r.w, r.muted.Render(pageLine(view)))
}

func (r *renderer) line(cols []grid.Column[core.TableRow], widths []int, values []string, style lipgloss.Style) string {
	parts := make([]string, len(values))
	for i, v := range values {
		s := style.Width(widths[i])
		if cols[i].Type == grid.FieldNumeric {
			s = s.Align(lipgloss.Right)
		}
		parts[i] = s.Render(v)
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ")
}

func (r *renderer) rule(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return r.muted.Render(strings.Join(parts, columnGap))
}

// sortMarker shows the direction of a sorted column, with its priority
// when several columns are sorted.
func sortMarker(sorting grid.Sorting, id string) string {
	for i, s := range sorting {
		if s.ColumnID != id {
			continue
		}
		marker := " ▲"
		if s.Direction == grid.SortDesc {
			marker = " ▼"
		}
		if len(sorting) > 1 {
			marker += strconv.Itoa(i + 1)
		}
		return marker
	}
	return ""
}

func pageLine(view grid.View[core.TableRow]) string {
	pages := max(view.PageCount, 1)
	rows := "rows"
	if view.FilteredCount == 1 {
		rows = "row"
	}
	return fmt.Sprintf("Page %d of %d · %d %s", view.Pagination.PageIndex+1, pages, view.FilteredCount, rows)
}
