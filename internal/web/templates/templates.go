// Package templates renders the dashboard pages.
//
// Components are plain templ.Components built with templ.ComponentFunc, so
// handlers render them exactly like generated templ code:
//
//	templates.Dashboard(groups).Render(r.Context(), w)
package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// TableCardData is one table on the dashboard.
type TableCardData struct {
	Info       core.TableInfo
	RowCount   int64
	ServerSide bool
}

// TableGroup is a dashboard section.
type TableGroup struct {
	Name   string
	Tables []TableCardData
}

// Action is a control on the grid. A GET action renders as a link; other
// methods render as an htmx button sending Vals as a JSON body.
type Action struct {
	Method string
	URL    string
	Vals   string
}

// GridColumn is one header cell.
type GridColumn struct {
	ID        string
	Header    string
	SortDir   grid.SortDirection
	SortIndex int // 1-based priority when more than one column is sorted; 0 otherwise
	Sort      *Action
}

// GridRow is one body row with formatted cells.
type GridRow struct {
	Key      string
	Cells    []string
	Selected bool
	Toggle   *Action
}

// GridData is everything the grid partial shows.
type GridData struct {
	Table     core.TableInfo
	SessionID string
	Columns   []GridColumn
	Rows      []GridRow
	Footers   []string // aligned with Columns; nil when no column has a footer

	Search        string
	PageIndex     int
	PageCount     int // grid.UnknownPageCount when the total is unknown
	PageSize      int
	PageSizes     []int
	Total         int
	Loading       bool
	SelectedCount int
	AllSelected   bool
	SomeSelected  bool

	First, Prev, Next, Last *Action
	TogglePage              *Action
	BatchActions            []BatchButton
	ExportURL               string
}

// BatchButton is a batch action offered for the selected rows.
type BatchButton struct {
	Label  string
	Action Action
}

// html writes escaped and raw fragments, keeping the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// action renders a as a link or an htmx button around label.
func (h *html) action(a *Action, label, class string) {
	if a == nil {
		h.raw(`<span class="`, class, ` disabled">`)
		h.text(label)
		h.raw(`</span>`)
		return
	}
	if a.Method == "" || a.Method == "get" {
		h.raw(`<a`)
		h.attr("href", a.URL)
		h.attr("class", class)
		h.raw(`>`)
		h.text(label)
		h.raw(`</a>`)
		return
	}
	h.raw(`<button type="button"`)
	h.attr("class", class)
	h.attr("hx-"+a.Method, a.URL)
	if a.Vals != "" {
		h.attr("hx-vals", a.Vals)
	}
	h.raw(` hx-ext="json-enc" hx-target="#grid" hx-swap="outerHTML">`)
	h.text(label)
	h.raw(`</button>`)
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.raw(` | Fuel Grid</title>`)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		h.raw(`<script src="https://unpkg.com/htmx-ext-json-enc@2.0.1/json-enc.js"></script>`)
		h.raw(`</head><body><header><a href="/">Fuel Grid</a></header><main>`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Dashboard lists the registered tables by group.
func Dashboard(groups []TableGroup) templ.Component {
	return Layout("Dashboard", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		for _, g := range groups {
			h.raw(`<section class="group"><h2>`)
			h.text(g.Name)
			h.raw(`</h2><ul class="cards">`)
			for _, t := range g.Tables {
				mode := "client-side"
				if t.ServerSide {
					mode = "server-side"
				}
				h.raw(`<li class="card"><a`)
				h.attr("href", "/table/"+t.Info.Key)
				h.raw(`>`)
				h.text(t.Info.Label)
				h.raw(`</a> <span class="count">`)
				h.text(strconv.FormatInt(t.RowCount, 10))
				h.raw(` rows</span> <span class="mode">`)
				h.text(mode)
				h.raw(`</span></li>`)
			}
			h.raw(`</ul></section>`)
		}
		return h.err
	}))
}

// GridPage renders a full page around the grid partial.
func GridPage(data GridData) templ.Component {
	return Layout(data.Table.Label, GridTable(data))
}

// GridTable renders the grid partial. htmx requests swap it in place.
func GridTable(data GridData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div id="grid"`)
		h.attr("data-table", data.Table.Key)
		if data.SessionID != "" {
			h.attr("data-session", data.SessionID)
		}
		if data.Loading {
			h.raw(` aria-busy="true"`)
		}
		h.raw(`><h1>`)
		h.text(data.Table.Label)
		h.raw(`</h1>`)

		gridToolbar(h, data)

		h.raw(`<table><thead><tr>`)
		if data.TogglePage != nil {
			h.raw(`<th>`)
			label := "[ ]"
			switch {
			case data.AllSelected:
				label = "[x]"
			case data.SomeSelected:
				label = "[-]"
			}
			h.action(data.TogglePage, label, "select-page")
			h.raw(`</th>`)
		}
		for _, col := range data.Columns {
			h.raw(`<th>`)
			h.action(col.Sort, col.Header+sortMarker(col), "sort")
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)

		if len(data.Rows) == 0 {
			h.raw(`<tr><td class="empty"`)
			h.attr("colspan", strconv.Itoa(len(data.Columns)+1))
			h.raw(`>`)
			if data.Loading {
				h.text("Loading...")
			} else {
				h.text("No rows match the current filters.")
			}
			h.raw(`</td></tr>`)
		}
		for _, row := range data.Rows {
			h.raw(`<tr`)
			h.attr("data-key", row.Key)
			if row.Selected {
				h.raw(` class="selected"`)
			}
			h.raw(`>`)
			if row.Toggle != nil {
				h.raw(`<td>`)
				mark := "[ ]"
				if row.Selected {
					mark = "[x]"
				}
				h.action(row.Toggle, mark, "select-row")
				h.raw(`</td>`)
			}
			for _, cell := range row.Cells {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody>`)

		if data.Footers != nil {
			h.raw(`<tfoot><tr>`)
			if data.TogglePage != nil {
				h.raw(`<td></td>`)
			}
			for _, f := range data.Footers {
				h.raw(`<td>`)
				h.text(f)
				h.raw(`</td>`)
			}
			h.raw(`</tr></tfoot>`)
		}
		h.raw(`</table>`)

		gridPager(h, data)
		h.raw(`</div>`)
		return h.err
	})
}

func gridToolbar(h *html, data GridData) {
	h.raw(`<div class="toolbar"><span class="total">`)
	if data.Total >= 0 {
		h.text(strconv.Itoa(data.Total) + " rows")
	}
	h.raw(`</span>`)
	if data.Search != "" {
		h.raw(` <span class="search">Search: `)
		h.text(data.Search)
		h.raw(`</span>`)
	}
	if data.SelectedCount > 0 {
		h.raw(` <span class="selected-count">`)
		h.text(strconv.Itoa(data.SelectedCount) + " selected")
		h.raw(`</span>`)
		for _, b := range data.BatchActions {
			h.raw(` `)
			a := b.Action
			h.action(&a, b.Label, "batch")
		}
	}
	if data.ExportURL != "" {
		h.raw(` <a class="export"`)
		h.attr("href", data.ExportURL)
		h.raw(`>Export CSV</a>`)
	}
	h.raw(`</div>`)
}

func gridPager(h *html, data GridData) {
	h.raw(`<nav class="pager">`)
	h.action(data.First, "First", "page")
	h.action(data.Prev, "Previous", "page")
	h.raw(`<span class="position">`)
	if data.PageCount == grid.UnknownPageCount {
		h.text("Page " + strconv.Itoa(data.PageIndex+1))
	} else {
		pages := data.PageCount
		if pages == 0 {
			pages = 1
		}
		h.text("Page " + strconv.Itoa(data.PageIndex+1) + " of " + strconv.Itoa(pages))
	}
	h.raw(`</span>`)
	h.action(data.Next, "Next", "page")
	h.action(data.Last, "Last", "page")
	h.raw(`<span class="page-size">`)
	h.text(strconv.Itoa(data.PageSize) + " per page")
	h.raw(`</span></nav>`)
}

func sortMarker(col GridColumn) string {
	var m string
	switch col.SortDir {
	case grid.SortAsc:
		m = " ▲"
	case grid.SortDesc:
		m = " ▼"
	default:
		return ""
	}
	if col.SortIndex > 0 {
		m += strconv.Itoa(col.SortIndex)
	}
	return m
}

// ErrorAlert renders an error message fragment for htmx requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert alert-error" role="alert"><p class="message">`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		h.raw(`<p class="code">`)
		h.text(code)
		h.raw(`</p></div>`)
		return h.err
	})
}
