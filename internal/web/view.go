package web

import (
	"encoding/json"
	"net/url"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/web/templates"
)

// ColumnJSON describes a grid column to API clients.
type ColumnJSON struct {
	ID         string `json:"id"`
	Header     string `json:"header"`
	Type       string `json:"type"`
	Visible    bool   `json:"visible"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
	Exportable bool   `json:"exportable"`
}

// RowJSON is one visible row with formatted cells.
type RowJSON struct {
	Key      string            `json:"key,omitempty"`
	Cells    map[string]string `json:"cells"`
	Selected bool              `json:"selected,omitempty"`
}

// SelectionJSON is the selection state of a session.
type SelectionJSON struct {
	Count        int      `json:"count"`
	Keys         []string `json:"keys"`
	AllSelected  bool     `json:"allSelected"`
	SomeSelected bool     `json:"someSelected"`
}

// ViewResponse is the JSON form of a grid view.
type ViewResponse struct {
	SessionID    string             `json:"sessionId,omitempty"`
	Table        string             `json:"table"`
	ServerSide   bool               `json:"serverSide"`
	Columns      []ColumnJSON       `json:"columns"`
	Rows         []RowJSON          `json:"rows"`
	Total        int                `json:"total"`
	PageCount    int                `json:"pageCount"`
	Pagination   grid.Pagination    `json:"pagination"`
	PageSizes    []int              `json:"pageSizes"`
	Sorting      grid.Sorting       `json:"sorting"`
	Filters      grid.FilterState   `json:"filters"`
	Footers      map[string]string  `json:"footers,omitempty"`
	Aggregations core.Aggregations  `json:"aggregations,omitempty"`
	Loading      bool               `json:"loading"`
	CanPrevious  bool               `json:"canPrevious"`
	CanNext      bool               `json:"canNext"`
	CanLast      bool               `json:"canLast"`
	Selection    *SelectionJSON     `json:"selection,omitempty"`
	BatchActions []grid.BatchAction `json:"batchActions,omitempty"`
}

// gridView gathers what both renderings need from a snapshot or session.
type gridView struct {
	sessionID    string
	def          core.GridDefinition
	model        *grid.ColumnModel[core.TableRow]
	view         grid.View[core.TableRow]
	pageSizes    []int
	aggregations core.Aggregations

	// selection is nil for snapshots and tables without a unique key.
	selection    *SelectionJSON
	selected     map[string]bool
	batchActions []grid.BatchAction
}

func snapshotView(res *core.SnapshotResult) gridView {
	return gridView{
		def:          res.Definition,
		model:        res.Model,
		view:         res.View,
		pageSizes:    res.PageSizes,
		aggregations: res.Aggregations,
	}
}

func sessionView(sess *core.Session) gridView {
	e := sess.Engine()
	gv := gridView{
		sessionID:    sess.ID,
		def:          sess.Definition(),
		model:        e.Model(),
		view:         e.View(),
		pageSizes:    e.PageSizeOptions(),
		aggregations: sess.Aggregations(),
	}
	if e.SelectionEnabled() {
		keys := e.SelectedKeys()
		state := e.SelectionState()
		gv.selection = &SelectionJSON{
			Count:        len(keys),
			Keys:         keys,
			AllSelected:  state.AllSelected,
			SomeSelected: state.SomeSelected,
		}
		gv.selected = make(map[string]bool, len(keys))
		for _, k := range keys {
			gv.selected[k] = true
		}
		gv.batchActions = e.BatchActions()
	}
	return gv
}

func (gv gridView) rowKey(r core.TableRow) string {
	if len(gv.def.Info.UniqueKey) == 0 {
		return ""
	}
	return core.RowKey(r, gv.def.Info.UniqueKey)
}

// JSON renders the view for API clients. Only visible columns appear in
// the row cells.
func (gv gridView) JSON() ViewResponse {
	visible := gv.model.Visible()

	cols := make([]ColumnJSON, 0, gv.model.Len())
	for _, c := range gv.model.Columns() {
		cols = append(cols, ColumnJSON{
			ID:         c.ID,
			Header:     c.Header,
			Type:       c.Type.String(),
			Visible:    c.Visible,
			Sortable:   c.Sortable,
			Filterable: c.Filterable,
			Exportable: c.Exportable,
		})
	}

	rows := make([]RowJSON, len(gv.view.Rows))
	for i, r := range gv.view.Rows {
		cells := make(map[string]string, len(visible))
		for j := range visible {
			cells[visible[j].ID] = visible[j].Format(r)
		}
		key := gv.rowKey(r)
		rows[i] = RowJSON{Key: key, Cells: cells, Selected: gv.selected[key]}
	}

	return ViewResponse{
		SessionID:    gv.sessionID,
		Table:        gv.def.Info.Key,
		ServerSide:   gv.def.ServerSide,
		Columns:      cols,
		Rows:         rows,
		Total:        gv.view.FilteredCount,
		PageCount:    gv.view.PageCount,
		Pagination:   gv.view.Pagination,
		PageSizes:    gv.pageSizes,
		Sorting:      gv.view.Sorting,
		Filters:      gv.view.Filters,
		Footers:      gv.view.Footers,
		Aggregations: gv.aggregations,
		Loading:      gv.view.Loading,
		CanPrevious:  gv.view.CanPrevious(),
		CanNext:      gv.view.CanNext(),
		CanLast:      gv.view.CanLast(),
		Selection:    gv.selection,
		BatchActions: gv.batchActions,
	}
}

// actions builds the controls of the HTML grid: query string links for
// snapshots, htmx calls for sessions.
type actions interface {
	sort(col string) *templates.Action
	page(move string, index int) *templates.Action
	toggleRow(key string) *templates.Action
	togglePage() *templates.Action
	batch(action string) templates.Action
	exportURL() string
}

type linkActions struct {
	table string
	query grid.Query
}

func (a linkActions) link(q grid.Query) *templates.Action {
	u := "/table/" + url.PathEscape(a.table)
	if enc := encodeQuery(q).Encode(); enc != "" {
		u += "?" + enc
	}
	return &templates.Action{Method: "get", URL: u}
}

func (a linkActions) sort(col string) *templates.Action {
	q := a.query
	q.Sorting = grid.ToggleSort(q.Sorting, col, false)
	q.Pagination.PageIndex = 0
	return a.link(q)
}

func (a linkActions) page(_ string, index int) *templates.Action {
	q := a.query
	q.Pagination.PageIndex = index
	return a.link(q)
}

func (linkActions) toggleRow(string) *templates.Action { return nil }
func (linkActions) togglePage() *templates.Action      { return nil }
func (linkActions) batch(string) templates.Action      { return templates.Action{} }

func (a linkActions) exportURL() string {
	q := a.query
	q.Pagination = grid.Pagination{}
	u := "/api/export/" + url.PathEscape(a.table)
	if enc := encodeQuery(q).Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

type sessionActions struct {
	base string // /api/sessions/{id}
}

func (a sessionActions) call(path string, vals any) *templates.Action {
	act := &templates.Action{Method: "post", URL: a.base + path}
	if vals != nil {
		b, _ := json.Marshal(vals)
		act.Vals = string(b)
	}
	return act
}

func (a sessionActions) sort(col string) *templates.Action {
	return a.call("/sort", map[string]any{"column": col})
}

func (a sessionActions) page(move string, _ int) *templates.Action {
	return a.call("/page/"+move, nil)
}

func (a sessionActions) toggleRow(key string) *templates.Action {
	return a.call("/selection/toggle", map[string]string{"key": key})
}

func (a sessionActions) togglePage() *templates.Action {
	return a.call("/selection/page", nil)
}

func (a sessionActions) batch(action string) templates.Action {
	return *a.call("/batch/"+url.PathEscape(action), nil)
}

func (a sessionActions) exportURL() string {
	return a.base + "/export?scope=filtered"
}

// HTML builds the template data for the grid partial.
func (gv gridView) HTML(act actions) templates.GridData {
	visible := gv.model.Visible()
	v := gv.view

	data := templates.GridData{
		Table:     gv.def.Info,
		SessionID: gv.sessionID,
		Search:    v.Filters.Global,
		PageIndex: v.Pagination.PageIndex,
		PageCount: v.PageCount,
		PageSize:  v.Pagination.PageSize,
		PageSizes: gv.pageSizes,
		Total:     v.FilteredCount,
		Loading:   v.Loading,
		ExportURL: act.exportURL(),
	}

	multi := len(v.Sorting) > 1
	for _, c := range visible {
		gc := templates.GridColumn{ID: c.ID, Header: c.Header, SortDir: v.Sorting.Direction(c.ID)}
		if multi && gc.SortDir != grid.SortNone {
			gc.SortIndex = v.Sorting.Index(c.ID) + 1
		}
		if c.Sortable {
			gc.Sort = act.sort(c.ID)
		}
		data.Columns = append(data.Columns, gc)
	}

	selectable := gv.selection != nil
	for _, r := range v.Rows {
		row := templates.GridRow{Key: gv.rowKey(r), Cells: make([]string, len(visible))}
		for i := range visible {
			row.Cells[i] = visible[i].Format(r)
		}
		if selectable {
			row.Selected = gv.selected[row.Key]
			row.Toggle = act.toggleRow(row.Key)
		}
		data.Rows = append(data.Rows, row)
	}

	if len(v.Footers) > 0 {
		data.Footers = make([]string, len(visible))
		for i, c := range visible {
			data.Footers[i] = v.Footers[c.ID]
		}
	}

	if selectable {
		data.TogglePage = act.togglePage()
		data.SelectedCount = gv.selection.Count
		data.AllSelected = gv.selection.AllSelected
		data.SomeSelected = gv.selection.SomeSelected
		for _, b := range gv.batchActions {
			data.BatchActions = append(data.BatchActions, templates.BatchButton{Label: b.Label, Action: act.batch(b.Value)})
		}
	}

	if v.CanPrevious() {
		data.First = act.page("first", 0)
		data.Prev = act.page("previous", v.Pagination.PageIndex-1)
	}
	if v.CanNext() {
		data.Next = act.page("next", v.Pagination.PageIndex+1)
	}
	if v.CanLast() {
		data.Last = act.page("last", v.PageCount-1)
	}
	return data
}
