package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// Query string state of the stateless grid pages:
//
//	page=2&size=50&sort=sold_at,amount&dir=desc,asc&search=diesel
//	&filter[volume_l]=gte:40&filter[fuel_grade]=in:diesel,hvo
//
// page is 1-based. A filter value without a known "op:" prefix uses the
// column's default operator.

// parseIntParam parses a positive integer query parameter with a default
// value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseQuery reads the grid state for def from the request.
func parseQuery(r *http.Request, def core.GridDefinition) (grid.Query, error) {
	sorting, err := parseSorting(r, def)
	if err != nil {
		return grid.Query{}, err
	}
	filters, err := parseFilters(r, def)
	if err != nil {
		return grid.Query{}, err
	}
	return grid.Query{
		Sorting: sorting,
		Filters: grid.FilterState{
			Global:  r.URL.Query().Get("search"),
			Columns: filters,
		},
		Pagination: grid.Pagination{
			PageIndex: parseIntParam(r, "page", 1) - 1,
			PageSize:  parseIntParam(r, "size", 0),
		},
	}, nil
}

// parseSorting reads the comma-separated sort and dir parameters. Missing
// directions are ascending.
func parseSorting(r *http.Request, def core.GridDefinition) (grid.Sorting, error) {
	sortStr := r.URL.Query().Get("sort")
	if sortStr == "" {
		return nil, nil
	}
	dirs := strings.Split(r.URL.Query().Get("dir"), ",")

	var sorting grid.Sorting
	for i, col := range strings.Split(sortStr, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if _, ok := def.Spec(col); !ok {
			return nil, badRequest("unknown sort column %q", col)
		}
		dir := grid.SortAsc
		if i < len(dirs) && grid.ParseSortDirection(strings.TrimSpace(dirs[i])) == grid.SortDesc {
			dir = grid.SortDesc
		}
		sorting = append(sorting, grid.SortSpec{ColumnID: col, Direction: dir})
	}
	return sorting, nil
}

// parseFilters extracts filter[column]=op:value parameters in a stable
// column order.
func parseFilters(r *http.Request, def core.GridDefinition) ([]grid.ColumnFilter, error) {
	var filters []grid.ColumnFilter
	for _, spec := range def.FieldSpecs {
		col := spec.Column()
		for _, raw := range r.URL.Query()["filter["+col+"]"] {
			cf := splitFilter(col, raw)
			if strings.TrimSpace(cf.Value) == "" {
				continue
			}
			filters = append(filters, cf)
		}
	}

	for key := range r.URL.Query() {
		if col, ok := filterParam(key); ok {
			if _, known := def.Spec(col); !known {
				return nil, badRequest("unknown filter column %q", col)
			}
		}
	}
	return filters, nil
}

// splitFilter separates an "op:value" parameter. Without a recognised
// operator prefix the whole text is the value.
func splitFilter(col, raw string) grid.ColumnFilter {
	if prefix, value, ok := strings.Cut(raw, ":"); ok {
		op := grid.FilterOperator(strings.ToLower(strings.TrimSpace(prefix)))
		if op != "" && grid.ValidOperator(op) {
			return grid.ColumnFilter{ColumnID: col, Operator: op, Value: value}
		}
	}
	return grid.ColumnFilter{ColumnID: col, Value: raw}
}

func filterParam(key string) (string, bool) {
	if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	return key[len("filter[") : len(key)-1], true
}

// encodeQuery renders q back into query string form; the inverse of
// parseQuery.
func encodeQuery(q grid.Query) url.Values {
	v := url.Values{}
	if q.Pagination.PageIndex > 0 {
		v.Set("page", strconv.Itoa(q.Pagination.PageIndex+1))
	}
	if q.Pagination.PageSize > 0 {
		v.Set("size", strconv.Itoa(q.Pagination.PageSize))
	}
	if len(q.Sorting) > 0 {
		cols := make([]string, len(q.Sorting))
		dirs := make([]string, len(q.Sorting))
		for i, s := range q.Sorting {
			cols[i] = s.ColumnID
			dirs[i] = s.Direction.String()
		}
		v.Set("sort", strings.Join(cols, ","))
		v.Set("dir", strings.Join(dirs, ","))
	}
	if q.Filters.Global != "" {
		v.Set("search", q.Filters.Global)
	}
	for _, cf := range q.Filters.Columns {
		val := cf.Value
		if cf.Operator != "" {
			val = string(cf.Operator) + ":" + cf.Value
		}
		v.Add("filter["+cf.ColumnID+"]", val)
	}
	return v
}
