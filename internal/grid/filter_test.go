package grid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

type sale struct {
	Station string
	Grade   string
	Liters  float64
	At      time.Time
	Paid    bool
	Note    *string
}

func strPtr(s string) *string { return &s }

func saleModel(t *testing.T) *grid.ColumnModel[sale] {
	t.Helper()
	m, err := grid.NewColumnModel([]grid.Column[sale]{
		grid.NewColumn("station", "Station", func(s sale) any { return s.Station }),
		grid.NewColumn("grade", "Grade", func(s sale) any { return s.Grade },
			grid.WithType[sale](grid.FieldEnum)),
		grid.NewColumn("liters", "Liters", func(s sale) any { return s.Liters },
			grid.WithType[sale](grid.FieldNumeric)),
		grid.NewColumn("at", "At", func(s sale) any { return s.At },
			grid.WithType[sale](grid.FieldDate)),
		grid.NewColumn("paid", "Paid", func(s sale) any { return s.Paid },
			grid.WithType[sale](grid.FieldBool)),
		grid.NewColumn("note", "Note", func(s sale) any { return s.Note }),
	})
	require.NoError(t, err)
	return m
}

func sales() []sale {
	day := func(d, h int) time.Time { return time.Date(2024, 1, d, h, 0, 0, 0, time.UTC) }
	return []sale{
		{Station: "North Hub", Grade: "Diesel", Liters: 10, At: day(30, 9), Paid: true},
		{Station: "South Lot", Grade: "Unleaded", Liters: 15.5, At: day(31, 15), Paid: false, Note: strPtr("pump 4 slow")},
		{Station: "East Gate", Grade: "Premium", Liters: 20, At: day(1, 8).AddDate(0, 1, 0), Paid: true},
		{Station: "north annex", Grade: "diesel", Liters: 42, At: day(15, 12), Paid: true, Note: strPtr("fleet, card")},
	}
}

func stations(rows []sale) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Station
	}
	return out
}

func TestGlobalFilterCaseInsensitive(t *testing.T) {
	as := assert.New(t)
	m := saleModel(t)

	got := grid.FilterRows(m, sales(), grid.FilterState{Global: "NORTH"})
	as.Equal([]string{"North Hub", "north annex"}, stations(got))

	got = grid.FilterRows(m, sales(), grid.FilterState{Global: "slow"})
	as.Equal([]string{"South Lot"}, stations(got))

	got = grid.FilterRows(m, sales(), grid.FilterState{Global: "   "})
	as.Len(got, 4)
}

func TestGlobalFilterIdempotent(t *testing.T) {
	as := assert.New(t)
	m := saleModel(t)
	f := grid.FilterState{Global: "diesel"}

	once := grid.FilterRows(m, sales(), f)
	twice := grid.FilterRows(m, once, f)
	as.Equal(once, twice)
	as.Len(once, 2)
}

func TestColumnFilterOperators(t *testing.T) {
	m := saleModel(t)

	tests := []struct {
		name   string
		filter grid.ColumnFilter
		want   []string
	}{
		{"contains", grid.ColumnFilter{ColumnID: "station", Value: "LOT"}, []string{"South Lot"}},
		{"starts", grid.ColumnFilter{ColumnID: "station", Operator: grid.OpStartsWith, Value: "north"}, []string{"North Hub", "north annex"}},
		{"ends", grid.ColumnFilter{ColumnID: "station", Operator: grid.OpEndsWith, Value: "gate"}, []string{"East Gate"}},
		{"eq text", grid.ColumnFilter{ColumnID: "grade", Operator: grid.OpEquals, Value: "DIESEL"}, []string{"North Hub", "north annex"}},
		{"in", grid.ColumnFilter{ColumnID: "grade", Operator: grid.OpIn, Value: "premium, unleaded"}, []string{"South Lot", "East Gate"}},
		{"eq numeric", grid.ColumnFilter{ColumnID: "liters", Value: "15.5"}, []string{"South Lot"}},
		{"eq currency", grid.ColumnFilter{ColumnID: "liters", Value: "€20.00"}, []string{"East Gate"}},
		{"eq unparseable", grid.ColumnFilter{ColumnID: "liters", Value: "twenty"}, []string{}},
		{"date written out", grid.ColumnFilter{ColumnID: "at", Operator: grid.OpGreaterEq, Value: "1 Feb 2024"}, []string{"East Gate"}},
		{"bool bound", grid.ColumnFilter{ColumnID: "paid", Operator: grid.OpGreaterEq, Value: "no"}, []string{}},
		{"gte", grid.ColumnFilter{ColumnID: "liters", Operator: grid.OpGreaterEq, Value: "20"}, []string{"East Gate", "north annex"}},
		{"gt", grid.ColumnFilter{ColumnID: "liters", Operator: grid.OpGreater, Value: "20"}, []string{"north annex"}},
		{"lt", grid.ColumnFilter{ColumnID: "liters", Operator: grid.OpLess, Value: "15.5"}, []string{"North Hub"}},
		{"between inclusive", grid.ColumnFilter{ColumnID: "liters", Operator: grid.OpBetween, Value: "10,20"}, []string{"North Hub", "South Lot", "East Gate"}},
		{"auto range", grid.ColumnFilter{ColumnID: "liters", Value: "15,"}, []string{"South Lot", "East Gate", "north annex"}},
		{"open lower bound", grid.ColumnFilter{ColumnID: "liters", Value: ",10"}, []string{"North Hub"}},
		{"date lte by day", grid.ColumnFilter{ColumnID: "at", Operator: grid.OpLessEq, Value: "2024-01-31"}, []string{"North Hub", "South Lot", "north annex"}},
		{"date eq by day", grid.ColumnFilter{ColumnID: "at", Value: "2024-02-01"}, []string{"East Gate"}},
		{"date range", grid.ColumnFilter{ColumnID: "at", Value: "2024-01-15,2024-01-30"}, []string{"North Hub", "north annex"}},
		{"bool", grid.ColumnFilter{ColumnID: "paid", Value: "no"}, []string{"South Lot"}},
		{"missing value", grid.ColumnFilter{ColumnID: "note", Value: "fleet"}, []string{"north annex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grid.FilterRows(m, sales(), grid.FilterState{Columns: []grid.ColumnFilter{tt.filter}})
			assert.Equal(t, tt.want, stations(got))
		})
	}
}

func TestColumnFiltersCombine(t *testing.T) {
	as := assert.New(t)
	m := saleModel(t)

	got := grid.FilterRows(m, sales(), grid.FilterState{
		Global: "north",
		Columns: []grid.ColumnFilter{
			{ColumnID: "liters", Operator: grid.OpGreater, Value: "10"},
		},
	})
	as.Equal([]string{"north annex"}, stations(got))
}

func TestUnknownFilterColumnIgnored(t *testing.T) {
	m := saleModel(t)
	got := grid.FilterRows(m, sales(), grid.FilterState{
		Columns: []grid.ColumnFilter{{ColumnID: "nope", Value: "x"}},
	})
	assert.Len(t, got, 4)
}

func TestAutoOperator(t *testing.T) {
	as := assert.New(t)
	as.Equal(grid.OpContains, grid.AutoOperator(grid.FieldText, "a,b"))
	as.Equal(grid.OpContains, grid.AutoOperator(grid.FieldEnum, "x"))
	as.Equal(grid.OpEquals, grid.AutoOperator(grid.FieldNumeric, "5"))
	as.Equal(grid.OpBetween, grid.AutoOperator(grid.FieldNumeric, "5,10"))
	as.Equal(grid.OpBetween, grid.AutoOperator(grid.FieldDate, "2024-01-01,"))
	as.Equal(grid.OpEquals, grid.AutoOperator(grid.FieldBool, "true"))
}
