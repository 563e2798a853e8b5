package core

import (
	"testing"
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

// The same filter must select the same rows whether the database or the
// in-memory grid evaluates it. Each case checks the SQL condition and the
// in-memory match for a cell that the condition selects.
func TestFilterParity_SQLAndMemory(t *testing.T) {
	def := GridDefinition{
		Info: TableInfo{Key: "fuel_sales"},
		FieldSpecs: []FieldSpec{
			{Name: "Sold At", Type: grid.FieldDate},
			{Name: "Amount", Type: grid.FieldNumeric},
			{Name: "Paid", Type: grid.FieldBool},
		},
	}
	cols := GridColumns(def)
	column := func(id string) *grid.Column[TableRow] {
		for i := range cols {
			if cols[i].ID == id {
				return &cols[i]
			}
		}
		t.Fatalf("no column %q", id)
		return nil
	}

	soldAt := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	row := TableRow{"sold_at": soldAt, "amount": -12.5, "paid": true}
	euroRow := TableRow{"sold_at": soldAt, "amount": 12.5, "paid": false}

	tests := []struct {
		name      string
		row       TableRow
		filter    grid.ColumnFilter
		wantSQL   string
		wantArgs  []interface{}
		wantMatch bool
	}{
		{
			name:      "US date bound",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "sold_at", Operator: grid.OpGreaterEq, Value: "1/2/2024"},
			wantSQL:   `"sold_at"::date >= $1`,
			wantArgs:  []interface{}{jan2},
			wantMatch: true,
		},
		{
			name:      "written date bound",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "sold_at", Operator: grid.OpGreaterEq, Value: "2 Jan 2024"},
			wantSQL:   `"sold_at"::date >= $1`,
			wantArgs:  []interface{}{jan2},
			wantMatch: true,
		},
		{
			name:      "date list by day",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "sold_at", Operator: grid.OpIn, Value: "2024-01-05, 1/2/2024"},
			wantSQL:   `"sold_at"::date IN ($1, $2)`,
			wantArgs:  []interface{}{jan5, jan2},
			wantMatch: true,
		},
		{
			name:      "accounting negative",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "amount", Operator: grid.OpEquals, Value: "(12.50)"},
			wantSQL:   `"amount" = $1`,
			wantArgs:  []interface{}{-12.5},
			wantMatch: true,
		},
		{
			name:      "currency symbol",
			row:       euroRow,
			filter:    grid.ColumnFilter{ColumnID: "amount", Operator: grid.OpEquals, Value: "€12.50"},
			wantSQL:   `"amount" = $1`,
			wantArgs:  []interface{}{12.5},
			wantMatch: true,
		},
		{
			name:      "bool word",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "paid", Value: "Yes"},
			wantSQL:   `"paid" = $1`,
			wantArgs:  []interface{}{true},
			wantMatch: true,
		},
		{
			name:      "unparseable number matches nothing",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "amount", Operator: grid.OpEquals, Value: "-12.5x"},
			wantSQL:   "FALSE",
			wantMatch: false,
		},
		{
			name:      "unparseable date matches nothing",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "sold_at", Operator: grid.OpEquals, Value: "someday"},
			wantSQL:   "FALSE",
			wantMatch: false,
		},
		{
			name:      "bool has no order",
			row:       row,
			filter:    grid.ColumnFilter{ColumnID: "paid", Operator: grid.OpGreaterEq, Value: "no"},
			wantSQL:   "FALSE",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := column(tt.filter.ColumnID)

			gotSQL, gotArgs, _ := buildSingleFilter(sqlFilter{
				DBColumn: tt.filter.ColumnID,
				Type:     col.Type,
				Operator: tt.filter.Operator,
				Value:    tt.filter.Value,
			}, 1)
			if gotSQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", gotSQL, tt.wantSQL)
			}
			if !sameArgs(gotArgs, tt.wantArgs) {
				t.Errorf("args = %v, want %v", gotArgs, tt.wantArgs)
			}

			if got := grid.MatchColumnFilter(col, tt.row, tt.filter); got != tt.wantMatch {
				t.Errorf("in-memory match = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func sameArgs(got, want []interface{}) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if wt, ok := want[i].(time.Time); ok {
			gt, ok := got[i].(time.Time)
			if !ok || !gt.Equal(wt) {
				return false
			}
			continue
		}
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
