package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

const stationsCSV = "city,pumps,active\nOslo,8,yes\nBergen,4,yes\n\nTrondheim,6,no\n"

const stationsPresets = `presets:
  - table: site_pumps
    columns:
      - id: city
        header: City
      - id: pumps
        header: Pumps
        type: numeric
        footer: sum
      - id: active
        type: bool
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runGridctl(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--no-color"}, args...), strings.NewReader(stdin), &out)
	return out.String(), err
}

// bodyLines returns the lines between the header rule and the page line.
func bodyLines(out string) []string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var body []string
	for _, l := range lines[3 : len(lines)-1] {
		if strings.HasPrefix(l, "─") {
			break
		}
		body = append(body, strings.Join(strings.Fields(l), " "))
	}
	return body
}

func TestRun_HeaderColumns(t *testing.T) {
	out, err := runGridctl(t, stationsCSV, "--sort", "city", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "city ▲")
	assert.Equal(t, []string{"Bergen 4 yes", "Oslo 8 yes", "Trondheim 6 no"}, bodyLines(out))
	assert.True(t, strings.HasSuffix(out, "Page 1 of 1 · 3 rows\n"), out)
	assert.NotContains(t, out, "\x1b[", "no-color output must not carry escape codes")
}

func TestRun_PresetColumnsFilterAndPaging(t *testing.T) {
	dir := t.TempDir()
	presets := writeFile(t, dir, "presets.yaml", stationsPresets)
	file := writeFile(t, dir, "stations.csv", stationsCSV)

	out, err := runGridctl(t, "",
		"--presets", presets, "--table", "site_pumps",
		"--filter", "pumps=gte:5", "--sort", "city:asc",
		"--size", "1", "--page", "2",
		file,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Trondheim 6 No"}, bodyLines(out))
	assert.Contains(t, out, "14", "footer sums the filtered rows")
	assert.True(t, strings.HasSuffix(out, "Page 2 of 2 · 2 rows\n"), out)
}

func TestRun_Export(t *testing.T) {
	dir := t.TempDir()
	presets := writeFile(t, dir, "presets.yaml", stationsPresets)
	exportDir := filepath.Join(dir, "out")

	_, err := runGridctl(t, stationsCSV,
		"--presets", presets, "--table", "site_pumps",
		"--search", "yes", "--sort", "pumps:desc",
		"--export", exportDir,
		"-",
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(exportDir, "site_pumps.csv"))
	require.NoError(t, err)
	assert.Equal(t, "city,pumps,active\nOslo,8,Yes\nBergen,4,Yes", string(data))
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", nil, "expected one CSV file"},
		{"unknown table", []string{"--table", "pumps", "-"}, "unknown table"},
		{"bad filter", []string{"--filter", "pumps", "-"}, "invalid filter"},
		{"bad direction", []string{"--sort", "city:sideways", "-"}, "invalid sort direction"},
		{"bad delimiter", []string{"--delimiter", ";;", "-"}, "invalid delimiter"},
		{"unknown sort column", []string{"--sort", "price", "-"}, "price"},
		{"selected scope", []string{"--export", t.TempDir(), "--scope", "selected", "-"}, "needs a selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runGridctl(t, stationsCSV, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_BOMAndInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "pumps.csv", "\xEF\xBB\xBFcity,pumps\nOsl\xFFo,8\nBergen,4\n")
	exportDir := filepath.Join(dir, "out")

	out, err := runGridctl(t, "", "--sort", "city", "--export", exportDir, file)
	require.NoError(t, err)

	assert.Contains(t, out, "city ▲", "BOM must not stick to the first header")
	assert.Equal(t, []string{"Bergen 4", "Osl\uFFFDo 8"}, bodyLines(out))
	assert.True(t, utf8.ValidString(out))

	data, err := os.ReadFile(filepath.Join(exportDir, "pumps.csv"))
	require.NoError(t, err)
	assert.Equal(t, "city,pumps\nBergen,4\nOsl\uFFFDo,8", string(data))
}

func TestParseFilterFlags(t *testing.T) {
	got, err := parseFilterFlags([]string{"city=in:Oslo,Bergen", "note=12:30", "pumps=6"})
	require.NoError(t, err)
	assert.Equal(t, []grid.ColumnFilter{
		{ColumnID: "city", Operator: grid.OpIn, Value: "Oslo,Bergen"},
		{ColumnID: "note", Value: "12:30"},
		{ColumnID: "pumps", Value: "6"},
	}, got)
}

func TestParseSortFlags(t *testing.T) {
	got, err := parseSortFlags([]string{"city", "pumps:DESC"})
	require.NoError(t, err)
	assert.Equal(t, grid.Sorting{
		{ColumnID: "city", Direction: grid.SortAsc},
		{ColumnID: "pumps", Direction: grid.SortDesc},
	}, got)
}

func TestReadRows_RegisteredHeaderNames(t *testing.T) {
	def := core.GridDefinition{
		Info: core.TableInfo{Key: "tanks", Columns: []string{"tank_id", "capacity_l"}},
		FieldSpecs: []core.FieldSpec{
			{Name: "Tank", DBColumn: "tank_id"},
			{Name: "Capacity (L)", DBColumn: "capacity_l", Type: grid.FieldNumeric},
		},
	}
	rows, _, err := readRows(strings.NewReader("\ufeffTank;Capacity (L)\nT1;\"12 000\"\nT2;\n"), def, ";", "tanks.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "T1", rows[0]["tank_id"])
	assert.Nil(t, rows[1]["capacity_l"])
}
