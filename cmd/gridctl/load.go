package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	"github.com/JonMunkholm/fuelgrid/internal/preset"
)

// resolveDefinition finds the columns for table: a registered table
// first, then the preset's column declarations. An empty table leaves the
// columns to the file header.
func resolveDefinition(table string, p preset.Preset) (core.GridDefinition, error) {
	if def, ok := core.Get(table); ok {
		return def, nil
	}
	if len(p.Columns) == 0 {
		if table != "" {
			return core.GridDefinition{}, fmt.Errorf("%w: %s has no registered table or preset columns", core.ErrUnknownTable, table)
		}
		return core.GridDefinition{}, nil
	}

	def := core.GridDefinition{
		Info: core.TableInfo{Key: table, Label: table, UniqueKey: p.RowKey},
	}
	for _, c := range p.Columns {
		def.FieldSpecs = append(def.FieldSpecs, core.FieldSpec{
			Name:     c.Label(),
			DBColumn: c.ID,
			Type:     c.FieldType(),
			Hidden:   c.Hidden,
			NoExport: c.NoExport,
			Footer:   c.Footer,
			Decimals: c.Decimals,
		})
		def.Info.Columns = append(def.Info.Columns, c.ID)
	}
	return def, nil
}

// readRows parses the CSV in r into grid rows. A BOM is skipped and
// invalid UTF-8 is replaced before parsing. Header cells are matched
// to columns by id or display name, ignoring case. When def has no
// columns every header cell becomes a text column named after the file.
func readRows(r io.Reader, def core.GridDefinition, delimiter, name string) ([]core.TableRow, core.GridDefinition, error) {
	comma, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, def, err
	}
	cr := csv.NewReader(core.WrapCSVInput(r))
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, def, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, def, err
	}
	if len(def.FieldSpecs) == 0 {
		def = headerDefinition(header, name)
	}

	index := make([]int, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		index[i] = headerIndex(header, spec)
	}

	var rows []core.TableRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, def, err
		}
		if blank(record) {
			continue
		}
		row := make(core.TableRow, len(def.FieldSpecs))
		for i, spec := range def.FieldSpecs {
			var cell string
			if j := index[i]; j >= 0 && j < len(record) {
				cell = record[j]
			}
			row[spec.Column()] = core.ParseCell(spec.Type, cell)
		}
		rows = append(rows, row)
	}
	return rows, def, nil
}

func headerDefinition(header []string, name string) core.GridDefinition {
	key := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	def := core.GridDefinition{Info: core.TableInfo{Key: key, Label: key}}
	for _, h := range header {
		h = strings.TrimSpace(h)
		def.FieldSpecs = append(def.FieldSpecs, core.FieldSpec{Name: h, DBColumn: h})
		def.Info.Columns = append(def.Info.Columns, h)
	}
	return def
}

// headerIndex returns the position of spec's column in header, or -1.
func headerIndex(header []string, spec core.FieldSpec) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, spec.Column()) || strings.EqualFold(h, spec.Name) {
			return i
		}
	}
	return -1
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == '"' || r == '\n' || r == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
