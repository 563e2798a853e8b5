package grid

import (
	"bytes"
	"context"
	"strings"
)

// CSVMimeType is the MIME type of exported files.
const CSVMimeType = "text/csv;charset=utf-8"

type (
	// FileSink receives a finished export file.
	FileSink interface {
		Emit(ctx context.Context, filename, mimeType string, data []byte) error
	}

	// FileSinkFunc adapts a function to FileSink.
	FileSinkFunc func(ctx context.Context, filename, mimeType string, data []byte) error

	// ExportOptions controls one export.
	ExportOptions[Row any] struct {
		// Filename without extension; "export" when empty.
		Filename string
		// Formatter transforms the rows before serialization.
		Formatter func([]Row) []Row
		// OnExport, when set, receives the rows instead of the CSV path.
		OnExport func(ctx context.Context, rows []Row) error
	}
)

func (f FileSinkFunc) Emit(ctx context.Context, filename, mimeType string, data []byte) error {
	return f(ctx, filename, mimeType, data)
}

// ExportFilename appends .csv to name, defaulting to "export".
func ExportFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "export"
	}
	return name + ".csv"
}

// EscapeCSVField quotes a field containing a comma, a double quote, a
// carriage return or a newline, doubling any inner quotes.
func EscapeCSVField(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// EncodeCSV serializes rows over cols. The header is the column ids; rows
// are separated by a single newline with none after the last.
func EncodeCSV[Row any](cols []Column[Row], rows []Row) []byte {
	var buf bytes.Buffer

	for i := range cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(EscapeCSVField(cols[i].ID))
	}

	for _, r := range rows {
		buf.WriteByte('\n')
		for i := range cols {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(EscapeCSVField(cols[i].Format(r)))
		}
	}
	return buf.Bytes()
}

// ExportRows runs the export pipeline: formatter, then either the host's
// OnExport or CSV serialization handed to sink. With no exportable columns
// nothing is emitted. With no rows a header-only file is emitted.
func ExportRows[Row any](
	ctx context.Context, m *ColumnModel[Row], rows []Row, opts ExportOptions[Row], sink FileSink,
) error {
	if opts.Formatter != nil {
		rows = opts.Formatter(rows)
	}
	if opts.OnExport != nil {
		return opts.OnExport(ctx, rows)
	}

	cols := m.Exportable()
	if len(cols) == 0 {
		return nil
	}
	if sink == nil {
		return ErrNoSink
	}
	return sink.Emit(ctx, ExportFilename(opts.Filename), CSVMimeType, EncodeCSV(cols, rows))
}
