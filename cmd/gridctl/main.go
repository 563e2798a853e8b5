// gridctl renders a CSV file through the same grid engine the dashboard
// uses: sort, filter, search and page it from the command line, with
// column types and footers taken from a registered table or a preset file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/fuelgrid/internal/core"
	_ "github.com/JonMunkholm/fuelgrid/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/fuelgrid/internal/grid"
	"github.com/JonMunkholm/fuelgrid/internal/grid/sink"
	"github.com/JonMunkholm/fuelgrid/internal/logging"
	"github.com/JonMunkholm/fuelgrid/internal/preset"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	table     string
	presets   string
	sort      []string
	filters   []string
	search    string
	page      int
	size      int
	exportDir string
	scope     string
	delimiter string
	noColor   bool
	logLevel  string
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := pflag.NewFlagSet("gridctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.table, "table", "t", "", "registered table or preset whose columns describe the file")
	fs.StringVar(&o.presets, "presets", "", "YAML preset file")
	fs.StringSliceVarP(&o.sort, "sort", "s", nil, "sort keys as column[:asc|desc], in priority order")
	fs.StringArrayVarP(&o.filters, "filter", "f", nil, "column filter as column=[op:]value (repeatable)")
	fs.StringVarP(&o.search, "search", "q", "", "global search text")
	fs.IntVarP(&o.page, "page", "p", 1, "page number, starting at 1")
	fs.IntVarP(&o.size, "size", "n", 0, "rows per page (default from table or preset)")
	fs.StringVar(&o.exportDir, "export", "", "write the rows to a CSV file in this directory")
	fs.StringVar(&o.scope, "scope", "filtered", "export scope: filtered or page")
	fs.StringVar(&o.delimiter, "delimiter", ",", "input field delimiter")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colors")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gridctl [flags] FILE.csv\n\nReads FILE (or stdin for -) and prints one page of the grid.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	return o, fs.Args(), nil
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, rest, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("expected one CSV file, got %d arguments", len(rest))
	}
	logger := logging.New(os.Stderr, opts.logLevel, "text")

	var set *preset.Set
	if opts.presets != "" {
		if set, err = preset.Load(opts.presets); err != nil {
			return err
		}
	}
	p, _ := set.Get(opts.table)

	def, err := resolveDefinition(opts.table, p)
	if err != nil {
		return err
	}

	in, name, closeFn, err := openInput(rest[0], stdin)
	if err != nil {
		return err
	}
	defer closeFn()

	rows, def, err := readRows(in, def, opts.delimiter, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	logger.Debug("csv loaded", "file", name, "rows", len(rows), "columns", len(def.FieldSpecs))

	cfg, err := engineConfig(def, p, opts)
	if err != nil {
		return err
	}
	cfg.Data = rows
	cfg.Logger = logger

	engine, err := grid.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.SetPageIndex(opts.page - 1); err != nil {
		return err
	}

	profile := termenv.EnvColorProfile()
	if opts.noColor {
		profile = termenv.Ascii
	}
	newRenderer(stdout, profile).render(def.Info.Label, engine.Model(), engine.View())

	if opts.exportDir != "" {
		scope := grid.ParseExportScope(opts.scope)
		if p.Export.Scope != "" && opts.scope == "filtered" {
			scope = p.ExportScope()
		}
		if scope == grid.ExportSelected {
			return fmt.Errorf("export scope %q needs a selection", opts.scope)
		}
		dir := sink.NewDirSink(opts.exportDir)
		if err := engine.ExportTo(context.Background(), scope, dir); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		logger.Info("exported", "dir", opts.exportDir, "scope", scope.String())
	}
	return nil
}

// engineConfig assembles the grid configuration. Flags override the
// preset, which overrides the table definition.
func engineConfig(def core.GridDefinition, p preset.Preset, opts options) (grid.Config[core.TableRow, string], error) {
	cfg := grid.Config[core.TableRow, string]{
		Columns:              core.GridColumns(def, p.Hidden...),
		InitialSorting:       def.DefaultSorting,
		InitialColumnFilters: p.ColumnFilters(),
		InitialGlobalFilter:  p.Search,
		DefaultPageSize:      def.DefaultPageSize,
		PageSizeOptions:      def.PageSizeOptions,
		Export: &grid.ExportConfig[core.TableRow]{
			Enabled:  true,
			Filename: def.Info.Key,
		},
	}
	if p.Export.Filename != "" {
		cfg.Export.Filename = p.Export.Filename
	}
	if s := p.GridSorting(); len(s) > 0 {
		cfg.InitialSorting = s
	}
	if p.PageSize > 0 {
		cfg.DefaultPageSize = p.PageSize
	}
	if len(p.PageSizeOptions) > 0 {
		cfg.PageSizeOptions = p.PageSizeOptions
	}

	if len(opts.sort) > 0 {
		sorting, err := parseSortFlags(opts.sort)
		if err != nil {
			return cfg, err
		}
		cfg.InitialSorting = sorting
	}
	if len(opts.filters) > 0 {
		filters, err := parseFilterFlags(opts.filters)
		if err != nil {
			return cfg, err
		}
		cfg.InitialColumnFilters = filters
	}
	if opts.search != "" {
		cfg.InitialGlobalFilter = opts.search
	}
	if opts.size > 0 {
		cfg.DefaultPageSize = opts.size
		cfg.PageSizeOptions = []int{opts.size}
	}
	if len(def.Info.UniqueKey) > 0 {
		uniqueKey := def.Info.UniqueKey
		cfg.RowKey = func(r core.TableRow) string { return core.RowKey(r, uniqueKey) }
	}
	return cfg, nil
}

// parseSortFlags reads column[:dir] keys.
func parseSortFlags(keys []string) (grid.Sorting, error) {
	var sorting grid.Sorting
	for _, key := range keys {
		col, dir, _ := strings.Cut(key, ":")
		d := grid.SortAsc
		if dir != "" {
			if d = grid.ParseSortDirection(dir); d == grid.SortNone {
				return nil, fmt.Errorf("invalid sort direction %q for %s", dir, col)
			}
		}
		sorting = append(sorting, grid.SortSpec{ColumnID: strings.TrimSpace(col), Direction: d})
	}
	return sorting, nil
}

// parseFilterFlags reads column=[op:]value filters. A value whose prefix
// is not an operator is taken whole.
func parseFilterFlags(raw []string) ([]grid.ColumnFilter, error) {
	filters := make([]grid.ColumnFilter, 0, len(raw))
	for _, r := range raw {
		col, value, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("invalid filter %q, want column=[op:]value", r)
		}
		cf := grid.ColumnFilter{ColumnID: strings.TrimSpace(col), Value: value}
		if prefix, rest, ok := strings.Cut(value, ":"); ok {
			if op := grid.FilterOperator(strings.ToLower(prefix)); op != "" && grid.ValidOperator(op) {
				cf.Operator, cf.Value = op, rest
			}
		}
		filters = append(filters, cf)
	}
	return filters, nil
}

func openInput(path string, stdin io.Reader) (io.Reader, string, func(), error) {
	if path == "-" {
		return stdin, "stdin", func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, err
	}
	return f, path, func() { f.Close() }, nil
}
