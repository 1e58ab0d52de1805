// Package importer turns uploaded census, harvest, price, soil, pest and
// rainfall sheets into catalog rows.
//
// One Run is one file: parse, map headers to columns, insert the whole
// batch atomically. Validation is deliberately thin; values land as
// entered and the reference resolver cleans up geography afterwards.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"darem/internal/config"
	"darem/internal/metrics"
	"darem/internal/parser"
	"darem/internal/parser/csv"
	"darem/internal/parser/xlsx"
	"darem/internal/storage"
)

// Logger is the minimal logging surface the pipeline needs.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Resolver is called once after a census batch commits, scoped to that
// batch's tag. Wired from cmd so importer and resolver stay decoupled.
type Resolver interface {
	ResolveBatch(ctx context.Context, batchTag string) error
}

// Report summarizes one import run.
type Report struct {
	Kind       Kind
	Table      string
	SourceRows int
	Inserted   int64
	Malformed  int
	Duration   time.Duration
}

// Pipeline executes import runs against one repository.
type Pipeline struct {
	Repo   storage.Repository
	Logger Logger

	// Resolver, when set, runs the reference-resolution pass after each
	// committed census batch.
	Resolver Resolver

	// ParserOptions are forwarded to the sheet readers (delimiter,
	// encoding, ...).
	ParserOptions config.Options
}

func (p *Pipeline) log() Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return nopLogger{}
}

// Run imports one file of the given kind. The batch commits whole or not
// at all; a header contract violation aborts before any insert.
func (p *Pipeline) Run(ctx context.Context, kind Kind, path string) (Report, error) {
	start := time.Now()
	rep, err := p.run(ctx, kind, path)
	rep.Duration = time.Since(start)
	metrics.RecordImport(string(kind), rep.Inserted, int64(rep.Malformed), rep.Duration, err)
	if err != nil {
		p.log().Printf("stage=import kind=%s file=%s error=%v", kind, filepath.Base(path), err)
		return rep, err
	}
	p.log().Printf("stage=import kind=%s file=%s rows=%d inserted=%d malformed=%d duration=%s",
		kind, filepath.Base(path), rep.SourceRows, rep.Inserted, rep.Malformed, rep.Duration.Round(time.Millisecond))
	return rep, nil
}

func (p *Pipeline) run(ctx context.Context, kind Kind, path string) (Report, error) {
	rep := Report{Kind: kind}

	spec, err := specFor(kind)
	if err != nil {
		return rep, err
	}
	rep.Table = spec.Table

	f, err := os.Open(path)
	if err != nil {
		return rep, fmt.Errorf("%w: %v", ErrInput, err)
	}
	defer f.Close()

	table, err := p.readTable(ctx, f, path)
	if err != nil {
		return rep, fmt.Errorf("%w: %v", ErrInput, err)
	}
	rep.SourceRows = len(table.Rows)

	var (
		columns []string
		rows    [][]any
	)
	if kind == KindRainfall {
		columns, rows, rep.Malformed, err = rainfallRows(table)
	} else {
		columns, rows, err = mapRows(spec, table)
	}
	if err != nil {
		return rep, err
	}

	rep.Inserted, err = p.Repo.InsertRows(ctx, spec.Table, columns, rows)
	if err != nil {
		return rep, fmt.Errorf("insert into %s: %w", spec.Table, err)
	}

	if kind == KindFarmerCensus && p.Resolver != nil {
		if err := p.Resolver.ResolveBatch(ctx, CensusBatchTag); err != nil {
			return rep, fmt.Errorf("resolve batch: %w", err)
		}
	}
	return rep, nil
}

// readTable picks the reader by file extension; everything that is not a
// workbook goes through the csv reader.
func (p *Pipeline) readTable(ctx context.Context, src io.Reader, path string) (parser.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsx.ReadTable(ctx, src, p.ParserOptions)
	default:
		return csv.ReadTable(ctx, src, p.ParserOptions)
	}
}

// mapRows applies a kind's header contract to a parsed sheet. All
// required headers must be present, by exact text; otherwise the run
// aborts listing every missing one. Empty cells become NULL.
func mapRows(spec kindSpec, table parser.Table) ([]string, [][]any, error) {
	idx := make([]int, len(spec.Columns))
	var missing []string
	for i, cm := range spec.Columns {
		idx[i] = table.ColumnIndex(cm.Header)
		if idx[i] < 0 {
			missing = append(missing, strconv.Quote(cm.Header))
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: missing header(s) %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	columns := make([]string, 0, len(spec.Columns)+len(spec.Extra))
	for _, cm := range spec.Columns {
		columns = append(columns, cm.Column)
	}
	for _, ec := range spec.Extra {
		columns = append(columns, ec.Column)
	}

	rows := make([][]any, 0, len(table.Rows))
	for j := range table.Rows {
		row := make([]any, 0, len(columns))
		for i, cm := range spec.Columns {
			row = append(row, cellValue(table.At(j, idx[i]), cm.Kind))
		}
		for _, ec := range spec.Extra {
			row = append(row, ec.Value)
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// cellValue converts one cell into a bind value. Empty means NULL; an
// asReal cell that parses as a number binds typed, anything else passes
// through as the entered text.
func cellValue(cell string, kind int) any {
	if cell == "" {
		return nil
	}
	if kind == asReal {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f
		}
	}
	return cell
}

// rainfallRows reconstructs the wide rainfall sheet into weather_data
// rows. Dates store in ISO form so every backend's date handling agrees.
func rainfallRows(table parser.Table) ([]string, [][]any, int, error) {
	obs, malformed, err := ReconstructRainfall(table)
	if err != nil {
		return nil, nil, 0, err
	}

	columns := []string{"obs_date", "rain_amount", "remarks"}
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []any{
			o.Date.Format("2006-01-02"),
			cellValue(o.Amount, asReal),
			rainRemark,
		})
	}
	return columns, rows, malformed, nil
}
