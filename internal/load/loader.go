// Package load reads raw tabular sources into in-memory tables.
//
// The loader is the only component that touches a Source. It produces a
// table whose column order matches the schema descriptor regardless of
// source column order, records dropped and absent columns as warnings, and
// never mutates the source. Values that parse are typed; values that do
// not parse their declared type are kept as raw text for the validator to
// report, so no row is ever silently hidden by loading.
package load

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/table"
)

// contextCheckInterval is how many rows pass between cancellation checks.
var contextCheckInterval = 1000

// Stats describes what the loader observed while reading a source.
type Stats struct {
	Source         string   `json:"source"`
	Rows           int      `json:"rows"`
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	AbsentColumns  []string `json:"absent_columns,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Load reads every row of src into a table shaped by desc.
//
// Source fields not declared in the schema are dropped with a warning;
// declared fields absent from the source become explicit missing markers.
// Fails with ErrSourceUnavailable (wrapped) or *ParseError; data-quality
// problems never fail a load.
func Load(ctx context.Context, src Source, desc *schema.Descriptor) (*table.Table, *Stats, error) {
	rows, err := src.Open()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	stats := &Stats{Source: src.Name()}
	fields := desc.Fields()

	// Map each declared column to its source position, case-insensitively.
	srcIdx := make(map[string]int, len(rows.Header()))
	for i, h := range rows.Header() {
		srcIdx[strings.ToLower(table.CleanCell(h))] = i
	}

	positions := make([]int, len(fields))
	declared := make(map[string]bool, len(fields))
	for i, f := range fields {
		declared[strings.ToLower(f.Name)] = true
		pos, ok := srcIdx[strings.ToLower(f.Name)]
		if !ok {
			positions[i] = -1
			stats.AbsentColumns = append(stats.AbsentColumns, f.Name)
			stats.Warnings = append(stats.Warnings,
				fmt.Sprintf("column %q absent from source; loading as missing", f.Name))
			continue
		}
		positions[i] = pos
	}
	for _, h := range rows.Header() {
		name := table.CleanCell(h)
		if !declared[strings.ToLower(name)] {
			stats.DroppedColumns = append(stats.DroppedColumns, name)
			stats.Warnings = append(stats.Warnings,
				fmt.Sprintf("column %q not declared in schema; dropped", name))
		}
	}

	tbl := table.New(desc.Dataset(), desc.Columns())

	for n := 0; ; n++ {
		if n%contextCheckInterval == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		record, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if isEmptyRecord(record) {
			continue
		}

		row := make(table.Row, len(fields))
		for i, f := range fields {
			pos := positions[i]
			if pos < 0 || pos >= len(record) {
				row[i] = table.Missing()
				continue
			}
			row[i] = parseCell(record[pos], f.Type)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, nil, err
		}
	}

	stats.Rows = tbl.Len()
	slog.Debug("dataset loaded",
		"source", src.Name(),
		"dataset", desc.Dataset(),
		"rows", stats.Rows,
		"dropped_columns", len(stats.DroppedColumns),
		"absent_columns", len(stats.AbsentColumns),
	)
	return tbl, stats, nil
}

// parseCell converts one raw field into a typed value. A non-empty cell
// that fails to parse its declared type is kept as raw text so the
// validator reports it as a type mismatch instead of the loader aborting.
func parseCell(raw string, ft schema.FieldType) table.Value {
	raw = table.CleanCell(raw)
	if raw == "" {
		return table.Missing()
	}

	var v table.Value
	var ok bool
	switch ft {
	case schema.FieldInt:
		v, ok = table.ParseInt(raw)
	case schema.FieldFloat:
		v, ok = table.ParseFloat(raw)
	case schema.FieldBool:
		v, ok = table.ParseBool(raw)
	case schema.FieldDate:
		v, ok = table.ParseDate(raw)
	case schema.FieldList:
		v, ok = table.ParseList(raw)
	default:
		return table.NewText(raw)
	}
	if !ok {
		return table.NewText(raw)
	}
	return v
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
