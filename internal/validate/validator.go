// Package validate checks loaded tables against their schema descriptors
// and against each other's key sets.
//
// Validation is exhaustive by design: a single pass surfaces the complete
// defect list rather than stopping at the first failure. Data-quality
// problems are never errors here; they accumulate into a Report. The only
// fatal condition is a table whose columns cannot be reconciled with the
// schema at all, in which case no per-row evaluation is meaningful.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/table"
)

// ErrSchemaMismatch marks a table whose column set cannot be reconciled
// with its descriptor.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports which declared columns the table lacks.
type SchemaMismatchError struct {
	Dataset string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("dataset %s: missing columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// keySep joins key components; a control byte keeps composite keys from
// colliding with data that contains separators.
const keySep = "\x1e"

// ValidateSchema evaluates every declared constraint against tbl: per-row
// type, nullability, and range checks, per-row cross-column counts, and
// the whole-table uniqueness of the descriptor's key.
func ValidateSchema(tbl *table.Table, desc *schema.Descriptor) (*Report, error) {
	return ValidateSchemaParallel(tbl, desc, 1)
}

// ValidateSchemaParallel is ValidateSchema with the per-row pass split
// across workers over disjoint row ranges. Results merge in original row
// order, so the report is identical regardless of worker count.
func ValidateSchemaParallel(tbl *table.Table, desc *schema.Descriptor, workers int) (*Report, error) {
	positions, err := reconcile(tbl, desc)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(tbl.Rows) {
		workers = 1
	}

	var violations []schema.Violation
	if workers == 1 {
		violations = validateRange(tbl, desc, positions, 0, len(tbl.Rows))
	} else {
		chunks := make([][]schema.Violation, workers)
		chunkSize := (len(tbl.Rows) + workers - 1) / workers

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			start := w * chunkSize
			end := start + chunkSize
			if end > len(tbl.Rows) {
				end = len(tbl.Rows)
			}
			wg.Add(1)
			go func(w, start, end int) {
				defer wg.Done()
				chunks[w] = validateRange(tbl, desc, positions, start, end)
			}(w, start, end)
		}
		wg.Wait()

		for _, c := range chunks {
			violations = append(violations, c...)
		}
	}

	violations = append(violations, checkUniqueness(tbl, desc, positions)...)

	return &Report{Dataset: desc.Dataset(), Violations: violations}, nil
}

// reconcile maps descriptor column order to table positions. Every
// declared column must exist in the table; extra table columns are
// ignored (they belong to someone else's schema).
func reconcile(tbl *table.Table, desc *schema.Descriptor) ([]int, error) {
	cols := desc.Columns()
	positions := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		pos := tbl.ColumnIndex(c)
		if pos < 0 {
			missing = append(missing, c)
			continue
		}
		positions[i] = pos
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{Dataset: desc.Dataset(), Missing: missing}
	}
	return positions, nil
}

// validateRange runs the descriptor's per-row checks over [start, end),
// stamping each violation with its original row index.
func validateRange(tbl *table.Table, desc *schema.Descriptor, positions []int, start, end int) []schema.Violation {
	var out []schema.Violation
	projected := make(table.Row, len(positions))
	for i := start; i < end; i++ {
		row := tbl.Rows[i]
		for j, pos := range positions {
			projected[j] = row[pos]
		}
		for _, v := range desc.ValidateRow(projected) {
			v.Row = i
			out = append(out, v)
		}
	}
	return out
}

// checkUniqueness detects duplicate dataset keys across the whole table.
// Rows with a missing key component are skipped; those already carry a
// null violation. Exactly one violation is reported per occurrence beyond
// the first.
func checkUniqueness(tbl *table.Table, desc *schema.Descriptor, positions []int) []schema.Violation {
	key := desc.Key()
	keyPos := make([]int, len(key))
	cols := desc.Columns()
	for i, k := range key {
		for j, c := range cols {
			if c == k {
				keyPos[i] = positions[j]
			}
		}
	}

	column := strings.Join(key, ",")
	seen := make(map[string]int, len(tbl.Rows))
	var out []schema.Violation

	for i, row := range tbl.Rows {
		parts := make([]string, 0, len(keyPos))
		complete := true
		for _, pos := range keyPos {
			v := row[pos]
			if !v.Valid {
				complete = false
				break
			}
			parts = append(parts, v.Key())
		}
		if !complete {
			continue
		}

		k := strings.Join(parts, keySep)
		if first, dup := seen[k]; dup {
			out = append(out, schema.Violation{
				Row:     i,
				Column:  column,
				Code:    schema.CodeDuplicateKey,
				Value:   displayKey(row, keyPos),
				Message: fmt.Sprintf("duplicate key, first seen at row %d", first),
			})
			continue
		}
		seen[k] = i
	}
	return out
}

// displayKey renders a key tuple for report output.
func displayKey(row table.Row, keyPos []int) string {
	parts := make([]string, len(keyPos))
	for i, pos := range keyPos {
		parts[i] = row[pos].Display()
	}
	return strings.Join(parts, ",")
}
