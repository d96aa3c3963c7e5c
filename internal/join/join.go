// Package join combines two validated tables on a declared key
// relationship.
//
// The joiner assumes both sides already passed schema validation; it checks
// only that the key columns exist. A hash index is built over the smaller
// table (O(n) build, O(1) average probe) and the other table is scanned.
// Duplicate keys on the index side expand cartesian within the group — the
// recipes/interactions relationship is one-to-many, and flipping the index
// side must not change result cardinality.
//
// Results are full copies: a JoinResult never aliases its inputs, so
// downstream mutation of a source table cannot corrupt it.
package join

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/DataCheck/internal/table"
)

// Mode selects which unmatched rows survive the join.
type Mode string

const (
	Inner Mode = "inner"
	Left  Mode = "left"
	Right Mode = "right"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case Inner:
		return Inner, nil
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	}
	return "", fmt.Errorf("unknown join mode %q", s)
}

// KeyColumnMissingError reports a declared join key absent from a table.
type KeyColumnMissingError struct {
	Table   string
	Columns []string
}

func (e *KeyColumnMissingError) Error() string {
	return fmt.Sprintf("join key column(s) missing from %s: %s", e.Table, strings.Join(e.Columns, ", "))
}

// Result is a combined table plus match accounting.
//
// Matched counts emitted matched rows. LeftOnly/RightOnly count rows with
// a complete key but no partner. LeftNoKey/RightNoKey count rows whose key
// contains a missing value; those are "not applicable", never unmatched.
// When the opposite side's keys are unique (the validated one-to-many
// case), Matched + sideOnly + sideNoKey equals that side's row count.
type Result struct {
	Table *table.Table `json:"-"`

	Matched    int `json:"matched"`
	LeftOnly   int `json:"left_only"`
	RightOnly  int `json:"right_only"`
	LeftNoKey  int `json:"left_no_key"`
	RightNoKey int `json:"right_no_key"`
}

// keySep separates composite key components in the index.
const keySep = "\x1e"

// Join combines left and right on leftKey/rightKey under the given mode.
func Join(left, right *table.Table, leftKey, rightKey []string, mode Mode) (*Result, error) {
	if len(leftKey) == 0 || len(leftKey) != len(rightKey) {
		return nil, fmt.Errorf("join: left key %v and right key %v must be non-empty and the same length", leftKey, rightKey)
	}
	switch mode {
	case Inner, Left, Right:
	default:
		return nil, fmt.Errorf("unknown join mode %q", mode)
	}

	leftPos, err := joinKeyPositions(left, leftKey)
	if err != nil {
		return nil, err
	}
	rightPos, err := joinKeyPositions(right, rightKey)
	if err != nil {
		return nil, err
	}

	out := table.New(left.Name+"_"+right.Name, combinedColumns(left, right))
	res := &Result{Table: out}

	// Index the smaller side, probe from the larger.
	indexRight := right.Len() <= left.Len()

	var idxTbl, probeTbl *table.Table
	var idxPos, probePos []int
	if indexRight {
		idxTbl, idxPos = right, rightPos
		probeTbl, probePos = left, leftPos
	} else {
		idxTbl, idxPos = left, leftPos
		probeTbl, probePos = right, rightPos
	}

	index := make(map[string][]int, idxTbl.Len())
	idxNoKey := 0
	for i, row := range idxTbl.Rows {
		k, ok := rowKey(row, idxPos)
		if !ok {
			idxNoKey++
			continue
		}
		index[k] = append(index[k], i)
	}

	idxMatched := make([]bool, idxTbl.Len())
	probeOnly := 0
	probeNoKey := 0

	keepProbe := (indexRight && mode == Left) || (!indexRight && mode == Right)
	keepIndex := (indexRight && mode == Right) || (!indexRight && mode == Left)

	for _, row := range probeTbl.Rows {
		k, ok := rowKey(row, probePos)
		if !ok {
			probeNoKey++
			if keepProbe {
				appendPadded(out, row, indexRight, left, right)
			}
			continue
		}
		matches := index[k]
		if len(matches) == 0 {
			probeOnly++
			if keepProbe {
				appendPadded(out, row, indexRight, left, right)
			}
			continue
		}
		for _, mi := range matches {
			idxMatched[mi] = true
			appendCombined(out, row, idxTbl.Rows[mi], indexRight)
			res.Matched++
		}
	}

	idxOnly := 0
	for i, row := range idxTbl.Rows {
		if idxMatched[i] {
			continue
		}
		if _, ok := rowKey(row, idxPos); !ok {
			continue // counted under idxNoKey
		}
		idxOnly++
		if keepIndex {
			appendPadded(out, row, !indexRight, left, right)
		}
	}
	if keepIndex {
		// No-key rows also survive an outer join on their side.
		for i, row := range idxTbl.Rows {
			if idxMatched[i] {
				continue
			}
			if _, ok := rowKey(row, idxPos); ok {
				continue
			}
			appendPadded(out, row, !indexRight, left, right)
		}
	}

	if indexRight {
		res.LeftOnly, res.LeftNoKey = probeOnly, probeNoKey
		res.RightOnly, res.RightNoKey = idxOnly, idxNoKey
	} else {
		res.RightOnly, res.RightNoKey = probeOnly, probeNoKey
		res.LeftOnly, res.LeftNoKey = idxOnly, idxNoKey
	}

	return res, nil
}

// combinedColumns lays out left columns followed by right columns, with
// clashing right names suffixed "_right".
func combinedColumns(left, right *table.Table) []string {
	cols := make([]string, 0, len(left.Columns)+len(right.Columns))
	taken := make(map[string]bool, len(left.Columns))
	for _, c := range left.Columns {
		cols = append(cols, c)
		taken[c] = true
	}
	for _, c := range right.Columns {
		if taken[c] {
			c += "_right"
		}
		cols = append(cols, c)
	}
	return cols
}

// appendCombined emits a matched row. probeIsLeft tells which side the
// probe row belongs to so output cells land in left-then-right order.
func appendCombined(out *table.Table, probeRow, idxRow table.Row, probeIsLeft bool) {
	leftRow, rightRow := probeRow, idxRow
	if !probeIsLeft {
		leftRow, rightRow = idxRow, probeRow
	}
	combined := make(table.Row, 0, len(leftRow)+len(rightRow))
	for _, v := range leftRow {
		combined = append(combined, v.Clone())
	}
	for _, v := range rightRow {
		combined = append(combined, v.Clone())
	}
	out.Rows = append(out.Rows, combined)
}

// appendPadded emits an unmatched row with the other side's columns filled
// with missing markers.
func appendPadded(out *table.Table, row table.Row, rowIsLeft bool, left, right *table.Table) {
	combined := make(table.Row, 0, len(left.Columns)+len(right.Columns))
	if rowIsLeft {
		for _, v := range row {
			combined = append(combined, v.Clone())
		}
		for range right.Columns {
			combined = append(combined, table.Missing())
		}
	} else {
		for range left.Columns {
			combined = append(combined, table.Missing())
		}
		for _, v := range row {
			combined = append(combined, v.Clone())
		}
	}
	out.Rows = append(out.Rows, combined)
}

func joinKeyPositions(t *table.Table, key []string) ([]int, error) {
	pos := make([]int, len(key))
	var missing []string
	for i, k := range key {
		p := t.ColumnIndex(k)
		if p < 0 {
			missing = append(missing, k)
			continue
		}
		pos[i] = p
	}
	if len(missing) > 0 {
		return nil, &KeyColumnMissingError{Table: t.Name, Columns: missing}
	}
	return pos, nil
}

func rowKey(row table.Row, pos []int) (string, bool) {
	parts := make([]string, len(pos))
	for i, p := range pos {
		v := row[p]
		if !v.Valid {
			return "", false
		}
		parts[i] = v.Key()
	}
	return strings.Join(parts, keySep), true
}
