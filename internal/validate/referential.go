package validate

// referential.go checks the foreign-key relationship between two tables.
//
// Dangling child keys are always reported, never silently dropped: callers
// may tolerate partial coverage, but they get to see it. A child row whose
// foreign key is missing is not dangling; absence of a relation is
// semantically different from a dangling reference, so those rows count
// under "not applicable". Parents without children are a coverage
// statistic, not a violation — a recipe with zero interactions is a valid
// state.

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/table"
)

// ValidateReferential checks that every child foreign key references an
// existing parent key. Fails only when a key column is absent from its
// table; coverage findings go into the report.
func ValidateReferential(parent *table.Table, parentKey []string, child *table.Table, childKey []string) (*Report, error) {
	if len(parentKey) == 0 || len(parentKey) != len(childKey) {
		return nil, fmt.Errorf("referential check: parent key %v and child key %v must be non-empty and the same length", parentKey, childKey)
	}

	parentPos, err := keyPositions(parent, parentKey)
	if err != nil {
		return nil, err
	}
	childPos, err := keyPositions(child, childKey)
	if err != nil {
		return nil, err
	}

	// Parent key set: O(parent) build, O(1) probe per child row.
	parentKeys := make(map[string]bool, parent.Len())
	for _, row := range parent.Rows {
		if k, ok := compositeKey(row, parentPos); ok {
			parentKeys[k] = false
		}
	}

	stats := &RefStats{ChildRows: child.Len(), ParentRows: parent.Len()}
	column := strings.Join(childKey, ",")
	var violations []schema.Violation

	for i, row := range child.Rows {
		k, ok := compositeKey(row, childPos)
		if !ok {
			stats.NotApplicable++
			continue
		}
		if _, exists := parentKeys[k]; exists {
			stats.Matched++
			parentKeys[k] = true
			continue
		}
		stats.Dangling++
		violations = append(violations, schema.Violation{
			Row:     i,
			Column:  column,
			Code:    schema.CodeDanglingRef,
			Value:   displayKey(row, childPos),
			Message: fmt.Sprintf("no matching key in %s", parent.Name),
		})
	}

	// Coverage: parent rows whose key was referenced by at least one child.
	for _, row := range parent.Rows {
		k, ok := compositeKey(row, parentPos)
		if !ok {
			continue
		}
		if parentKeys[k] {
			stats.ParentsWithChildren++
		} else {
			stats.ParentsWithoutChildren++
		}
	}

	return &Report{Dataset: child.Name, Violations: violations, Ref: stats}, nil
}

// keyPositions resolves key column names to table positions, failing with
// a schema mismatch when any is absent.
func keyPositions(t *table.Table, key []string) ([]int, error) {
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
		return nil, &SchemaMismatchError{Dataset: t.Name, Missing: missing}
	}
	return pos, nil
}

// compositeKey builds the canonical key string for a row. ok is false when
// any component is missing.
func compositeKey(row table.Row, pos []int) (string, bool) {
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
