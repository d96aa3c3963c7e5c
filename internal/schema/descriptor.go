// Package schema declares per-dataset column constraints.
//
// A Descriptor is pure configuration: the expected column set, types, and
// per-column constraints for one dataset. It performs no I/O and knows
// nothing about other datasets. Construction rejects malformed descriptors
// (duplicate column names, no declared key); everything else is reported by
// the validator as data findings, never construction failures.
package schema

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/DataCheck/internal/table"
)

// FieldType represents the expected data type for a dataset column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldFloat
	FieldBool
	FieldDate
	FieldList
)

// Kind maps the declared field type to its table value kind.
func (ft FieldType) Kind() table.Kind {
	switch ft {
	case FieldInt:
		return table.KindInt
	case FieldFloat:
		return table.KindFloat
	case FieldBool:
		return table.KindBool
	case FieldDate:
		return table.KindDate
	case FieldList:
		return table.KindList
	default:
		return table.KindText
	}
}

// String returns a human-readable name for the field type.
func (ft FieldType) String() string {
	return ft.Kind().String()
}

// FieldSpec defines the constraints for a single dataset column.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Nullable bool // missing values allowed
	Unique   bool // part of the dataset key; implies not null

	// Numeric range, inclusive. Nil means unbounded.
	Min *float64
	Max *float64

	// Date range, inclusive. Zero time means unbounded.
	MinDate time.Time
	MaxDate time.Time

	// CountOf names a list column whose length this int column must equal.
	// Checked per row only after the row's per-column constraints pass.
	CountOf string
}

// Code identifies a class of constraint violation.
type Code string

const (
	CodeMissingColumn Code = "missing_column"
	CodeTypeMismatch  Code = "type_mismatch"
	CodeNullViolation Code = "null_violation"
	CodeOutOfRange    Code = "out_of_range"
	CodeCountMismatch Code = "count_mismatch"
	CodeDuplicateKey  Code = "duplicate_key"
	CodeDanglingRef   Code = "dangling_reference"
)

// Violation is a single constraint finding. Row is the 0-based data row
// index, or -1 for table-level findings.
type Violation struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    Code   `json:"code"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Descriptor is the immutable constraint declaration for one dataset.
type Descriptor struct {
	dataset string
	fields  []FieldSpec
	index   map[string]int
	key     []string
}

// New builds a descriptor, rejecting duplicate column names and
// descriptors that declare no unique (key) column.
func New(dataset string, fields []FieldSpec) (*Descriptor, error) {
	if dataset == "" {
		return nil, fmt.Errorf("schema: dataset name is empty")
	}
	idx := make(map[string]int, len(fields))
	var key []string
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field %d has no name", dataset, i)
		}
		if _, dup := idx[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate column %q", dataset, f.Name)
		}
		idx[f.Name] = i
		if f.Unique {
			key = append(key, f.Name)
		}
		if f.CountOf != "" && f.Type != FieldInt {
			return nil, fmt.Errorf("schema %s: column %q declares CountOf but is not an int column", dataset, f.Name)
		}
	}
	for _, f := range fields {
		if f.CountOf == "" {
			continue
		}
		j, ok := idx[f.CountOf]
		if !ok {
			return nil, fmt.Errorf("schema %s: column %q counts unknown column %q", dataset, f.Name, f.CountOf)
		}
		if fields[j].Type != FieldList {
			return nil, fmt.Errorf("schema %s: column %q counts non-list column %q", dataset, f.Name, f.CountOf)
		}
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("schema %s: no unique column declared; every dataset needs a key", dataset)
	}
	specs := make([]FieldSpec, len(fields))
	copy(specs, fields)
	return &Descriptor{dataset: dataset, fields: specs, index: idx, key: key}, nil
}

// MustNew builds a descriptor and panics on error. For the descriptors
// compiled into the binary, a construction error is a programming bug.
func MustNew(dataset string, fields []FieldSpec) *Descriptor {
	d, err := New(dataset, fields)
	if err != nil {
		panic(err)
	}
	return d
}

// Dataset returns the dataset name.
func (d *Descriptor) Dataset() string { return d.dataset }

// Columns returns the declared column names in declaration order.
func (d *Descriptor) Columns() []string {
	cols := make([]string, len(d.fields))
	for i, f := range d.fields {
		cols[i] = f.Name
	}
	return cols
}

// Fields returns a copy of the field specs in declaration order.
func (d *Descriptor) Fields() []FieldSpec {
	specs := make([]FieldSpec, len(d.fields))
	copy(specs, d.fields)
	return specs
}

// Key returns the unique columns that together form the dataset key.
func (d *Descriptor) Key() []string {
	key := make([]string, len(d.key))
	copy(key, d.key)
	return key
}

// Field returns the spec for a column name.
func (d *Descriptor) Field(name string) (FieldSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return d.fields[i], true
}

// Required reports whether a column is required: non-nullable or part of
// the key. Violations on required columns are what fail a dataset.
func (d *Descriptor) Required(name string) bool {
	f, ok := d.Field(name)
	if !ok {
		return false
	}
	return f.Unique || !f.Nullable
}

// ValidateRow evaluates every per-column constraint against one row and,
// when all of those pass, the cross-column count constraints. The row must
// be aligned with the descriptor's column order (the loader guarantees
// this). Returned violations carry Row=-1; the caller stamps the index.
//
// Uniqueness is a whole-table property and is deliberately absent here.
func (d *Descriptor) ValidateRow(row table.Row) []Violation {
	if len(row) != len(d.fields) {
		return []Violation{{
			Row:     -1,
			Code:    CodeTypeMismatch,
			Message: fmt.Sprintf("row has %d cells, schema declares %d columns", len(row), len(d.fields)),
		}}
	}

	var out []Violation
	for i, f := range d.fields {
		v := row[i]

		if !v.Valid {
			if f.Unique || !f.Nullable {
				out = append(out, Violation{
					Row:     -1,
					Column:  f.Name,
					Code:    CodeNullViolation,
					Message: "required value is missing",
				})
			}
			continue
		}

		if v.Kind != f.Type.Kind() {
			out = append(out, Violation{
				Row:     -1,
				Column:  f.Name,
				Code:    CodeTypeMismatch,
				Value:   v.Display(),
				Message: fmt.Sprintf("expected %s, got %s", f.Type, v.Kind),
			})
			continue
		}

		if viol, ok := checkRange(f, v); !ok {
			out = append(out, viol)
		}
	}

	if len(out) > 0 {
		return out
	}

	// Cross-column counts are meaningless on malformed rows, so they run
	// only when every per-column check passed.
	for i, f := range d.fields {
		if f.CountOf == "" {
			continue
		}
		n := row[i]
		list := row[d.index[f.CountOf]]
		if !n.Valid || !list.Valid {
			continue
		}
		if n.Int != int64(len(list.List)) {
			out = append(out, Violation{
				Row:    -1,
				Column: f.Name,
				Code:   CodeCountMismatch,
				Value:  n.Display(),
				Message: fmt.Sprintf("%s is %d but %s has %d entries",
					f.Name, n.Int, f.CountOf, len(list.List)),
			})
		}
	}
	return out
}

// checkRange evaluates numeric and date range constraints for a valid,
// correctly-typed value.
func checkRange(f FieldSpec, v table.Value) (Violation, bool) {
	switch v.Kind {
	case table.KindInt, table.KindFloat:
		n := v.Float
		if v.Kind == table.KindInt {
			n = float64(v.Int)
		}
		if f.Min != nil && n < *f.Min {
			return rangeViolation(f, v), false
		}
		if f.Max != nil && n > *f.Max {
			return rangeViolation(f, v), false
		}
	case table.KindDate:
		if !f.MinDate.IsZero() && v.Date.Before(f.MinDate) {
			return dateViolation(f, v), false
		}
		if !f.MaxDate.IsZero() && v.Date.After(f.MaxDate) {
			return dateViolation(f, v), false
		}
	}
	return Violation{}, true
}

func rangeViolation(f FieldSpec, v table.Value) Violation {
	lo, hi := "-inf", "+inf"
	if f.Min != nil {
		lo = fmt.Sprintf("%g", *f.Min)
	}
	if f.Max != nil {
		hi = fmt.Sprintf("%g", *f.Max)
	}
	return Violation{
		Row:     -1,
		Column:  f.Name,
		Code:    CodeOutOfRange,
		Value:   v.Display(),
		Message: fmt.Sprintf("out of range [%s,%s]", lo, hi),
	}
}

func dateViolation(f FieldSpec, v table.Value) Violation {
	lo, hi := "-inf", "+inf"
	if !f.MinDate.IsZero() {
		lo = f.MinDate.Format("2006-01-02")
	}
	if !f.MaxDate.IsZero() {
		hi = f.MaxDate.Format("2006-01-02")
	}
	return Violation{
		Row:     -1,
		Column:  f.Name,
		Code:    CodeOutOfRange,
		Value:   v.Display(),
		Message: fmt.Sprintf("date outside valid range [%s,%s]", lo, hi),
	}
}
