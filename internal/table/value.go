package table

// value.go defines the typed cell value used throughout the pipeline.
//
// A Value carries exactly one of the supported kinds plus a Valid flag.
// Valid=false is the explicit missing marker: it is how an absent or empty
// source field is represented, and it is semantically distinct from a zero
// value ("0 minutes" is data, a missing minutes cell is not).

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the type a Value holds.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDate
	KindList
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single typed cell. The field matching Kind is the payload;
// the others hold their zero value. Valid=false means missing.
type Value struct {
	Kind  Kind
	Text  string
	Int   int64
	Float float64
	Bool  bool
	Date  time.Time
	List  []string
	Valid bool
}

// Missing returns the explicit missing marker.
func Missing() Value {
	return Value{Valid: false}
}

// NewText returns a valid text value.
func NewText(s string) Value {
	return Value{Kind: KindText, Text: s, Valid: true}
}

// NewInt returns a valid integer value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, Int: i, Valid: true}
}

// NewFloat returns a valid float value.
func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, Float: f, Valid: true}
}

// NewBool returns a valid boolean value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b, Valid: true}
}

// NewDate returns a valid date value.
func NewDate(t time.Time) Value {
	return Value{Kind: KindDate, Date: t, Valid: true}
}

// NewList returns a valid list value. The slice is copied so the Value
// never aliases caller-owned memory.
func NewList(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{Kind: KindList, List: cp, Valid: true}
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	if v.Kind == KindList && v.List != nil {
		cp := make([]string, len(v.List))
		copy(cp, v.List)
		v.List = cp
	}
	return v
}

// Key returns a canonical string form usable as a map key for uniqueness
// and join lookups. Missing values have no key; callers must check Valid
// before using the result.
func (v Value) Key() string {
	if !v.Valid {
		return ""
	}
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("i:%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("f:%g", v.Float)
	case KindBool:
		if v.Bool {
			return "b:1"
		}
		return "b:0"
	case KindDate:
		return "d:" + v.Date.Format("2006-01-02")
	case KindList:
		return "l:" + strings.Join(v.List, "\x1f")
	default:
		return "t:" + v.Text
	}
}

// Display returns the value rendered for reports and exports. Missing
// values render as the empty string.
func (v Value) Display() string {
	if !v.Valid {
		return ""
	}
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindList:
		return FormatList(v.List)
	default:
		return v.Text
	}
}
