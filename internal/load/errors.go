package load

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a source that cannot be opened or read.
// Fatal to the Load call; never retried here.
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceError wraps an open/read failure for a named source.
type SourceError struct {
	Name string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Name, e.Err)
}

// Unwrap chains to ErrSourceUnavailable so callers can match with
// errors.Is regardless of the underlying cause.
func (e *SourceError) Unwrap() error { return ErrSourceUnavailable }

// ParseError marks a row that cannot be decoded into raw fields at all.
// It fails the whole Load call: silently dropping undecodable rows would
// misrepresent the dataset size for integrity counting.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s line %d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
