package load

// source.go defines the abstract row source the loader consumes.
//
// A Source is anything that yields an ordered header plus raw string rows.
// The loader never interprets the underlying storage beyond that contract,
// so callers can hand it files, uploads, or in-memory fixtures.

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Rows iterates a source's records. Next returns io.EOF after the last row.
type Rows interface {
	// Header returns the source's column names in source order.
	Header() []string
	// Next returns the next raw row. Rows may be ragged; the loader pads
	// or drops against the header.
	Next() ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

// Source produces rows for one dataset.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Open starts iteration. It fails with ErrSourceUnavailable (wrapped)
	// when the source cannot be opened or its header cannot be read.
	Open() (Rows, error)
}

// FileSource reads a CSV file from disk, with BOM skipping and UTF-8
// sanitization applied to the byte stream.
type FileSource struct {
	Path string
}

// Name implements Source.
func (f FileSource) Name() string { return f.Path }

// Open implements Source.
func (f FileSource) Open() (Rows, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, &SourceError{Name: f.Path, Err: err}
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rows, err := newCSVRows(f.Path, WrapReader(file, size), file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return rows, nil
}

// ReaderSource reads CSV from an arbitrary stream. Used by tests and by
// callers that already hold the bytes.
type ReaderSource struct {
	SourceName string
	Reader     io.Reader
}

// Name implements Source.
func (r ReaderSource) Name() string { return r.SourceName }

// Open implements Source.
func (r ReaderSource) Open() (Rows, error) {
	if r.Reader == nil {
		return nil, &SourceError{Name: r.SourceName, Err: fmt.Errorf("nil reader")}
	}
	return newCSVRows(r.SourceName, WrapReader(r.Reader, 0), nil)
}

// csvRows adapts encoding/csv to the Rows interface.
type csvRows struct {
	name   string
	reader *csv.Reader
	header []string
	line   int
	closer io.Closer
}

// newCSVRows reads the header record up front. A source whose header
// cannot be read is unavailable, not merely malformed.
func newCSVRows(name string, r io.Reader, closer io.Closer) (*csvRows, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, &SourceError{Name: name, Err: fmt.Errorf("read header: %w", err)}
	}
	return &csvRows{name: name, reader: cr, header: header, line: 1, closer: closer}, nil
}

func (c *csvRows) Header() []string { return c.header }

func (c *csvRows) Next() ([]string, error) {
	record, err := c.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	c.line++
	if err != nil {
		return nil, &ParseError{Source: c.name, Line: c.line, Err: err}
	}
	return record, nil
}

func (c *csvRows) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
