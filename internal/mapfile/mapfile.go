// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package mapfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultDelimiter separates fields when no other delimiter is configured.
const DefaultDelimiter = "\t"

const maxLineSize = 1024 * 1024

var (
	// ErrFormat is the base error for every malformed table.
	ErrFormat = errors.New("mapfile format error")
	// ErrEmpty is returned when the source has no header line.
	ErrEmpty = errors.New("no header line")
	// ErrHeader is returned when a column name is empty or repeated.
	ErrHeader = errors.New("invalid header")
	// ErrShortRow is returned when a row has fewer fields than there are columns.
	ErrShortRow = errors.New("row has fewer fields than header")
	// ErrLongRow is returned when a row has more fields than there are columns.
	ErrLongRow = errors.New("row has more fields than header")
	// ErrNoRows is returned when the source has a header but no data rows.
	ErrNoRows = errors.New("no data rows")
)

// LineError locates a format error in the source.
type LineError struct {
	Line int
	Err  error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
}

// Unwrap returns ErrFormat and the detailed cause, so errors.Is matches both.
func (e *LineError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

func lineErr(line int, err error) error {
	return &LineError{Line: line, Err: err}
}

// Table is a parsed mapfile.
// Columns keeps the header order and Values holds one slice per column, all of equal length.
type Table struct {
	Columns []string
	Values  map[string][]string
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}

	return len(t.Values[t.Columns[0]])
}

// Value returns the cell for column at row, and false when either is out of range.
func (t *Table) Value(column string, row int) (string, bool) {
	if t == nil {
		return "", false
	}

	vals, ok := t.Values[column]
	if !ok || row < 0 || row >= len(vals) {
		return "", false
	}

	return vals[row], true
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(column string) bool {
	if t == nil {
		return false
	}

	_, ok := t.Values[column]

	return ok
}

type options struct {
	delimiter string
}

// Option configures Parse, Load and Write.
type Option func(*options)

// WithDelimiter sets the field delimiter. An empty delimiter leaves the default in place.
func WithDelimiter(d string) Option {
	return func(o *options) {
		if d != "" {
			o.delimiter = d
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{delimiter: DefaultDelimiter}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Parse reads a table from r.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	o := newOptions(opts)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		t    *Table
		line int
	)

	for scanner.Scan() {
		line++

		text := scanner.Text()
		if text == "" {
			continue
		}

		fields := strings.Split(text, o.delimiter)

		if t == nil {
			var err error
			if t, err = newTable(fields); err != nil {
				return nil, lineErr(line, err)
			}

			continue
		}

		switch {
		case len(fields) < len(t.Columns):
			return nil, lineErr(line, fmt.Errorf("%w: got %d, want %d", ErrShortRow, len(fields), len(t.Columns)))
		case len(fields) > len(t.Columns):
			return nil, lineErr(line, fmt.Errorf("%w: got %d, want %d", ErrLongRow, len(fields), len(t.Columns)))
		}

		for i, col := range t.Columns {
			t.Values[col] = append(t.Values[col], fields[i])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Join(ErrFormat, err)
	}

	if t == nil {
		return nil, errors.Join(ErrFormat, ErrEmpty)
	}

	if t.Rows() == 0 {
		return nil, errors.Join(ErrFormat, ErrNoRows)
	}

	return t, nil
}

func newTable(headers []string) (*Table, error) {
	t := &Table{
		Columns: make([]string, 0, len(headers)),
		Values:  make(map[string][]string, len(headers)),
	}

	for i, h := range headers {
		if h == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrHeader, i+1)
		}

		if _, dup := t.Values[h]; dup {
			return nil, fmt.Errorf("%w: column %q appears more than once", ErrHeader, h)
		}

		t.Columns = append(t.Columns, h)
		t.Values[h] = []string{}
	}

	return t, nil
}

// Load opens path on the filesystem returned by FsFactory and parses it.
func Load(path string, opts ...Option) (*Table, error) {
	f, err := FsFactory().Open(path)
	if err != nil {
		return nil, errors.Join(ErrFormat, fmt.Errorf("cannot open %s: %w", path, err))
	}
	defer f.Close() //nolint:errcheck

	t, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}
