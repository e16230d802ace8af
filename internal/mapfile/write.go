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

// ErrInvalidTable is returned when a table cannot be written back as a mapfile.
var ErrInvalidTable = errors.New("table cannot be written")

// Write serialises t to w.
// Values containing the delimiter or a line break are rejected because they could not be read back.
func Write(w io.Writer, t *Table, opts ...Option) error {
	o := newOptions(opts)

	if t == nil || len(t.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidTable)
	}

	rows := t.Rows()
	for _, col := range t.Columns {
		if len(t.Values[col]) != rows {
			return fmt.Errorf("%w: column %q has %d values, want %d", ErrInvalidTable, col, len(t.Values[col]), rows)
		}
	}

	bw := bufio.NewWriter(w)

	if err := writeLine(bw, t.Columns, o.delimiter); err != nil {
		return err
	}

	fields := make([]string, len(t.Columns))

	for row := range rows {
		for i, col := range t.Columns {
			fields[i] = t.Values[col][row]
		}

		if err := writeLine(bw, fields, o.delimiter); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeLine(w *bufio.Writer, fields []string, delimiter string) error {
	for _, f := range fields {
		if strings.Contains(f, delimiter) || strings.ContainsAny(f, "\r\n") {
			return fmt.Errorf("%w: field %q contains the delimiter or a line break", ErrInvalidTable, f)
		}
	}

	if _, err := w.WriteString(strings.Join(fields, delimiter) + "\n"); err != nil {
		return fmt.Errorf("cannot write mapfile line: %w", err)
	}

	return nil
}

// Save writes t to path on the filesystem returned by FsFactory.
func Save(path string, t *Table, opts ...Option) error {
	f, err := FsFactory().Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}

	if err := Write(f, t, opts...); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
