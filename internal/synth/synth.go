// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package synth builds one argument vector per mapfile row.
package synth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/mapply/internal/argtemplate"
	"github.com/matt-FFFFFF/mapply/internal/mapfile"
)

// DefaultValueSeparator splits a cell into several value tokens.
const DefaultValueSeparator = ","

// CommandSpec is the argument vector for one job. Args[0] is the executable.
// ID is the zero based mapfile row the command was built from.
type CommandSpec struct {
	ID   int
	Args []string
}

// String renders the command as a shell quoted line.
func (c CommandSpec) String() string {
	return Join(c.Args)
}

// Join shell quotes every argument that needs it and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}

	return strings.Join(quoted, " ")
}

// Executable returns the first argument, or an empty string.
func (c CommandSpec) Executable() string {
	if len(c.Args) == 0 {
		return ""
	}

	return c.Args[0]
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}

	if !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// NewConstantArgs returns the executable followed by the constant tokens.
func NewConstantArgs(executable string, constants []string) []string {
	args := make([]string, 0, len(constants)+1)
	args = append(args, executable)

	return append(args, constants...)
}

type options struct {
	separator string
}

// Option configures Synthesize.
type Option func(*options)

// WithValueSeparator sets the separator that splits a cell into value tokens.
// An empty separator leaves the default in place.
func WithValueSeparator(sep string) Option {
	return func(o *options) {
		if sep != "" {
			o.separator = sep
		}
	}
}

// Synthesize crosses every row of table with the bindings.
// Each command starts with a copy of constants, then for every binding in order appends the
// flag token, when there is one, and the cell split on the value separator.
func Synthesize(
	table *mapfile.Table,
	bindings argtemplate.Bindings,
	constants []string,
	opts ...Option,
) ([]CommandSpec, error) {
	o := &options{separator: DefaultValueSeparator}
	for _, opt := range opts {
		opt(o)
	}

	if table == nil {
		return nil, fmt.Errorf("%w: no mapfile", argtemplate.ErrConfigMismatch)
	}

	if len(table.Columns) != len(bindings) {
		return nil, fmt.Errorf("%w: variable arg count does not match mapfile column count (%d templated, %d columns)",
			argtemplate.ErrConfigMismatch, len(bindings), len(table.Columns))
	}

	for _, col := range table.Columns {
		if _, ok := bindings.Flag(col); !ok {
			return nil, fmt.Errorf("%w: mapfile column %q has no templated argument", argtemplate.ErrConfigMismatch, col)
		}
	}

	rows := table.Rows()
	specs := make([]CommandSpec, rows)

	for i := range rows {
		args := slices.Clone(constants)

		for _, b := range bindings {
			args = appendBinding(args, b.Flag, table.Values[b.Column][i], o.separator)
		}

		specs[i] = CommandSpec{ID: i, Args: args}
	}

	return specs, nil
}

func appendBinding(args []string, flag, cell, sep string) []string {
	values := strings.Split(cell, sep)

	if flag != "" {
		args = append(args, flag)
	}

	return append(args, values...)
}
