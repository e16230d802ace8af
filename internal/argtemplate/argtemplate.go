// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package argtemplate separates the trailing command line tokens into templated and
// constant arguments and binds each templated flag to a mapfile column.
//
// A templated token is written as the flag immediately followed by the column name in
// braces, e.g. `-i{input}` or `--threads{threads}`. The flag is always passed as its own
// argument, before the value tokens. A token that is only a column
// reference, e.g. `{input}`, binds a positional value.
package argtemplate

import (
	"errors"
	"fmt"
	"strings"
)

const (
	openBrace  = "{"
	closeBrace = "}"
)

// ErrConfigMismatch is returned when the templated arguments cannot be matched one to one with the mapfile columns.
var ErrConfigMismatch = errors.New("templated arguments do not match mapfile columns")

// Binding ties one flag token to one mapfile column.
// An empty Flag means the column value is passed positionally.
type Binding struct {
	Flag   string
	Column string
}

// Bindings is the ordered list of bindings, in command line order.
type Bindings []Binding

// Columns returns the bound column names in binding order.
func (b Bindings) Columns() []string {
	cols := make([]string, len(b))
	for i, bind := range b {
		cols[i] = bind.Column
	}

	return cols
}

// Flag returns the flag bound to column.
func (b Bindings) Flag(column string) (string, bool) {
	for _, bind := range b {
		if bind.Column == column {
			return bind.Flag, true
		}
	}

	return "", false
}

// IsTemplated reports whether tok references a column.
func IsTemplated(tok string) bool {
	return strings.Contains(tok, openBrace)
}

// Split classifies args into templated and constant tokens, keeping the relative order of each.
func Split(args []string) (templated, constant []string) {
	templated = make([]string, 0, len(args))
	constant = make([]string, 0, len(args))

	for _, a := range args {
		if IsTemplated(a) {
			templated = append(templated, a)
			continue
		}

		constant = append(constant, a)
	}

	return templated, constant
}

// ParseBinding parses one templated token.
func ParseBinding(tok string) (Binding, error) {
	flag, rest, ok := strings.Cut(tok, openBrace)
	if !ok {
		return Binding{}, fmt.Errorf("%w: %q has no column reference", ErrConfigMismatch, tok)
	}

	column, tail, ok := strings.Cut(rest, closeBrace)
	if !ok {
		return Binding{}, fmt.Errorf("%w: %q is missing a closing brace", ErrConfigMismatch, tok)
	}

	if tail != "" {
		return Binding{}, fmt.Errorf("%w: %q has text after the column reference", ErrConfigMismatch, tok)
	}

	if column == "" || strings.Contains(column, openBrace) {
		return Binding{}, fmt.Errorf("%w: %q has an invalid column name", ErrConfigMismatch, tok)
	}

	return Binding{Flag: flag, Column: column}, nil
}

// ParseBindings parses every templated token and rejects a column that is bound more than once.
func ParseBindings(templated []string) (Bindings, error) {
	b := make(Bindings, 0, len(templated))
	seen := make(map[string]struct{}, len(templated))

	for _, tok := range templated {
		bind, err := ParseBinding(tok)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[bind.Column]; dup {
			return nil, fmt.Errorf("%w: column %q is bound more than once", ErrConfigMismatch, bind.Column)
		}

		seen[bind.Column] = struct{}{}
		b = append(b, bind)
	}

	return b, nil
}
