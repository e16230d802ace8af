// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobs turns a mapfile, a command and its argument tokens into the list of
// commands to run and the plan to run them with.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/mapply/internal/argtemplate"
	"github.com/matt-FFFFFF/mapply/internal/cpubudget"
	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/fetch"
	"github.com/matt-FFFFFF/mapply/internal/mapfile"
	"github.com/matt-FFFFFF/mapply/internal/synth"
)

var (
	// ErrNoCommand is returned when no command was given.
	ErrNoCommand = errors.New("no command given")
	// ErrNoMapfile is returned when no mapfile was given.
	ErrNoMapfile = errors.New("no mapfile given")
)

// Settings describes one invocation.
type Settings struct {
	// Mapfile is a local path or a go-getter URL.
	Mapfile string
	// Command is the executable to run for every row.
	Command string
	// Tokens are the argument tokens, templated and constant, in the order given.
	Tokens []string
	// Delimiter separates mapfile fields. Empty means tab.
	Delimiter string
	// ValueSeparator splits a cell into several values. Empty means comma.
	ValueSeparator string
	// Budget selects the job cost and the CPU limit.
	Budget cpubudget.Options
}

// Set is the prepared work of one invocation.
type Set struct {
	Table     *mapfile.Table
	Bindings  argtemplate.Bindings
	Constants []string
	Specs     []synth.CommandSpec
	Plan      cpubudget.Plan
}

// LoadTable reads the mapfile from a local path, or downloads it when src is a remote URL.
func LoadTable(ctx context.Context, src, delimiter string) (*mapfile.Table, error) {
	if src == "" {
		return nil, ErrNoMapfile
	}

	ctxlog.Info(ctx, "reading mapfile", "src", src)

	if !fetch.IsRemote(src) {
		return mapfile.Load(src, mapfile.WithDelimiter(delimiter))
	}

	data, err := fetch.Get(ctx, src)
	if err != nil {
		return nil, err
	}

	t, err := mapfile.Parse(bytes.NewReader(data), mapfile.WithDelimiter(delimiter))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	return t, nil
}

// Build loads the mapfile and synthesizes one command per row. Any error is fatal and
// nothing has been run when it is returned.
func Build(ctx context.Context, s Settings) (*Set, error) {
	if s.Command == "" {
		return nil, ErrNoCommand
	}

	table, err := LoadTable(ctx, s.Mapfile, s.Delimiter)
	if err != nil {
		return nil, err
	}

	templated, constants := argtemplate.Split(s.Tokens)

	bindings, err := argtemplate.ParseBindings(templated)
	if err != nil {
		return nil, err
	}

	specs, err := synth.Synthesize(
		table,
		bindings,
		synth.NewConstantArgs(s.Command, constants),
		synth.WithValueSeparator(s.ValueSeparator),
	)
	if err != nil {
		ctxlog.Error(ctx, "cannot build commands", "error", err)
		return nil, err
	}

	cost, err := cpubudget.Resolve(ctx, s.Budget, constants)
	if err != nil {
		return nil, err
	}

	plan := cpubudget.NewPlan(s.Budget.MaxCPUs, cost, len(specs))

	ctxlog.Debug(ctx, "jobs prepared", "jobs", len(specs), "plan", plan.String())

	return &Set{
		Table:     table,
		Bindings:  bindings,
		Constants: constants,
		Specs:     specs,
		Plan:      plan,
	}, nil
}
