// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan implements the command that prints the jobs a run would start.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/matt-FFFFFF/mapply/cmd/jobflags"
	"github.com/matt-FFFFFF/mapply/internal/jobs"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag = "format"

	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
)

var errUnknownFormat = errors.New("unknown output format, use text, table or json")

// PlanCmd prints the synthesized commands and the execution plan without running anything.
var PlanCmd = newPlanCmd()

func newPlanCmd() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the commands run would execute",
		Description: `Print one shell quoted command per mapfile row and the execution plan,
without running anything. Takes the same arguments and job flags as run.`,
		ArgsUsage: jobflags.ArgsUsage,
		Flags: append(jobflags.Flags(),
			&cli.StringFlag{
				Name:    formatFlag,
				Aliases: []string{"f"},
				Usage:   "Output format: text, table or json",
				Value:   formatText,
				Validator: func(s string) error {
					switch strings.ToLower(s) {
					case formatText, formatTable, formatJSON:
						return nil
					}

					return fmt.Errorf("%w: %q", errUnknownFormat, s)
				},
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	inv, err := jobflags.Parse(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	set, err := jobs.Build(ctx, inv.Settings)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Root().Writer

	switch strings.ToLower(cmd.String(formatFlag)) {
	case formatTable:
		err = renderTable(w, set)
	case formatJSON:
		err = renderJSON(w, set)
	default:
		err = renderText(w, set)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func renderText(w io.Writer, set *jobs.Set) error {
	if _, err := fmt.Fprintf(w, "# %d job(s), %s\n", len(set.Specs), set.Plan.String()); err != nil {
		return err //nolint:wrapcheck
	}

	for _, spec := range set.Specs {
		if _, err := fmt.Fprintln(w, spec.String()); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

func renderTable(w io.Writer, set *jobs.Set) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Job", "Command"})

	for _, spec := range set.Specs {
		t.AppendRow(table.Row{spec.ID, spec.String()})
	}

	t.Render()

	_, err := fmt.Fprintf(w, "%d job(s), %s\n", len(set.Specs), set.Plan.String())

	return err //nolint:wrapcheck
}

type jsonPlan struct {
	MaxCPUs    int       `json:"max_cpus"`
	CostPerJob int       `json:"cost_per_job"`
	Degree     int       `json:"degree"`
	Jobs       []jsonJob `json:"jobs"`
}

type jsonJob struct {
	ID   int      `json:"id"`
	Args []string `json:"args"`
}

func renderJSON(w io.Writer, set *jobs.Set) error {
	out := jsonPlan{
		MaxCPUs:    set.Plan.MaxCPUs,
		CostPerJob: set.Plan.CostPerJob,
		Degree:     set.Plan.Degree,
		Jobs:       make([]jsonJob, len(set.Specs)),
	}

	for i, spec := range set.Specs {
		out.Jobs[i] = jsonJob{ID: spec.ID, Args: spec.Args}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out) //nolint:wrapcheck
}
