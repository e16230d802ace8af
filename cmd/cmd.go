// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/mapply/cmd/generate"
	"github.com/matt-FFFFFF/mapply/cmd/plan"
	"github.com/matt-FFFFFF/mapply/cmd/run"
	"github.com/matt-FFFFFF/mapply/cmd/show"
	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	logFormatJSON = "json"
	logFormatText = "text"
)

var errUnknownLogFormat = errors.New("log format must be text or json")

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		plan.PlanCmd,
		generate.GenerateCmd,
		show.ShowCmd,
	},
	Flags:     rootFlags(),
	Before:    before,
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "mapply",
	Description: `mapply runs a command once for every row of a tab separated parameter table
(the mapfile), filling templated arguments from the table columns. Jobs run one at a
time or on a pool of workers sized from a CPU budget.`,
	Usage:     "mapply run samples.tsv bwa -- mem -t 4 -o{out} {reads}",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name: logLevelFlag,
			Usage: "Console log level: debug, info, warn or error. " +
				"Defaults to the " + ctxlog.LevelEnvVar() + " environment variable, or warn.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     logFormatFlag,
			Usage:    "Console log format: text or json",
			Value:    logFormatText,
			OnlyOnce: true,
			Validator: func(s string) error {
				if s != logFormatText && s != logFormatJSON {
					return fmt.Errorf("%w: %q", errUnknownLogFormat, s)
				}

				return nil
			},
		},
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := ctxlog.SetLevel(cmd.String(logLevelFlag)); err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}

	if cmd.String(logFormatFlag) == logFormatJSON {
		return ctxlog.New(ctx, ctxlog.JSONLogger), nil
	}

	return ctx, nil
}
