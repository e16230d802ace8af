// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the command that displays saved results.
package show

import (
	"context"
	"errors"
	"os"

	"github.com/matt-FFFFFF/mapply/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	fileArg                  = "file"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrWriteResults is returned when the results cannot be written to stdout.
	ErrWriteResults = errors.New("failed to write results to stdout")
)

// ShowCmd is the command that shows results saved with run --out.
var ShowCmd = newShowCmd()

func newShowCmd() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show previously saved results",
		Description: "Show results saved with run --out.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      fileArg,
				UsageText: "RESULTSFILE",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    outputSuccessDetailsFlag,
				Aliases: []string{"success"},
				Usage:   "Include successful results in the output",
			},
			&cli.BoolFlag{
				Name:    noOutputStdErrFlag,
				Aliases: []string{"no-stderr"},
				Usage:   "Exclude stderr output in the results",
			},
			&cli.BoolFlag{
				Name:    outputStdOutFlag,
				Aliases: []string{"stdout"},
				Usage:   "Include stdout output in the results",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := cmd.StringArg(fileArg)
			if name == "" {
				return cli.Exit("Please provide a results file to show", 1)
			}

			file, err := os.Open(name)
			if err != nil {
				return cli.Exit(errors.Join(ErrReadFile, err).Error(), 1)
			}
			defer file.Close() //nolint:errcheck

			results, err := runbatch.ReadBinary(file)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			opts := runbatch.DefaultOutputOptions()
			opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
			opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
			opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

			if err := results.WriteTextWithOptions(cmd.Root().Writer, opts); err != nil {
				return cli.Exit(errors.Join(ErrWriteResults, err).Error(), 1)
			}

			return nil
		},
	}
}
