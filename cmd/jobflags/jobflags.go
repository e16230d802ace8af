// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobflags holds the flags shared by the commands that read a mapfile and build jobs.
package jobflags

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/mapply/internal/config"
	"github.com/matt-FFFFFF/mapply/internal/cpubudget"
	"github.com/matt-FFFFFF/mapply/internal/jobs"
	"github.com/urfave/cli/v3"
)

// Flag names.
const (
	MaxCPUsFlag        = "max-cpus"
	CPUArgFlag         = "cpu-arg"
	CPUOneFlag         = "cpu-one"
	DelimiterFlag      = "delimiter"
	ValueSeparatorFlag = "value-separator"
	ConfigFlag         = "config"
)

// ArgsUsage describes the positional arguments.
const ArgsUsage = "MAPFILE CMD [-- ARGS...]"

const minArgs = 2

// ErrArgs is returned when MAPFILE or CMD is missing.
var ErrArgs = errors.New("expected MAPFILE and CMD arguments")

// Invocation is the parsed command line merged with the config file.
type Invocation struct {
	Settings jobs.Settings
	Config   *config.Config
}

// Flags returns the job flags. A new slice is returned on every call.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      ConfigFlag,
			Aliases:   []string{"c"},
			Usage:     "Read settings from a YAML (.yaml, .yml) or HCL (.hcl) file. Flags override file values.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.IntFlag{
			Name:    MaxCPUsFlag,
			Aliases: []string{"m"},
			Usage: "Maximum number of CPUs all running jobs may use together. " +
				"-1 runs the jobs one at a time.",
			Value:    cpubudget.NoBudget,
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name: CPUArgFlag,
			Usage: "Argument the command uses to set its thread count, e.g. -t. " +
				"The job cost is read from its value in the constant arguments.",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:     CPUOneFlag,
			Usage:    "Every job uses a single CPU",
			Value:    false,
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     DelimiterFlag,
			Aliases:  []string{"d"},
			Usage:    "Mapfile field delimiter",
			Value:    "\t",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     ValueSeparatorFlag,
			Usage:    "Separator that splits a mapfile cell into several argument values",
			Value:    ",",
			OnlyOnce: true,
		},
	}
}

// Parse reads the positional arguments and the job flags of cmd. Flags that are set
// explicitly override the values of the config file.
func Parse(ctx context.Context, cmd *cli.Command) (*Invocation, error) {
	args := cmd.Args().Slice()
	if len(args) < minArgs {
		return nil, fmt.Errorf("%w, got %d argument(s)", ErrArgs, len(args))
	}

	cfg := config.Default()

	if path := cmd.String(ConfigFlag); path != "" {
		var err error

		if cfg, err = config.Load(ctx, path); err != nil {
			return nil, err
		}
	}

	if cmd.IsSet(MaxCPUsFlag) {
		cfg.MaxCPUs = cmd.Int(MaxCPUsFlag)
	}

	if cmd.IsSet(CPUArgFlag) {
		cfg.CPUArg = cmd.String(CPUArgFlag)
	}

	if cmd.IsSet(CPUOneFlag) {
		cfg.CPUOne = cmd.Bool(CPUOneFlag)
	}

	if cmd.IsSet(DelimiterFlag) || cfg.Delimiter == "" {
		cfg.Delimiter = cmd.String(DelimiterFlag)
	}

	if cmd.IsSet(ValueSeparatorFlag) || cfg.ValueSeparator == "" {
		cfg.ValueSeparator = cmd.String(ValueSeparatorFlag)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Invocation{
		Config: cfg,
		Settings: jobs.Settings{
			Mapfile:        args[0],
			Command:        args[1],
			Tokens:         args[minArgs:],
			Delimiter:      cfg.Delimiter,
			ValueSeparator: cfg.ValueSeparator,
			Budget: cpubudget.Options{
				MaxCPUs: cfg.MaxCPUs,
				CPUArg:  cfg.CPUArg,
				CPUOne:  cfg.CPUOne,
			},
		},
	}, nil
}
