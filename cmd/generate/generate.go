// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package generate implements the command that writes a mapfile from file name patterns.
package generate

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/itemproviders"
	"github.com/matt-FFFFFF/mapply/internal/mapfile"
	"github.com/urfave/cli/v3"
)

const (
	globFlag      = "glob"
	columnFlag    = "column"
	outFlag       = "out"
	hiddenFlag    = "hidden"
	delimiterFlag = "delimiter"
	cwdFlag       = "cwd"
	defaultColumn = "input"
)

// GenerateCmd writes a single column mapfile listing the files that match glob patterns.
var GenerateCmd = newGenerateCmd()

func newGenerateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write a mapfile listing the files that match glob patterns",
		Description: `Write a single column mapfile with one row per file matching any --glob pattern.
Relative patterns are matched in the working directory and written as relative paths.
Rows are sorted and unique.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     globFlag,
				Aliases:  []string{"g"},
				Usage:    "File name pattern, e.g. 'reads/*.fq.gz'. May be repeated.",
				Required: true,
			},
			&cli.StringFlag{
				Name:     columnFlag,
				Usage:    "Column header",
				Value:    defaultColumn,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Mapfile to write. Defaults to stdout.",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      cwdFlag,
				Usage:     "Directory relative patterns are matched in. Defaults to the current directory.",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     delimiterFlag,
				Aliases:  []string{"d"},
				Usage:    "Mapfile field delimiter",
				Value:    mapfile.DefaultDelimiter,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:  hiddenFlag,
				Usage: "Include files whose name starts with a dot",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	wd := cmd.String(cwdFlag)
	if wd == "" {
		var err error

		if wd, err = os.Getwd(); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	provider := itemproviders.ListFiles(itemproviders.IncludeHidden(cmd.Bool(hiddenFlag)), cmd.StringSlice(globFlag)...)

	files, err := provider(ctx, wd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	col := cmd.String(columnFlag)
	table := &mapfile.Table{
		Columns: []string{col},
		Values:  map[string][]string{col: files},
	}

	delim := mapfile.WithDelimiter(cmd.String(delimiterFlag))

	out := cmd.String(outFlag)
	if out == "" {
		err = mapfile.Write(cmd.Root().Writer, table, delim)
	} else {
		err = mapfile.Save(out, table, delim)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctxlog.Info(ctx, "mapfile generated", "rows", len(files), "out", out)

	return nil
}
