// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the command that runs one job per mapfile row.
package run

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/mapply/cmd/jobflags"
	"github.com/matt-FFFFFF/mapply/internal/config"
	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/dispatch"
	"github.com/matt-FFFFFF/mapply/internal/joblog"
	"github.com/matt-FFFFFF/mapply/internal/jobs"
	"github.com/matt-FFFFFF/mapply/internal/progress"
	"github.com/matt-FFFFFF/mapply/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	outFlag                  = "out"
	logFileFlag              = "log-file"
	cwdFlag                  = "cwd"
	envFlag                  = "env"
	successExitCodesFlag     = "success-exit-code"
	ignoreJobFailuresFlag    = "ignore-job-failures"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	cliExitStr               = ""
)

var (
	// ErrJobsFailed is returned when at least one job failed.
	ErrJobsFailed = errors.New("one or more jobs failed")
	// ErrRunCancelled is returned when the run was interrupted before every job finished.
	ErrRunCancelled = errors.New("run cancelled")
)

// RunCmd is the command that runs one job per mapfile row.
var RunCmd = newRunCmd()

func newRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run CMD once for every row of MAPFILE",
		Description: `Run CMD once for every data row of MAPFILE.

Arguments after -- are passed to every job. An argument containing {column} is
templated: the text before the brace is the flag and the named mapfile column supplies
the value, e.g. -i{input} becomes "-i a.txt". Every mapfile column must be referenced
exactly once. Other arguments are passed unchanged.

Jobs run one at a time unless --max-cpus is larger than the CPU cost of a job, which is
read from the value of --cpu-arg in the constant arguments, or is 1 with --cpu-one.

MAPFILE may be a local path or any URL supported by Hashicorp's go-getter.
See https://github.com/hashicorp/go-getter.

Every command run is recorded in a log file named after CMD, e.g. bwa_commands.log.`,
		ArgsUsage: jobflags.ArgsUsage,
		Flags: append(jobflags.Flags(),
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Save the results to a file that can be displayed with the show command",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      logFileFlag,
				Usage:     "Job log file. Defaults to <CMD>_commands.log",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      cwdFlag,
				Usage:     "Working directory of every job",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringMapFlag{
				Name:  envFlag,
				Usage: "Set an environment variable for every job, as NAME=VALUE. May be repeated.",
			},
			&cli.IntSliceFlag{
				Name:  successExitCodesFlag,
				Usage: "Exit code that counts as success. May be repeated. Defaults to 0.",
			},
			&cli.BoolFlag{
				Name:     ignoreJobFailuresFlag,
				Usage:    "Exit with status 0 even when jobs failed",
				Value:    false,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     outputSuccessDetailsFlag,
				Aliases:  []string{"success"},
				Usage:    "Include successful results in the output",
				Value:    false,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     noOutputStdErrFlag,
				Aliases:  []string{"no-stderr"},
				Usage:    "Exclude stderr output in the results",
				Value:    false,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     outputStdOutFlag,
				Aliases:  []string{"stdout"},
				Usage:    "Include stdout output in the results",
				Value:    false,
				OnlyOnce: true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	runID := uuid.NewString()
	logger := ctxlog.Logger(ctx).With("run", runID)
	ctx = ctxlog.New(ctx, logger)

	logger.Debug("running run command")

	inv, err := jobflags.Parse(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg := inv.Config
	mergeRunFlags(cmd, cfg)

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = joblog.DefaultFileName(inv.Settings.Command)
	}

	jl, err := joblog.Open(logFile)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	defer func() {
		if err := jl.Close(); err != nil {
			logger.Warn("job log incomplete", "file", logFile, "error", err)
		}
	}()

	jl.Info("run %s started", runID)
	jl.Info("reading mapfile: %s", inv.Settings.Mapfile)

	set, err := jobs.Build(ctx, inv.Settings)
	if err != nil {
		jl.Error("%s", err.Error())
		return cli.Exit(err.Error(), 1)
	}

	jl.Info("%d job(s), %s", len(set.Specs), set.Plan.String())

	reporter := progress.NewChannelReporter(progress.DefaultBufferSize)
	reporter.Listen(jl, progress.ListenerFunc(func(e progress.Event) {
		consoleEvent(ctx, e)
	}))

	d := dispatch.New(
		dispatch.WithLabel(inv.Settings.Command),
		dispatch.WithReporter(reporter),
		dispatch.WithCwd(cfg.Cwd),
		dispatch.WithEnv(cfg.Env),
		dispatch.WithSuccessExitCodes(cfg.SuccessExitCodes),
	)

	res := d.Dispatch(ctx, set.Specs, set.Plan)

	reporter.Close()

	s := res.Summary()
	jl.Info("run %s finished: %d succeeded, %d failed, %d skipped", runID, s.Succeeded, s.Failed, s.Skipped)

	if outFileName := cmd.String(outFlag); outFileName != "" {
		if err := writeResults(outFileName, res); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		logger.Info(fmt.Sprintf("results written to %s", outFileName))
	}

	opts := runbatch.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	if err := res.WriteTextWithOptions(cmd.Root().Writer, opts); err != nil {
		logger.Error(fmt.Sprintf("failed to write results: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	return exitStatus(ctx, res, cfg.IgnoreJobFailures)
}

func exitStatus(ctx context.Context, res runbatch.Results, ignoreFailures bool) error {
	s := res.Summary()

	if ctx.Err() != nil {
		return cli.Exit(fmt.Sprintf("%s: %d of %d job(s) skipped", ErrRunCancelled, s.Skipped, s.Total), 1)
	}

	if !res.HasError() {
		return nil
	}

	if ignoreFailures {
		ctxlog.Warn(ctx, "jobs failed, ignoring", "failed", s.Failed, "total", s.Total)
		return nil
	}

	return cli.Exit(fmt.Sprintf("%s: %d of %d", ErrJobsFailed, s.Failed, s.Total), 1)
}

// mergeRunFlags applies the run flags that were set explicitly over the config file values.
func mergeRunFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(logFileFlag) {
		cfg.LogFile = cmd.String(logFileFlag)
	}

	if cmd.IsSet(cwdFlag) {
		cfg.Cwd = cmd.String(cwdFlag)
	}

	if cmd.IsSet(successExitCodesFlag) {
		cfg.SuccessExitCodes = cmd.IntSlice(successExitCodesFlag)
	}

	if cmd.IsSet(ignoreJobFailuresFlag) {
		cfg.IgnoreJobFailures = cmd.Bool(ignoreJobFailuresFlag)
	}

	if env := cmd.StringMap(envFlag); len(env) > 0 {
		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(env))
		}

		maps.Copy(cfg.Env, env)
	}
}

// consoleEvent logs job progress to the console logger.
func consoleEvent(ctx context.Context, e progress.Event) {
	if e.JobID == progress.NoJob {
		return
	}

	logger := ctxlog.Logger(ctx).With("job", e.JobID)

	switch e.Type {
	case progress.EventStarted:
		logger.Info("job started", "args", e.Args)
	case progress.EventProgress:
		if e.Data.LastLine != "" {
			logger.Info("job running", "elapsed", e.Data.Elapsed.String(), "output", e.Data.LastLine)
			return
		}

		logger.Info("job running", "elapsed", e.Data.Elapsed.String())
	case progress.EventCompleted:
		logger.Info("job completed", "elapsed", e.Data.Elapsed.String())
	case progress.EventFailed:
		logger.Warn("job failed", "exitCode", e.Data.ExitCode, "error", fmt.Sprint(e.Data.Error))
	case progress.EventSkipped:
		logger.Warn("job skipped", "reason", e.Message)
	}
}

func writeResults(path string, res runbatch.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	defer f.Close() //nolint:errcheck

	if err := res.WriteBinary(f); err != nil {
		return fmt.Errorf("failed to write results to file %s: %w", path, err)
	}

	return f.Close()
}
