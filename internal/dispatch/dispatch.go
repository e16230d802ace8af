// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package dispatch runs synthesized commands as operating system processes, one at a
// time or on a bounded pool of workers, according to an execution plan.
package dispatch

import (
	"context"
	"fmt"
	"slices"

	"github.com/matt-FFFFFF/mapply/internal/commandinpath"
	"github.com/matt-FFFFFF/mapply/internal/cpubudget"
	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/progress"
	"github.com/matt-FFFFFF/mapply/internal/runbatch"
	"github.com/matt-FFFFFF/mapply/internal/synth"
)

// DefaultLabel is the label of the top level batch.
const DefaultLabel = "mapply"

// Dispatcher runs commands with a shared working directory, environment and reporter.
type Dispatcher struct {
	reporter progress.Reporter
	cwd      string
	env      map[string]string
	label    string
	success  []int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReporter sets the reporter that receives job events.
func WithReporter(r progress.Reporter) Option {
	return func(d *Dispatcher) {
		d.reporter = r
	}
}

// WithCwd sets the working directory of every job.
func WithCwd(cwd string) Option {
	return func(d *Dispatcher) {
		d.cwd = cwd
	}
}

// WithEnv adds environment variables to every job.
func WithEnv(env map[string]string) Option {
	return func(d *Dispatcher) {
		d.env = env
	}
}

// WithSuccessExitCodes sets the exit codes that count as success. The default is 0.
func WithSuccessExitCodes(codes []int) Option {
	return func(d *Dispatcher) {
		if len(codes) > 0 {
			d.success = slices.Clone(codes)
		}
	}
}

// WithLabel sets the label of the top level batch.
func WithLabel(label string) Option {
	return func(d *Dispatcher) {
		if label != "" {
			d.label = label
		}
	}
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reporter: progress.NewNullReporter(),
		label:    DefaultLabel,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// JobLabel is the label of the job built from spec.
func JobLabel(spec synth.CommandSpec) string {
	return fmt.Sprintf("job %d: %s", spec.ID, spec.String())
}

// Batch builds the runnable for specs: a SerialBatch when the plan is sequential,
// otherwise a ParallelBatch with plan.Degree workers.
func (d *Dispatcher) Batch(ctx context.Context, specs []synth.CommandSpec, plan cpubudget.Plan) runbatch.Runnable {
	commands := make([]runbatch.Runnable, len(specs))
	resolved := make(map[string]string)

	for i, spec := range specs {
		commands[i] = d.command(ctx, spec, resolved)
	}

	base := runbatch.NewBaseCommand(d.label, d.cwd, d.env)
	base.SetProgressReporter(d.reporter)

	if plan.Sequential() {
		ctxlog.Debug(ctx, "dispatching sequentially", "jobs", len(specs))

		return &runbatch.SerialBatch{BaseCommand: base, Commands: commands}
	}

	ctxlog.Debug(ctx, "dispatching in parallel", "jobs", len(specs), "degree", plan.Degree)

	return &runbatch.ParallelBatch{BaseCommand: base, Commands: commands, MaxConcurrency: plan.Degree}
}

// Dispatch runs every spec and returns one batch result whose children are the job
// results ordered by job id. Job failures are recorded in the results, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, specs []synth.CommandSpec, plan cpubudget.Plan) runbatch.Results {
	ctxlog.Info(ctx, "dispatching jobs", "jobs", len(specs), "plan", plan.String())

	return d.Batch(ctx, specs, plan).Run(ctx)
}

// command builds the OSCommand for spec. An executable that cannot be resolved is
// passed as given, so the job fails when it is started.
func (d *Dispatcher) command(ctx context.Context, spec synth.CommandSpec, resolved map[string]string) runbatch.Runnable {
	exe := spec.Executable()

	path, ok := resolved[exe]
	if !ok {
		var err error

		path, err = commandinpath.Resolve(exe)
		if err != nil {
			ctxlog.Warn(ctx, "cannot resolve executable, jobs using it will fail", "executable", exe, "error", err)

			path = exe
		}

		resolved[exe] = path
	}

	var args []string
	if len(spec.Args) > 1 {
		args = spec.Args[1:]
	}

	cmd := runbatch.NewOSCommand(spec.ID, JobLabel(spec), path, args)
	cmd.Name = exe
	cmd.SuccessExitCodes = d.success

	return cmd
}
