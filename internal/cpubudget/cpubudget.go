// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cpubudget works out how many jobs may run at once.
//
// Every job declares a CPU cost. With a budget of MaxCPUs, floor(MaxCPUs/cost) jobs run
// concurrently. A budget that is not larger than the cost, including the default of -1,
// runs the jobs one at a time.
package cpubudget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
)

// NoBudget is the MaxCPUs value that requests sequential execution.
const NoBudget = -1

// ErrCPUArgParse is returned when the CPU flag value is missing or not a positive integer.
var ErrCPUArgParse = errors.New("cannot parse CPU argument")

// Options selects how the per job cost is found.
type Options struct {
	// MaxCPUs is the CPU budget for the whole run.
	MaxCPUs int
	// CPUArg is the flag a job uses to declare its own thread count, e.g. `-t`.
	CPUArg string
	// CPUOne declares that every job uses a single CPU.
	CPUOne bool
}

// Resolve returns the CPU cost of one job.
// CPUOne wins over CPUArg. Without either the cost is MaxCPUs.
func Resolve(ctx context.Context, opts Options, constants []string) (int, error) {
	switch {
	case opts.CPUOne:
		return 1, nil
	case opts.CPUArg != "":
		return costFromArgs(ctx, opts.CPUArg, constants)
	default:
		return opts.MaxCPUs, nil
	}
}

func costFromArgs(ctx context.Context, flag string, constants []string) (int, error) {
	for i, tok := range constants {
		var raw string

		switch {
		case tok == flag:
			if i+1 >= len(constants) {
				return 0, fmt.Errorf("%w: %s has no value", ErrCPUArgParse, flag)
			}

			raw = constants[i+1]
		case strings.HasPrefix(tok, flag+"="):
			raw = strings.TrimPrefix(tok, flag+"=")
		default:
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.Join(fmt.Errorf("%w: %s %q", ErrCPUArgParse, flag, raw), err)
		}

		if n < 1 {
			return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrCPUArgParse, flag, n)
		}

		ctxlog.Debug(ctx, "job CPU cost taken from constant arguments", "flag", flag, "cost", n)

		return n, nil
	}

	ctxlog.Warn(ctx, "CPU flag not found in constant arguments, assuming one CPU per job", "flag", flag)

	return 1, nil
}

// Plan is the resolved concurrency for a run.
type Plan struct {
	MaxCPUs    int
	CostPerJob int
	Degree     int
}

// Sequential reports whether jobs run one at a time.
func (p Plan) Sequential() bool {
	return p.Degree <= 1
}

// String implements fmt.Stringer.
func (p Plan) String() string {
	if p.Sequential() {
		return fmt.Sprintf("sequential (max CPUs %d, cost per job %d)", p.MaxCPUs, p.CostPerJob)
	}

	return fmt.Sprintf("parallel, %d jobs at once (max CPUs %d, cost per job %d)", p.Degree, p.MaxCPUs, p.CostPerJob)
}

// NewPlan computes the concurrency degree for jobs jobs.
// The degree is at least 1 and never more than the number of jobs.
func NewPlan(maxCPUs, cost, jobs int) Plan {
	p := Plan{MaxCPUs: maxCPUs, CostPerJob: cost, Degree: 1}

	if cost < 1 || maxCPUs <= cost {
		return p
	}

	p.Degree = max(maxCPUs/cost, 1)

	if jobs > 0 {
		p.Degree = min(p.Degree, jobs)
	}

	return p
}
