// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"slices"
	"sync"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/progress"
)

var _ Runnable = (*ParallelBatch)(nil)

// ParallelBatch runs its commands on a fixed pool of workers.
// Commands are handed to the workers in order through a queue. Results are returned in
// command order whatever order the commands finish in.
type ParallelBatch struct {
	*BaseCommand
	Commands       []Runnable // The commands or nested batches to run
	MaxConcurrency int        // Number of workers, zero or less means one per command
}

type indexedResults struct {
	index   int
	results Results
}

// Workers returns the number of workers Run starts.
func (b *ParallelBatch) Workers() int {
	n := len(b.Commands)
	if b.MaxConcurrency <= 0 || b.MaxConcurrency > n {
		return n
	}

	return b.MaxConcurrency
}

// Run implements the Runnable interface for ParallelBatch.
func (b *ParallelBatch) Run(ctx context.Context) Results {
	workers := b.Workers()
	logger := ctxlog.Logger(ctx).
		With("label", FullLabel(b)).
		With("runnableType", "ParallelBatch")

	reporter := b.progressReporter()
	reportBatch(reporter, b.GetLabel(), progress.EventStarted, "parallel batch started")

	prepareChildren(b, b.BaseCommand, b.Commands)

	logger.Debug("starting workers", "workers", workers, "commands", len(b.Commands))

	tasks := make(chan int)
	out := make(chan indexedResults, len(b.Commands))
	wg := &sync.WaitGroup{}

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range tasks {
				cmd := b.Commands[i]

				if ctx.Err() != nil {
					out <- indexedResults{index: i, results: skippedResult(reporter, cmd)}
					continue
				}

				logger.Debug("worker picked up command", "worker", w, "index", i)
				out <- indexedResults{index: i, results: cmd.Run(ctx)}
			}
		}()
	}

	for i := range b.Commands {
		tasks <- i
	}

	close(tasks)
	wg.Wait()
	close(out)

	ordered := make([]Results, len(b.Commands))
	for r := range out {
		ordered[r.index] = r.results
	}

	res := batchResult(b.GetLabel(), slices.Concat(ordered...))
	reportBatchDone(reporter, b.GetLabel(), res[0])

	return res
}
