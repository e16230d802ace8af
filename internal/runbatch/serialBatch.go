// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"slices"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/progress"
)

var _ Runnable = (*SerialBatch)(nil)

// SerialBatch runs its commands one at a time, in order.
// A failed command does not stop the batch. Once ctx is done the remaining commands are skipped.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable // The commands or nested batches to run
}

// Run implements the Runnable interface for SerialBatch.
func (b *SerialBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("label", FullLabel(b)).
		With("runnableType", "SerialBatch")

	reporter := b.progressReporter()
	reportBatch(reporter, b.GetLabel(), progress.EventStarted, "serial batch started")

	prepareChildren(b, b.BaseCommand, b.Commands)

	results := make(Results, 0, len(b.Commands))

	for i, cmd := range slices.All(b.Commands) {
		if ctx.Err() != nil {
			logger.Debug("context done, skipping command", "index", i, "commandLabel", cmd.GetLabel())
			results = slices.Concat(results, skippedResult(reporter, cmd))

			continue
		}

		results = slices.Concat(results, cmd.Run(ctx))
	}

	res := batchResult(b.GetLabel(), results)
	reportBatchDone(reporter, b.GetLabel(), res[0])

	return res
}
