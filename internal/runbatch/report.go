// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"time"

	"github.com/matt-FFFFFF/mapply/internal/progress"
)

// prepareChildren passes the batch environment, working directory and reporter on to its commands.
func prepareChildren(b Runnable, base *BaseCommand, commands []Runnable) {
	for _, cmd := range commands {
		cmd.InheritEnv(base.Env)
		cmd.SetCwd(base.Cwd, false)

		if cmd.GetParent() == nil {
			cmd.SetParent(b)
		}

		if base.reporter != nil {
			cmd.SetProgressReporter(base.reporter)
		}
	}
}

// skippedResult records a command that was not started because ctx was done.
func skippedResult(reporter progress.Reporter, cmd Runnable) Results {
	res := &Result{
		JobID:  cmd.GetJobID(),
		Label:  cmd.GetLabel(),
		Status: ResultStatusSkipped,
		Error:  ErrSkipOnCancel,
	}

	reporter.Report(progress.Event{
		JobID:     res.JobID,
		Label:     res.Label,
		Type:      progress.EventSkipped,
		Message:   "job not started, run cancelled",
		Timestamp: time.Now(),
		Data:      progress.EventData{Error: ErrSkipOnCancel},
	})

	return Results{res}
}

// batchResult wraps the children of a batch in a single result.
func batchResult(label string, children Results) Results {
	res := &Result{
		JobID:    NoJob,
		Label:    label,
		Status:   ResultStatusSuccess,
		Children: children,
	}

	if children.HasError() {
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	return Results{res}
}

func reportBatch(reporter progress.Reporter, label string, t progress.EventType, msg string) {
	reporter.Report(progress.Event{
		JobID:     NoJob,
		Label:     label,
		Type:      t,
		Message:   msg,
		Timestamp: time.Now(),
	})
}

func reportBatchDone(reporter progress.Reporter, label string, res *Result) {
	if res.Status == ResultStatusError {
		reportBatch(reporter, label, progress.EventFailed, "batch finished with failed jobs")
		return
	}

	reportBatch(reporter, label, progress.EventCompleted, "batch finished")
}
