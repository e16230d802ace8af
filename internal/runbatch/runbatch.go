// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"strconv"
	"strings"
)

// BatchError aggregates the failed jobs of a run and formats a detailed error message.
type BatchError struct {
	FailedResults Results
}

// NewBatchError returns a BatchError for the failed jobs in results, or nil when none failed.
func NewBatchError(results Results) *BatchError {
	failed := results.Failed()
	if len(failed) == 0 {
		return nil
	}

	return &BatchError{FailedResults: failed}
}

func (e *BatchError) Error() string {
	sb := strings.Builder{}
	sb.WriteString(strconv.Itoa(len(e.FailedResults)))
	sb.WriteString(" job(s) failed:\n")

	for _, r := range e.FailedResults {
		sb.WriteString(r.Label)
		sb.WriteString(" (exit code: ")
		sb.WriteString(strconv.Itoa(r.ExitCode))
		sb.WriteString(")")

		if r.Error != nil {
			sb.WriteString(": ")
			sb.WriteString(r.Error.Error())
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
