// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"slices"
)

var (
	// ErrResultChildrenHasError is set on a batch result when one of its children failed.
	ErrResultChildrenHasError = errors.New("result has children with errors")
	// ErrSkipOnCancel is set on a command that was not started because the run was cancelled.
	ErrSkipOnCancel = errors.New("not started, run cancelled")
)

// ResultStatus is the outcome of a command or batch.
type ResultStatus int

const (
	// ResultStatusSuccess means the command exited with a success exit code.
	ResultStatusSuccess ResultStatus = iota
	// ResultStatusError means the command could not start or exited unsuccessfully.
	ResultStatusError
	// ResultStatusSkipped means the command was never started.
	ResultStatusSkipped
	// ResultStatusUnknown is the status before the outcome is known.
	ResultStatusUnknown
)

// String implements fmt.Stringer.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	JobID     int          // Job id, or NoJob for batches
	Label     string       // Label of the command or batch
	Status    ResultStatus // Outcome
	ExitCode  int          // Exit code of the command or batch
	Error     error        // Error, if any
	StdOut    []byte       // Captured standard output
	StdErr    []byte       // Captured standard error
	Truncated bool         // Output exceeded the capture limit and was cut
	Children  Results      // Nested results of a batch
}

// Results is a slice of Result pointers, used to represent multiple results.
type Results []*Result

// HasError reports whether any result, or any nested child, failed.
// Skipped results are not failures.
func (r Results) HasError() bool {
	for v := range slices.Values(r) {
		if v.Status == ResultStatusError {
			return true
		}

		if v.Children.HasError() {
			return true
		}
	}

	return false
}

// Jobs returns the leaf results, depth first, in order.
func (r Results) Jobs() Results {
	jobs := make(Results, 0, len(r))

	for _, v := range r {
		if len(v.Children) == 0 {
			jobs = append(jobs, v)
			continue
		}

		jobs = append(jobs, v.Children.Jobs()...)
	}

	return jobs
}

// Failed returns the leaf results that failed.
func (r Results) Failed() Results {
	var failed Results

	for _, v := range r.Jobs() {
		if v.Status == ResultStatusError {
			failed = append(failed, v)
		}
	}

	return failed
}

// Summary counts leaf results by status.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Summary counts the leaf results by status.
func (r Results) Summary() Summary {
	var s Summary

	for _, v := range r.Jobs() {
		s.Total++

		switch v.Status {
		case ResultStatusSuccess:
			s.Succeeded++
		case ResultStatusError:
			s.Failed++
		case ResultStatusSkipped:
			s.Skipped++
		}
	}

	return s
}

// WriteText outputs the results to the specified writer with default options.
func (r Results) WriteText(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteTextWithOptions outputs the results to the specified writer with the specified options.
func (r Results) WriteTextWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}

// WriteBinary saves the results in a binary format that ReadBinary restores.
func (r Results) WriteBinary(w io.Writer) error {
	return writeResultGob(w, r)
}
