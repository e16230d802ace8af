// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"encoding/gob"
	"errors"
	"io"
)

var (
	// ErrWriteGob is returned when writing the results to a binary format fails.
	ErrWriteGob = errors.New("failed to write binary results")
	// ErrReadGob is returned when binary results cannot be decoded.
	ErrReadGob = errors.New("failed to read binary results")
)

// knownErrors are restored as the sentinel itself when a decoded message matches exactly.
var knownErrors = []error{
	ErrResultChildrenHasError,
	ErrSkipOnCancel,
	ErrCouldNotStartProcess,
	ErrSignalReceived,
	ErrDuplicateSignalReceived,
	ErrContextCancelled,
}

// DecodedError is an error read back from binary results.
// Only the message survives encoding.
type DecodedError struct {
	Msg string
}

func (e *DecodedError) Error() string {
	return e.Msg
}

type gobResult struct {
	JobID     int
	Label     string
	Status    ResultStatus
	ExitCode  int
	HasError  bool
	ErrorMsg  string
	StdOut    []byte
	StdErr    []byte
	Truncated bool
	Children  Results
}

// GobEncode implements gob.GobEncoder. Errors are stored as their message.
func (r *Result) GobEncode() ([]byte, error) {
	g := gobResult{
		JobID:     r.JobID,
		Label:     r.Label,
		Status:    r.Status,
		ExitCode:  r.ExitCode,
		StdOut:    r.StdOut,
		StdErr:    r.StdErr,
		Truncated: r.Truncated,
		Children:  r.Children,
	}

	if r.Error != nil {
		g.HasError = true
		g.ErrorMsg = r.Error.Error()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (r *Result) GobDecode(data []byte) error {
	var g gobResult
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}

	*r = Result{
		JobID:     g.JobID,
		Label:     g.Label,
		Status:    g.Status,
		ExitCode:  g.ExitCode,
		StdOut:    g.StdOut,
		StdErr:    g.StdErr,
		Truncated: g.Truncated,
		Children:  g.Children,
	}

	if g.HasError {
		r.Error = decodeError(g.ErrorMsg)
	}

	return nil
}

func decodeError(msg string) error {
	for _, known := range knownErrors {
		if known.Error() == msg {
			return known
		}
	}

	return &DecodedError{Msg: msg}
}

func writeResultGob(w io.Writer, results Results) error {
	if err := gob.NewEncoder(w).Encode(results); err != nil {
		return errors.Join(ErrWriteGob, err)
	}

	return nil
}

// ReadBinary reads results saved with Results.WriteBinary.
func ReadBinary(r io.Reader) (Results, error) {
	var results Results
	if err := gob.NewDecoder(r).Decode(&results); err != nil {
		return nil, errors.Join(ErrReadGob, err)
	}

	return results, nil
}
