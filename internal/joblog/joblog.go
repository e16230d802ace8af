// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package joblog writes a plain text record of every command a run executes.
//
// Each line has the form:
//
//	[2006-01-02 15:04:05] LEVEL: message
package joblog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/mapply/internal/progress"
	"github.com/matt-FFFFFF/mapply/internal/synth"
	"github.com/spf13/afero"
)

// TimeFormat is the timestamp layout of each line.
const TimeFormat = "2006-01-02 15:04:05"

// FileSuffix is appended to the command name to build the default log file name.
const FileSuffix = "_commands.log"

// FsFactory creates the filesystem the log file is opened on.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var (
	// ErrOpen is returned when the log file cannot be opened.
	ErrOpen = errors.New("cannot open job log")
	// ErrWrite is returned by Err when a line could not be written.
	ErrWrite = errors.New("cannot write job log")
)

// Level is the severity written on each line.
type Level string

// Levels used by the job log.
const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// DefaultFileName returns the log file name for the given command, "<base>_commands.log".
func DefaultFileName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, ".exe")

	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "mapply"
	}

	return base + FileSuffix
}

// Log is a line oriented job log. It is safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
	err    error
}

// New returns a Log writing to w.
func New(w io.Writer) *Log {
	return &Log{
		w:   w,
		now: time.Now,
	}
}

// Open appends to the log file at path, creating it if needed.
func Open(path string) (*Log, error) {
	f, err := FsFactory().OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Join(ErrOpen, fmt.Errorf("%s: %w", path, err))
	}

	l := New(f)
	l.closer = f

	return l, nil
}

// Printf writes one line at level.
func (l *Log) Printf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return
	}

	line := fmt.Sprintf("[%s] %s: %s\n", l.now().Format(TimeFormat), level, msg)
	if _, err := io.WriteString(l.w, line); err != nil {
		l.err = errors.Join(ErrWrite, err)
	}
}

// Info writes an INFO line.
func (l *Log) Info(format string, args ...any) {
	l.Printf(LevelInfo, format, args...)
}

// Warning writes a WARNING line.
func (l *Log) Warning(format string, args ...any) {
	l.Printf(LevelWarning, format, args...)
}

// Error writes an ERROR line.
func (l *Log) Error(format string, args ...any) {
	l.Printf(LevelError, format, args...)
}

// OnEvent implements progress.Listener. Batch level events are ignored.
func (l *Log) OnEvent(e progress.Event) {
	if e.JobID == progress.NoJob {
		return
	}

	switch e.Type {
	case progress.EventStarted:
		l.Info("job %d: %s", e.JobID, synth.Join(e.Args))
	case progress.EventCompleted:
		l.Info("job %d completed in %s", e.JobID, e.Data.Elapsed.Round(time.Millisecond))
	case progress.EventFailed:
		l.Error("job %d failed with exit code %d: %v", e.JobID, e.Data.ExitCode, e.Data.Error)

		if stderr := strings.TrimSpace(string(e.Data.Stderr)); stderr != "" {
			for line := range strings.SplitSeq(stderr, "\n") {
				l.Error("job %d stderr: %s", e.JobID, line)
			}
		}
	case progress.EventSkipped:
		l.Warning("job %d skipped: %s", e.JobID, e.Message)
	}
}

// Err returns the first write error, if any.
func (l *Log) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

// Close closes the underlying file when the Log was created by Open.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return l.err
	}

	err := l.closer.Close()
	l.closer = nil

	return errors.Join(l.err, err)
}
