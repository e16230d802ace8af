// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package joblog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/mapply/internal/progress"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestLog(buf *bytes.Buffer) *Log {
	l := New(buf)
	l.now = func() time.Time { return fixedTime }

	return l
}

func TestDefaultFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "tool", want: "tool_commands.log"},
		{in: "/usr/local/bin/bwa", want: "bwa_commands.log"},
		{in: "./scripts/run.sh", want: "run.sh_commands.log"},
		{in: "samtools.exe", want: "samtools_commands.log"},
		{in: "", want: "mapply_commands.log"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFileName(tt.in))
		})
	}
}

func TestPrintf(t *testing.T) {
	var buf bytes.Buffer

	l := newTestLog(&buf)
	l.Info("reading mapfile: %s", "map.tsv")
	l.Error("boom")

	assert.Equal(t,
		"[2025-03-04 05:06:07] INFO: reading mapfile: map.tsv\n"+
			"[2025-03-04 05:06:07] ERROR: boom\n",
		buf.String())
}

func TestOnEvent(t *testing.T) {
	var buf bytes.Buffer

	l := newTestLog(&buf)

	l.OnEvent(progress.Event{JobID: progress.NoJob, Type: progress.EventStarted, Label: "batch"})
	l.OnEvent(progress.Event{JobID: 0, Type: progress.EventStarted, Args: []string{"tool", "--verbose", "-i", "a.txt"}})
	l.OnEvent(progress.Event{JobID: 0, Type: progress.EventProgress})
	l.OnEvent(progress.Event{JobID: 0, Type: progress.EventCompleted, Data: progress.EventData{Elapsed: 1500 * time.Millisecond}})
	l.OnEvent(progress.Event{JobID: 1, Type: progress.EventFailed, Data: progress.EventData{
		ExitCode: 2,
		Error:    errors.New("exit status 2"),
		Stderr:   []byte("bad input\nsecond line\n"),
	}})
	l.OnEvent(progress.Event{JobID: 2, Type: progress.EventSkipped, Message: "run cancelled"})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	assert.Equal(t, "[2025-03-04 05:06:07] INFO: job 0: tool --verbose -i a.txt", lines[0])
	assert.Equal(t, "[2025-03-04 05:06:07] INFO: job 0 completed in 1.5s", lines[1])
	assert.Equal(t, "[2025-03-04 05:06:07] ERROR: job 1 failed with exit code 2: exit status 2", lines[2])
	assert.Equal(t, "[2025-03-04 05:06:07] ERROR: job 1 stderr: bad input", lines[3])
	assert.Equal(t, "[2025-03-04 05:06:07] ERROR: job 1 stderr: second line", lines[4])
	assert.Equal(t, "[2025-03-04 05:06:07] WARNING: job 2 skipped: run cancelled", lines[5])
}

func TestOnEvent_StartedLinesCarryJobID(t *testing.T) {
	var buf bytes.Buffer

	l := newTestLog(&buf)

	// Parallel jobs start out of row order.
	l.OnEvent(progress.Event{JobID: 7, Type: progress.EventStarted, Args: []string{"tool", "-i", "h.txt"}})
	l.OnEvent(progress.Event{JobID: 3, Type: progress.EventStarted, Args: []string{"tool", "-i", "d.txt"}})
	l.OnEvent(progress.Event{JobID: 7, Type: progress.EventFailed, Data: progress.EventData{
		ExitCode: 1,
		Error:    errors.New("exit status 1"),
	}})

	assert.Equal(t,
		"[2025-03-04 05:06:07] INFO: job 7: tool -i h.txt\n"+
			"[2025-03-04 05:06:07] INFO: job 3: tool -i d.txt\n"+
			"[2025-03-04 05:06:07] ERROR: job 7 failed with exit code 1: exit status 1\n",
		buf.String())
}

func TestOpen_AppendsToFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	require.NoError(t, afero.WriteFile(fs, "tool_commands.log", []byte("existing\n"), 0o644))

	l, err := Open("tool_commands.log")
	require.NoError(t, err)

	l.now = func() time.Time { return fixedTime }
	l.Info("tool -x")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "second close is a no-op")

	got, err := afero.ReadFile(fs, "tool_commands.log")
	require.NoError(t, err)
	assert.Equal(t, "existing\n[2025-03-04 05:06:07] INFO: tool -x\n", string(got))
}

func TestOpen_Error(t *testing.T) {
	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return afero.NewReadOnlyFs(afero.NewMemMapFs()) })
	defer stubs.Reset()

	_, err := Open("tool_commands.log")
	require.ErrorIs(t, err, ErrOpen)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteErrorIsSticky(t *testing.T) {
	l := New(failingWriter{})
	l.Info("one")
	l.Info("two")

	require.ErrorIs(t, l.Err(), ErrWrite)
	require.ErrorIs(t, l.Close(), ErrWrite)
}

func TestListener(t *testing.T) {
	var buf bytes.Buffer

	l := newTestLog(&buf)

	reporter := progress.NewChannelReporter(progress.DefaultBufferSize)
	reporter.Listen(l)
	reporter.Report(progress.Event{JobID: 3, Type: progress.EventStarted, Args: []string{"tool"}})
	reporter.Close()

	assert.Equal(t, "[2025-03-04 05:06:07] INFO: tool\n", buf.String())
}
