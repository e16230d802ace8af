// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/matt-FFFFFF/mapply/internal/lastline"
	"github.com/matt-FFFFFF/mapply/internal/progress"
	"github.com/matt-FFFFFF/mapply/internal/signalbroker"
)

const (
	maxBufferSize    = 8 * 1024 * 1024  // 8MB
	tickerInterval   = 10 * time.Second // Interval for the still running progress event
	pipeDrainTimeout = 5 * time.Second  // How long to read output after the process exits
	maxLastLine      = 120              // Longest output line carried by a progress event
)

var _ Runnable = (*OSCommand)(nil)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToReadBuffer is returned when the buffer from the operating system pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrContextCancelled is returned when the process was killed because the run was cancelled.
	ErrContextCancelled = errors.New("run cancelled, process killed")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrSignalReceived is returned when an operating system signal was passed on to the process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal is received, forcing process termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
)

// OSCommand runs one operating system process.
type OSCommand struct {
	*BaseCommand
	JobID            int            // Job id reported in events and results
	Path             string         // The executable to run, resolved to a path
	Name             string         // argv[0] as given by the caller, defaults to the base name of Path
	Args             []string       // Arguments to the command, not including the executable
	SuccessExitCodes []int          // Exit codes that indicate success, defaults to 0
	sigCh            chan os.Signal // Channel to receive signals, allows mocking in test
	tick             time.Duration  // Progress interval, allows shortening in test
}

// NewOSCommand creates a command for job id that runs path with args.
func NewOSCommand(jobID int, label, path string, args []string) *OSCommand {
	return &OSCommand{
		BaseCommand: NewBaseCommand(label, "", nil),
		JobID:       jobID,
		Path:        path,
		Args:        args,
	}
}

// GetJobID returns the job id of the command.
func (c *OSCommand) GetJobID() int {
	return c.JobID
}

// Argv returns the argument vector passed to the process.
func (c *OSCommand) Argv() []string {
	name := c.Name
	if name == "" {
		name = filepath.Base(c.Path)
	}

	return slices.Concat([]string{name}, c.Args)
}

// Run implements the Runnable interface for OSCommand.
func (c *OSCommand) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSCommand").
		With("job", c.JobID)

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args)

	reporter := c.progressReporter()

	if c.SuccessExitCodes == nil {
		c.SuccessExitCodes = []int{0}
	}

	if c.sigCh == nil {
		c.sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(c.sigCh)
	}

	if c.tick <= 0 {
		c.tick = tickerInterval
	}

	res := &Result{
		JobID:  c.JobID,
		Label:  c.GetLabel(),
		Status: ResultStatusUnknown,
	}

	argv := c.Argv()

	reporter.Report(progress.Event{
		JobID:     c.JobID,
		Label:     res.Label,
		Args:      argv,
		Type:      progress.EventStarted,
		Message:   "job started",
		Timestamp: time.Now(),
	})

	env := os.Environ()
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return c.failed(ctx, res, errors.Join(ErrFailedToCreatePipe, err), time.Time{})
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()

		return c.failed(ctx, res, errors.Join(ErrFailedToCreatePipe, err), time.Time{})
	}

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		logger.Debug("cannot open null device, process gets no stdin", "error", err)

		stdin = nil
	}

	startTime := time.Now()

	ps, err := os.StartProcess(c.Path, argv, &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   env,
		Files: []*os.File{stdin, wOut, wErr},
	})

	// The child holds its own copies of these descriptors.
	_ = wOut.Close()
	_ = wErr.Close()

	if stdin != nil {
		_ = stdin.Close()
	}

	if err != nil {
		_ = rOut.Close()
		_ = rErr.Close()

		return c.failed(ctx, res, errors.Join(ErrCouldNotStartProcess, err), startTime)
	}

	logger.Debug("process started", "pid", ps.Pid)

	var (
		readers        sync.WaitGroup
		watchdog       sync.WaitGroup
		stdout, stderr capture
		killErr        error
		done           = make(chan struct{})
	)

	out := lastline.New(rOut)

	readers.Add(2)

	go func() {
		defer readers.Done()

		stdout = readAllUpToMax(ctx, out, maxBufferSize)
	}()

	go func() {
		defer readers.Done()

		stderr = readAllUpToMax(ctx, rErr, maxBufferSize)
	}()

	watchdog.Add(1)

	go func() {
		defer watchdog.Done()

		seen := make(map[os.Signal]struct{})

		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				elapsed := time.Since(startTime).Round(time.Second)
				logger.Debug("still running", "elapsed", elapsed.String())
				reporter.Report(progress.Event{
					JobID:     c.JobID,
					Label:     res.Label,
					Type:      progress.EventProgress,
					Message:   "job still running",
					Timestamp: time.Now(),
					Data: progress.EventData{
						Pid:      ps.Pid,
						Elapsed:  elapsed,
						LastLine: out.Line(maxLastLine),
					},
				})

			case s := <-c.sigCh:
				if _, ok := seen[s]; ok {
					logger.Info("received duplicate signal, killing process", "signal", s.String())
					killPs(ctx, ps)
					killErr = ErrDuplicateSignalReceived

					return
				}

				seen[s] = struct{}{}

				logger.Info("passing signal to process", "signal", s.String())

				if err := ps.Signal(s); err != nil {
					logger.Info("failed to send signal", "signal", s.String(), "error", err)
				}

				killErr = ErrSignalReceived

			case <-ctx.Done():
				logger.Info("context done, killing process")
				killPs(ctx, ps)
				killErr = ErrContextCancelled

				return

			case <-done:
				return
			}
		}
	}()

	state, psErr := ps.Wait()

	close(done)
	watchdog.Wait()

	// A process left behind by the job can keep the pipes open after the job exits.
	drained := make(chan struct{})

	go func() {
		readers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(pipeDrainTimeout):
		logger.Warn("job output still open after exit, closing pipes")

		_ = rOut.Close()
		_ = rErr.Close()

		<-drained
	}

	_ = rOut.Close()
	_ = rErr.Close()

	res.ExitCode = state.ExitCode()
	res.Error = psErr
	res.StdOut = stdout.data
	res.StdErr = stderr.data
	res.Truncated = stdout.truncated || stderr.truncated

	for _, e := range []error{stdout.err, stderr.err} {
		if e != nil {
			res.Error = errors.Join(res.Error, e)
		}
	}

	if res.Truncated {
		logger.Warn("job output truncated", "error", ErrBufferOverflow)
	}

	if killErr != nil {
		res.Error = errors.Join(res.Error, killErr)
	}

	switch {
	case res.Error == nil && slices.Contains(c.SuccessExitCodes, res.ExitCode):
		res.Status = ResultStatusSuccess
	default:
		if res.ExitCode == 0 {
			res.ExitCode = -1
		}

		res.Status = ResultStatusError
	}

	elapsed := time.Since(startTime)
	logger.Debug("process finished", "exitCode", res.ExitCode, "status", res.Status.String(), "elapsed", elapsed.String())

	c.reportOutcome(res, elapsed)

	return Results{res}
}

// failed records a job that never ran to completion because it could not be started.
func (c *OSCommand) failed(ctx context.Context, res *Result, err error, startTime time.Time) Results {
	ctxlog.Debug(ctx, "job could not be started", "job", c.JobID, "error", err)

	res.Error = err
	res.ExitCode = -1
	res.Status = ResultStatusError

	var elapsed time.Duration
	if !startTime.IsZero() {
		elapsed = time.Since(startTime)
	}

	c.reportOutcome(res, elapsed)

	return Results{res}
}

func (c *OSCommand) reportOutcome(res *Result, elapsed time.Duration) {
	ev := progress.Event{
		JobID:     c.JobID,
		Label:     res.Label,
		Type:      progress.EventCompleted,
		Message:   "job succeeded",
		Timestamp: time.Now(),
		Data: progress.EventData{
			Elapsed:  elapsed,
			ExitCode: res.ExitCode,
			Error:    res.Error,
			Stderr:   res.StdErr,
		},
	}

	if res.Status != ResultStatusSuccess {
		ev.Type = progress.EventFailed
		ev.Message = "job failed"
	}

	c.progressReporter().Report(ev)
}

type capture struct {
	data      []byte
	truncated bool
	err       error
}

// readAllUpToMax reads r until EOF, keeping at most maxBufferSize bytes.
// The rest is discarded so the writer never blocks on a full pipe.
func readAllUpToMax(ctx context.Context, r io.Reader, maxBufferSize int64) capture {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
		return capture{data: buf.Bytes(), err: errors.Join(ErrFailedToReadBuffer, err)}
	}

	if n <= maxBufferSize {
		return capture{data: buf.Bytes()}
	}

	discarded, _ := io.Copy(io.Discard, r)
	ctxlog.Debug(ctx, "buffer overflow in readAllUpToMax",
		"bytesRead", n+discarded,
		"maxBytes", maxBufferSize,
	)

	return capture{data: buf.Bytes()[:maxBufferSize], truncated: true}
}

func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}
