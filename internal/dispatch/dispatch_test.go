// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/mapply/internal/cpubudget"
	"github.com/matt-FFFFFF/mapply/internal/progress"
	"github.com/matt-FFFFFF/mapply/internal/runbatch"
	"github.com/matt-FFFFFF/mapply/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func shellSpecs(scripts ...string) []synth.CommandSpec {
	specs := make([]synth.CommandSpec, len(scripts))
	for i, s := range scripts {
		specs[i] = synth.CommandSpec{ID: i, Args: []string{"/bin/sh", "-c", s}}
	}

	return specs
}

type recorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recorder) OnEvent(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *recorder) jobEvents(t progress.EventType) []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []progress.Event

	for _, e := range r.events {
		if e.Type == t && e.JobID != progress.NoJob {
			out = append(out, e)
		}
	}

	return out
}

func TestBatch_ModeFollowsPlan(t *testing.T) {
	d := New()
	specs := shellSpecs("true", "true", "true")

	serial := d.Batch(context.Background(), specs, cpubudget.NewPlan(-1, -1, 3))
	assert.IsType(t, &runbatch.SerialBatch{}, serial)

	parallel := d.Batch(context.Background(), specs, cpubudget.NewPlan(16, 8, 3))
	require.IsType(t, &runbatch.ParallelBatch{}, parallel)
	assert.Equal(t, 2, parallel.(*runbatch.ParallelBatch).MaxConcurrency)
}

func TestDispatch_Sequential(t *testing.T) {
	skipOnWindows(t)

	specs := shellSpecs("echo zero", "echo one >&2; exit 3", "echo two")

	results := New(WithLabel("run")).Dispatch(context.Background(), specs, cpubudget.NewPlan(-1, -1, len(specs)))
	require.Len(t, results, 1)

	top := results[0]
	assert.Equal(t, "run", top.Label)
	require.Len(t, top.Children, 3)

	assert.Equal(t, runbatch.ResultStatusSuccess, top.Children[0].Status)
	assert.Equal(t, "zero\n", string(top.Children[0].StdOut))

	assert.Equal(t, runbatch.ResultStatusError, top.Children[1].Status)
	assert.Equal(t, 3, top.Children[1].ExitCode)
	assert.Equal(t, "one\n", string(top.Children[1].StdErr))

	assert.Equal(t, runbatch.ResultStatusSuccess, top.Children[2].Status, "a failed job must not stop later jobs")
	assert.Equal(t, "job 2: /bin/sh -c 'echo two'", top.Children[2].Label)
}

func TestDispatch_ParallelOrderedAndComplete(t *testing.T) {
	skipOnWindows(t)

	scripts := make([]string, 8)
	for i := range scripts {
		// Earlier jobs sleep longer, so they finish last.
		scripts[i] = "sleep 0." + strconv.Itoa(8-i) + "; echo " + strconv.Itoa(i)
	}

	specs := shellSpecs(scripts...)
	plan := cpubudget.NewPlan(8, 2, len(specs))
	require.Equal(t, 4, plan.Degree)

	results := New(WithCwd(t.TempDir())).Dispatch(context.Background(), specs, plan)
	require.Len(t, results[0].Children, 8)

	for i, r := range results[0].Children {
		assert.Equal(t, i, r.JobID)
		assert.Equal(t, strconv.Itoa(i)+"\n", string(r.StdOut))
	}

	assert.False(t, results.HasError())
}

func TestDispatch_ParallelRespectsDegree(t *testing.T) {
	skipOnWindows(t)

	specs := shellSpecs("sleep 0.3", "sleep 0.3", "sleep 0.3", "sleep 0.3", "sleep 0.3", "sleep 0.3")

	start := time.Now()
	results := New().Dispatch(context.Background(), specs, cpubudget.NewPlan(4, 2, len(specs)))
	elapsed := time.Since(start)

	require.False(t, results.HasError())

	// Six jobs of 0.3s on two workers need three rounds.
	assert.GreaterOrEqual(t, elapsed, 850*time.Millisecond)
}

func TestDispatch_LaunchFailureIsJobFailure(t *testing.T) {
	specs := []synth.CommandSpec{
		{ID: 0, Args: []string{"definitely-not-a-real-mapply-tool", "-x"}},
		{ID: 1, Args: []string{"definitely-not-a-real-mapply-tool", "-y"}},
	}

	results := New().Dispatch(context.Background(), specs, cpubudget.NewPlan(-1, -1, 2))
	require.Len(t, results[0].Children, 2)

	for _, r := range results[0].Children {
		assert.Equal(t, runbatch.ResultStatusError, r.Status)
		require.ErrorIs(t, r.Error, runbatch.ErrCouldNotStartProcess)
	}
}

func TestDispatch_ReportsJobEvents(t *testing.T) {
	skipOnWindows(t)

	reporter := progress.NewChannelReporter(progress.DefaultBufferSize)
	rec := &recorder{}
	reporter.Listen(rec)

	specs := shellSpecs("exit 0", "echo boom >&2; exit 1")
	New(WithReporter(reporter)).Dispatch(context.Background(), specs, cpubudget.NewPlan(2, 1, 2))
	reporter.Close()

	started := rec.jobEvents(progress.EventStarted)
	require.Len(t, started, 2)

	for _, e := range started {
		assert.Equal(t, specs[e.JobID].Args, e.Args)
	}

	completed := rec.jobEvents(progress.EventCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, 0, completed[0].JobID)

	failed := rec.jobEvents(progress.EventFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].JobID)
	assert.Equal(t, 1, failed[0].Data.ExitCode)
	assert.Equal(t, "boom\n", string(failed[0].Data.Stderr))
}

func TestDispatch_Env(t *testing.T) {
	skipOnWindows(t)

	specs := shellSpecs("echo $MAPPLY_TEST_VALUE")
	results := New(WithEnv(map[string]string{"MAPPLY_TEST_VALUE": "set"})).
		Dispatch(context.Background(), specs, cpubudget.NewPlan(-1, -1, 1))

	assert.Equal(t, "set\n", string(results[0].Children[0].StdOut))
}

func TestDispatch_SuccessExitCodes(t *testing.T) {
	skipOnWindows(t)

	specs := shellSpecs("exit 0", "exit 3", "exit 4")
	results := New(WithSuccessExitCodes([]int{0, 3})).
		Dispatch(context.Background(), specs, cpubudget.NewPlan(-1, -1, 3))

	require.Len(t, results[0].Children, 3)
	assert.Equal(t, runbatch.ResultStatusSuccess, results[0].Children[0].Status)
	assert.Equal(t, runbatch.ResultStatusSuccess, results[0].Children[1].Status)
	assert.Equal(t, runbatch.ResultStatusError, results[0].Children[2].Status)
}
