// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cpubudget

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureCtx(buf *bytes.Buffer) context.Context {
	return ctxlog.New(context.Background(), slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		constants []string
		want      int
		warns     bool
	}{
		{name: "cpu one wins", opts: Options{MaxCPUs: 16, CPUArg: "-t", CPUOne: true}, constants: []string{"tool", "-t", "8"}, want: 1},
		{name: "cpu arg found", opts: Options{MaxCPUs: 16, CPUArg: "-t"}, constants: []string{"tool", "-t", "4"}, want: 4},
		{name: "cpu arg equals form", opts: Options{MaxCPUs: 16, CPUArg: "--threads"}, constants: []string{"tool", "--threads=6"}, want: 6},
		{name: "cpu arg absent", opts: Options{MaxCPUs: 16, CPUArg: "-t"}, constants: []string{"tool", "--verbose"}, want: 1, warns: true},
		{name: "neither set", opts: Options{MaxCPUs: 16}, constants: []string{"tool"}, want: 16},
		{name: "neither set uses the budget", opts: Options{MaxCPUs: NoBudget}, want: NoBudget},
		{name: "prefix is not a match", opts: Options{MaxCPUs: 16, CPUArg: "-t"}, constants: []string{"tool", "-threads", "4"}, want: 1, warns: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			got, err := Resolve(captureCtx(&buf), tt.opts, tt.constants)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if tt.warns {
				assert.Contains(t, buf.String(), "level=WARN")
				return
			}

			assert.NotContains(t, buf.String(), "level=WARN")
		})
	}
}

func TestResolve_TemplatedCPUArgDefaultsToOne(t *testing.T) {
	var buf bytes.Buffer

	// -t{threads} is templated, so only --verbose reaches the resolver.
	got, err := Resolve(captureCtx(&buf), Options{MaxCPUs: 16, CPUArg: "-t"}, []string{"tool", "--verbose"})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Contains(t, buf.String(), "CPU flag not found")
}

func TestResolve_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		constants []string
	}{
		{name: "not an integer", constants: []string{"tool", "-t", "four"}},
		{name: "missing value", constants: []string{"tool", "-t"}},
		{name: "zero", constants: []string{"tool", "-t", "0"}},
		{name: "negative", constants: []string{"tool", "-t=-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(context.Background(), Options{MaxCPUs: 16, CPUArg: "-t"}, tt.constants)
			require.ErrorIs(t, err, ErrCPUArgParse)
		})
	}
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name           string
		maxCPUs, cost  int
		jobs           int
		wantDegree     int
		wantSequential bool
	}{
		{name: "default sentinel", maxCPUs: -1, cost: -1, jobs: 10, wantDegree: 1, wantSequential: true},
		{name: "sentinel with cost", maxCPUs: -1, cost: 4, jobs: 10, wantDegree: 1, wantSequential: true},
		{name: "budget equals cost", maxCPUs: 8, cost: 8, jobs: 10, wantDegree: 1, wantSequential: true},
		{name: "budget below cost", maxCPUs: 4, cost: 8, jobs: 10, wantDegree: 1, wantSequential: true},
		{name: "floor division", maxCPUs: 16, cost: 5, jobs: 10, wantDegree: 3},
		{name: "one cpu jobs", maxCPUs: 16, cost: 1, jobs: 100, wantDegree: 16},
		{name: "capped by jobs", maxCPUs: 16, cost: 1, jobs: 2, wantDegree: 2},
		{name: "zero jobs", maxCPUs: 16, cost: 2, jobs: 0, wantDegree: 8},
		{name: "invalid cost", maxCPUs: 16, cost: 0, jobs: 4, wantDegree: 1, wantSequential: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(tt.maxCPUs, tt.cost, tt.jobs)
			assert.Equal(t, tt.wantDegree, p.Degree)
			assert.Equal(t, tt.wantSequential, p.Sequential())
			assert.Equal(t, tt.maxCPUs, p.MaxCPUs)
			assert.Equal(t, tt.cost, p.CostPerJob)
		})
	}
}

func TestPlan_String(t *testing.T) {
	assert.Contains(t, NewPlan(-1, -1, 3).String(), "sequential")
	assert.Contains(t, NewPlan(16, 4, 10).String(), "4 jobs at once")
}
