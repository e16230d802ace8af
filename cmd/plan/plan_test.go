// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/matt-FFFFFF/mapply/internal/mapfile"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runPlan(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer

	root := &cli.Command{
		Name:           "mapply",
		Commands:       []*cli.Command{newPlanCmd()},
		Writer:         &buf,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	err := root.Run(context.Background(), append([]string{"mapply", "plan"}, args...))

	return buf.String(), err
}

func TestPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "map.tsv", []byte("input\tthreads\na.txt\t4\nmy file.txt\t8\n"), 0o644))

	stubs := gostub.Stub(&mapfile.FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	out, err := runPlan(t, "--max-cpus", "16", "--cpu-one", "map.tsv", "tool", "--", "-i{input}", "-t{threads}", "--verbose")
	require.NoError(t, err)

	assert.Equal(t,
		"# 2 job(s), parallel, 2 jobs at once (max CPUs 16, cost per job 1)\n"+
			"tool --verbose -i a.txt -t 4\n"+
			"tool --verbose -i 'my file.txt' -t 8\n",
		out)
}

func stubMapfile(t *testing.T, content string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "map.tsv", []byte(content), 0o644))

	stubs := gostub.Stub(&mapfile.FsFactory, func() afero.Fs { return fs })
	t.Cleanup(stubs.Reset)
}

func TestPlan_Table(t *testing.T) {
	stubMapfile(t, "input\tthreads\na.txt\t4\nb.txt\t8\n")

	out, err := runPlan(t, "--format", "table", "--max-cpus", "1", "map.tsv", "tool", "--", "-i{input}", "-t{threads}")
	require.NoError(t, err)

	assert.Contains(t, out, "JOB")
	assert.Contains(t, out, "COMMAND")
	assert.Contains(t, out, "tool -i a.txt -t 4")
	assert.Contains(t, out, "tool -i b.txt -t 8")
	assert.Contains(t, out, "2 job(s), sequential")
}

func TestPlan_JSON(t *testing.T) {
	stubMapfile(t, "input\na.txt\nb.txt\n")

	out, err := runPlan(t, "-f", "json", "--max-cpus", "16", "--cpu-arg", "-t", "map.tsv", "tool", "--", "-i{input}", "-t", "4")
	require.NoError(t, err)

	var got jsonPlan
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, 16, got.MaxCPUs)
	assert.Equal(t, 4, got.CostPerJob)
	assert.Equal(t, 2, got.Degree)
	require.Len(t, got.Jobs, 2)
	assert.Equal(t, jsonJob{ID: 1, Args: []string{"tool", "-t", "4", "-i", "b.txt"}}, got.Jobs[1])
}

func TestPlan_UnknownFormat(t *testing.T) {
	stubMapfile(t, "input\tthreads\na.txt\t4\nb.txt\t8\n")

	out, err := runPlan(t, "--format", "xml", "map.tsv", "tool", "--", "-i{input}", "-t{threads}")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown output format")
	assert.Empty(t, out)
}

func TestPlan_Error(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "map.tsv", []byte("input\tthreads\na.txt\n"), 0o644))

	stubs := gostub.Stub(&mapfile.FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	out, err := runPlan(t, "map.tsv", "tool", "--", "-i{input}", "-t{threads}")
	require.Error(t, err)
	assert.Empty(t, out)
}
