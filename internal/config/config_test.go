// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"runtime"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFs(t *testing.T, files map[string]string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	t.Cleanup(stubs.Reset)
}

const yamlConfig = `max_cpus: 32
cpu_arg: --threads
delimiter: ","
success_exit_codes: [0, 3]
ignore_job_failures: true
env:
  TMPDIR: /scratch
`

const hclConfig = `max_cpus           = 32
cpu_arg            = "--threads"
delimiter          = ","
success_exit_codes = [0, 3]
ignore_job_failures = true
env = {
  TMPDIR = "/scratch"
}
`

func TestLoad(t *testing.T) {
	stubFs(t, map[string]string{
		"mapply.yaml": yamlConfig,
		"mapply.YML":  yamlConfig,
		"mapply.hcl":  hclConfig,
	})

	want := &Config{
		MaxCPUs:           32,
		CPUArg:            "--threads",
		Delimiter:         ",",
		SuccessExitCodes:  []int{0, 3},
		IgnoreJobFailures: true,
		Env:               map[string]string{"TMPDIR": "/scratch"},
	}

	for _, path := range []string{"mapply.yaml", "mapply.YML", "mapply.hcl"} {
		t.Run(path, func(t *testing.T) {
			got, err := Load(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	stubFs(t, map[string]string{
		"bad.yaml":     "max_cpus: [",
		"unknown.yaml": "max_cpu: 3\n",
		"bad.hcl":      "max_cpus = ",
		"unknown.hcl":  "threads = 3\n",
		"typed.hcl":    `max_cpus = "many"`,
		"invalid.yaml": "max_cpus: 0\n",
		"mapply.toml":  "max_cpus = 3\n",
	})

	tests := []struct {
		path string
		want error
	}{
		{path: "missing.yaml", want: ErrReadConfig},
		{path: "bad.yaml", want: ErrParseConfig},
		{path: "unknown.yaml", want: ErrParseConfig},
		{path: "bad.hcl", want: ErrParseConfig},
		{path: "unknown.hcl", want: ErrParseConfig},
		{path: "typed.hcl", want: ErrParseConfig},
		{path: "invalid.yaml", want: ErrInvalidConfig},
		{path: "mapply.toml", want: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Load(context.Background(), tt.path)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_KeepsDefaults(t *testing.T) {
	y, err := ParseYAML([]byte("cpu_arg: -t\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCPUs, y.MaxCPUs)

	h, err := ParseHCL([]byte(`cpu_arg = "-t"`), "mapply.hcl")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCPUs, h.MaxCPUs)
	assert.Equal(t, "-t", h.CPUArg)
}

func TestParseHCL_EvalContext(t *testing.T) {
	t.Setenv("MAPPLY_TEST_SCRATCH", "/fast/scratch")

	cfg, err := ParseHCL([]byte(`
max_cpus = num_cpus
env = {
  TMPDIR = env("MAPPLY_TEST_SCRATCH")
}
`), "mapply.hcl")
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), cfg.MaxCPUs)
	assert.Equal(t, "/fast/scratch", cfg.Env["TMPDIR"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{name: "defaults", cfg: *Default()},
		{name: "positive cpus", cfg: Config{MaxCPUs: 4}},
		{name: "zero cpus", cfg: Config{MaxCPUs: 0}, wantErr: []string{"max_cpus"}},
		{name: "negative cpus", cfg: Config{MaxCPUs: -2}, wantErr: []string{"max_cpus"}},
		{
			name: "every problem is reported",
			cfg: Config{
				MaxCPUs:          -1,
				Delimiter:        "\n",
				ValueSeparator:   "\r",
				SuccessExitCodes: []int{0, 256, -1},
				Env:              map[string]string{"A=B": "x"},
			},
			wantErr: []string{"delimiter", "value_separator", "256", "-1 is not", `"A=B"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidConfig)

			for _, s := range tt.wantErr {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}
