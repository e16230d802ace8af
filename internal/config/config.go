// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	// DefaultMaxCPUs runs the jobs one at a time.
	DefaultMaxCPUs = -1
	maxExitCode    = 255
)

var (
	// ErrReadConfig is returned when the config file cannot be read.
	ErrReadConfig = errors.New("failed to read config file")
	// ErrParseConfig is returned when the config file is not valid YAML or HCL.
	ErrParseConfig = errors.New("failed to parse config file")
	// ErrInvalidConfig is returned when config values are out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedFormat is returned for a file extension that is neither YAML nor HCL.
	ErrUnsupportedFormat = errors.New("unsupported config file format, use .yaml, .yml or .hcl")
)

// Config holds the run settings that can be given in a file instead of on the command line.
type Config struct {
	MaxCPUs           int               `yaml:"max_cpus" hcl:"max_cpus,optional"`
	CPUArg            string            `yaml:"cpu_arg" hcl:"cpu_arg,optional"`
	CPUOne            bool              `yaml:"cpu_one" hcl:"cpu_one,optional"`
	Delimiter         string            `yaml:"delimiter" hcl:"delimiter,optional"`
	ValueSeparator    string            `yaml:"value_separator" hcl:"value_separator,optional"`
	LogFile           string            `yaml:"log_file" hcl:"log_file,optional"`
	Cwd               string            `yaml:"cwd" hcl:"cwd,optional"`
	SuccessExitCodes  []int             `yaml:"success_exit_codes" hcl:"success_exit_codes,optional"`
	IgnoreJobFailures bool              `yaml:"ignore_job_failures" hcl:"ignore_job_failures,optional"`
	Env               map[string]string `yaml:"env" hcl:"env,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxCPUs: DefaultMaxCPUs,
	}
}

// Load reads the config file at path. The format is chosen by the file extension.
func Load(ctx context.Context, path string) (*Config, error) {
	parse, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadConfig, err)
	}

	ctxlog.Debug(ctx, "loading config file", "path", path)

	cfg, err := parse(data, path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parserFor(path string) (func([]byte, string) (*Config, error), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return func(data []byte, _ string) (*Config, error) {
			return ParseYAML(data)
		}, nil
	case ".hcl":
		return ParseHCL, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Validate reports every out of range value.
func (c *Config) Validate() error {
	var result error

	if c.MaxCPUs == 0 || c.MaxCPUs < DefaultMaxCPUs {
		result = multierror.Append(result, fmt.Errorf("max_cpus must be -1 or positive, got %d", c.MaxCPUs))
	}

	if strings.ContainsAny(c.Delimiter, "\r\n") {
		result = multierror.Append(result, errors.New("delimiter must not contain a line break"))
	}

	if strings.ContainsAny(c.ValueSeparator, "\r\n") {
		result = multierror.Append(result, errors.New("value_separator must not contain a line break"))
	}

	for _, code := range c.SuccessExitCodes {
		if code < 0 || code > maxExitCode {
			result = multierror.Append(result, fmt.Errorf("success_exit_codes: %d is not a valid exit code", code))
		}
	}

	for k := range c.Env {
		if k == "" || strings.Contains(k, "=") {
			result = multierror.Append(result, fmt.Errorf("env: invalid variable name %q", k))
		}
	}

	if result != nil {
		return errors.Join(ErrInvalidConfig, result)
	}

	return nil
}
