// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"
	"path/filepath"

	"github.com/matt-FFFFFF/mapply/internal/progress"
)

// NoJob is the job id of results and runnables that do not represent a single job.
const NoJob = progress.NoJob

// BaseCommand holds the fields common to every Runnable.
// It is embedded in the command and batch types.
type BaseCommand struct {
	Label    string            // Optional label for the command
	Cwd      string            // The working directory for the command
	Env      map[string]string // Environment variables added to the process environment
	parent   Runnable
	reporter progress.Reporter
}

// NewBaseCommand creates a new BaseCommand with the specified parameters.
func NewBaseCommand(label, cwd string, env map[string]string) *BaseCommand {
	if env == nil {
		env = make(map[string]string)
	}

	return &BaseCommand{
		Label: label,
		Cwd:   cwd,
		Env:   env,
	}
}

// GetLabel returns the label of the command.
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "Command"
	}

	return c.Label
}

// GetJobID returns NoJob. Commands that run a job override it.
func (c *BaseCommand) GetJobID() int {
	return NoJob
}

// GetParent returns the parent for this command or batch.
func (c *BaseCommand) GetParent() Runnable {
	return c.parent
}

// SetParent sets the parent for this command or batch.
func (c *BaseCommand) SetParent(parent Runnable) {
	c.parent = parent
}

// SetCwd sets the working directory for the command.
// An empty cwd is ignored. Without overwrite, an absolute working directory is kept and a
// relative one is joined to cwd.
func (c *BaseCommand) SetCwd(cwd string, overwrite bool) {
	if cwd == "" {
		return
	}

	switch {
	case overwrite || c.Cwd == "":
		c.Cwd = cwd
	case filepath.IsAbs(c.Cwd):
		return
	default:
		c.Cwd = filepath.Join(cwd, c.Cwd)
	}
}

// InheritEnv sets additional environment variables for the command.
// Variables that are already set keep their value.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(c.Env) == 0 {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range maps.All(env) {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// SetProgressReporter sets the reporter that receives lifecycle events.
func (c *BaseCommand) SetProgressReporter(r progress.Reporter) {
	c.reporter = r
}

// progressReporter returns the configured reporter or a no-op one.
func (c *BaseCommand) progressReporter() progress.Reporter {
	if c.reporter == nil {
		return progress.NewNullReporter()
	}

	return c.reporter
}
