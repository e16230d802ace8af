// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/mapply/internal/progress"
)

// Runnable is something that can be run as part of a batch, either a command or a nested batch.
type Runnable interface {
	// Run executes the command or batch and returns the results.
	// It must honour context cancellation and pass signals on to any process it starts.
	Run(context.Context) Results
	// GetLabel returns the label of the command or batch.
	GetLabel() string
	// GetJobID returns the job this runnable executes, or NoJob.
	GetJobID() int
	// GetParent returns the parent batch, if any.
	GetParent() Runnable
	// SetParent sets the parent batch.
	SetParent(Runnable)
	// SetCwd sets the working directory. A relative working directory already set is
	// resolved against cwd unless overwrite is true.
	SetCwd(cwd string, overwrite bool)
	// InheritEnv adds environment variables that are not already set.
	InheritEnv(map[string]string)
	// SetProgressReporter sets the reporter that receives lifecycle events.
	SetProgressReporter(progress.Reporter)
}
