// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs batches of operating system commands and collects their results.
//
// An OSCommand is one process. A SerialBatch runs its commands one after another and a
// ParallelBatch runs them on a fixed number of workers. Neither batch stops early when
// a command fails: every command runs and the batch result lists the outcome of each
// one, in the order the commands were given.
//
// Lifecycle events are sent to a progress.Reporter when one is set.
package runbatch
