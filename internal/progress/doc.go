// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the runbatch package to listeners
// such as the job log.
//
// A Reporter receives events from any number of goroutines. ChannelReporter delivers
// them, in the order they were reported, to the listeners registered with Listen.
package progress
