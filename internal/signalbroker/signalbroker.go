// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker listens for the OS signals that should stop a mapply run.
//
// Child processes started by runbatch receive the same signals through their own
// watchers. Watch cancels the run context on the second signal of the same type,
// which kills every child that is still running.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	os.Interrupt,
}

// TermSignals returns the signals mapply treats as a request to stop.
func TermSignals() []os.Signal {
	s := make([]os.Signal, len(termSignals))
	copy(s, termSignals)

	return s
}

// New registers a channel for the given signals, or the termination signals if none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signal broker registered", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unregisters the channel. No more signals are delivered to it afterwards.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
