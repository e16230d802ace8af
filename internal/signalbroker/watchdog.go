// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"os/signal"

	"github.com/matt-FFFFFF/mapply/internal/ctxlog"
)

// Watch reads signals from sigCh until the context is done or the channel is closed.
// The first signal of a type is logged only. The second signal of the same type stops
// signal delivery to sigCh and calls cancel.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "second signal received, cancelling running jobs", "signal", sig.String())
				signal.Stop(sigCh)
				cancel()

				return
			}

			ctxlog.Info(ctx, "signal received, waiting for running jobs", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
