// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger that can be used to log messages.
// It uses the slog package for structured logging and supports different log levels.
//
// The default is a pretty console handler that writes to stderr, so that the
// terminal output of mapply (plans, result trees) stays on stdout.
//
// The log level is read from an environment variable derived from the executable
// name, e.g. MAPPLY_LOG_LEVEL, and can be overridden with SetLevel.
package ctxlog
