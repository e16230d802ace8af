// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lastline provides a reader that remembers the most recent complete line passing
// through it, so a long running job can report what it last printed.
package lastline
