// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lastline

import (
	"bytes"
	"io"
	"sync"
)

// maxPartial bounds the memory held for a line that has not ended yet.
const maxPartial = 4096

// Reader wraps an io.Reader and tracks the last complete line read through it.
// It is safe to call Line while another goroutine reads.
type Reader struct {
	r       io.Reader
	mu      sync.RWMutex
	last    string
	partial []byte
}

// New returns a Reader reading from r.
func New(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read implements io.Reader.
func (l *Reader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		l.track(p[:n])
	}

	return n, err //nolint:wrapcheck
}

func (l *Reader) track(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := bytes.LastIndexByte(data, '\n')
	if i < 0 {
		l.appendPartial(data)
		return
	}

	head := data[:i]
	if j := bytes.LastIndexByte(head, '\n'); j >= 0 {
		l.partial = l.partial[:0]
		head = head[j+1:]
	}

	l.appendPartial(head)
	l.last = string(bytes.TrimSuffix(l.partial, []byte("\r")))
	l.partial = l.partial[:0]
	l.appendPartial(data[i+1:])
}

func (l *Reader) appendPartial(b []byte) {
	room := maxPartial - len(l.partial)
	if room <= 0 {
		return
	}

	if len(b) > room {
		b = b[:room]
	}

	l.partial = append(l.partial, b...)
}

// Line returns the last complete line, without its line ending, or an empty string.
// When maxLength > 3 and the line is longer, it is cut and ends with "...".
func (l *Reader) Line(maxLength int) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if maxLength > 3 && len(l.last) > maxLength {
		return l.last[:maxLength-3] + "..."
	}

	return l.last
}
