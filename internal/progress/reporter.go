// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
)

// DefaultBufferSize is a reasonable buffer for a ChannelReporter.
const DefaultBufferSize = 64

// ChannelReporter implements Reporter using a Go channel.
// Report blocks when the buffer is full, so no event is dropped. Events reported
// after Close are discarded.
type ChannelReporter struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

// NewChannelReporter creates a new ChannelReporter with the specified buffer size.
func NewChannelReporter(bufferSize int) *ChannelReporter {
	if bufferSize < 0 {
		bufferSize = 0
	}

	return &ChannelReporter{
		ch: make(chan Event, bufferSize),
	}
}

// Report implements Reporter.Report.
// A listener must be registered, or Events drained, or Report blocks once the buffer fills.
func (cr *ChannelReporter) Report(event Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	cr.ch <- event
}

// Close implements Reporter.Close.
// It waits until the listeners have received every event reported before Close.
func (cr *ChannelReporter) Close() {
	cr.once.Do(func() {
		cr.mu.Lock()
		cr.closed = true
		close(cr.ch)
		cr.mu.Unlock()

		cr.wg.Wait()
	})
}

// Listen starts one goroutine that forwards every event to the listeners, in order.
// Call it once, before the first event is reported.
func (cr *ChannelReporter) Listen(listeners ...Listener) {
	cr.wg.Add(1)

	go func() {
		defer cr.wg.Done()

		for event := range cr.ch {
			for _, l := range listeners {
				l.OnEvent(event)
			}
		}
	}()
}

// Events returns a read-only channel of progress events.
// Use it instead of Listen to handle events manually. It is closed by Close.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}
