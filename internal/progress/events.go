// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// NoJob is the JobID of events that are not about a single job, e.g. a batch.
const NoJob = -1

// Event is a lifecycle update for one job or batch.
type Event struct {
	JobID     int       // Mapfile row of the job, or NoJob
	Label     string    // Label of the job or batch
	Args      []string  // Full argument vector, set on EventStarted for jobs
	Type      EventType // What happened
	Message   string    // Human readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a job or batch has begun execution.
	EventStarted EventType = iota
	// EventProgress indicates a job is still running.
	EventProgress
	// EventCompleted indicates successful completion.
	EventCompleted
	// EventFailed indicates the job failed to start or exited unsuccessfully.
	EventFailed
	// EventSkipped indicates the job was never started because the run was cancelled.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// EventData contains type specific information for progress events.
type EventData struct {
	// For EventStarted
	Pid int

	// For EventProgress, EventCompleted and EventFailed
	Elapsed time.Duration

	// For EventProgress, the last complete line the job wrote to stdout
	LastLine string

	// For EventCompleted and EventFailed
	ExitCode int
	Error    error
	Stderr   []byte
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends an event. It is safe for concurrent use.
	Report(event Event)
	// Close signals that no more events will be sent and waits for delivery to finish.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called once per event, never concurrently.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (NullReporter) Report(Event) {}

// Close implements Reporter.Close by doing nothing.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}
