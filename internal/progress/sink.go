// Package progress defines the narrow, process-wide, replaceable progress
// surface (spec.md §4.7). Rendering is external (the CLI front end owns
// pixel-level presentation); this package defines the event contract and
// ships one real renderer (TermSink) plus a NoopSink, grounded on the
// narrow-interface-over-swappable-backend shape the teacher uses for its
// own Backend abstraction.
package progress

import "time"

// Level is a log severity, routed to the currently active task logger if
// one is active, else to the global one.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// TransferDirection classifies a file transfer event.
type TransferDirection int

const (
	TransferUpload TransferDirection = iota
	TransferDownload
	TransferCopy
)

// SystemSummary is the per-system task outcome count, emitted by SystemEnd.
type SystemSummary struct {
	OK      int
	Failed  int
	Skipped int
}

// CommandHandle and TransferHandle are opaque tokens a Sink hands back from
// a *Begin call; the executor/delegator pass them to the matching
// Update/Finish calls. A no-op sink can return nil safely.
type CommandHandle interface{}
type TransferHandle interface{}

// Sink is the process-wide progress surface. A Sink is obtained once per
// run; SystemLogger/TaskLogger below scope subsequent events to a system or
// task.
type Sink interface {
	// SystemLogger returns a logger scoped to one target's execution pass.
	SystemLogger(systemName string) SystemLogger
}

// SystemLogger reports one system's lifecycle and owns the "currently
// active task" slot for log attribution (spec.md §5's per-thread rule;
// this engine is single-threaded, so "per-thread" collapses to "current").
type SystemLogger interface {
	// TaskLogger activates taskName as the current task and returns its
	// logger. Deactivate by calling End on the returned logger.
	TaskLogger(taskName string) TaskLogger

	TaskSkip(taskName string)
	TaskAbort(taskName string)

	Log(level Level, message string)

	// Finalize emits the {ok/failed/skipped} summary and releases any
	// terminal resources held for this system.
	Finalize(summary SystemSummary)
}

// TaskLogger scopes log/command/transfer events to one task.
type TaskLogger interface {
	Log(level Level, message string)

	CommandBegin(cmd string) CommandHandle
	CommandUpdate(h CommandHandle, tailOutput string)
	CommandFinish(h CommandHandle)

	TransferBegin(dir TransferDirection, from, to string, totalBytes uint64) TransferHandle
	TransferUpdate(h TransferHandle, bytes uint64)
	TransferFinish(h TransferHandle)

	// End marks the task finished with state (success/failed) and
	// deactivates it as the current task.
	End(state string)
}

// tickInterval is the cadence at which TermSink prints periodic
// command/transfer progress lines.
const tickInterval = 100 * time.Millisecond
