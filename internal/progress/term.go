package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TermSink renders progress to a single writer (typically os.Stderr) as
// plain status lines, one per event — no cursor repositioning or color,
// since spec.md §4.7 explicitly leaves rendering details non-normative.
// Safe for single-threaded use only, matching spec.md §5's scheduling
// model: exactly one system/task is ever active at a time.
type TermSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTermSink(w io.Writer) *TermSink {
	return &TermSink{w: w}
}

func (t *TermSink) SystemLogger(systemName string) SystemLogger {
	t.printf("==> %s\n", systemName)
	return &termSystemLogger{sink: t, systemName: systemName}
}

func (t *TermSink) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

type termSystemLogger struct {
	sink       *TermSink
	systemName string
}

func (s *termSystemLogger) TaskLogger(taskName string) TaskLogger {
	s.sink.printf("  [%s] %s ...\n", s.systemName, taskName)
	return &termTaskLogger{sink: s.sink, systemName: s.systemName, taskName: taskName}
}

func (s *termSystemLogger) TaskSkip(taskName string) {
	s.sink.printf("  [%s] %s skipped\n", s.systemName, taskName)
}

func (s *termSystemLogger) TaskAbort(taskName string) {
	s.sink.printf("  [%s] %s aborted\n", s.systemName, taskName)
}

func (s *termSystemLogger) Log(level Level, message string) {
	s.sink.printf("  [%s] %s %s\n", s.systemName, levelTag(level), message)
}

func (s *termSystemLogger) Finalize(summary SystemSummary) {
	s.sink.printf("==> %s: %d ok, %d failed, %d skipped\n",
		s.systemName, summary.OK, summary.Failed, summary.Skipped)
}

type termTaskLogger struct {
	sink       *TermSink
	systemName string
	taskName   string
}

func (t *termTaskLogger) Log(level Level, message string) {
	t.sink.printf("  [%s] %s: %s %s\n", t.systemName, t.taskName, levelTag(level), message)
}

func (t *termTaskLogger) CommandBegin(cmd string) CommandHandle {
	t.sink.printf("  [%s] %s $ %s\n", t.systemName, t.taskName, cmd)
	return NewUpdater(tickInterval, func(d time.Duration, final bool) {
		if final {
			return
		}
		t.sink.printf("  [%s] %s ... (%s)\n", t.systemName, t.taskName, d.Round(time.Second))
	})
}

func (t *termTaskLogger) CommandUpdate(h CommandHandle, tailOutput string) {
	if tailOutput == "" {
		return
	}
	t.sink.printf("  [%s] %s | %s\n", t.systemName, t.taskName, tailOutput)
}

func (t *termTaskLogger) CommandFinish(h CommandHandle) {
	if u, ok := h.(*Updater); ok {
		u.Done()
	}
}

func (t *termTaskLogger) TransferBegin(dir TransferDirection, from, to string, totalBytes uint64) TransferHandle {
	t.sink.printf("  [%s] %s %s %s -> %s (%d bytes)\n",
		t.systemName, t.taskName, transferVerb(dir), from, to, totalBytes)
	return NewCounter(tickInterval, totalBytes, func(value, total uint64, d time.Duration, final bool) {
		if final {
			return
		}
		t.sink.printf("  [%s] %s %d/%d bytes\n", t.systemName, t.taskName, value, total)
	})
}

func (t *termTaskLogger) TransferUpdate(h TransferHandle, bytes uint64) {
	if c, ok := h.(*Counter); ok {
		c.Add(bytes)
	}
}

func (t *termTaskLogger) TransferFinish(h TransferHandle) {
	if c, ok := h.(*Counter); ok {
		c.Done()
	}
}

func (t *termTaskLogger) End(state string) {
	t.sink.printf("  [%s] %s %s\n", t.systemName, t.taskName, state)
}

func levelTag(l Level) string {
	switch l {
	case LevelDebug:
		return "debug:"
	case LevelWarn:
		return "warn:"
	case LevelError:
		return "error:"
	default:
		return "info:"
	}
}

func transferVerb(dir TransferDirection) string {
	switch dir {
	case TransferUpload:
		return "upload"
	case TransferDownload:
		return "download"
	default:
		return "copy"
	}
}
