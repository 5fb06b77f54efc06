// Package debug provides an opt-in internal diagnostic logger for the
// engine's own tracing. It is independent of the progress sink's log.*/print
// surface (internal/progress), which carries script-authored output instead.
package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
)

var opts struct {
	enabled bool
	logger  *log.Logger
}

func init() {
	if file := os.Getenv("ARC_DEBUG_LOG"); file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "arc: unable to open debug log file %v: %v\n", file, err)
			os.Exit(2)
		}
		opts.logger = log.New(f, "", log.LstdFlags)
		opts.enabled = true
		return
	}

	if os.Getenv("ARC_DEBUG") != "" {
		opts.logger = log.New(os.Stderr, "", log.LstdFlags)
		opts.enabled = true
	}
}

// Log writes a debug message tagged with the caller's file:line, the way
// the teacher's own debug logger does, when diagnostics are enabled.
func Log(format string, args ...interface{}) {
	if !opts.enabled {
		return
	}

	_, file, line, ok := runtime.Caller(1)
	if ok {
		file = filepath.Base(file)
	} else {
		file, line = "???", 0
	}

	opts.logger.Printf("%s:%d  %s", file, line, fmt.Sprintf(format, args...))
}

// Enabled reports whether debug logging is currently active.
func Enabled() bool {
	return opts.enabled
}
