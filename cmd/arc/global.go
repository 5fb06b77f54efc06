package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/myfavshrimp/arc/internal/progress"
)

// loadDotEnv loads .env and .env.override (if present) into the process
// environment before script evaluation, per spec.md §6. Load failures are
// warnings, not fatal — a missing .env is the common case, not an error.
func loadDotEnv() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}
	if err := godotenv.Overload(".env.override"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env.override: %v\n", err)
	}
}

// newSink builds the progress sink for this run. Always a TermSink over
// stderr — the engine has no quiet/json progress mode, only `list
// --json`'s separate output path.
func newSink() progress.Sink {
	return progress.NewTermSink(os.Stderr)
}
