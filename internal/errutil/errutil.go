// Package errutil implements the engine's error classification and
// causal-chain reporting. Every error that can cross the delegator/script
// FFI boundary must classify itself via IsUserError so the boundary can tell
// a scripted pcall-catchable mistake from an engine-infrastructure failure.
package errutil

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Classified is implemented by errors that know whether they represent a
// user mistake (catchable by script pcall) or an infrastructure failure
// (must escape pcall as a panic).
type Classified interface {
	error
	IsUserError() bool
}

// UserError wraps a mistake a script author can fix: a bad path, a
// permission error, a non-zero command exit. It is always catchable.
type UserError struct {
	Kind string // e.g. "not_found", "permission_denied", "failure"
	msg  string
	err  error
}

func NewUserError(kind, msg string, cause error) *UserError {
	return &UserError{Kind: kind, msg: msg, err: cause}
}

func (e *UserError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if e.err != nil {
		return e.err.Error()
	}
	return e.Kind
}

func (e *UserError) Unwrap() error   { return e.err }
func (e *UserError) IsUserError() bool { return true }

// InfrastructureError wraps an engine-internal failure: a lost SSH session,
// exhausted I/O, a broken invariant. It must never be swallowed by a
// script's pcall; the FFI boundary re-raises it as an uncatchable panic.
type InfrastructureError struct {
	msg string
	err error
}

func NewInfrastructureError(msg string, cause error) *InfrastructureError {
	return &InfrastructureError{msg: msg, err: cause}
}

func (e *InfrastructureError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if e.err != nil {
		return e.err.Error()
	}
	return "infrastructure error"
}

func (e *InfrastructureError) Unwrap() error   { return e.err }
func (e *InfrastructureError) IsUserError() bool { return false }

// NeedsReconnect marks an InfrastructureError that a session may recover
// from transparently by reconnecting before the next operation.
type NeedsReconnect struct {
	*InfrastructureError
}

func NewNeedsReconnect(cause error) *NeedsReconnect {
	return &NeedsReconnect{InfrastructureError: NewInfrastructureError("ssh session needs reconnect", cause)}
}

// Fatal terminates the run immediately with a clean, stack-trace-free
// message. Used for conditions that have nothing to do with a single task
// or target: a missing arc.lua, a malformed CLI invocation.
type Fatal struct {
	msg string
}

func NewFatal(format string, args ...interface{}) *Fatal {
	return &Fatal{msg: fmt.Sprintf(format, args...)}
}

func (e *Fatal) Error() string { return e.msg }

// IsUserError reports whether err (or something in its cause chain)
// classifies itself as a user error. Unclassified errors are treated as
// infrastructure errors: the conservative choice, since an unclassified
// failure from new code is more likely a bug than a clean user mistake.
func IsUserError(err error) bool {
	var c Classified
	if errors.As(err, &c) {
		return c.IsUserError()
	}
	return false
}

// Report renders err and its full cause chain as a multi-line message in
// the shape:
//
//	<message>
//	Caused by:
//	    <cause>
//	Caused by:
//	    <cause of cause>
func Report(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(err.Error())

	cause := errors.Unwrap(err)
	for cause != nil {
		b.WriteString("\nCaused by:\n    ")
		b.WriteString(indent(cause.Error()))
		cause = errors.Unwrap(cause)
	}
	return b.String()
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}
