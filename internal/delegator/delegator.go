// Package delegator implements the uniform file and command operations
// facade that task handlers use against a remote (SSH/SFTP), local, or
// dry-run target. The three backends form a closed set: the backend
// interface below is unexported, so the local, SSH and dry implementations
// in this package are the only ones, and Kind reports which of them a
// Delegator wraps.
package delegator

import (
	"context"

	"github.com/myfavshrimp/arc/internal/progress"
)

// Kind identifies which backend a Delegator dispatches to.
type Kind int

const (
	KindLocal Kind = iota
	KindSSH
	KindDry
)

// FileKind classifies a path's type, as reported by Metadata/ListDirectory.
type FileKind int

const (
	FileKindUnknown FileKind = iota
	FileKindFile
	FileKindDirectory
)

func (k FileKind) String() string {
	switch k {
	case FileKindFile:
		return "file"
	case FileKindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// MetadataResult describes a single path. Optional fields are nil when the
// backend cannot report them (the Dry backend only ever sets Path).
type MetadataResult struct {
	Path        string
	Size        *uint64
	Permissions *uint32
	Kind        FileKind
	UID         *uint32
	GID         *uint32
	Accessed    *int64 // seconds since epoch
	Modified    *int64 // seconds since epoch
}

// CommandResult is the outcome of RunCommand.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// WriteResult is returned by WriteFile.
type WriteResult struct {
	Path         string
	BytesWritten uint64
}

// backend is the narrow set of primitive operations each concrete mode must
// provide. Delegator wraps exactly one of these and never exposes it
// directly: everything crossing the FFI boundary goes through Delegator's
// own methods so error classification happens in one place.
type backend interface {
	readFile(ctx context.Context, path string) ([]byte, error)
	writeFile(ctx context.Context, path string, data []byte) (WriteResult, error)
	rename(ctx context.Context, from, to string) error
	removeFile(ctx context.Context, path string) error
	removeDirectory(ctx context.Context, path string) error
	createDirectory(ctx context.Context, path string) error
	setPermissions(ctx context.Context, path string, mode uint32) error
	listDirectory(ctx context.Context, path string) ([]MetadataResult, error)
	metadata(ctx context.Context, path string) (*MetadataResult, error)
	runCommand(ctx context.Context, cmd string) (CommandResult, error)
	close() error
}

// Delegator is the per-target facade passed (indirectly, via the script
// SystemHandle) to every task handler.
type Delegator struct {
	kind Kind
	b    backend

	// logger is the active task's progress logger, set by the executor
	// around a handler call so RunCommand/ReadFile/WriteFile can emit
	// command/transfer events (spec.md §4.7: "the progress sink receives
	// events from both the executor and the Delegator"). Nil outside a
	// task call (e.g. during a when predicate), in which case no events
	// are emitted.
	logger progress.TaskLogger
}

// SetTaskLogger sets (or, with nil, clears) the logger command/transfer
// events are reported through. Called by the executor driver immediately
// before and after a handler invocation.
func (d *Delegator) SetTaskLogger(l progress.TaskLogger) {
	d.logger = l
}

// NewLocal builds a Delegator that operates on the local filesystem and
// shell.
func NewLocal() *Delegator {
	return &Delegator{kind: KindLocal, b: &localBackend{}}
}

// NewDry builds a Delegator whose mutating operations are no-ops. Dry
// replaces any underlying backend entirely rather than wrapping one: per
// spec, a dry-run Delegator must not perform any I/O at all, not even reads
// routed through a real backend.
func NewDry() *Delegator {
	return &Delegator{kind: KindDry, b: &dryBackend{}}
}

// NewSSH connects to addr as user (agent-less methods first, then SSH-agent
// fallback) and opens an SFTP channel over the same session. See
// connect.go for the handshake/auth sequence.
func NewSSH(ctx context.Context, addr string, port uint16, user string) (*Delegator, error) {
	b, err := dialSSH(ctx, addr, port, user)
	if err != nil {
		return nil, err
	}
	return &Delegator{kind: KindSSH, b: b}, nil
}

// Kind reports which mode this Delegator is operating in.
func (d *Delegator) Kind() Kind { return d.kind }

func (d *Delegator) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var h progress.TransferHandle
	if d.logger != nil {
		h = d.logger.TransferBegin(progress.TransferDownload, path, "", 0)
	}
	data, err := d.b.readFile(ctx, path)
	if d.logger != nil {
		if err == nil {
			d.logger.TransferUpdate(h, uint64(len(data)))
		}
		d.logger.TransferFinish(h)
	}
	return data, err
}

func (d *Delegator) WriteFile(ctx context.Context, path string, data []byte) (WriteResult, error) {
	var h progress.TransferHandle
	if d.logger != nil {
		h = d.logger.TransferBegin(progress.TransferUpload, "", path, uint64(len(data)))
	}
	result, err := d.b.writeFile(ctx, path, data)
	if d.logger != nil {
		if err == nil {
			d.logger.TransferUpdate(h, result.BytesWritten)
		}
		d.logger.TransferFinish(h)
	}
	return result, err
}

func (d *Delegator) Rename(ctx context.Context, from, to string) error {
	return d.b.rename(ctx, from, to)
}

func (d *Delegator) RemoveFile(ctx context.Context, path string) error {
	return d.b.removeFile(ctx, path)
}

// RemoveDirectory removes path. Locally this recurses; over SFTP it only
// removes an empty directory (matching the SFTP protocol's rmdir) — see
// spec.md §9's open question. This asymmetry is intentional, not a bug.
func (d *Delegator) RemoveDirectory(ctx context.Context, path string) error {
	return d.b.removeDirectory(ctx, path)
}

func (d *Delegator) CreateDirectory(ctx context.Context, path string) error {
	return d.b.createDirectory(ctx, path)
}

func (d *Delegator) SetPermissions(ctx context.Context, path string, mode uint32) error {
	return d.b.setPermissions(ctx, path, mode)
}

func (d *Delegator) ListDirectory(ctx context.Context, path string) ([]MetadataResult, error) {
	return d.b.listDirectory(ctx, path)
}

// Metadata returns nil (with no error) when path does not exist; every
// other error is surfaced.
func (d *Delegator) Metadata(ctx context.Context, path string) (*MetadataResult, error) {
	return d.b.metadata(ctx, path)
}

func (d *Delegator) RunCommand(ctx context.Context, cmd string) (CommandResult, error) {
	var h progress.CommandHandle
	if d.logger != nil {
		h = d.logger.CommandBegin(cmd)
	}
	result, err := d.b.runCommand(ctx, cmd)
	if d.logger != nil {
		if err == nil {
			tail := result.Stdout
			if tail == "" {
				tail = result.Stderr
			}
			if tail != "" {
				d.logger.CommandUpdate(h, tail)
			}
		}
		d.logger.CommandFinish(h)
	}
	return result, err
}

// Close tears down any session/connection owned by this Delegator. Called
// by the executor driver between target passes.
func (d *Delegator) Close() error {
	return d.b.close()
}
