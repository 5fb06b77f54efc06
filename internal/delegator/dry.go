package delegator

import "context"

// dryBackend implements the Dry mode: every mutating operation is a no-op
// returning a zero-valued result, metadata reports only Path, and
// list_directory always reports empty. Unlike restic's dry-run backend
// (internal/backend/dryrun), which wraps a real backend and passes reads
// through, this Dry mode performs no I/O whatsoever — reads included — per
// spec.md's dry-run purity property.
type dryBackend struct{}

func (d *dryBackend) readFile(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func (d *dryBackend) writeFile(_ context.Context, path string, _ []byte) (WriteResult, error) {
	return WriteResult{Path: path}, nil
}

func (d *dryBackend) rename(_ context.Context, _, _ string) error { return nil }

func (d *dryBackend) removeFile(_ context.Context, _ string) error { return nil }

func (d *dryBackend) removeDirectory(_ context.Context, _ string) error { return nil }

func (d *dryBackend) createDirectory(_ context.Context, _ string) error { return nil }

func (d *dryBackend) setPermissions(_ context.Context, _ string, _ uint32) error { return nil }

func (d *dryBackend) listDirectory(_ context.Context, _ string) ([]MetadataResult, error) {
	return []MetadataResult{}, nil
}

func (d *dryBackend) metadata(_ context.Context, path string) (*MetadataResult, error) {
	return &MetadataResult{Path: path}, nil
}

func (d *dryBackend) runCommand(_ context.Context, _ string) (CommandResult, error) {
	return CommandResult{}, nil
}

func (d *dryBackend) close() error { return nil }
