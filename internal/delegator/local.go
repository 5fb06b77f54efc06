package delegator

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/myfavshrimp/arc/internal/debug"
)

// localBackend dispatches every operation straight to the local os/exec
// packages. Grounded on internal/backend/local/local.go's approach to
// directory auto-creation, simplified here since this engine has no
// content-addressed layout to respect. writeFile truncates and writes the
// target in place; it does not go through a temporary file and rename.
type localBackend struct{}

func (l *localBackend) readFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyLocal("read_file", path, err)
	}
	return data, nil
}

func (l *localBackend) writeFile(_ context.Context, path string, data []byte) (WriteResult, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return WriteResult{}, classifyLocal("write_file", path, err)
	}
	n, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		return WriteResult{}, classifyLocal("write_file", path, werr)
	}
	if cerr != nil {
		return WriteResult{}, classifyLocal("write_file", path, cerr)
	}
	return WriteResult{Path: path, BytesWritten: uint64(n)}, nil
}

func (l *localBackend) rename(_ context.Context, from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return classifyLocal("rename", from, err)
	}
	return nil
}

func (l *localBackend) removeFile(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return classifyLocal("remove_file", path, err)
	}
	return nil
}

// removeDirectory recurses locally, per spec.md §9's documented asymmetry
// with the SFTP backend.
func (l *localBackend) removeDirectory(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return classifyLocal("remove_directory", path, err)
	}
	return nil
}

// createDirectory creates path and its missing ancestors, parents first,
// with mode 0o755, failing if any existing ancestor is not a directory.
func (l *localBackend) createDirectory(_ context.Context, path string) error {
	if err := checkAncestorsAreDirs(path); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return classifyLocal("create_directory", path, err)
	}
	return nil
}

func checkAncestorsAreDirs(path string) error {
	dir := filepath.Dir(path)
	for {
		fi, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				parent := filepath.Dir(dir)
				if parent == dir {
					return nil
				}
				dir = parent
				continue
			}
			return classifyLocal("create_directory", dir, err)
		}
		if !fi.IsDir() {
			return errNotADirectoryAncestor(dir)
		}
		return nil
	}
}

func (l *localBackend) setPermissions(_ context.Context, path string, mode uint32) error {
	if err := os.Chmod(path, os.FileMode(mode)); err != nil {
		return classifyLocal("set_permissions", path, err)
	}
	return nil
}

func (l *localBackend) listDirectory(_ context.Context, path string) ([]MetadataResult, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, classifyLocal("list_directory", path, err)
	}

	results := make([]MetadataResult, 0, len(entries))
	for _, e := range entries {
		if e.Name() == "." || e.Name() == ".." {
			continue
		}
		info, err := e.Info()
		if err != nil {
			debug.Log("list_directory: skipping %v: %v", e.Name(), err)
			continue
		}
		results = append(results, metadataFromFileInfo(filepath.Join(path, e.Name()), info))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

func (l *localBackend) metadata(_ context.Context, path string) (*MetadataResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, classifyLocal("metadata", path, err)
	}
	m := metadataFromFileInfo(path, info)
	return &m, nil
}

func (l *localBackend) runCommand(ctx context.Context, cmdline string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); ok {
			return result, nil
		}
		return CommandResult{}, classifyLocal("run_command", cmdline, runErr)
	}
	return result, nil
}

func (l *localBackend) close() error { return nil }
