package delegator

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/myfavshrimp/arc/internal/debug"
	"github.com/myfavshrimp/arc/internal/errutil"
)

// sshBackend owns one SSH connection and its SFTP channel, reused
// sequentially across every operation the executor performs on a single
// target. Grounded on internal/backend/sftp/sftp.go's single-client-reused
// shape; simplified since this engine issues operations one at a time
// (spec.md §5 — no cross-target or cross-task parallelism), so the
// semaphore restic uses to bound concurrent SFTP requests has no job here.
type sshBackend struct {
	mu sync.Mutex

	addr string
	port uint16
	user string

	conn *ssh.Client
	sftp *sftp.Client
}

// withReconnect runs op, and if it fails with errutil.NeedsReconnect,
// transparently re-establishes the session once and retries.
func (s *sshBackend) withReconnect(ctx context.Context, op func() error) error {
	err := op()
	var needsReconnect *errutil.NeedsReconnect
	if !asNeedsReconnect(err, &needsReconnect) {
		return err
	}

	debug.Log("ssh session to %s needs reconnect: %v", s.addr, err)
	if rerr := s.reconnect(ctx); rerr != nil {
		return rerr
	}
	return op()
}

func asNeedsReconnect(err error, target **errutil.NeedsReconnect) bool {
	if err == nil {
		return false
	}
	if nr, ok := err.(*errutil.NeedsReconnect); ok {
		*target = nr
		return true
	}
	return false
}

func (s *sshBackend) reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sftp != nil {
		_ = s.sftp.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}

	fresh, err := dialSSH(ctx, s.addr, s.port, s.user)
	if err != nil {
		return err
	}
	s.conn = fresh.conn
	s.sftp = fresh.sftp
	return nil
}

func (s *sshBackend) readFile(ctx context.Context, p string) ([]byte, error) {
	var data []byte
	err := s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		f, err := s.sftp.Open(p)
		if err != nil {
			return classifySFTP("read_file", p, err)
		}
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return classifySFTP("read_file", p, err)
		}
		return nil
	})
	return data, err
}

func (s *sshBackend) writeFile(ctx context.Context, p string, content []byte) (WriteResult, error) {
	var result WriteResult
	err := s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		f, err := s.sftp.Create(p)
		if err != nil {
			return classifySFTP("write_file", p, err)
		}
		defer f.Close()
		n, err := f.Write(content)
		if err != nil {
			return classifySFTP("write_file", p, err)
		}
		result = WriteResult{Path: p, BytesWritten: uint64(n)}
		return nil
	})
	return result, err
}

func (s *sshBackend) rename(ctx context.Context, from, to string) error {
	return s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.sftp.Rename(from, to); err != nil {
			return classifySFTP("rename", from, err)
		}
		return nil
	})
}

func (s *sshBackend) removeFile(ctx context.Context, p string) error {
	return s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.sftp.Remove(p); err != nil {
			return classifySFTP("remove_file", p, err)
		}
		return nil
	})
}

// removeDirectory removes only an empty directory, matching the SFTP
// protocol's rmdir (spec.md §9's documented asymmetry with the local
// backend, which recurses).
func (s *sshBackend) removeDirectory(ctx context.Context, p string) error {
	return s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.sftp.RemoveDirectory(p); err != nil {
			return classifySFTP("remove_directory", p, err)
		}
		return nil
	})
}

func (s *sshBackend) createDirectory(ctx context.Context, p string) error {
	return s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.checkRemoteAncestorsAreDirs(p); err != nil {
			return err
		}

		// Build the ancestor chain leaves-to-root, then create root-to-leaf.
		var missing []string
		cur := p
		for {
			fi, err := s.sftp.Stat(cur)
			if err == nil {
				if !fi.IsDir() {
					return errNotADirectoryAncestor(cur)
				}
				break
			}
			missing = append(missing, cur)
			parent := path.Dir(cur)
			if parent == cur {
				break
			}
			cur = parent
		}

		for i := len(missing) - 1; i >= 0; i-- {
			if err := s.sftp.Mkdir(missing[i]); err != nil && !os.IsExist(err) {
				return classifySFTP("create_directory", missing[i], err)
			}
			_ = s.sftp.Chmod(missing[i], 0o755)
		}
		return nil
	})
}

func (s *sshBackend) checkRemoteAncestorsAreDirs(p string) error {
	dir := path.Dir(p)
	for {
		fi, err := s.sftp.Stat(dir)
		if err != nil {
			parent := path.Dir(dir)
			if parent == dir {
				return nil
			}
			dir = parent
			continue
		}
		if !fi.IsDir() {
			return errNotADirectoryAncestor(dir)
		}
		return nil
	}
}

func (s *sshBackend) setPermissions(ctx context.Context, p string, mode uint32) error {
	return s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.sftp.Chmod(p, os.FileMode(mode)); err != nil {
			return classifySFTP("set_permissions", p, err)
		}
		return nil
	})
}

func (s *sshBackend) listDirectory(ctx context.Context, p string) ([]MetadataResult, error) {
	var results []MetadataResult
	err := s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		entries, err := s.sftp.ReadDir(p)
		if err != nil {
			return classifySFTP("list_directory", p, err)
		}
		results = make([]MetadataResult, 0, len(entries))
		for _, e := range entries {
			if e.Name() == "." || e.Name() == ".." {
				continue
			}
			results = append(results, metadataFromFileInfo(path.Join(p, e.Name()), e))
		}
		sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
		return nil
	})
	return results, err
}

func (s *sshBackend) metadata(ctx context.Context, p string) (*MetadataResult, error) {
	var result *MetadataResult
	err := s.withReconnect(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		fi, err := s.sftp.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			var se *sftp.StatusError
			if isStatusError(err, &se) && se.Code == uint32(sftp.ErrSSHFxNoSuchFile) {
				return nil
			}
			return classifySFTP("metadata", p, err)
		}
		m := metadataFromFileInfo(p, fi)
		result = &m
		return nil
	})
	return result, err
}

func isStatusError(err error, target **sftp.StatusError) bool {
	se, ok := err.(*sftp.StatusError)
	if ok {
		*target = se
	}
	return ok
}

func (s *sshBackend) runCommand(ctx context.Context, cmdline string) (CommandResult, error) {
	var result CommandResult
	err := s.withReconnect(ctx, func() error {
		s.mu.Lock()
		session, err := s.conn.NewSession()
		s.mu.Unlock()
		if err != nil {
			return errutil.NewNeedsReconnect(err)
		}
		defer session.Close()

		var stdout, stderr bytes.Buffer
		session.Stdout = &stdout
		session.Stderr = &stderr

		runErr := session.Run(cmdline)
		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				return errutil.NewNeedsReconnect(runErr)
			}
		}

		result = CommandResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
		return nil
	})
	return result, err
}

func (s *sshBackend) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.sftp != nil {
		if err := s.sftp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
