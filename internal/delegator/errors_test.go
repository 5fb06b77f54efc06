package delegator

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/pkg/sftp"

	"github.com/myfavshrimp/arc/internal/errutil"
)

func TestClassifyLocalNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := os.ReadFile(filepath.Join(dir, "missing"))
	if err == nil {
		t.Fatal("expected a real not-exist error from the filesystem")
	}

	classified := classifyLocal("read_file", filepath.Join(dir, "missing"), err)
	if !errutil.IsUserError(classified) {
		t.Fatal("not_found must classify as a user error")
	}
	var ue *errutil.UserError
	if !errors.As(classified, &ue) {
		t.Fatalf("expected *errutil.UserError, got %T", classified)
	}
	if ue.Kind != "not_found" {
		t.Fatalf("want kind not_found, got %s", ue.Kind)
	}
}

func TestClassifyErrnoMapping(t *testing.T) {
	cases := []struct {
		errno syscall.Errno
		kind  string
	}{
		{syscall.EEXIST, "already_exists"},
		{syscall.EISDIR, "is_a_directory"},
		{syscall.ENOTDIR, "not_a_directory"},
		{syscall.ENOTEMPTY, "directory_not_empty"},
		{syscall.EROFS, "read_only_filesystem"},
		{syscall.EXDEV, "crosses_devices"},
		{syscall.EBUSY, "resource_busy"},
	}

	for _, c := range cases {
		classified := classifyErrno("op", "/some/path", c.errno, c.errno)
		if !errutil.IsUserError(classified) {
			t.Fatalf("%v must classify as a user error", c.errno)
		}
		var ue *errutil.UserError
		if !errors.As(classified, &ue) {
			t.Fatalf("expected *errutil.UserError for %v, got %T", c.errno, classified)
		}
		if ue.Kind != c.kind {
			t.Fatalf("errno %v: want kind %s, got %s", c.errno, c.kind, ue.Kind)
		}
	}
}

func TestClassifyErrnoUnknownIsInfrastructure(t *testing.T) {
	classified := classifyErrno("op", "/some/path", syscall.ENOSYS, syscall.ENOSYS)
	if errutil.IsUserError(classified) {
		t.Fatal("an unmapped errno must classify as an infrastructure error")
	}
}

func TestClassifySFTPStatusErrors(t *testing.T) {
	notFound := &sftp.StatusError{Code: uint32(sftp.ErrSSHFxNoSuchFile)}
	classified := classifySFTP("read_file", "/remote/path", notFound)
	var ue *errutil.UserError
	if !errors.As(classified, &ue) {
		t.Fatalf("expected *errutil.UserError, got %T", classified)
	}
	if ue.Kind != "not_found" {
		t.Fatalf("want kind not_found, got %s", ue.Kind)
	}
}

func TestClassifySFTPTransportErrorNeedsReconnect(t *testing.T) {
	classified := classifySFTP("read_file", "/remote/path", errors.New("EOF"))

	var nr *errutil.NeedsReconnect
	if !errors.As(classified, &nr) {
		t.Fatalf("expected *errutil.NeedsReconnect, got %T", classified)
	}
	if errutil.IsUserError(classified) {
		t.Fatal("NeedsReconnect must classify as an infrastructure error, not a user error")
	}
}
