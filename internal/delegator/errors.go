package delegator

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/pkg/sftp"

	"github.com/myfavshrimp/arc/internal/errutil"
)

// classifyLocal maps an error from a local filesystem/os call into the
// spec's ExecutionError kinds. Grounded on the mapping restic's local
// backend performs ad hoc around os.IsNotExist/os.IsPermission, generalized
// here to the full table spec.md §4.1 requires.
func classifyLocal(op, path string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errutil.NewUserError("not_found", op+": "+path+" does not exist", err)
	case errors.Is(err, fs.ErrPermission):
		return errutil.NewUserError("permission_denied", op+": permission denied on "+path, err)
	case errors.Is(err, fs.ErrExist):
		return errutil.NewUserError("already_exists", op+": "+path+" already exists", err)
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return classifyErrno(op, path, linkErr.Err, err)
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return classifyErrno(op, path, pathErr.Err, err)
	}

	return errutil.NewInfrastructureError(op+" on "+path+" failed", err)
}

func classifyErrno(op, path string, errno error, full error) error {
	switch {
	case errors.Is(errno, syscall.EEXIST):
		return errutil.NewUserError("already_exists", op+": "+path+" already exists", full)
	case errors.Is(errno, syscall.EISDIR):
		return errutil.NewUserError("is_a_directory", op+": "+path+" is a directory", full)
	case errors.Is(errno, syscall.ENOTDIR):
		return errutil.NewUserError("not_a_directory", op+": "+path+" is not a directory", full)
	case errors.Is(errno, syscall.ENOTEMPTY):
		return errutil.NewUserError("directory_not_empty", op+": "+path+" is not empty", full)
	case errors.Is(errno, syscall.EROFS):
		return errutil.NewUserError("read_only_filesystem", op+": "+path+" is on a read-only filesystem", full)
	case errors.Is(errno, syscall.EFBIG):
		return errutil.NewUserError("file_too_large", op+": "+path+" is too large", full)
	case errors.Is(errno, syscall.EXDEV):
		return errutil.NewUserError("crosses_devices", op+": "+path+" crosses filesystem devices", full)
	case errors.Is(errno, syscall.EDQUOT):
		return errutil.NewUserError("quota_exceeded", op+": quota exceeded writing "+path, full)
	case errors.Is(errno, syscall.ENAMETOOLONG):
		return errutil.NewUserError("invalid_filename", op+": "+path+" has an invalid name", full)
	case errors.Is(errno, syscall.EBUSY):
		return errutil.NewUserError("resource_busy", op+": "+path+" is busy", full)
	case errors.Is(errno, syscall.ETXTBSY):
		return errutil.NewUserError("executable_file_busy", op+": "+path+" is busy", full)
	case errors.Is(errno, syscall.EMLINK):
		return errutil.NewUserError("too_many_links", op+": too many links for "+path, full)
	case errors.Is(errno, fs.ErrNotExist):
		return errutil.NewUserError("not_found", op+": "+path+" does not exist", full)
	case errors.Is(errno, fs.ErrPermission):
		return errutil.NewUserError("permission_denied", op+": permission denied on "+path, full)
	default:
		return errutil.NewInfrastructureError(op+" on "+path+" failed", full)
	}
}

// classifySFTP maps an *sftp.StatusError (or a transport-level SSH error)
// into the spec's ExecutionError kinds.
func classifySFTP(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var se *sftp.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case uint32(sftp.ErrSSHFxNoSuchFile):
			return errutil.NewUserError("not_found", op+": "+path+" does not exist", err)
		case uint32(sftp.ErrSSHFxPermissionDenied):
			return errutil.NewUserError("permission_denied", op+": permission denied on "+path, err)
		default:
			return errutil.NewUserError("failure", op+": "+path+" failed: "+se.Error(), err)
		}
	}

	// Anything that isn't an SFTP protocol status is treated as the
	// session itself being in trouble: lost connection, broken pipe, EOF.
	return errutil.NewNeedsReconnect(pkgerrors.Wrap(err, op+" on "+path))
}
