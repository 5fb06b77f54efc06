package delegator

import (
	"io/fs"

	"github.com/myfavshrimp/arc/internal/errutil"
)

func errNotADirectoryAncestor(ancestor string) error {
	return errutil.NewUserError("not_a_directory",
		"create_directory: "+ancestor+" exists and is not a directory", nil)
}

// metadataFromFileInfo converts a stdlib fs.FileInfo into the spec's
// MetadataResult. Platform-specific fields (uid/gid/accessed) are filled in
// by metadataPlatformFields, split out per-OS the way the teacher splits
// local_unix.go/local_windows.go.
func metadataFromFileInfo(path string, info fs.FileInfo) MetadataResult {
	size := uint64(info.Size())
	perm := uint32(info.Mode().Perm())
	modified := info.ModTime().Unix()

	m := MetadataResult{
		Path:        path,
		Size:        &size,
		Permissions: &perm,
		Modified:    &modified,
	}

	switch {
	case info.IsDir():
		m.Kind = FileKindDirectory
	case info.Mode().IsRegular():
		m.Kind = FileKindFile
	default:
		m.Kind = FileKindUnknown
	}

	metadataPlatformFields(&m, info)
	return m
}
