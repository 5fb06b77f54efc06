//go:build windows

package delegator

import "io/fs"

// Windows has no POSIX uid/gid/atime in the portable fs.FileInfo; leave
// those fields nil rather than guessing.
func metadataPlatformFields(_ *MetadataResult, _ fs.FileInfo) {}
