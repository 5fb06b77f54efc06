//go:build linux

package delegator

import (
	"io/fs"
	"syscall"
)

func metadataPlatformFields(m *MetadataResult, info fs.FileInfo) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	uid := st.Uid
	gid := st.Gid
	accessed := st.Atim.Sec
	m.UID = &uid
	m.GID = &gid
	m.Accessed = &accessed
}
