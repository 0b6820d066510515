//go:build darwin

package watcher

import (
	"bytes"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// DetectFilesystemType classifies the filesystem holding path. Darwin
// reports the filesystem by name rather than magic number.
func DetectFilesystemType(path string) FilesystemType {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		if err = unix.Statfs(filepath.Dir(path), &st); err != nil {
			return FSTypeUnknown
		}
	}

	name := st.Fstypename[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	switch fsName := strings.ToLower(string(name)); {
	case fsName == "nfs":
		return FSTypeNFS
	case fsName == "smbfs" || fsName == "cifs" || fsName == "webdav":
		return FSTypeSMB
	case strings.Contains(fsName, "fuse"): // osxfuse, macfuse, fuse-t
		return FSTypeFUSE
	case fsName == "9p":
		return FSType9P
	}
	return FSTypeLocal
}
