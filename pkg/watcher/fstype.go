package watcher

// FilesystemType is a coarse classification of the filesystem behind the
// watched path. Inotify on network mounts silently drops events, so remote
// types switch the watcher to polling up front.
type FilesystemType string

const (
	FSTypeUnknown FilesystemType = "unknown"
	FSTypeLocal   FilesystemType = "local"
	FSTypeNFS     FilesystemType = "nfs"
	FSTypeSMB     FilesystemType = "smb"
	FSTypeFUSE    FilesystemType = "fuse"
	FSType9P      FilesystemType = "9p"
)

// isRemoteFilesystem reports whether inotify cannot be trusted on t.
// FUSE covers sshfs and friends; 9p covers VM shared folders.
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeFUSE, FSType9P:
		return true
	}
	return false
}
