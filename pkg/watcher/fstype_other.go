//go:build !linux && !darwin

package watcher

// DetectFilesystemType has no statfs-based classification on this platform.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
