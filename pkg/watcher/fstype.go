package watcher

import (
	"os"
	"path/filepath"
)

// FilesystemType classifies the filesystem a watched path lives on.
// Remote filesystems get polling instead of fsnotify: inotify events do
// not propagate across NFS and friends.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeSSHFS
	FSTypeFUSE
)

// String returns a human-readable name for the filesystem type.
func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeSSHFS:
		return "sshfs"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// detectFilesystemTypeFunc is swapped out in tests.
var detectFilesystemTypeFunc = statfsType

// DetectFilesystemType classifies the filesystem containing path. If the
// path does not exist yet, its nearest existing ancestor is probed instead.
func DetectFilesystemType(path string) FilesystemType {
	if path == "" {
		return FSTypeUnknown
	}

	probe := path
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return FSTypeUnknown
		}
		probe = parent
	}

	return detectFilesystemTypeFunc(probe)
}

// isRemoteFilesystem reports whether events from fsnotify cannot be trusted
// for this filesystem type.
func isRemoteFilesystem(t FilesystemType) bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeSSHFS, FSTypeFUSE:
		return true
	default:
		return false
	}
}
