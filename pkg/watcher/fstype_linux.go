//go:build linux

package watcher

import "golang.org/x/sys/unix"

// Superblock magic numbers from statfs(2).
const (
	nfsSuperMagic   = 0x6969
	smbSuperMagic   = 0x517b
	cifsSuperMagic  = 0xff534d42
	smb2SuperMagic  = 0xfe534d42
	fuseSuperMagic  = 0x65735546
)

func statfsType(path string) FilesystemType {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSTypeUnknown
	}

	switch uint32(st.Type) {
	case nfsSuperMagic:
		return FSTypeNFS
	case smbSuperMagic, cifsSuperMagic, smb2SuperMagic:
		return FSTypeSMB
	case fuseSuperMagic:
		// statfs cannot distinguish sshfs from other FUSE mounts; both
		// get polling, so the distinction does not matter here.
		return FSTypeFUSE
	default:
		return FSTypeLocal
	}
}
