//go:build !linux

package watcher

// Without statfs magic numbers the probe cannot tell remote mounts apart
// from local ones, so everything is treated as local and fsnotify is used.
func statfsType(string) FilesystemType {
	return FSTypeLocal
}
