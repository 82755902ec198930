// +build !windows

package image

import "golang.org/x/sys/unix"

// truncate sets the logical length of path without writing the new bytes,
// leaving a hole on filesystems with sparse file support.
func truncate(path string, size int64) error {
	return unix.Truncate(path, size)
}
