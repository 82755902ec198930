package image

import "os"

func truncate(path string, size int64) error {
	return os.Truncate(path, size)
}
