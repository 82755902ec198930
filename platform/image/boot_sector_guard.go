package image

import (
	"io"
	"os"

	boshlog "github.com/cloudfoundry/bosh-utils/logger"
	boshsys "github.com/cloudfoundry/bosh-utils/system"

	sderr "github.com/touchpi/sdimage/errors"
)

// BootCodeSize is the MBR region ahead of the partition entries: boot code,
// disk signature and the reserved bytes after it.
const BootCodeSize = 446

type BootSectorSnapshot struct {
	BootCode [BootCodeSize]byte
	FileSize uint64
}

type BootSectorGuard interface {
	Capture(path string) (BootSectorSnapshot, error)
	Restore(path string, snapshot BootSectorSnapshot) error
}

type bootSectorGuard struct {
	fs     boshsys.FileSystem
	logger boshlog.Logger
	logTag string
}

func NewBootSectorGuard(fs boshsys.FileSystem, logger boshlog.Logger) BootSectorGuard {
	return bootSectorGuard{
		fs:     fs,
		logger: logger,
		logTag: "BootSectorGuard",
	}
}

func (g bootSectorGuard) Capture(path string) (BootSectorSnapshot, error) {
	var snapshot BootSectorSnapshot

	file, err := g.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return snapshot, sderr.Wrapf(sderr.KindIO, err, "Opening `%s' to capture the boot sector", path)
	}

	defer file.Close()

	_, err = io.ReadFull(file, snapshot.BootCode[:])
	if err != nil {
		return snapshot, sderr.Wrapf(sderr.KindIO, err, "Reading the first %d bytes of `%s'", BootCodeSize, path)
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return snapshot, sderr.Wrapf(sderr.KindIO, err, "Seeking to the end of `%s'", path)
	}

	snapshot.FileSize = uint64(size)

	g.logger.Debug(g.logTag, "Captured %d boot code bytes of `%s' (%d bytes)", BootCodeSize, path, snapshot.FileSize)

	return snapshot, nil
}

func (g bootSectorGuard) Restore(path string, snapshot BootSectorSnapshot) error {
	file, err := g.fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return sderr.Wrapf(sderr.KindIO, err, "Opening `%s' to restore the boot sector", path)
	}

	defer file.Close()

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return sderr.Wrapf(sderr.KindIO, err, "Seeking to the start of `%s'", path)
	}

	_, err = file.Write(snapshot.BootCode[:])
	if err != nil {
		return sderr.Wrapf(sderr.KindIO, err, "Restoring the boot code of `%s'", path)
	}

	g.logger.Debug(g.logTag, "Restored %d boot code bytes of `%s'", BootCodeSize, path)

	return nil
}

// Protect captures the boot sector of path, runs edit and restores the
// captured bytes on every path out of edit. A restore failure is returned
// only when edit itself succeeded.
func Protect(guard BootSectorGuard, path string, edit func(BootSectorSnapshot) error) (err error) {
	snapshot, err := guard.Capture(path)
	if err != nil {
		return err
	}

	defer func() {
		restoreErr := guard.Restore(path, snapshot)
		if err == nil {
			err = restoreErr
		}
	}()

	return edit(snapshot)
}
