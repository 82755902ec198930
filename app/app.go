package app

import (
	"code.cloudfoundry.org/clock"
	bosherr "github.com/cloudfoundry/bosh-utils/errors"
	boshlog "github.com/cloudfoundry/bosh-utils/logger"
	boshsys "github.com/cloudfoundry/bosh-utils/system"

	sderr "github.com/touchpi/sdimage/errors"
	sddisk "github.com/touchpi/sdimage/platform/disk"
	sdimage "github.com/touchpi/sdimage/platform/image"
)

type App struct {
	logger      boshlog.Logger
	logTag      string
	fs          boshsys.FileSystem
	timeService clock.Clock
	partitioner sddisk.Partitioner
	resizer     sdimage.Resizer
	guard       sdimage.BootSectorGuard
}

func New(logger boshlog.Logger, fs boshsys.FileSystem, timeService clock.Clock) App {
	return NewWithDependencies(
		logger,
		fs,
		timeService,
		sddisk.NewImagePartitioner(sddisk.NewMBRTableOpener(fs, logger), logger),
		sdimage.NewResizer(logger),
		sdimage.NewBootSectorGuard(fs, logger),
	)
}

func NewWithDependencies(
	logger boshlog.Logger,
	fs boshsys.FileSystem,
	timeService clock.Clock,
	partitioner sddisk.Partitioner,
	resizer sdimage.Resizer,
	guard sdimage.BootSectorGuard,
) App {
	return App{
		logger:      logger,
		logTag:      "App",
		fs:          fs,
		timeService: timeService,
		partitioner: partitioner,
		resizer:     resizer,
		guard:       guard,
	}
}

func (a App) Run(command Command, opts Options) error {
	if opts.BootSectorRestorePath != "" && (command == CommandAppendPartition || command == CommandResizeLastPartition) {
		return a.RestoreBootSector(opts)
	}

	switch command {
	case CommandAppendPartition:
		return a.AppendPartition(opts)
	case CommandResizeLastPartition:
		return a.ResizeLastPartition(opts)
	default:
		return sderr.Newf(sderr.KindUsage, "Unknown command `%s'", command)
	}
}

// AppendPartition grows the image and appends an ext4 partition. A table
// that is already full is left alone without failing.
func (a App) AppendPartition(opts Options) error {
	err := a.checkImage(opts.ImagePath)
	if err != nil {
		return err
	}

	requested, err := sdimage.ParseRequestedSize(opts.NewSize)
	if err != nil {
		return err
	}

	var partitionSize uint64
	if opts.PartitionSize != "" {
		partitionSize, err = sdimage.ParseByteCount(opts.PartitionSize)
		if err != nil {
			return bosherr.WrapError(err, "Parsing partition size")
		}
	}

	return a.editImage(opts, requested, func() error {
		partition, err := a.partitioner.AppendPartition(opts.ImagePath, partitionSize)
		if sderr.Is(err, sderr.KindCapacityExceeded) {
			a.logger.Warn(a.logTag, "Not appending a partition: %s", err.Error())
			return nil
		}

		if err != nil {
			return err
		}

		a.logger.Info(a.logTag, "Appended partition %s", partition)

		return nil
	})
}

// ResizeLastPartition grows the image and its last partition.
func (a App) ResizeLastPartition(opts Options) error {
	err := a.checkImage(opts.ImagePath)
	if err != nil {
		return err
	}

	requested, err := sdimage.ParseRequestedSize(opts.NewSize)
	if err != nil {
		return err
	}

	return a.editImage(opts, requested, func() error {
		partition, err := a.partitioner.MaximizeLastPartition(opts.ImagePath)
		if err != nil {
			return err
		}

		a.logger.Info(a.logTag, "Resized partition %s", partition)

		return nil
	})
}

// RestoreBootSector writes the boot code kept in a backup made with -b back
// into the image. The partition table and the image size are left alone.
func (a App) RestoreBootSector(opts Options) error {
	err := a.checkImage(opts.ImagePath)
	if err != nil {
		return err
	}

	backup, snapshot, err := sdimage.LoadBootSectorBackup(a.fs, opts.BootSectorRestorePath)
	if err != nil {
		return sderr.Wrapf(sderr.KindIO, err, "Loading boot sector backup `%s'", opts.BootSectorRestorePath)
	}

	if backup.ImagePath != opts.ImagePath {
		a.logger.Warn(a.logTag, "Backup `%s' was taken from `%s', restoring it into `%s'", opts.BootSectorRestorePath, backup.ImagePath, opts.ImagePath)
	}

	err = a.guard.Restore(opts.ImagePath, snapshot)
	if err != nil {
		return bosherr.WrapErrorf(err, "Restoring boot sector of `%s'", opts.ImagePath)
	}

	a.logger.Info(a.logTag, "Restored boot sector of `%s' from `%s'", opts.ImagePath, opts.BootSectorRestorePath)

	return nil
}

func (a App) editImage(opts Options, requested sdimage.RequestedSize, edit func() error) error {
	startedAt := a.timeService.Now()

	err := sdimage.Protect(a.guard, opts.ImagePath, func(snapshot sdimage.BootSectorSnapshot) error {
		if opts.BootSectorBackupPath != "" {
			err := sdimage.NewBootSectorBackupWriter(a.fs, opts.BootSectorBackupPath).Save(opts.ImagePath, snapshot)
			if err != nil {
				return bosherr.WrapError(err, "Saving boot sector backup")
			}

			a.logger.Debug(a.logTag, "Saved boot sector backup to `%s'", opts.BootSectorBackupPath)
		}

		_, err := a.resizer.EnsureSize(opts.ImagePath, snapshot.FileSize, requested)
		if err != nil {
			return bosherr.WrapErrorf(err, "Resizing image `%s' to %s", opts.ImagePath, requested)
		}

		return edit()
	})
	if err != nil {
		return err
	}

	a.logger.Info(a.logTag, "Finished editing `%s' in %s", opts.ImagePath, a.timeService.Since(startedAt))

	return nil
}

func (a App) checkImage(imagePath string) error {
	if !a.fs.FileExists(imagePath) {
		return sderr.Newf(sderr.KindImageNotFound, "Raspbian Image '%s' not found", imagePath)
	}

	info, err := a.fs.Stat(imagePath)
	if err != nil {
		return sderr.Wrapf(sderr.KindIO, err, "Checking image `%s'", imagePath)
	}

	if !info.Mode().IsRegular() {
		return sderr.Newf(sderr.KindImageNotFound, "Raspbian Image '%s' not found", imagePath)
	}

	return nil
}
