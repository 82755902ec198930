package app_test

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	boshlog "github.com/cloudfoundry/bosh-utils/logger"
	boshsys "github.com/cloudfoundry/bosh-utils/system"

	. "github.com/touchpi/sdimage/app"
	sderr "github.com/touchpi/sdimage/errors"
	"github.com/touchpi/sdimage/platform/disk"
	fakedisk "github.com/touchpi/sdimage/platform/disk/fakes"
	"github.com/touchpi/sdimage/platform/image"
	fakeimage "github.com/touchpi/sdimage/platform/image/fakes"
)

var _ = Describe("App", func() {
	var (
		tempDir     string
		imagePath   string
		partitioner *fakedisk.FakePartitioner
		resizer     *fakeimage.FakeResizer
		guard       *fakeimage.FakeBootSectorGuard
		application App
	)

	BeforeEach(func() {
		var err error
		tempDir, err = ioutil.TempDir("", "app")
		Expect(err).ToNot(HaveOccurred())

		imagePath = filepath.Join(tempDir, "image.img")
		Expect(ioutil.WriteFile(imagePath, make([]byte, 4096), 0644)).To(Succeed())

		partitioner = fakedisk.NewFakePartitioner()
		resizer = fakeimage.NewFakeResizer()
		guard = fakeimage.NewFakeBootSectorGuard()
		guard.CaptureSnapshot = image.BootSectorSnapshot{FileSize: 4096}

		logger := boshlog.NewLogger(boshlog.LevelNone)
		application = NewWithDependencies(
			logger,
			boshsys.NewOsFileSystem(logger),
			fakeclock.NewFakeClock(time.Now()),
			partitioner,
			resizer,
			guard,
		)
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("AppendPartition", func() {
		It("captures, resizes, appends and restores", func() {
			err := application.AppendPartition(Options{ImagePath: imagePath, NewSize: "+1024", PartitionSize: "4194304"})
			Expect(err).ToNot(HaveOccurred())

			Expect(guard.CapturePath).To(Equal(imagePath))
			Expect(resizer.EnsureSizePath).To(Equal(imagePath))
			Expect(resizer.EnsureSizeCurrentSize).To(Equal(uint64(4096)))
			Expect(resizer.EnsureSizeRequested).To(Equal(image.RequestedSize{Set: true, Relative: true, Bytes: 1024}))
			Expect(partitioner.AppendPartitionImagePath).To(Equal(imagePath))
			Expect(partitioner.AppendPartitionSizeInBytes).To(Equal(uint64(4194304)))
			Expect(guard.RestoreCalled).To(BeTrue())
			Expect(guard.RestoreSnapshot).To(Equal(guard.CaptureSnapshot))
		})

		It("fills the free space without a partition size", func() {
			err := application.AppendPartition(Options{ImagePath: imagePath})
			Expect(err).ToNot(HaveOccurred())
			Expect(partitioner.AppendPartitionSizeInBytes).To(Equal(uint64(0)))
			Expect(resizer.EnsureSizeRequested.Set).To(BeFalse())
		})

		It("treats a full table as a no-op", func() {
			partitioner.AppendPartitionErr = sderr.New(sderr.KindCapacityExceeded, "fake-full")

			err := application.AppendPartition(Options{ImagePath: imagePath})
			Expect(err).ToNot(HaveOccurred())
			Expect(guard.RestoreCalled).To(BeTrue())
		})

		It("restores the boot sector when the edit fails", func() {
			partitioner.AppendPartitionErr = errors.New("fake-append-err")

			err := application.AppendPartition(Options{ImagePath: imagePath})
			Expect(err).To(MatchError("fake-append-err"))
			Expect(guard.RestoreCalled).To(BeTrue())
		})

		It("does not edit when resizing fails", func() {
			resizer.EnsureSizeErr = errors.New("fake-resize-err")

			err := application.AppendPartition(Options{ImagePath: imagePath, NewSize: "8192"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fake-resize-err"))
			Expect(partitioner.AppendPartitionCalled).To(BeFalse())
			Expect(guard.RestoreCalled).To(BeTrue())
		})

		It("rejects malformed sizes before touching the image", func() {
			err := application.AppendPartition(Options{ImagePath: imagePath, PartitionSize: "lots"})
			Expect(err).To(HaveOccurred())
			Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
			Expect(guard.CapturePath).To(Equal(""))

			err = application.AppendPartition(Options{ImagePath: imagePath, NewSize: "+lots"})
			Expect(err).To(HaveOccurred())
			Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
			Expect(guard.CapturePath).To(Equal(""))
		})

		It("reports missing images before parsing sizes", func() {
			err := application.AppendPartition(Options{ImagePath: filepath.Join(tempDir, "missing.img"), NewSize: "+lots"})
			Expect(err).To(HaveOccurred())
			Expect(sderr.KindOf(err)).To(Equal(sderr.KindImageNotFound))
		})

		It("reports directories as missing images", func() {
			err := application.AppendPartition(Options{ImagePath: tempDir})
			Expect(err).To(HaveOccurred())
			Expect(sderr.KindOf(err)).To(Equal(sderr.KindImageNotFound))
		})

		It("stops when the capture fails", func() {
			guard.CaptureErr = errors.New("fake-capture-err")

			err := application.AppendPartition(Options{ImagePath: imagePath})
			Expect(err).To(MatchError("fake-capture-err"))
			Expect(resizer.EnsureSizeCalled).To(BeFalse())
			Expect(guard.RestoreCalled).To(BeFalse())
		})

		It("saves a boot sector backup when asked to", func() {
			backupPath := filepath.Join(tempDir, "backup.json")
			copy(guard.CaptureSnapshot.BootCode[:], fakedisk.BootCodePattern())

			err := application.AppendPartition(Options{ImagePath: imagePath, BootSectorBackupPath: backupPath})
			Expect(err).ToNot(HaveOccurred())

			logger := boshlog.NewLogger(boshlog.LevelNone)
			backup, snapshot, err := image.LoadBootSectorBackup(boshsys.NewOsFileSystem(logger), backupPath)
			Expect(err).ToNot(HaveOccurred())
			Expect(backup.ImagePath).To(Equal(imagePath))
			Expect(snapshot).To(Equal(guard.CaptureSnapshot))
		})
	})

	Describe("ResizeLastPartition", func() {
		It("captures, resizes, maximizes and restores", func() {
			partitioner.MaximizeLastPartitionPartition = disk.Partition{Number: 3}

			err := application.ResizeLastPartition(Options{ImagePath: imagePath, NewSize: "+2147483648"})
			Expect(err).ToNot(HaveOccurred())

			Expect(resizer.EnsureSizeRequested).To(Equal(image.RequestedSize{Set: true, Relative: true, Bytes: 2147483648}))
			Expect(partitioner.MaximizeLastPartitionImagePath).To(Equal(imagePath))
			Expect(guard.RestoreCalled).To(BeTrue())
		})

		It("fails when the table is full", func() {
			partitioner.MaximizeLastPartitionErr = sderr.New(sderr.KindCapacityExceeded, "fake-full")

			err := application.ResizeLastPartition(Options{ImagePath: imagePath})
			Expect(err).To(HaveOccurred())
			Expect(ExitCode(err)).To(Equal(ExitFailure))
		})
	})

	Describe("RestoreBootSector", func() {
		var backupPath string

		BeforeEach(func() {
			backupPath = filepath.Join(tempDir, "backup.json")
		})

		It("writes the saved boot code back without editing the table", func() {
			snapshot := image.BootSectorSnapshot{FileSize: 4096}
			copy(snapshot.BootCode[:], fakedisk.BootCodePattern())

			logger := boshlog.NewLogger(boshlog.LevelNone)
			err := image.NewBootSectorBackupWriter(boshsys.NewOsFileSystem(logger), backupPath).Save(imagePath, snapshot)
			Expect(err).ToNot(HaveOccurred())

			err = application.Run(CommandAppendPartition, Options{ImagePath: imagePath, BootSectorRestorePath: backupPath})
			Expect(err).ToNot(HaveOccurred())

			Expect(guard.RestoreCalled).To(BeTrue())
			Expect(guard.RestorePath).To(Equal(imagePath))
			Expect(guard.RestoreSnapshot).To(Equal(snapshot))
			Expect(guard.CapturePath).To(Equal(""))
			Expect(resizer.EnsureSizeCalled).To(BeFalse())
			Expect(partitioner.AppendPartitionCalled).To(BeFalse())
		})

		It("fails for a missing backup", func() {
			err := application.RestoreBootSector(Options{ImagePath: imagePath, BootSectorRestorePath: backupPath})
			Expect(err).To(HaveOccurred())
			Expect(ExitCode(err)).To(Equal(ExitFailure))
			Expect(guard.RestoreCalled).To(BeFalse())
		})

		It("reports missing images first", func() {
			err := application.RestoreBootSector(Options{ImagePath: filepath.Join(tempDir, "missing.img"), BootSectorRestorePath: backupPath})
			Expect(sderr.KindOf(err)).To(Equal(sderr.KindImageNotFound))
		})
	})

	Describe("Run", func() {
		It("dispatches on the command", func() {
			Expect(application.Run(CommandResizeLastPartition, Options{ImagePath: imagePath})).To(Succeed())
			Expect(partitioner.MaximizeLastPartitionCalled).To(BeTrue())
			Expect(partitioner.AppendPartitionCalled).To(BeFalse())

			Expect(application.Run(CommandAppendPartition, Options{ImagePath: imagePath})).To(Succeed())
			Expect(partitioner.AppendPartitionCalled).To(BeTrue())
		})

		It("rejects unknown commands", func() {
			err := application.Run(Command("fake-command"), Options{ImagePath: imagePath})
			Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
		})
	})
})

var _ = Describe("ExitCode", func() {
	It("maps errors to exit codes", func() {
		Expect(ExitCode(nil)).To(Equal(0))
		Expect(ExitCode(sderr.New(sderr.KindUsage, "usage"))).To(Equal(1))
		Expect(ExitCode(sderr.New(sderr.KindImageNotFound, "missing"))).To(Equal(2))
		Expect(ExitCode(sderr.New(sderr.KindCommitFailure, "commit"))).To(Equal(1))
		Expect(ExitCode(errors.New("plain"))).To(Equal(1))
	})
})
