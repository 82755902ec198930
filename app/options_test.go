package app_test

import (
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/touchpi/sdimage/app"
	sderr "github.com/touchpi/sdimage/errors"
)

var _ = Describe("ParseOptions", func() {
	AfterEach(func() {
		os.Unsetenv(LogLevelEnvVar)
	})

	It("parses the positional arguments of append-partition", func() {
		opts, err := ParseOptions(CommandAppendPartition, []string{"append-partition", "image.img", "+1073741824", "536870912"})
		Expect(err).ToNot(HaveOccurred())
		Expect(opts.ImagePath).To(Equal("image.img"))
		Expect(opts.NewSize).To(Equal("+1073741824"))
		Expect(opts.PartitionSize).To(Equal("536870912"))
		Expect(opts.LogLevel).To(Equal("INFO"))
	})

	It("leaves optional arguments empty", func() {
		opts, err := ParseOptions(CommandAppendPartition, []string{"append-partition", "image.img"})
		Expect(err).ToNot(HaveOccurred())
		Expect(opts.NewSize).To(Equal(""))
		Expect(opts.PartitionSize).To(Equal(""))
	})

	It("parses flags", func() {
		opts, err := ParseOptions(CommandResizeLastPartition, []string{"resize-last-partition", "-l", "debug", "-b", "/tmp/backup.json", "image.img", "+2147483648"})
		Expect(err).ToNot(HaveOccurred())
		Expect(opts.LogLevel).To(Equal("debug"))
		Expect(opts.BootSectorBackupPath).To(Equal("/tmp/backup.json"))
		Expect(opts.ImagePath).To(Equal("image.img"))
		Expect(opts.NewSize).To(Equal("+2147483648"))
	})

	It("takes the default log level from the environment", func() {
		os.Setenv(LogLevelEnvVar, "WARN")

		opts, err := ParseOptions(CommandResizeLastPartition, []string{"resize-last-partition", "image.img"})
		Expect(err).ToNot(HaveOccurred())
		Expect(opts.LogLevel).To(Equal("WARN"))
	})

	It("requires an image path", func() {
		_, err := ParseOptions(CommandAppendPartition, []string{"append-partition"})
		Expect(err).To(HaveOccurred())
		Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
	})

	It("rejects a partition size for resize-last-partition", func() {
		_, err := ParseOptions(CommandResizeLastPartition, []string{"resize-last-partition", "image.img", "+1", "2"})
		Expect(err).To(HaveOccurred())
		Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
	})

	It("rejects extra arguments for append-partition", func() {
		_, err := ParseOptions(CommandAppendPartition, []string{"append-partition", "image.img", "+1", "2", "3"})
		Expect(err).To(HaveOccurred())
		Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
	})

	It("parses a boot sector restore", func() {
		opts, err := ParseOptions(CommandAppendPartition, []string{"append-partition", "-r", "/tmp/backup.json", "image.img"})
		Expect(err).ToNot(HaveOccurred())
		Expect(opts.BootSectorRestorePath).To(Equal("/tmp/backup.json"))
		Expect(opts.ImagePath).To(Equal("image.img"))
	})

	It("rejects sizes together with a restore", func() {
		_, err := ParseOptions(CommandResizeLastPartition, []string{"resize-last-partition", "-r", "/tmp/backup.json", "image.img", "+1"})
		Expect(err).To(HaveOccurred())
		Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
	})

	It("rejects saving and restoring a backup at once", func() {
		_, err := ParseOptions(CommandAppendPartition, []string{"append-partition", "-b", "/tmp/a.json", "-r", "/tmp/b.json", "image.img"})
		Expect(err).To(HaveOccurred())
		Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
	})

	It("rejects unknown flags", func() {
		_, err := ParseOptions(CommandAppendPartition, []string{"append-partition", "-z", "image.img"})
		Expect(err).To(HaveOccurred())
		Expect(sderr.KindOf(err)).To(Equal(sderr.KindUsage))
	})
})

var _ = Describe("Usage", func() {
	It("describes each command", func() {
		Expect(Usage(CommandAppendPartition)).To(ContainSubstring("append-partition [-l level] [-b backup.json] <raspbian.img> [newsize|+extend_image_by_bytes] [new_partition_bytes]"))
		Expect(Usage(CommandResizeLastPartition)).To(ContainSubstring("resize-last-partition [-l level] [-b backup.json] <raspbian.img> [newsize|+extend_image_by_bytes]\n"))
		Expect(Usage(CommandResizeLastPartition)).To(ContainSubstring("resize-last-partition [-l level] -r backup.json <raspbian.img>"))
	})
})
