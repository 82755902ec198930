package disk

import (
	bosherr "github.com/cloudfoundry/bosh-utils/errors"
	boshlog "github.com/cloudfoundry/bosh-utils/logger"

	sderr "github.com/touchpi/sdimage/errors"
)

// ImagePartitioner edits the partition table of an image file. Every edit
// runs open device, read table, check capacity, plan, apply, commit, and
// stops at the first failing step.
type ImagePartitioner struct {
	tableOpener TableOpener
	logger      boshlog.Logger
	logTag      string
}

func NewImagePartitioner(tableOpener TableOpener, logger boshlog.Logger) *ImagePartitioner {
	return &ImagePartitioner{
		tableOpener: tableOpener,
		logger:      logger,
		logTag:      "ImagePartitioner",
	}
}

// AppendPartition adds an ext4 partition of sizeInBytes, or of all the
// remaining space when sizeInBytes is 0, to the image at imagePath.
func (p *ImagePartitioner) AppendPartition(imagePath string, sizeInBytes uint64) (Partition, error) {
	table, err := p.openTable(imagePath)
	if err != nil {
		return Partition{}, err
	}

	geometry, err := PlanAppend(table, sizeInBytes)
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Planning new partition on `%s'", imagePath)
	}

	p.logger.Debug(p.logTag, "Planned new partition at %s", geometry)

	partition, err := table.AddPartition(NewExt4Partition(geometry), ExactGeometry(geometry))
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Adding partition to `%s'", imagePath)
	}

	err = table.Commit()
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Committing partition table of `%s'", imagePath)
	}

	p.logger.Info(p.logTag, "Appended partition %d of %d bytes to `%s'", partition.Number, partition.SizeInBytes(table.Device().SectorSize), imagePath)

	return partition, nil
}

// MaximizeLastPartition grows the last partition of the image at imagePath
// to the end of the image.
func (p *ImagePartitioner) MaximizeLastPartition(imagePath string) (Partition, error) {
	table, err := p.openTable(imagePath)
	if err != nil {
		return Partition{}, err
	}

	geometry, err := PlanMaximize(table)
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Planning last partition on `%s'", imagePath)
	}

	partitions := table.Partitions()
	last := partitions[len(partitions)-1]

	alignment, err := MicroSDHCAlignment(table.Device().SectorSize)
	if err == nil && !alignment.IsAligned(last.Geometry.Start) {
		p.logger.Warn(p.logTag, "Last partition %d starts at sector %d which is not %s aligned, keeping it", last.Number, last.Geometry.Start, alignment)
	}

	if geometry == last.Geometry {
		p.logger.Info(p.logTag, "Partition %d already ends at the last sector of `%s'", last.Number, imagePath)
	}

	partition, err := table.MaximizePartition(last, ExactGeometry(geometry))
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Maximizing partition %d of `%s'", last.Number, imagePath)
	}

	err = table.Commit()
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Committing partition table of `%s'", imagePath)
	}

	p.logger.Info(p.logTag, "Grew partition %d of `%s' to %s", partition.Number, imagePath, partition.Geometry)

	return partition, nil
}

func (p *ImagePartitioner) openTable(imagePath string) (Table, error) {
	device, err := p.tableOpener.GetDevice(imagePath)
	if err != nil {
		return nil, bosherr.WrapErrorf(err, "Getting device of `%s'", imagePath)
	}

	table, err := p.tableOpener.OpenTable(device)
	if err != nil {
		return nil, bosherr.WrapErrorf(err, "Reading partition table of `%s'", imagePath)
	}

	partitionCount := len(table.Partitions())
	if partitionCount+1 > table.MaxSupportedPartitionCount() {
		return nil, sderr.Newf(sderr.KindCapacityExceeded, "Image `%s' already holds %d of %d partitions", imagePath, partitionCount, table.MaxSupportedPartitionCount())
	}

	return table, nil
}
