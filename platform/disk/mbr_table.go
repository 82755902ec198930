package disk

import (
	"bytes"
	"io"
	"math"
	"os"
	"sort"

	bosherr "github.com/cloudfoundry/bosh-utils/errors"
	boshlog "github.com/cloudfoundry/bosh-utils/logger"
	boshsys "github.com/cloudfoundry/bosh-utils/system"
	"github.com/rekby/mbr"

	sderr "github.com/touchpi/sdimage/errors"
)

const (
	mbrSize = 512

	// MBRMaxPartitionCount is the number of primary slots in an MBR.
	MBRMaxPartitionCount = 4

	// Sector 0 holds the MBR itself.
	firstUsableSector = uint64(1)
)

type mbrTableOpener struct {
	fs     boshsys.FileSystem
	logger boshlog.Logger
	logTag string
}

func NewMBRTableOpener(fs boshsys.FileSystem, logger boshlog.Logger) TableOpener {
	return mbrTableOpener{
		fs:     fs,
		logger: logger,
		logTag: "MBRTable",
	}
}

func (o mbrTableOpener) GetDevice(imagePath string) (Device, error) {
	info, err := o.fs.Stat(imagePath)
	if err != nil {
		return Device{}, sderr.Wrapf(sderr.KindIO, err, "Getting size of image `%s'", imagePath)
	}

	if !info.Mode().IsRegular() {
		return Device{}, sderr.Newf(sderr.KindIO, "Image `%s' is not a regular file", imagePath)
	}

	device, err := NewFileDevice(imagePath, uint64(info.Size()))
	if err != nil {
		return Device{}, err
	}

	o.logger.Debug(o.logTag, "Probed device %s, native alignment %s", device, device.NativeAlignment)

	return device, nil
}

func (o mbrTableOpener) OpenTable(device Device) (Table, error) {
	file, err := o.fs.OpenFile(device.Path, os.O_RDONLY, 0)
	if err != nil {
		return nil, sderr.Wrapf(sderr.KindIO, err, "Opening image `%s'", device.Path)
	}

	defer file.Close()

	sector := make([]byte, mbrSize)
	_, err = io.ReadFull(file, sector)
	if err != nil {
		return nil, sderr.Wrapf(sderr.KindIO, err, "Reading master boot record of `%s'", device.Path)
	}

	record, err := mbr.Read(bytes.NewReader(sector))
	if err != nil {
		return nil, sderr.Wrapf(sderr.KindUnsupportedTable, err, "Parsing master boot record of `%s'", device.Path)
	}

	err = record.Check()
	if err != nil {
		return nil, sderr.Wrapf(sderr.KindUnsupportedTable, err, "Validating master boot record of `%s'", device.Path)
	}

	if record.IsGPT() {
		return nil, sderr.Newf(sderr.KindUnsupportedTable, "Image `%s' carries a GPT protective MBR, GPT is not supported", device.Path)
	}

	table := &mbrTable{
		fs:     o.fs,
		device: device,
		record: record,
		slots:  record.GetAllPartitions(),
		logger: o.logger,
		logTag: o.logTag,
	}

	for i, slot := range table.slots {
		if slot.GetType() == mbr.PART_EMPTY || slot.GetLBALen() == 0 {
			continue
		}

		geometry, err := NewGeometry(uint64(slot.GetLBAStart()), uint64(slot.GetLBALen()))
		if err != nil {
			return nil, sderr.Wrapf(sderr.KindUnsupportedTable, err, "Reading partition %d of `%s'", i+1, device.Path)
		}

		systemID := byte(slot.GetType())

		table.partitions = append(table.partitions, Partition{
			Number:   i + 1,
			Geometry: geometry,
			Type:     partitionTypeForSystemID(systemID),
			SystemID: systemID,
			Bootable: slot.IsBootable(),
		})
	}

	o.logger.Debug(o.logTag, "Read %d partitions from `%s': %v", len(table.partitions), device.Path, table.partitions)

	return table, nil
}

type mbrTable struct {
	fs         boshsys.FileSystem
	device     Device
	record     *mbr.MBR
	slots      []*mbr.MBRPartition
	partitions []Partition

	logger boshlog.Logger
	logTag string
}

func (t *mbrTable) Device() Device {
	return t.device
}

func (t *mbrTable) Partitions() []Partition {
	partitions := make([]Partition, len(t.partitions))
	copy(partitions, t.partitions)

	return partitions
}

func (t *mbrTable) MaxSupportedPartitionCount() int {
	return MBRMaxPartitionCount
}

func (t *mbrTable) FreeRegions() []Geometry {
	return FreeRegions(t.device, t.partitions)
}

func (t *mbrTable) AddPartition(partition Partition, constraint Constraint) (Partition, error) {
	err := constraint.Check(partition.Geometry)
	if err != nil {
		return Partition{}, bosherr.WrapError(err, "Adding partition")
	}

	if len(t.partitions) >= t.MaxSupportedPartitionCount() {
		return Partition{}, sderr.Newf(sderr.KindCapacityExceeded, "Table already holds %d of %d partitions", len(t.partitions), t.MaxSupportedPartitionCount())
	}

	if !partition.IsNormal() {
		return Partition{}, bosherr.Errorf("Only normal partitions can be added, got %s", partition.Type)
	}

	err = t.validateGeometry(partition.Geometry, 0)
	if err != nil {
		return Partition{}, bosherr.WrapError(err, "Adding partition")
	}

	partition.Number = t.firstFreeSlot()
	t.partitions = append(t.partitions, partition)
	sort.Slice(t.partitions, func(i, j int) bool { return t.partitions[i].Number < t.partitions[j].Number })

	t.logger.Debug(t.logTag, "Added partition %s", partition)

	return partition, nil
}

func (t *mbrTable) MaximizePartition(partition Partition, constraint Constraint) (Partition, error) {
	index := -1
	for i, existing := range t.partitions {
		if existing.Number == partition.Number {
			index = i
		}
	}

	if index < 0 {
		return Partition{}, bosherr.Errorf("Partition %d is not in the table", partition.Number)
	}

	existing := t.partitions[index]
	geometry := constraint.Geometry()

	if geometry.Start != existing.Geometry.Start {
		return Partition{}, bosherr.Errorf("Maximizing partition %d would move its start from %d to %d", existing.Number, existing.Geometry.Start, geometry.Start)
	}

	if geometry.End < existing.Geometry.End {
		return Partition{}, bosherr.Errorf("Maximizing partition %d would shrink it from %s to %s", existing.Number, existing.Geometry, geometry)
	}

	err := t.validateGeometry(geometry, existing.Number)
	if err != nil {
		return Partition{}, bosherr.WrapErrorf(err, "Maximizing partition %d", existing.Number)
	}

	existing.Geometry = geometry
	t.partitions[index] = existing

	t.logger.Debug(t.logTag, "Maximized partition %s", existing)

	return existing, nil
}

func (t *mbrTable) Commit() error {
	for _, partition := range t.partitions {
		slot := t.slots[partition.Number-1]
		slot.SetType(mbr.PartitionType(partition.SystemID))
		slot.SetLBAStart(uint32(partition.Geometry.Start))
		slot.SetLBALen(uint32(partition.Geometry.Length()))
	}

	err := t.record.Check()
	if err != nil {
		return sderr.Wrap(sderr.KindCommitFailure, err, "Validating partition table before commit")
	}

	file, err := t.fs.OpenFile(t.device.Path, os.O_RDWR, 0)
	if err != nil {
		return sderr.Wrapf(sderr.KindCommitFailure, err, "Opening `%s' for commit", t.device.Path)
	}

	defer file.Close()

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return sderr.Wrapf(sderr.KindCommitFailure, err, "Seeking to the master boot record of `%s'", t.device.Path)
	}

	err = t.record.Write(file)
	if err != nil {
		return sderr.Wrapf(sderr.KindCommitFailure, err, "Writing partition table to `%s'", t.device.Path)
	}

	t.logger.Info(t.logTag, "Committed %d partitions to `%s'", len(t.partitions), t.device.Path)

	return nil
}

// validateGeometry checks geometry against the device and every partition
// except the one numbered skip.
func (t *mbrTable) validateGeometry(geometry Geometry, skip int) error {
	if geometry.Start > geometry.End {
		return bosherr.Errorf("Geometry %d-%d is inverted", geometry.Start, geometry.End)
	}

	if geometry.Start < firstUsableSector {
		return bosherr.Errorf("Geometry %s overlaps the master boot record", geometry)
	}

	if geometry.End > t.device.LastSector() {
		return bosherr.Errorf("Geometry %s ends beyond the last sector %d", geometry, t.device.LastSector())
	}

	if geometry.Start > math.MaxUint32 || geometry.Length() > math.MaxUint32 {
		return bosherr.Errorf("Geometry %s does not fit 32-bit MBR addressing", geometry)
	}

	for _, other := range t.partitions {
		if other.Number == skip {
			continue
		}

		if other.Geometry.Overlaps(geometry) {
			return bosherr.Errorf("Geometry %s overlaps partition %s", geometry, other)
		}
	}

	return nil
}

func (t *mbrTable) firstFreeSlot() int {
	used := map[int]bool{}
	for _, partition := range t.partitions {
		used[partition.Number] = true
	}

	for number := 1; number <= MBRMaxPartitionCount; number++ {
		if !used[number] {
			return number
		}
	}

	return 0
}

// FreeRegions returns the unallocated regions of device between sector 1 and
// its last sector, ordered by start.
func FreeRegions(device Device, partitions []Partition) []Geometry {
	sorted := make([]Partition, len(partitions))
	copy(sorted, partitions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Geometry.Start < sorted[j].Geometry.Start })

	var regions []Geometry

	if device.Length == 0 {
		return regions
	}

	last := device.LastSector()
	cursor := firstUsableSector

	for _, partition := range sorted {
		if cursor > last {
			break
		}

		if partition.Geometry.Start > cursor {
			end := partition.Geometry.Start - 1
			if end > last {
				end = last
			}
			regions = append(regions, Geometry{Start: cursor, End: end})
		}

		if partition.Geometry.End+1 > cursor {
			cursor = partition.Geometry.End + 1
		}
	}

	if cursor <= last {
		regions = append(regions, Geometry{Start: cursor, End: last})
	}

	return regions
}

func partitionTypeForSystemID(systemID byte) PartitionType {
	switch systemID {
	case 0x00:
		return PartitionTypeEmpty
	case 0x82:
		return PartitionTypeSwap
	case 0x83:
		return PartitionTypeLinux
	case 0x01, 0x04, 0x06, 0x0b, 0x0c, 0x0e:
		return PartitionTypeFAT
	case 0x05, 0x0f, 0x85:
		return PartitionTypeExtended
	case 0xee:
		return PartitionTypeGPT
	default:
		return PartitionTypeUnknown
	}
}
