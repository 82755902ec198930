package fakes

import (
	"github.com/touchpi/sdimage/platform/disk"
)

type FakeTable struct {
	DeviceDevice     disk.Device
	PartitionsList   []disk.Partition
	MaxPartitions    int
	FreeRegionsGeoms []disk.Geometry

	AddPartitionCalled     bool
	AddPartitionPartition  disk.Partition
	AddPartitionConstraint disk.Constraint
	AddPartitionErr        error

	MaximizePartitionCalled     bool
	MaximizePartitionPartition  disk.Partition
	MaximizePartitionConstraint disk.Constraint
	MaximizePartitionErr        error

	CommitCalled bool
	CommitErr    error
}

func NewFakeTable(device disk.Device, partitions ...disk.Partition) *FakeTable {
	return &FakeTable{
		DeviceDevice:     device,
		PartitionsList:   partitions,
		MaxPartitions:    disk.MBRMaxPartitionCount,
		FreeRegionsGeoms: disk.FreeRegions(device, partitions),
	}
}

func (t *FakeTable) Device() disk.Device {
	return t.DeviceDevice
}

func (t *FakeTable) Partitions() []disk.Partition {
	return t.PartitionsList
}

func (t *FakeTable) MaxSupportedPartitionCount() int {
	return t.MaxPartitions
}

func (t *FakeTable) FreeRegions() []disk.Geometry {
	return t.FreeRegionsGeoms
}

func (t *FakeTable) AddPartition(partition disk.Partition, constraint disk.Constraint) (disk.Partition, error) {
	t.AddPartitionCalled = true
	t.AddPartitionPartition = partition
	t.AddPartitionConstraint = constraint
	if t.AddPartitionErr != nil {
		return disk.Partition{}, t.AddPartitionErr
	}

	partition.Number = len(t.PartitionsList) + 1
	t.PartitionsList = append(t.PartitionsList, partition)

	return partition, nil
}

func (t *FakeTable) MaximizePartition(partition disk.Partition, constraint disk.Constraint) (disk.Partition, error) {
	t.MaximizePartitionCalled = true
	t.MaximizePartitionPartition = partition
	t.MaximizePartitionConstraint = constraint
	if t.MaximizePartitionErr != nil {
		return disk.Partition{}, t.MaximizePartitionErr
	}

	partition.Geometry = constraint.Geometry()

	return partition, nil
}

func (t *FakeTable) Commit() error {
	t.CommitCalled = true
	return t.CommitErr
}

type FakeTableOpener struct {
	GetDeviceImagePath string
	GetDeviceDevice    disk.Device
	GetDeviceErr       error

	OpenTableDevice disk.Device
	OpenTableTable  disk.Table
	OpenTableErr    error
}

func NewFakeTableOpener(table *FakeTable) *FakeTableOpener {
	return &FakeTableOpener{
		GetDeviceDevice: table.DeviceDevice,
		OpenTableTable:  table,
	}
}

func (o *FakeTableOpener) GetDevice(imagePath string) (disk.Device, error) {
	o.GetDeviceImagePath = imagePath
	return o.GetDeviceDevice, o.GetDeviceErr
}

func (o *FakeTableOpener) OpenTable(device disk.Device) (disk.Table, error) {
	o.OpenTableDevice = device
	if o.OpenTableErr != nil {
		return nil, o.OpenTableErr
	}

	return o.OpenTableTable, nil
}
