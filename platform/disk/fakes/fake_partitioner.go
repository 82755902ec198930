package fakes

import (
	"github.com/touchpi/sdimage/platform/disk"
)

type FakePartitioner struct {
	AppendPartitionCalled      bool
	AppendPartitionImagePath   string
	AppendPartitionSizeInBytes uint64
	AppendPartitionPartition   disk.Partition
	AppendPartitionErr         error

	MaximizeLastPartitionCalled    bool
	MaximizeLastPartitionImagePath string
	MaximizeLastPartitionPartition disk.Partition
	MaximizeLastPartitionErr       error
}

func NewFakePartitioner() *FakePartitioner {
	return &FakePartitioner{}
}

func (p *FakePartitioner) AppendPartition(imagePath string, sizeInBytes uint64) (disk.Partition, error) {
	p.AppendPartitionCalled = true
	p.AppendPartitionImagePath = imagePath
	p.AppendPartitionSizeInBytes = sizeInBytes
	return p.AppendPartitionPartition, p.AppendPartitionErr
}

func (p *FakePartitioner) MaximizeLastPartition(imagePath string) (disk.Partition, error) {
	p.MaximizeLastPartitionCalled = true
	p.MaximizeLastPartitionImagePath = imagePath
	return p.MaximizeLastPartitionPartition, p.MaximizeLastPartitionErr
}
