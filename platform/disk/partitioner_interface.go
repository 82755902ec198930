package disk

import "fmt"

type PartitionType string

const (
	PartitionTypeSwap     PartitionType = "swap"
	PartitionTypeLinux    PartitionType = "linux"
	PartitionTypeFAT      PartitionType = "fat"
	PartitionTypeExtended PartitionType = "extended"
	PartitionTypeEmpty    PartitionType = "empty"
	PartitionTypeUnknown  PartitionType = "unknown"
	PartitionTypeGPT      PartitionType = "gpt"
)

const (
	FileSystemExt4 = "ext4"

	// SystemIDLinux is the MBR system id of a native Linux partition.
	SystemIDLinux byte = 0x83
)

type Partition struct {
	// Number is the 1-based table slot, 0 until the partition is added.
	Number     int
	Geometry   Geometry
	Type       PartitionType
	SystemID   byte
	FileSystem string
	Bootable   bool
}

// NewExt4Partition describes a normal Linux partition holding ext4 over geometry.
func NewExt4Partition(geometry Geometry) Partition {
	return Partition{
		Geometry:   geometry,
		Type:       PartitionTypeLinux,
		SystemID:   SystemIDLinux,
		FileSystem: FileSystemExt4,
	}
}

// IsNormal reports whether the partition is a plain primary partition and
// not an extended container.
func (p Partition) IsNormal() bool {
	return p.Type != PartitionTypeExtended && p.Type != PartitionTypeGPT
}

func (p Partition) SizeInBytes(sectorSize uint64) uint64 {
	return p.Geometry.Length() * sectorSize
}

func (p Partition) String() string {
	return fmt.Sprintf("[Number: %d, Type: %s, SystemID: 0x%02x, Geometry: %s]", p.Number, p.Type, p.SystemID, p.Geometry)
}

// Layout is the read side of a partition table.
type Layout interface {
	Device() Device
	Partitions() []Partition
	MaxSupportedPartitionCount() int
	FreeRegions() []Geometry
}

type Table interface {
	Layout

	AddPartition(partition Partition, constraint Constraint) (Partition, error)
	MaximizePartition(partition Partition, constraint Constraint) (Partition, error)
	Commit() error
}

type TableOpener interface {
	GetDevice(imagePath string) (Device, error)
	OpenTable(device Device) (Table, error)
}

type Partitioner interface {
	AppendPartition(imagePath string, sizeInBytes uint64) (Partition, error)
	MaximizeLastPartition(imagePath string) (Partition, error)
}
