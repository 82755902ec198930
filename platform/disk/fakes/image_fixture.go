package fakes

import (
	"encoding/binary"
	"os"
)

type FixturePartition struct {
	Bootable bool
	SystemID byte
	Start    uint32
	Length   uint32
}

// WriteMBRImage creates a sparse image of sizeInBytes at path holding
// bootCode (at most 446 bytes) followed by an MBR listing partitions.
func WriteMBRImage(path string, sizeInBytes int64, bootCode []byte, partitions []FixturePartition) error {
	sector := make([]byte, 512)
	copy(sector[:446], bootCode)

	for i, partition := range partitions {
		entry := sector[446+16*i : 446+16*(i+1)]
		if partition.Bootable {
			entry[0] = 0x80
		}
		copy(entry[1:4], []byte{0xfe, 0xff, 0xff})
		entry[4] = partition.SystemID
		copy(entry[5:8], []byte{0xfe, 0xff, 0xff})
		binary.LittleEndian.PutUint32(entry[8:12], partition.Start)
		binary.LittleEndian.PutUint32(entry[12:16], partition.Length)
	}

	sector[510] = 0x55
	sector[511] = 0xaa

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	defer file.Close()

	_, err = file.Write(sector)
	if err != nil {
		return err
	}

	return file.Truncate(sizeInBytes)
}

// BootCodePattern returns 446 recognisable bytes, including a disk signature
// at offset 440.
func BootCodePattern() []byte {
	bootCode := make([]byte, 446)
	for i := range bootCode {
		bootCode[i] = byte(i*7 + 3)
	}
	binary.LittleEndian.PutUint32(bootCode[440:444], 0xdeadbeef)

	return bootCode
}

// RaspbianPartitions is a FAT boot and an ext4 root partition filling an
// image of rootEndSector+1 sectors.
func RaspbianPartitions(rootEndSector uint32) []FixturePartition {
	return []FixturePartition{
		{SystemID: 0x0c, Start: 8192, Length: 524288},
		{SystemID: 0x83, Start: 532480, Length: rootEndSector - 532480 + 1},
	}
}
