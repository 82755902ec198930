package disk

import (
	"fmt"

	sderr "github.com/touchpi/sdimage/errors"
)

const (
	// DefaultSectorSize is the logical sector size of raw image files.
	DefaultSectorSize = uint64(512)

	nativeAlignmentBytes = uint64(1024 * 1024)
)

// Device describes the storage behind an image file. It is a value derived
// from the file at the time it was probed.
type Device struct {
	Path            string
	SectorSize      uint64
	Length          uint64
	NativeAlignment Alignment
}

func NewFileDevice(path string, sizeInBytes uint64) (Device, error) {
	length := sizeInBytes / DefaultSectorSize
	if length < 2 {
		return Device{}, sderr.Newf(sderr.KindIO, "Image `%s' of %d bytes is too small to hold a partition table", path, sizeInBytes)
	}

	return Device{
		Path:            path,
		SectorSize:      DefaultSectorSize,
		Length:          length,
		NativeAlignment: Alignment{Offset: 0, Grain: nativeAlignmentBytes / DefaultSectorSize},
	}, nil
}

func (d Device) SizeInBytes() uint64 {
	return d.Length * d.SectorSize
}

func (d Device) LastSector() uint64 {
	return d.Length - 1
}

func (d Device) String() string {
	return fmt.Sprintf("%s (%d sectors of %d bytes)", d.Path, d.Length, d.SectorSize)
}
