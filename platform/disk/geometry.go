package disk

import (
	"fmt"

	bosherr "github.com/cloudfoundry/bosh-utils/errors"
)

const (
	// MicroSDHCEraseBlockSize is the erase-block size assumed for microSDHC
	// cards. The first block is reserved for the MBR and every partition
	// boundary after it falls on a multiple of it.
	MicroSDHCEraseBlockSize = uint64(4 * 1024 * 1024)
)

// Geometry is the inclusive sector range [Start, End].
type Geometry struct {
	Start uint64
	End   uint64
}

func NewGeometry(start, length uint64) (Geometry, error) {
	if length == 0 {
		return Geometry{}, bosherr.Errorf("Geometry starting at sector %d must not be empty", start)
	}

	return Geometry{Start: start, End: start + length - 1}, nil
}

func (g Geometry) Length() uint64 {
	return g.End - g.Start + 1
}

func (g Geometry) Contains(sector uint64) bool {
	return sector >= g.Start && sector <= g.End
}

func (g Geometry) ContainsGeometry(other Geometry) bool {
	return other.Start >= g.Start && other.End <= g.End
}

func (g Geometry) Overlaps(other Geometry) bool {
	return g.Start <= other.End && other.Start <= g.End
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d-%d (%d sectors)", g.Start, g.End, g.Length())
}

// Alignment accepts every sector s with s = Offset + k*Grain for some integer k.
// A zero Grain accepts Offset only.
type Alignment struct {
	Offset uint64
	Grain  uint64
}

// MicroSDHCAlignment returns the 4 MiB offset/grain alignment in sectors of sectorSize.
func MicroSDHCAlignment(sectorSize uint64) (Alignment, error) {
	if sectorSize == 0 || MicroSDHCEraseBlockSize%sectorSize != 0 {
		return Alignment{}, bosherr.Errorf("Sector size %d does not divide the %d byte erase block", sectorSize, MicroSDHCEraseBlockSize)
	}

	sectors := MicroSDHCEraseBlockSize / sectorSize

	return Alignment{Offset: sectors, Grain: sectors}, nil
}

func (a Alignment) IsAligned(sector uint64) bool {
	if a.Grain == 0 {
		return sector == a.Offset
	}

	return a.remainder(sector) == 0
}

// RoundUp returns the smallest aligned sector >= sector.
func (a Alignment) RoundUp(sector uint64) (uint64, bool) {
	if a.Grain == 0 {
		return a.Offset, sector <= a.Offset
	}

	remainder := a.remainder(sector)
	if remainder == 0 {
		return sector, true
	}

	up := a.Grain - remainder
	if sector+up < sector {
		return 0, false
	}

	return sector + up, true
}

// RoundDown returns the largest aligned sector <= sector.
func (a Alignment) RoundDown(sector uint64) (uint64, bool) {
	if a.Grain == 0 {
		return a.Offset, sector >= a.Offset
	}

	remainder := a.remainder(sector)
	if remainder > sector {
		return 0, false
	}

	return sector - remainder, true
}

// AlignUp is RoundUp restricted to region.
func (a Alignment) AlignUp(region Geometry, sector uint64) (uint64, bool) {
	aligned, ok := a.RoundUp(sector)
	if !ok || !region.Contains(aligned) {
		return 0, false
	}

	return aligned, true
}

// AlignDown is RoundDown restricted to region.
func (a Alignment) AlignDown(region Geometry, sector uint64) (uint64, bool) {
	aligned, ok := a.RoundDown(sector)
	if !ok || !region.Contains(aligned) {
		return 0, false
	}

	return aligned, true
}

func (a Alignment) String() string {
	return fmt.Sprintf("offset %d, grain %d", a.Offset, a.Grain)
}

func (a Alignment) remainder(sector uint64) uint64 {
	offset := a.Offset % a.Grain

	return (sector%a.Grain + a.Grain - offset) % a.Grain
}

// Constraint restricts the geometry a table may give to a partition. Tables
// must not re-align or shrink a partition to satisfy it.
type Constraint struct {
	exact Geometry
}

func ExactGeometry(geometry Geometry) Constraint {
	return Constraint{exact: geometry}
}

func (c Constraint) Geometry() Geometry {
	return c.exact
}

func (c Constraint) Check(geometry Geometry) error {
	if geometry != c.exact {
		return bosherr.Errorf("Geometry %s does not match the exact geometry %s", geometry, c.exact)
	}

	return nil
}
