package disk

import (
	bosherr "github.com/cloudfoundry/bosh-utils/errors"

	sderr "github.com/touchpi/sdimage/errors"
)

// PlanAppend computes the geometry of a new partition in the largest free
// region of layout. The start is rounded up to the next 4 MiB boundary. With
// a non-zero desiredSizeInBytes the partition ends right before the 4 MiB
// boundary at or below start+desiredSizeInBytes, otherwise it runs to the end
// of the region.
func PlanAppend(layout Layout, desiredSizeInBytes uint64) (Geometry, error) {
	partitionCount := len(layout.Partitions())
	if partitionCount >= layout.MaxSupportedPartitionCount() {
		return Geometry{}, sderr.Newf(sderr.KindCapacityExceeded, "Table already holds %d of %d partitions", partitionCount, layout.MaxSupportedPartitionCount())
	}

	region, found := LargestRegion(layout.FreeRegions())
	if !found {
		return Geometry{}, sderr.New(sderr.KindRegionTooSmall, "Table has no free space")
	}

	device := layout.Device()

	alignment, err := MicroSDHCAlignment(device.SectorSize)
	if err != nil {
		return Geometry{}, bosherr.WrapError(err, "Computing partition alignment")
	}

	start, ok := alignment.AlignUp(region, region.Start)
	if !ok {
		return Geometry{}, sderr.Newf(sderr.KindRegionTooSmall, "Free region %s holds no %s aligned sector", region, alignment)
	}

	end := region.End

	if desiredSizeInBytes > 0 {
		sizeInSectors := desiredSizeInBytes / device.SectorSize

		boundary, ok := alignment.RoundDown(start + sizeInSectors)
		if !ok || boundary <= start {
			return Geometry{}, sderr.Newf(sderr.KindRegionTooSmall, "Requested size of %d bytes is smaller than one aligned block of %d bytes", desiredSizeInBytes, alignment.Grain*device.SectorSize)
		}

		end = boundary - 1
		if end > region.End {
			return Geometry{}, sderr.Newf(sderr.KindRegionTooSmall, "Requested size of %d bytes exceeds the %d aligned bytes free in region %s", desiredSizeInBytes, (region.End-start+1)*device.SectorSize, region)
		}
	}

	geometry := Geometry{Start: start, End: end}
	if !region.ContainsGeometry(geometry) {
		return Geometry{}, sderr.Newf(sderr.KindRegionTooSmall, "Planned partition %s does not fit free region %s", geometry, region)
	}

	return geometry, nil
}

// PlanMaximize computes the geometry that grows the last partition of layout
// to the end of the device. The start is kept as is, aligned or not.
func PlanMaximize(layout Layout) (Geometry, error) {
	partitions := layout.Partitions()
	if len(partitions) == 0 {
		return Geometry{}, sderr.New(sderr.KindNoPartitions, "Table has no partition to maximize")
	}

	last := partitions[len(partitions)-1]
	device := layout.Device()

	if last.Geometry.Start > device.LastSector() {
		return Geometry{}, bosherr.Errorf("Last partition %s starts beyond the device end %d", last, device.LastSector())
	}

	return Geometry{Start: last.Geometry.Start, End: device.LastSector()}, nil
}

// LargestRegion returns the longest of regions, the first one on ties.
func LargestRegion(regions []Geometry) (Geometry, bool) {
	if len(regions) == 0 {
		return Geometry{}, false
	}

	largest := regions[0]
	for _, region := range regions[1:] {
		if region.Length() > largest.Length() {
			largest = region
		}
	}

	return largest, true
}
