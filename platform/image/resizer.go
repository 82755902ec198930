package image

import (
	bosherr "github.com/cloudfoundry/bosh-utils/errors"
	boshlog "github.com/cloudfoundry/bosh-utils/logger"

	sderr "github.com/touchpi/sdimage/errors"
)

type Resizer interface {
	// EnsureSize grows the image at path to the requested size and returns
	// the resulting size. It never shrinks an image.
	EnsureSize(path string, currentSize uint64, requested RequestedSize) (uint64, error)
}

type fileResizer struct {
	logger boshlog.Logger
	logTag string
}

func NewResizer(logger boshlog.Logger) Resizer {
	return fileResizer{
		logger: logger,
		logTag: "ImageResizer",
	}
}

func (r fileResizer) EnsureSize(path string, currentSize uint64, requested RequestedSize) (uint64, error) {
	if !requested.Set {
		r.logger.Debug(r.logTag, "No size requested for `%s', keeping %d bytes", path, currentSize)
		return currentSize, nil
	}

	target, err := requested.Target(currentSize)
	if err != nil {
		return currentSize, bosherr.WrapErrorf(err, "Computing new size of `%s'", path)
	}

	if target <= currentSize {
		r.logger.Info(r.logTag, "Image `%s' already holds %d bytes, not shrinking to %d", path, currentSize, target)
		return currentSize, nil
	}

	err = truncate(path, int64(target))
	if err != nil {
		return currentSize, sderr.Wrapf(sderr.KindIO, err, "Growing `%s' to %d bytes", path, target)
	}

	r.logger.Info(r.logTag, "Grew image `%s' from %d to %d bytes", path, currentSize, target)

	return target, nil
}
