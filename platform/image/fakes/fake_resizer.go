package fakes

import (
	"github.com/touchpi/sdimage/platform/image"
)

type FakeResizer struct {
	EnsureSizeCalled      bool
	EnsureSizePath        string
	EnsureSizeCurrentSize uint64
	EnsureSizeRequested   image.RequestedSize
	EnsureSizeSize        uint64
	EnsureSizeErr         error
}

func NewFakeResizer() *FakeResizer {
	return &FakeResizer{}
}

func (r *FakeResizer) EnsureSize(path string, currentSize uint64, requested image.RequestedSize) (uint64, error) {
	r.EnsureSizeCalled = true
	r.EnsureSizePath = path
	r.EnsureSizeCurrentSize = currentSize
	r.EnsureSizeRequested = requested
	return r.EnsureSizeSize, r.EnsureSizeErr
}
