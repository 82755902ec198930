package fakes

import (
	"github.com/touchpi/sdimage/platform/image"
)

type FakeBootSectorGuard struct {
	CapturePath     string
	CaptureSnapshot image.BootSectorSnapshot
	CaptureErr      error

	RestoreCalled   bool
	RestorePath     string
	RestoreSnapshot image.BootSectorSnapshot
	RestoreErr      error
}

func NewFakeBootSectorGuard() *FakeBootSectorGuard {
	return &FakeBootSectorGuard{}
}

func (g *FakeBootSectorGuard) Capture(path string) (image.BootSectorSnapshot, error) {
	g.CapturePath = path
	return g.CaptureSnapshot, g.CaptureErr
}

func (g *FakeBootSectorGuard) Restore(path string, snapshot image.BootSectorSnapshot) error {
	g.RestoreCalled = true
	g.RestorePath = path
	g.RestoreSnapshot = snapshot
	return g.RestoreErr
}
