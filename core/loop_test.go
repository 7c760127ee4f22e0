// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
	"github.com/devblok/presenter/gfx/gfxtest"
)

func newTestPresenter(c *qt.C, dev *gfxtest.Device) *Presenter {
	cfg := DefaultConfiguration()
	cfg.Time.ReportInterval = 0

	p, err := NewPresenter(newPlatform(dev, gfxtest.NewSurface()), cfg)
	c.Assert(err, qt.IsNil)
	return p
}

func firstDestroy(log []string) int {
	for i, entry := range log {
		if strings.HasPrefix(entry, "destroy ") {
			return i
		}
	}
	return -1
}

func TestPresenterRunStopsOnEvents(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	p := newTestPresenter(c, dev)

	c.Assert(p.Run(context.Background(), &gfxtest.Ticks{Remaining: 5}), qt.IsNil)
	c.Assert(dev.Presented, qt.HasLen, 5)
	c.Assert(p.counter.Total(), qt.Equals, uint64(5))

	// drained before anything was destroyed, and everything was destroyed
	idle := dev.Index("wait idle")
	c.Assert(idle, qt.Not(qt.Equals), -1)
	c.Assert(idle < firstDestroy(dev.Log), qt.IsTrue)
	c.Assert(dev.Live(), qt.Equals, 0)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestPresenterRunStopsOnCancel(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	p := newTestPresenter(c, dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := &gfxtest.Ticks{
		Remaining: 100,
		OnPoll: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}

	c.Assert(p.Run(ctx, events), qt.IsNil)
	c.Assert(dev.Presented, qt.HasLen, 3)
	c.Assert(dev.Live(), qt.Equals, 0)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestPresenterFatalErrorKeepsResources(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	dev.PresentResults[2] = gfx.DeviceLost
	p := newTestPresenter(c, dev)

	err := p.Run(context.Background(), &gfxtest.Ticks{Remaining: 10})
	c.Assert(errors.Cause(err), qt.Equals, error(gfx.DeviceLost))
	c.Assert(dev.Presented, qt.HasLen, 2)
	c.Assert(dev.WaitIdles, qt.Equals, 0)
	c.Assert(dev.Live() > 0, qt.IsTrue)

	p.Release()
	p.Release()
	c.Assert(dev.WaitIdles, qt.Equals, 1)
	c.Assert(dev.Live(), qt.Equals, 0)

	c.Assert(p.Run(context.Background(), &gfxtest.Ticks{Remaining: 1}), qt.Equals, ErrReleased)
}

func TestPresenterSurvivesRecreation(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	dev.AcquireResults[3] = gfx.OutOfDate
	dev.PresentResults[6] = gfx.Suboptimal
	p := newTestPresenter(c, dev)

	c.Assert(p.Run(context.Background(), &gfxtest.Ticks{Remaining: 12}), qt.IsNil)
	c.Assert(p.Chains().Recreations(), qt.Equals, 2)
	c.Assert(p.Frames().Frames(), qt.Equals, uint64(12))
	c.Assert(dev.Presented, qt.HasLen, 11)
	c.Assert(dev.Live(), qt.Equals, 0)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestPresenterRunStopsWhileMinimized(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	dev.PresentResults[1] = gfx.OutOfDate
	surf := gfxtest.NewSurface()
	cfg := DefaultConfiguration()
	cfg.Time.ReportInterval = 0
	p, err := NewPresenter(newPlatform(dev, surf), cfg)
	c.Assert(err, qt.IsNil)

	dev.Support.Capabilities.CurrentExtent = gfx.Extent2D{}
	surf.Closed = true

	c.Assert(p.Run(context.Background(), &gfxtest.Ticks{Remaining: 10}), qt.IsNil)
	c.Assert(surf.Waits, qt.Equals, 1)
	c.Assert(dev.Presented, qt.HasLen, 1)
	c.Assert(dev.Presents, qt.Equals, 2)
	c.Assert(p.Chains().Recreations(), qt.Equals, 0)
	c.Assert(dev.WaitIdles, qt.Equals, 1)
	c.Assert(dev.Live(), qt.Equals, 0)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestNewPresenterReleasesOnFailure(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	dev.Support.Formats = nil

	_, err := NewPresenter(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration())
	c.Assert(errors.Cause(err), qt.Equals, ErrNoSurfaceFormats)
	c.Assert(dev.Live(), qt.Equals, 0)

	cfg := DefaultConfiguration()
	cfg.Renderer.MaxFramesInFlight = 0
	_, err = NewPresenter(newPlatform(gfxtest.NewDevice(), gfxtest.NewSurface()), cfg)
	c.Assert(err, qt.ErrorMatches, "frames in flight must be at least 1, got 0")
}
