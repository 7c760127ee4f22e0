// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
	"github.com/devblok/presenter/gfx/gfxtest"
)

var hint = gfx.Extent2D{Width: 800, Height: 600}

func newPlatform(dev *gfxtest.Device, surf *gfxtest.Surface) Platform {
	return Platform{Device: dev, Surface: surf, Recorder: dev}
}

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	preferred := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear}
	unorm := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear}
	rgba := gfx.SurfaceFormat{Format: gfx.FormatR8G8B8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear}

	c.Assert(chooseSurfaceFormat([]gfx.SurfaceFormat{unorm, preferred}, preferred), qt.Equals, preferred)
	c.Assert(chooseSurfaceFormat([]gfx.SurfaceFormat{rgba, unorm}, preferred), qt.Equals, rgba)

	// same format in another color space is not the preferred pair
	other := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: 1000104001}
	c.Assert(chooseSurfaceFormat([]gfx.SurfaceFormat{other, unorm}, preferred), qt.Equals, other)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	c.Assert(choosePresentMode([]gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox}, gfx.PresentModeMailbox), qt.Equals, gfx.PresentModeMailbox)
	c.Assert(choosePresentMode([]gfx.PresentMode{gfx.PresentModeImmediate, gfx.PresentModeFifo}, gfx.PresentModeMailbox), qt.Equals, gfx.PresentModeFifo)
	c.Assert(choosePresentMode([]gfx.PresentMode{gfx.PresentModeImmediate}, gfx.PresentModeMailbox), qt.Equals, gfx.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)

	undefined := gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	caps := gfx.SurfaceCapabilities{
		CurrentExtent:  undefined,
		MinImageExtent: gfx.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: gfx.Extent2D{Width: 1920, Height: 1080},
	}

	tests := []struct {
		about       string
		current     gfx.Extent2D
		framebuffer gfx.Extent2D
		hint        gfx.Extent2D
		expected    gfx.Extent2D
		err         error
	}{{
		about:       "defined current extent wins",
		current:     gfx.Extent2D{Width: 640, Height: 480},
		framebuffer: gfx.Extent2D{Width: 800, Height: 600},
		expected:    gfx.Extent2D{Width: 640, Height: 480},
	}, {
		about:       "framebuffer size is clamped",
		current:     undefined,
		framebuffer: gfx.Extent2D{Width: 4000, Height: 50},
		expected:    gfx.Extent2D{Width: 1920, Height: 100},
	}, {
		about:    "hint replaces an empty framebuffer",
		current:  undefined,
		hint:     gfx.Extent2D{Width: 800, Height: 600},
		expected: gfx.Extent2D{Width: 800, Height: 600},
	}, {
		about:   "no size at all",
		current: undefined,
		err:     ErrZeroExtent,
	}, {
		about:       "defined zero current extent",
		current:     gfx.Extent2D{},
		framebuffer: gfx.Extent2D{Width: 800, Height: 600},
		err:         ErrZeroExtent,
	}}

	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			caps := caps
			caps.CurrentExtent = test.current
			extent, err := chooseExtent(caps, test.framebuffer, test.hint)
			if test.err != nil {
				c.Assert(err, qt.Equals, test.err)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(extent, qt.Equals, test.expected)
		})
	}
}

func TestImageCount(t *testing.T) {
	c := qt.New(t)

	c.Assert(imageCount(gfx.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}), qt.Equals, uint32(3))
	c.Assert(imageCount(gfx.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(imageCount(gfx.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}), qt.Equals, uint32(3))
}

func TestCreateChain(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)

	chain, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)
	c.Assert(m.Current(), qt.Equals, chain)
	c.Assert(chain.Len(), qt.Equals, 3)
	c.Assert(chain.Extent(), qt.Equals, gfx.Extent2D{Width: 800, Height: 600})
	c.Assert(chain.Descriptor.Format.Format, qt.Equals, gfx.FormatB8G8R8A8Srgb)
	c.Assert(chain.Descriptor.PresentMode, qt.Equals, gfx.PresentModeMailbox)

	// swapchain + 3 views + render pass + pipeline + 3 framebuffers + 3 command buffers
	c.Assert(dev.Live(), qt.Equals, 12)
	for i := 0; i < chain.Len(); i++ {
		entry := fmt.Sprintf("record %s image %d", chain.images[i].commands.(*gfxtest.Handle), i)
		c.Assert(dev.Index(entry), qt.Not(qt.Equals), -1)
	}

	_, err = m.CreateChain(hint)
	c.Assert(err, qt.ErrorMatches, "chain creation: create: previous chain was not destroyed")
}

func TestCreateChainErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		about  string
		mutate func(*gfxtest.Device)
		op     string
		cause  error
	}{{
		about:  "no formats",
		mutate: func(d *gfxtest.Device) { d.Support.Formats = nil },
		op:     "surface format",
		cause:  ErrNoSurfaceFormats,
	}, {
		about:  "no present modes",
		mutate: func(d *gfxtest.Device) { d.Support.PresentModes = nil },
		op:     "present mode",
		cause:  ErrNoPresentModes,
	}, {
		about:  "swapchain rejected",
		mutate: func(d *gfxtest.Device) { d.SwapchainErr = gfx.SurfaceLost },
		op:     "swapchain",
		cause:  gfx.SurfaceLost,
	}}

	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			dev := gfxtest.NewDevice()
			test.mutate(dev)
			m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)

			chain, err := m.CreateChain(hint)
			c.Assert(chain, qt.IsNil)
			cerr, ok := err.(*ChainCreationError)
			c.Assert(ok, qt.IsTrue, qt.Commentf("error %v", err))
			c.Assert(cerr.Op, qt.Equals, test.op)
			c.Assert(errors.Cause(err), qt.Equals, test.cause)
			c.Assert(m.Current(), qt.IsNil)
			c.Assert(dev.Live(), qt.Equals, 0)
		})
	}
}

func TestCreateChainPartialFailureReleases(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	dev.FailRecord = errors.New("no pipeline bound")
	m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)

	_, err := m.CreateChain(hint)
	c.Assert(err, qt.ErrorMatches, "chain creation: record commands: no pipeline bound")
	c.Assert(dev.Live(), qt.Equals, 0)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func destroyedKinds(log []string) []string {
	var kinds []string
	for _, entry := range log {
		if !strings.HasPrefix(entry, "destroy ") {
			continue
		}
		kind := strings.SplitN(strings.TrimPrefix(entry, "destroy "), "#", 2)[0]
		if len(kinds) == 0 || kinds[len(kinds)-1] != kind {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func TestDestroyChainOrder(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)
	chain, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)

	dev.Log = nil
	m.DestroyChain(chain)
	c.Assert(destroyedKinds(dev.Log), qt.DeepEquals, []string{
		"framebuffer", "commands", "pipeline", "renderpass", "view", "swapchain",
	})
	c.Assert(dev.Live(), qt.Equals, 0)
	c.Assert(m.Current(), qt.IsNil)

	m.DestroyChain(chain)
	m.DestroyChain(nil)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestRecreateWaitsForSurfaceArea(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	surf := gfxtest.NewSurface(gfx.Extent2D{}, gfx.Extent2D{}, gfx.Extent2D{Width: 800, Height: 600})
	m := NewChainManager(newPlatform(dev, surf), DefaultConfiguration().Renderer)

	_, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)

	c.Assert(m.Recreate(), qt.IsNil)
	c.Assert(surf.Waits, qt.Equals, 2)
	c.Assert(dev.Chains, qt.HasLen, 2)
	c.Assert(dev.Chains[1].Extent, qt.Equals, gfx.Extent2D{Width: 800, Height: 600})
	c.Assert(dev.Violations, qt.HasLen, 0)
	c.Assert(m.Recreations(), qt.Equals, 1)
}

func TestRecreateWaitsForSurfaceExtent(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	surf := gfxtest.NewSurface()
	m := NewChainManager(newPlatform(dev, surf), DefaultConfiguration().Renderer)
	first, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)

	// a minimized window may keep its drawable size while the surface has none
	dev.Support.Capabilities.CurrentExtent = gfx.Extent2D{}
	surf.OnWait = func(n int) {
		c.Assert(m.Current(), qt.Equals, first)
		c.Assert(dev.WaitIdles, qt.Equals, 0)
		if n == 2 {
			dev.Support.Capabilities.CurrentExtent = gfx.Extent2D{Width: 640, Height: 480}
		}
	}

	c.Assert(m.Recreate(), qt.IsNil)
	c.Assert(surf.Waits, qt.Equals, 2)
	c.Assert(dev.WaitIdles, qt.Equals, 1)
	c.Assert(dev.Chains, qt.HasLen, 2)
	c.Assert(dev.Chains[1].Extent, qt.Equals, gfx.Extent2D{Width: 640, Height: 480})
	c.Assert(m.Recreations(), qt.Equals, 1)
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestRecreateStopsWhenWindowCloses(t *testing.T) {
	c := qt.New(t)

	for name, minimize := range map[string]func(*gfxtest.Device, *gfxtest.Surface){
		"framebuffer": func(dev *gfxtest.Device, surf *gfxtest.Surface) {
			surf.Resize(gfx.Extent2D{})
		},
		"surface": func(dev *gfxtest.Device, surf *gfxtest.Surface) {
			dev.Support.Capabilities.CurrentExtent = gfx.Extent2D{}
		},
	} {
		c.Run(name, func(c *qt.C) {
			dev := gfxtest.NewDevice()
			surf := gfxtest.NewSurface()
			m := NewChainManager(newPlatform(dev, surf), DefaultConfiguration().Renderer)
			first, err := m.CreateChain(hint)
			c.Assert(err, qt.IsNil)

			minimize(dev, surf)
			surf.Closed = true

			c.Assert(m.Recreate(), qt.Equals, ErrStopped)
			c.Assert(surf.Waits, qt.Equals, 1)
			c.Assert(m.Current(), qt.Equals, first)
			c.Assert(m.Recreations(), qt.Equals, 0)
			c.Assert(dev.WaitIdles, qt.Equals, 0)
			c.Assert(destroyedKinds(dev.Log), qt.HasLen, 0)

			m.DestroyChain(first)
			c.Assert(dev.Live(), qt.Equals, 0)
		})
	}
}

func TestRecreateDrainsBeforeDestroy(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)
	first, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)

	dev.Log = nil
	c.Assert(m.Recreate(), qt.IsNil)
	c.Assert(dev.Log[0], qt.Equals, "wait idle")
	c.Assert(destroyedKinds(dev.Log), qt.DeepEquals, []string{
		"framebuffer", "commands", "pipeline", "renderpass", "view", "swapchain",
	})
	c.Assert(m.Current(), qt.Not(qt.Equals), first)
	c.Assert(m.Current().ID, qt.Not(qt.Equals), first.ID)
}

func TestRecreateImageCountWithinBounds(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)
	_, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)

	bounds := []struct {
		min, max uint32
		expected uint32
	}{
		{2, 3, 3},
		{3, 3, 3},
		{1, 0, 2},
		{4, 4, 4},
		{2, 8, 3},
	}
	for _, b := range bounds {
		dev.Support.Capabilities.MinImageCount = b.min
		dev.Support.Capabilities.MaxImageCount = b.max

		c.Assert(m.Recreate(), qt.IsNil)
		count := m.Current().Descriptor.ImageCount
		c.Assert(count, qt.Equals, b.expected)
		c.Assert(count >= b.min, qt.IsTrue)
		if b.max > 0 {
			c.Assert(count <= b.max, qt.IsTrue)
		}
	}
	c.Assert(dev.Violations, qt.HasLen, 0)
}

func TestRecreateFailsOnLostDevice(t *testing.T) {
	c := qt.New(t)

	dev := gfxtest.NewDevice()
	m := NewChainManager(newPlatform(dev, gfxtest.NewSurface()), DefaultConfiguration().Renderer)
	_, err := m.CreateChain(hint)
	c.Assert(err, qt.IsNil)

	dev.SwapchainErr = gfx.SurfaceLost
	err = m.Recreate()
	c.Assert(errors.Cause(err), qt.Equals, gfx.SurfaceLost)
	c.Assert(m.Current(), qt.IsNil)
	c.Assert(dev.Live(), qt.Equals, 0)
}

func BenchmarkChooseExtent(b *testing.B) {
	caps := gfx.SurfaceCapabilities{
		CurrentExtent:  gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent},
		MinImageExtent: gfx.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: gfx.Extent2D{Width: 4096, Height: 4096},
	}
	size := gfx.Extent2D{Width: 1920, Height: 1080}
	for i := 0; i < b.N; i++ {
		chooseExtent(caps, size, hint)
	}
}
