// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/presenter/gfx"
)

// Chain is one generation of the presentable image chain together
// with everything derived from its format and extent.
type Chain struct {
	// ID identifies this generation in logs.
	ID uuid.UUID

	// Descriptor is what was negotiated with the surface.
	Descriptor gfx.SwapchainDescriptor

	swapchain  gfx.Swapchain
	renderPass gfx.RenderPass
	pipeline   gfx.Pipeline
	images     []chainImage
	commands   []gfx.CommandBuffer
}

// Len returns N, the number of images in the chain.
func (c *Chain) Len() int {
	return len(c.images)
}

// Extent returns the extent every image of the chain has.
func (c *Chain) Extent() gfx.Extent2D {
	return c.Descriptor.Extent
}

func (c *Chain) fields() log.Fields {
	return log.Fields{
		"chain":       c.ID.String(),
		"images":      c.Descriptor.ImageCount,
		"extent":      c.Descriptor.Extent.String(),
		"format":      c.Descriptor.Format.Format.String(),
		"presentMode": c.Descriptor.PresentMode.String(),
	}
}

// NewChainManager creates a chain manager. No chain exists
// until CreateChain is called.
func NewChainManager(p Platform, cfg RendererConfiguration) *ChainManager {
	return &ChainManager{
		device:   p.Device,
		surface:  p.Surface,
		recorder: p.Recorder,
		cfg:      cfg,
	}
}

// ChainManager owns the presentable image chain: it negotiates,
// creates, destroys and recreates it.
type ChainManager struct {
	device   gfx.Device
	surface  gfx.Surface
	recorder gfx.Recorder
	cfg      RendererConfiguration

	current     *Chain
	recreations int
}

// Current returns the live chain or nil.
func (m *ChainManager) Current() *Chain {
	return m.current
}

// Recreations returns how many times Recreate replaced the chain.
func (m *ChainManager) Recreations() int {
	return m.recreations
}

// CreateChain negotiates a chain with the surface and creates it along with
// its views, render pass, pipeline, framebuffers and recorded command buffers.
// hint is used as the size when the surface leaves the extent to the
// swapchain and the framebuffer reports no size. The new chain becomes current.
func (m *ChainManager) CreateChain(hint gfx.Extent2D) (*Chain, error) {
	if m.current != nil {
		return nil, chainError("create", errors.New("previous chain was not destroyed"))
	}

	support, err := m.device.SurfaceSupport()
	if err != nil {
		return nil, chainError("surface support", err)
	}
	if len(support.Formats) == 0 {
		return nil, chainError("surface format", ErrNoSurfaceFormats)
	}
	if len(support.PresentModes) == 0 {
		return nil, chainError("present mode", ErrNoPresentModes)
	}

	extent, err := chooseExtent(support.Capabilities, m.surface.FramebufferSize(), hint)
	if err != nil {
		return nil, chainError("extent", err)
	}

	desc := gfx.SwapchainDescriptor{
		ImageCount:  imageCount(support.Capabilities),
		Format:      chooseSurfaceFormat(support.Formats, m.cfg.PreferredFormat),
		PresentMode: choosePresentMode(support.PresentModes, m.cfg.PreferredPresentMode),
		Extent:      extent,
	}

	sc, images, err := m.device.NewSwapchain(desc)
	if err != nil {
		return nil, chainError("swapchain", err)
	}

	chain := &Chain{
		ID:         uuid.New(),
		Descriptor: desc,
		swapchain:  sc,
		images:     make([]chainImage, len(images)),
	}
	// the platform may hand out more images than requested
	chain.Descriptor.ImageCount = uint32(len(images))
	for i, img := range images {
		chain.images[i].image = img
	}

	if err := m.createDerived(chain); err != nil {
		m.release(chain)
		return nil, err
	}

	m.current = chain
	log.WithFields(chain.fields()).Info("chain created")
	return chain, nil
}

func (m *ChainManager) createDerived(c *Chain) error {
	format := c.Descriptor.Format.Format
	extent := c.Descriptor.Extent

	var err error
	for i := range c.images {
		if c.images[i].view, err = m.device.NewImageView(c.images[i].image, format); err != nil {
			return chainError("image view", err)
		}
	}

	if c.renderPass, err = m.device.NewRenderPass(format); err != nil {
		return chainError("render pass", err)
	}

	if c.pipeline, err = m.device.NewPipeline(c.renderPass, extent); err != nil {
		return chainError("pipeline", err)
	}

	for i := range c.images {
		if c.images[i].framebuffer, err = m.device.NewFramebuffer(c.renderPass, c.images[i].view, extent); err != nil {
			return chainError("framebuffer", err)
		}
	}

	if c.commands, err = m.device.AllocateCommandBuffers(len(c.images)); err != nil {
		return chainError("command buffers", err)
	}
	for i := range c.images {
		c.images[i].commands = c.commands[i]
		target := gfx.RenderTarget{
			ImageIndex:  uint32(i),
			Extent:      extent,
			RenderPass:  c.renderPass,
			Pipeline:    c.pipeline,
			Framebuffer: c.images[i].framebuffer,
		}
		if err := m.recorder.Record(c.commands[i], target); err != nil {
			return chainError("record commands", err)
		}
	}
	return nil
}

// DestroyChain releases framebuffers, command buffers, pipeline, render pass,
// image views and finally the swapchain. It is safe to call with nil
// and to call more than once. The device must not be using the chain.
func (m *ChainManager) DestroyChain(c *Chain) {
	if c == nil {
		return
	}
	m.release(c)
	if c == m.current {
		m.current = nil
	}
	log.WithFields(c.fields()).Info("chain destroyed")
}

func (m *ChainManager) release(c *Chain) {
	for i := range c.images {
		if c.images[i].framebuffer != nil {
			m.device.DestroyFramebuffer(c.images[i].framebuffer)
			c.images[i].framebuffer = nil
		}
	}
	if c.commands != nil {
		m.device.FreeCommandBuffers(c.commands)
		c.commands = nil
		for i := range c.images {
			c.images[i].commands = nil
		}
	}
	if c.pipeline != nil {
		m.device.DestroyPipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.renderPass != nil {
		m.device.DestroyRenderPass(c.renderPass)
		c.renderPass = nil
	}
	for i := range c.images {
		if c.images[i].view != nil {
			m.device.DestroyImageView(c.images[i].view)
			c.images[i].view = nil
		}
	}
	if c.swapchain != nil {
		m.device.DestroySwapchain(c.swapchain)
		c.swapchain = nil
	}
}

// Recreate replaces the current chain. It blocks, pumping platform events,
// while either the framebuffer or the surface reports no area, then waits
// for the device to go idle before anything is destroyed. If the window
// closes while waiting, ErrStopped is returned and the current chain is kept.
func (m *ChainManager) Recreate() error {
	size, err := m.awaitSurfaceArea()
	if err != nil {
		return err
	}

	if r := m.device.WaitIdle(); r != gfx.Success {
		return &PresentationError{Op: "wait idle", Result: r}
	}

	m.DestroyChain(m.current)
	chain, err := m.CreateChain(size)
	if err != nil {
		return err
	}

	m.recreations++
	log.WithFields(chain.fields()).WithField("recreations", m.recreations).Info("chain recreated")
	return nil
}

func (m *ChainManager) awaitSurfaceArea() (gfx.Extent2D, error) {
	for {
		size := m.surface.FramebufferSize()
		if !size.IsZero() {
			support, err := m.device.SurfaceSupport()
			if err != nil {
				return gfx.Extent2D{}, chainError("surface support", err)
			}
			current := support.Capabilities.CurrentExtent
			if !current.Defined() || !current.IsZero() {
				return size, nil
			}
			size = current
		}
		log.WithField("extent", size.String()).Debug("waiting for surface area")
		if !m.surface.WaitEvents() {
			return gfx.Extent2D{}, ErrStopped
		}
	}
}

// chooseSurfaceFormat picks preferred if supported, otherwise the first format.
func chooseSurfaceFormat(formats []gfx.SurfaceFormat, preferred gfx.SurfaceFormat) gfx.SurfaceFormat {
	for _, f := range formats {
		if f == preferred {
			return f
		}
	}
	return formats[0]
}

// choosePresentMode picks preferred if supported, otherwise FIFO which every surface supports.
func choosePresentMode(modes []gfx.PresentMode, preferred gfx.PresentMode) gfx.PresentMode {
	for _, m := range modes {
		if m == preferred {
			return m
		}
	}
	return gfx.PresentModeFifo
}

func chooseExtent(caps gfx.SurfaceCapabilities, framebuffer, hint gfx.Extent2D) (gfx.Extent2D, error) {
	if caps.CurrentExtent.Defined() {
		if caps.CurrentExtent.IsZero() {
			return gfx.Extent2D{}, ErrZeroExtent
		}
		return caps.CurrentExtent, nil
	}

	size := framebuffer
	if size.IsZero() {
		size = hint
	}
	if size.IsZero() {
		return gfx.Extent2D{}, ErrZeroExtent
	}
	return size.Clamp(caps.MinImageExtent, caps.MaxImageExtent), nil
}

// imageCount requests one image over the minimum, bounded by the maximum when there is one.
func imageCount(caps gfx.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}
