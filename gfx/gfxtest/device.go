// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides deterministic in-memory implementations of the
// gfx interfaces. The fake GPU never finishes work on its own: a submission
// only retires when its fence is waited on or the device idles, so every
// missing wait in a caller shows up as a recorded violation.
package gfxtest

import (
	"fmt"

	"github.com/devblok/presenter/gfx"
)

// Handle is the opaque object handed out by the fake device.
type Handle struct {
	Kind string
	ID   int
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

type submission struct {
	image uint32
	done  bool
	fence *fence
}

type fence struct {
	signaled bool
	current  *submission
}

// NewDevice creates a fake device with a permissive default surface:
// 2 to 8 images, an undefined current extent, two formats and two present modes.
func NewDevice() *Device {
	return &Device{
		Support: gfx.SurfaceSupport{
			Capabilities: gfx.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent},
				MinImageExtent: gfx.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: gfx.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []gfx.SurfaceFormat{
				{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
				{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox},
		},
		AcquireResults: make(map[int]gfx.Result),
		PresentResults: make(map[int]gfx.Result),
		SubmitResults:  make(map[int]gfx.Result),
		live:           make(map[*Handle]bool),
		fences:         make(map[*Handle]*fence),
		targets:        make(map[*Handle]uint32),
		lastByImage:    make(map[uint32]*submission),
	}
}

// Device is a recording fake of gfx.Device that also acts as gfx.Recorder.
type Device struct {
	// Support is returned by SurfaceSupport and may be changed between calls.
	Support gfx.SurfaceSupport

	// Scripted results keyed by the zero based call number.
	AcquireResults map[int]gfx.Result
	PresentResults map[int]gfx.Result
	SubmitResults  map[int]gfx.Result

	// SwapchainErr is returned by NewSwapchain when set.
	SwapchainErr error

	// FailRecord makes Record fail when set.
	FailRecord error

	// Log is the ordered list of every call that changed device state.
	Log []string

	// Violations lists every protocol error the device observed.
	Violations []string

	// Chains lists the descriptors of every swapchain created.
	Chains []gfx.SwapchainDescriptor

	// Presented lists the image index of every successful presentation.
	Presented []uint32

	Acquires   int
	Submits    int
	Presents   int
	FenceWaits int
	WaitIdles  int

	// InFlight is the number of submissions that have not retired.
	InFlight    int
	MaxInFlight int

	nextID    int
	live      map[*Handle]bool
	fences    map[*Handle]*fence
	targets   map[*Handle]uint32
	images    []gfx.Image
	nextImage int

	lastByImage map[uint32]*submission
	pending     []*submission
}

func (d *Device) logf(format string, args ...interface{}) {
	d.Log = append(d.Log, fmt.Sprintf(format, args...))
}

func (d *Device) violatef(format string, args ...interface{}) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Device) create(kind string) *Handle {
	d.nextID++
	h := &Handle{Kind: kind, ID: d.nextID}
	d.live[h] = true
	d.logf("create %s", h)
	return h
}

func (d *Device) destroy(kind string, obj interface{}) {
	h, ok := obj.(*Handle)
	if !ok || h == nil {
		d.violatef("destroy %s: foreign handle %v", kind, obj)
		return
	}
	if h.Kind != kind {
		d.violatef("destroy %s: handle is a %s", kind, h)
		return
	}
	if !d.live[h] {
		d.violatef("destroy %s: already destroyed", h)
		return
	}
	delete(d.live, h)
	d.logf("destroy %s", h)
}

// Live returns the number of objects created and not yet destroyed.
func (d *Device) Live() int {
	return len(d.live)
}

// Index returns the position of the first log entry equal to entry, or -1.
func (d *Device) Index(entry string) int {
	for i, e := range d.Log {
		if e == entry {
			return i
		}
	}
	return -1
}

// SurfaceSupport implements gfx.SurfaceQuerier.
func (d *Device) SurfaceSupport() (gfx.SurfaceSupport, error) {
	return d.Support, nil
}

// NewSwapchain implements gfx.ChainAllocator. It creates exactly
// the requested number of images.
func (d *Device) NewSwapchain(desc gfx.SwapchainDescriptor) (gfx.Swapchain, []gfx.Image, error) {
	if d.SwapchainErr != nil {
		return nil, nil, d.SwapchainErr
	}
	if desc.Extent.IsZero() {
		d.violatef("swapchain with zero extent %v", desc.Extent)
	}
	sc := d.create("swapchain")
	d.Chains = append(d.Chains, desc)

	d.images = make([]gfx.Image, desc.ImageCount)
	for i := range d.images {
		d.nextID++
		d.images[i] = &Handle{Kind: "image", ID: d.nextID}
	}
	d.nextImage = 0
	return sc, d.images, nil
}

// DestroySwapchain implements gfx.ChainAllocator.
func (d *Device) DestroySwapchain(sc gfx.Swapchain) {
	d.destroy("swapchain", sc)
}

// NewImageView implements gfx.ChainAllocator.
func (d *Device) NewImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	return d.create("view"), nil
}

// DestroyImageView implements gfx.ChainAllocator.
func (d *Device) DestroyImageView(v gfx.ImageView) {
	d.destroy("view", v)
}

// NewRenderPass implements gfx.ChainAllocator.
func (d *Device) NewRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	return d.create("renderpass"), nil
}

// DestroyRenderPass implements gfx.ChainAllocator.
func (d *Device) DestroyRenderPass(rp gfx.RenderPass) {
	d.destroy("renderpass", rp)
}

// NewPipeline implements gfx.ChainAllocator.
func (d *Device) NewPipeline(rp gfx.RenderPass, extent gfx.Extent2D) (gfx.Pipeline, error) {
	return d.create("pipeline"), nil
}

// DestroyPipeline implements gfx.ChainAllocator.
func (d *Device) DestroyPipeline(p gfx.Pipeline) {
	d.destroy("pipeline", p)
}

// NewFramebuffer implements gfx.ChainAllocator.
func (d *Device) NewFramebuffer(rp gfx.RenderPass, view gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	return d.create("framebuffer"), nil
}

// DestroyFramebuffer implements gfx.ChainAllocator.
func (d *Device) DestroyFramebuffer(fb gfx.Framebuffer) {
	d.destroy("framebuffer", fb)
}

// AllocateCommandBuffers implements gfx.ChainAllocator.
func (d *Device) AllocateCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	cbs := make([]gfx.CommandBuffer, count)
	for i := range cbs {
		cbs[i] = d.create("commands")
	}
	return cbs, nil
}

// FreeCommandBuffers implements gfx.ChainAllocator.
func (d *Device) FreeCommandBuffers(cbs []gfx.CommandBuffer) {
	for _, cb := range cbs {
		d.destroy("commands", cb)
		delete(d.targets, cb.(*Handle))
	}
}

// Record implements gfx.Recorder.
func (d *Device) Record(cb gfx.CommandBuffer, target gfx.RenderTarget) error {
	if d.FailRecord != nil {
		return d.FailRecord
	}
	h := cb.(*Handle)
	d.targets[h] = target.ImageIndex
	d.logf("record %s image %d", h, target.ImageIndex)
	return nil
}

// NewSemaphore implements gfx.Synchronizer.
func (d *Device) NewSemaphore() (gfx.Semaphore, error) {
	return d.create("semaphore"), nil
}

// DestroySemaphore implements gfx.Synchronizer.
func (d *Device) DestroySemaphore(s gfx.Semaphore) {
	d.destroy("semaphore", s)
}

// NewFence implements gfx.Synchronizer.
func (d *Device) NewFence(signaled bool) (gfx.Fence, error) {
	h := d.create("fence")
	d.fences[h] = &fence{signaled: signaled}
	return h, nil
}

// DestroyFence implements gfx.Synchronizer.
func (d *Device) DestroyFence(f gfx.Fence) {
	if st := d.fences[f.(*Handle)]; st != nil && st.current != nil && !st.current.done {
		d.violatef("destroy %s while its submission is pending", f)
	}
	d.destroy("fence", f)
}

// WaitForFence implements gfx.Synchronizer. Waiting retires the
// submission the fence guards.
func (d *Device) WaitForFence(f gfx.Fence) gfx.Result {
	h := f.(*Handle)
	st, ok := d.fences[h]
	if !ok {
		d.violatef("wait on unknown fence %v", f)
		return gfx.Failure
	}
	d.FenceWaits++
	d.logf("wait %s", h)
	if st.signaled {
		return gfx.Success
	}
	if st.current == nil || st.current.done {
		d.violatef("wait on %s would never return", h)
		return gfx.Failure
	}
	d.retire(st.current)
	return gfx.Success
}

// ResetFence implements gfx.Synchronizer.
func (d *Device) ResetFence(f gfx.Fence) gfx.Result {
	h := f.(*Handle)
	st := d.fences[h]
	if st.current != nil && !st.current.done {
		d.violatef("reset %s while its submission is pending", h)
	}
	st.signaled = false
	d.logf("reset %s", h)
	return gfx.Success
}

func (d *Device) retire(s *submission) {
	if s.done {
		return
	}
	s.done = true
	if s.fence.current == s {
		s.fence.signaled = true
	}
	d.InFlight--
}

// AcquireNextImage implements gfx.Queue. Images are handed out round robin.
func (d *Device) AcquireNextImage(sc gfx.Swapchain, available gfx.Semaphore) (uint32, gfx.Result) {
	n := d.Acquires
	d.Acquires++
	if !d.live[sc.(*Handle)] {
		d.violatef("acquire from destroyed %v", sc)
	}
	result, scripted := d.AcquireResults[n]
	if scripted && !(result == gfx.Success || result == gfx.Suboptimal) {
		d.logf("acquire %v", result)
		return 0, result
	}
	idx := uint32(d.nextImage % len(d.images))
	d.nextImage++
	d.logf("acquire image %d", idx)
	return idx, result
}

// Submit implements gfx.Queue.
func (d *Device) Submit(s gfx.Submission) gfx.Result {
	n := d.Submits
	d.Submits++
	if result, ok := d.SubmitResults[n]; ok && result != gfx.Success {
		return result
	}

	cb := s.Commands.(*Handle)
	image, ok := d.targets[cb]
	if !ok {
		d.violatef("submit of unrecorded %s", cb)
	}
	if prior := d.lastByImage[image]; prior != nil && !prior.done {
		d.violatef("image %d submitted while its prior submission is pending", image)
	}

	h := s.Fence.(*Handle)
	st := d.fences[h]
	if st.signaled {
		d.violatef("submit with signaled %s", h)
	}
	sub := &submission{image: image, fence: st}
	st.current = sub
	d.lastByImage[image] = sub
	d.pending = append(d.pending, sub)

	d.InFlight++
	if d.InFlight > d.MaxInFlight {
		d.MaxInFlight = d.InFlight
	}
	d.logf("submit %s image %d fence %s", cb, image, h)
	return gfx.Success
}

// Present implements gfx.Queue.
func (d *Device) Present(sc gfx.Swapchain, index uint32, wait gfx.Semaphore) gfx.Result {
	n := d.Presents
	d.Presents++
	if result, ok := d.PresentResults[n]; ok && result != gfx.Success {
		d.logf("present image %d %v", index, result)
		if result == gfx.Suboptimal {
			d.Presented = append(d.Presented, index)
		}
		return result
	}
	d.Presented = append(d.Presented, index)
	d.logf("present image %d", index)
	return gfx.Success
}

// WaitIdle implements gfx.Queue. Every pending submission retires.
func (d *Device) WaitIdle() gfx.Result {
	d.WaitIdles++
	for _, sub := range d.pending {
		d.retire(sub)
	}
	d.pending = d.pending[:0]
	d.logf("wait idle")
	return gfx.Success
}
