// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
)

// frameSlot is one of the K reusable synchronization contexts.
type frameSlot struct {
	imageAvailable gfx.Semaphore
	renderFinished gfx.Semaphore
	inFlight       gfx.Fence
}

// NewFrameSlots creates k frame slots. Every fence starts signaled
// so the first wait on each slot returns immediately.
func NewFrameSlots(device gfx.Synchronizer, k int) (*FrameSlots, error) {
	if k < 1 {
		return nil, errors.Errorf("frames in flight must be at least 1, got %d", k)
	}

	s := &FrameSlots{
		device: device,
		slots:  make([]frameSlot, k),
	}
	for i := range s.slots {
		slot := &s.slots[i]

		var err error
		if slot.imageAvailable, err = device.NewSemaphore(); err != nil {
			s.Release()
			return nil, errors.Wrap(err, "image available semaphore")
		}
		if slot.renderFinished, err = device.NewSemaphore(); err != nil {
			s.Release()
			return nil, errors.Wrap(err, "render finished semaphore")
		}
		if slot.inFlight, err = device.NewFence(true); err != nil {
			s.Release()
			return nil, errors.Wrap(err, "in flight fence")
		}
	}
	return s, nil
}

// FrameSlots holds the per-slot synchronization objects.
// They live as long as the frame synchronizer and survive chain recreation.
type FrameSlots struct {
	device gfx.Synchronizer
	slots  []frameSlot
}

// Len returns K, the number of slots.
func (s *FrameSlots) Len() int {
	return len(s.slots)
}

// Release destroys every object created so far. The device must be idle.
func (s *FrameSlots) Release() {
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.inFlight != nil {
			s.device.DestroyFence(slot.inFlight)
			slot.inFlight = nil
		}
		if slot.renderFinished != nil {
			s.device.DestroySemaphore(slot.renderFinished)
			slot.renderFinished = nil
		}
		if slot.imageAvailable != nil {
			s.device.DestroySemaphore(slot.imageAvailable)
			slot.imageAvailable = nil
		}
	}
}

// chainImage is everything derived from a single presentable image.
type chainImage struct {
	image       gfx.Image
	view        gfx.ImageView
	framebuffer gfx.Framebuffer
	commands    gfx.CommandBuffer
}

// imageOwner tells which slot last submitted work against an image.
// An unclaimed image has never been submitted to since the chain was created.
type imageOwner struct {
	claimed bool
	slot    int
}
