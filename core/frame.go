// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/presenter/gfx"
)

// FrameState is where a frame slot is in the per-frame protocol.
type FrameState int

// Frame states, in protocol order.
const (
	FrameIdle FrameState = iota
	FrameWaitingForSlot
	FrameAcquiring
	FrameWaitingForImage
	FrameSubmitted
	FramePresented
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameWaitingForSlot:
		return "waiting-for-slot"
	case FrameAcquiring:
		return "acquiring"
	case FrameWaitingForImage:
		return "waiting-for-image"
	case FrameSubmitted:
		return "submitted"
	case FramePresented:
		return "presented"
	}
	return fmt.Sprintf("frame-state(%d)", int(s))
}

// NewFrameSynchronizer creates a synchronizer that renders onto the
// current chain of chains using the given frame slots.
func NewFrameSynchronizer(p Platform, chains *ChainManager, slots *FrameSlots) *FrameSynchronizer {
	return &FrameSynchronizer{
		device:  p.Device,
		surface: p.Surface,
		chains:  chains,
		slots:   slots,
		states:  make([]FrameState, slots.Len()),
	}
}

// FrameSynchronizer runs the steady state per-frame protocol and decides
// when the chain has to be recreated.
type FrameSynchronizer struct {
	device  gfx.Device
	surface gfx.Surface
	chains  *ChainManager
	slots   *FrameSlots

	slot   int
	states []FrameState

	// chain is the generation owners refers to
	chain  *Chain
	owners []imageOwner

	frames    uint64
	presented uint64
}

// Slot returns the index of the slot the next frame uses.
func (f *FrameSynchronizer) Slot() int {
	return f.slot
}

// State returns the protocol state of slot.
func (f *FrameSynchronizer) State(slot int) FrameState {
	return f.states[slot]
}

// Frames returns the number of frame iterations, skipped ones included.
func (f *FrameSynchronizer) Frames() uint64 {
	return f.frames
}

// Presented returns the number of frames handed to the presentation engine.
func (f *FrameSynchronizer) Presented() uint64 {
	return f.presented
}

// RenderFrame renders and presents one frame. Out of date and suboptimal
// chains are recreated internally. The returned error is fatal unless it
// is ErrStopped, which reports the window closed while the surface had no area.
func (f *FrameSynchronizer) RenderFrame() error {
	chain := f.chains.Current()
	if chain == nil {
		return ErrNoChain
	}
	if chain != f.chain {
		f.track(chain)
	}

	slot := &f.slots.slots[f.slot]
	f.frames++

	f.states[f.slot] = FrameWaitingForSlot
	if r := f.device.WaitForFence(slot.inFlight); r != gfx.Success {
		return f.fail("wait for slot", r)
	}

	f.states[f.slot] = FrameAcquiring
	index, r := f.device.AcquireNextImage(chain.swapchain, slot.imageAvailable)
	if !r.Recoverable() {
		return f.fail("acquire", r)
	}
	if r == gfx.OutOfDate {
		log.WithFields(log.Fields{"chain": chain.ID.String(), "slot": f.slot}).Debug("chain out of date, frame skipped")
		f.states[f.slot] = FrameIdle
		f.advance()
		return f.recreate()
	}

	f.states[f.slot] = FrameWaitingForImage
	if owner := f.owners[index]; owner.claimed {
		if r := f.device.WaitForFence(f.slots.slots[owner.slot].inFlight); r != gfx.Success {
			return f.fail("wait for image", r)
		}
	}
	f.owners[index] = imageOwner{claimed: true, slot: f.slot}

	if r := f.device.ResetFence(slot.inFlight); r != gfx.Success {
		return f.fail("reset fence", r)
	}
	r = f.device.Submit(gfx.Submission{
		Commands: chain.images[index].commands,
		Wait:     slot.imageAvailable,
		Signal:   slot.renderFinished,
		Fence:    slot.inFlight,
	})
	if r != gfx.Success {
		return f.fail("submit", r)
	}
	f.states[f.slot] = FrameSubmitted

	r = f.device.Present(chain.swapchain, index, slot.renderFinished)
	resized := f.surface.TakeResized()
	if !r.Recoverable() {
		return f.fail("present", r)
	}
	if r != gfx.OutOfDate {
		f.presented++
	}
	f.states[f.slot] = FramePresented

	log.WithFields(log.Fields{"slot": f.slot, "image": index}).Debug("frame presented")
	f.advance()

	if r != gfx.Success || resized {
		log.WithFields(log.Fields{"chain": chain.ID.String(), "result": r.Error(), "resized": resized}).Debug("chain invalidated")
		return f.recreate()
	}
	return nil
}

func (f *FrameSynchronizer) advance() {
	f.slot = (f.slot + 1) % f.slots.Len()
}

// track starts following a new chain generation. No image of it has been submitted to.
func (f *FrameSynchronizer) track(c *Chain) {
	f.chain = c
	f.owners = make([]imageOwner, c.Len())
}

// recreate replaces the chain. A pending resize is consumed
// since the new chain already has the new size.
func (f *FrameSynchronizer) recreate() error {
	f.surface.TakeResized()
	if err := f.chains.Recreate(); err != nil {
		if err != ErrStopped {
			log.WithError(err).Error("chain recreation failed")
		}
		return err
	}
	f.track(f.chains.Current())
	return nil
}

func (f *FrameSynchronizer) fail(op string, r gfx.Result) error {
	err := &PresentationError{Op: op, Result: r}
	log.WithFields(log.Fields{"slot": f.slot, "state": f.states[f.slot].String()}).WithError(err).Error("frame failed")
	return err
}
