// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/presenter/gfx"
)

// NewPresenter creates the frame slots and the first chain
// and returns a presenter ready to Run.
func NewPresenter(p Platform, cfg Configuration) (*Presenter, error) {
	slots, err := NewFrameSlots(p.Device, cfg.Renderer.MaxFramesInFlight)
	if err != nil {
		return nil, err
	}

	chains := NewChainManager(p, cfg.Renderer)
	hint := gfx.Extent2D{Width: cfg.Renderer.ScreenWidth, Height: cfg.Renderer.ScreenHeight}
	if _, err := chains.CreateChain(hint); err != nil {
		slots.Release()
		return nil, err
	}

	return &Presenter{
		device:  p.Device,
		slots:   slots,
		chains:  chains,
		frames:  NewFrameSynchronizer(p, chains, slots),
		counter: NewFrameCounter(cfg.Time),
	}, nil
}

// Presenter is the presentation loop.
type Presenter struct {
	device  gfx.Device
	slots   *FrameSlots
	chains  *ChainManager
	frames  *FrameSynchronizer
	counter *FrameCounter

	released bool
}

// Chains returns the chain manager.
func (p *Presenter) Chains() *ChainManager {
	return p.chains
}

// Frames returns the frame synchronizer.
func (p *Presenter) Frames() *FrameSynchronizer {
	return p.frames
}

// Run renders one frame per successful poll of events until events
// or ctx tell it to stop. A stop, including a window closed while the
// surface had no area, drains the device and releases the presenter.
// A fatal error is returned as is, nothing is released.
func (p *Presenter) Run(ctx context.Context, events gfx.Events) error {
	if p.released {
		return ErrReleased
	}

	for {
		select {
		case <-ctx.Done():
			log.WithError(ctx.Err()).Info("presentation stopped")
			p.Release()
			return nil
		default:
		}

		if !events.Poll() {
			log.Info("presentation stopped")
			p.Release()
			return nil
		}

		presented := p.frames.Presented()
		if err := p.frames.RenderFrame(); err != nil {
			if errors.Cause(err) == ErrStopped {
				log.Info("presentation stopped")
				p.Release()
				return nil
			}
			return err
		}
		if p.frames.Presented() > presented {
			p.counter.Tick()
		}
	}
}

// Release waits for the device to go idle and destroys
// the chain and then the frame slots.
func (p *Presenter) Release() {
	if p.released {
		return
	}
	p.released = true

	if r := p.device.WaitIdle(); r != gfx.Success {
		log.WithError(r).Warn("device did not go idle before release")
	}
	p.chains.DestroyChain(p.chains.Current())
	p.slots.Release()

	log.WithFields(log.Fields{
		"frames":      p.counter.Total(),
		"recreations": p.chains.Recreations(),
	}).Info("presenter released")
}
