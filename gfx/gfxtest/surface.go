// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import "github.com/devblok/presenter/gfx"

// NewSurface creates a surface that reports the given sizes in order.
// The reported size moves to the next one every time events are waited on,
// the last size sticks.
func NewSurface(sizes ...gfx.Extent2D) *Surface {
	if len(sizes) == 0 {
		sizes = []gfx.Extent2D{{Width: 800, Height: 600}}
	}
	return &Surface{sizes: sizes}
}

// Surface is a scripted gfx.Surface.
type Surface struct {
	// Resized is the pending resize notification.
	Resized bool

	// Waits counts WaitEvents calls.
	Waits int

	// Closed makes WaitEvents report a closing window.
	Closed bool

	// OnWait runs on every WaitEvents call with the one based wait count.
	OnWait func(n int)

	sizes []gfx.Extent2D
	pos   int
}

// FramebufferSize implements gfx.Surface.
func (s *Surface) FramebufferSize() gfx.Extent2D {
	return s.sizes[s.pos]
}

// TakeResized implements gfx.Surface.
func (s *Surface) TakeResized() bool {
	resized := s.Resized
	s.Resized = false
	return resized
}

// WaitEvents implements gfx.Surface.
func (s *Surface) WaitEvents() bool {
	s.Waits++
	if s.pos < len(s.sizes)-1 {
		s.pos++
	}
	if s.OnWait != nil {
		s.OnWait(s.Waits)
	}
	return !s.Closed
}

// Resize queues a resize notification and a new size.
func (s *Surface) Resize(size gfx.Extent2D) {
	s.sizes = append(s.sizes[:s.pos+1], size)
	s.pos++
	s.Resized = true
}

// Ticks is a gfx.Events that lets the loop run a fixed number of iterations.
type Ticks struct {
	Remaining int

	// OnPoll runs before every poll that lets the loop continue,
	// with the zero based iteration number.
	OnPoll func(n int)

	n int
}

// Poll implements gfx.Events.
func (t *Ticks) Poll() bool {
	if t.Remaining <= 0 {
		return false
	}
	if t.OnPoll != nil {
		t.OnPoll(t.n)
	}
	t.n++
	t.Remaining--
	return true
}
