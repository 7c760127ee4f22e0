// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sdlwin provides the presentation window on top of SDL2.
// Every function must be called from the main thread.
package sdlwin

import (
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/presenter/gfx"
)

// Init initialises the SDL video subsystem and loads the vulkan library.
// The returned function undoes both.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	return func() {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
	}, nil
}

// ProcAddr returns vkGetInstanceProcAddr of the loaded vulkan library.
func ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// New creates a resizable vulkan window.
func New(title string, width, height int) (*Window, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &Window{window: window}, nil
}

// Window implements gfx.Surface and gfx.Events.
type Window struct {
	window  *sdl.Window
	resized bool
	closed  bool
}

// InstanceExtensions returns the instance extensions presenting to the window requires.
func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface creates a vulkan surface for the window on instance.
func (w *Window) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	surface, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return surface, nil
}

// FramebufferSize implements gfx.Surface.
func (w *Window) FramebufferSize() gfx.Extent2D {
	width, height := w.window.VulkanGetDrawableSize()
	if width < 0 || height < 0 {
		return gfx.Extent2D{}
	}
	return gfx.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// TakeResized implements gfx.Surface.
func (w *Window) TakeResized() bool {
	resized := w.resized
	w.resized = false
	return resized
}

// WaitEvents implements gfx.Surface.
func (w *Window) WaitEvents() bool {
	if !w.closed {
		w.handle(sdl.WaitEvent())
	}
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
	return !w.closed
}

// Interrupt wakes up a WaitEvents or Poll on the main thread with a quit
// event. It is safe to call from any goroutine.
func Interrupt() {
	if _, err := sdl.PushEvent(&sdl.QuitEvent{Type: sdl.QUIT}); err != nil {
		log.WithError(err).Warn("interrupting event loop")
	}
}

// Poll implements gfx.Events.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
	return !w.closed
}

func (w *Window) handle(event sdl.Event) {
	switch et := event.(type) {
	case *sdl.KeyboardEvent:
		if et.Keysym.Sym == sdl.K_ESCAPE {
			w.closed = true
		}
	case *sdl.QuitEvent:
		w.closed = true
	case *sdl.WindowEvent:
		switch et.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
			log.WithFields(log.Fields{
				"width":  et.Data1,
				"height": et.Data2,
			}).Debug("window resized")
			w.resized = true
		case sdl.WINDOWEVENT_CLOSE:
			w.closed = true
		}
	}
}

// Release destroys the window.
func (w *Window) Release() {
	if w.window == nil {
		return
	}
	if err := w.window.Destroy(); err != nil {
		log.WithError(err).Warn("destroying window")
	}
	w.window = nil
}
