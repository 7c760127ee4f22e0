// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the backend-neutral contract between the presentation
// core and a rendering backend. Handles are opaque to the core, a backend
// hands them out and is the only one that looks inside.
package gfx

// Opaque backend handles.
type (
	Swapchain     interface{}
	Image         interface{}
	ImageView     interface{}
	RenderPass    interface{}
	Pipeline      interface{}
	Framebuffer   interface{}
	CommandBuffer interface{}
	Semaphore     interface{}
	Fence         interface{}
)

// SwapchainDescriptor is the negotiated description of a presentable image chain.
type SwapchainDescriptor struct {
	ImageCount  uint32
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent2D
}

// Submission describes one batch of prerecorded work against a chain image.
// The batch waits on Wait at the color attachment output stage and signals
// both Signal and Fence when it retires.
type Submission struct {
	Commands CommandBuffer
	Wait     Semaphore
	Signal   Semaphore
	Fence    Fence
}

// RenderTarget is everything the command content provider needs
// to record the commands for a single chain image.
type RenderTarget struct {
	ImageIndex  uint32
	Extent      Extent2D
	RenderPass  RenderPass
	Pipeline    Pipeline
	Framebuffer Framebuffer
}

// SurfaceQuerier reports what a presentation surface supports.
type SurfaceQuerier interface {

	// SurfaceSupport returns current capabilities, formats and present modes.
	SurfaceSupport() (SurfaceSupport, error)
}

// ChainAllocator creates and destroys the presentable image chain
// and every object derived from its format and extent.
type ChainAllocator interface {
	NewSwapchain(desc SwapchainDescriptor) (Swapchain, []Image, error)
	DestroySwapchain(Swapchain)

	NewImageView(img Image, format Format) (ImageView, error)
	DestroyImageView(ImageView)

	NewRenderPass(format Format) (RenderPass, error)
	DestroyRenderPass(RenderPass)

	// NewPipeline creates the graphics pipeline with its viewport
	// and scissor baked to extent.
	NewPipeline(rp RenderPass, extent Extent2D) (Pipeline, error)
	DestroyPipeline(Pipeline)

	NewFramebuffer(rp RenderPass, view ImageView, extent Extent2D) (Framebuffer, error)
	DestroyFramebuffer(Framebuffer)

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers([]CommandBuffer)
}

// Synchronizer owns the CPU/GPU synchronization primitives.
type Synchronizer interface {
	NewSemaphore() (Semaphore, error)
	DestroySemaphore(Semaphore)

	NewFence(signaled bool) (Fence, error)
	DestroyFence(Fence)

	// WaitForFence blocks without a timeout until f is signaled.
	WaitForFence(f Fence) Result

	// ResetFence returns f to the unsignaled state.
	ResetFence(f Fence) Result
}

// Queue is the graphics and present queue pair of a logical device.
type Queue interface {

	// AcquireNextImage returns the index of the next presentable image,
	// signaling available once the image can be written.
	AcquireNextImage(sc Swapchain, available Semaphore) (uint32, Result)

	// Submit enqueues work on the graphics queue.
	Submit(s Submission) Result

	// Present enqueues image index for display once wait is signaled.
	Present(sc Swapchain, index uint32, wait Semaphore) Result

	// WaitIdle blocks until all outstanding device work has finished.
	WaitIdle() Result
}

// Device is the logical device provider the presentation core runs against.
type Device interface {
	SurfaceQuerier
	ChainAllocator
	Synchronizer
	Queue
}

// Recorder is the command content provider. It fills a command buffer
// for a single chain image, the contents are opaque to the core.
type Recorder interface {
	Record(cb CommandBuffer, target RenderTarget) error
}

// Surface is the window-system side of presentation.
type Surface interface {

	// FramebufferSize returns the current drawable size in pixels.
	FramebufferSize() Extent2D

	// TakeResized reports whether the framebuffer was resized since
	// the last call and clears the flag.
	TakeResized() bool

	// WaitEvents blocks until at least one platform event was processed.
	// It returns false once the window is closing.
	WaitEvents() bool
}

// Events is the shutdown signal of the presentation loop.
type Events interface {

	// Poll processes pending platform events and
	// returns false once the loop should stop.
	Poll() bool
}
