// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"math"
)

// UndefinedExtent is reported as the current extent by surfaces
// whose size is decided by the swapchain.
const UndefinedExtent = math.MaxUint32

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// Defined reports whether the extent carries a real size.
func (e Extent2D) Defined() bool {
	return e.Width != UndefinedExtent
}

// Clamp clamps each dimension into [min, max].
func (e Extent2D) Clamp(min, max Extent2D) Extent2D {
	return Extent2D{
		Width:  clamp(e.Width, min.Width, max.Width),
		Height: clamp(e.Height, min.Height, max.Height),
	}
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

func clamp(v, min, max uint32) uint32 {
	if v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}

// Format is a pixel format. Values match the Vulkan enumeration.
type Format int32

// Formats the core knows by name.
const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8Srgb  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8Srgb:
		return "R8G8B8A8_SRGB"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_SRGB"
	}
	return fmt.Sprintf("format(%d)", int32(f))
}

// ColorSpace is a presentation color space. Values match the Vulkan enumeration.
type ColorSpace int32

// ColorSpaceSrgbNonlinear is the only color space every surface supports.
const ColorSpaceSrgbNonlinear ColorSpace = 0

// SurfaceFormat pairs a format with the color space it is presented in.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is a presentation mode. Values match the Vulkan enumeration.
type PresentMode int32

// Present modes.
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return fmt.Sprintf("present-mode(%d)", int32(p))
}

// SurfaceCapabilities are the limits a surface places on a swapchain.
// MaxImageCount of zero means there is no upper limit.
type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// SurfaceSupport is everything a surface supports for a given device.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// Result is the outcome of a device operation.
type Result int32

// Results. Suboptimal and OutOfDate are the only non-success results
// that presentation recovers from.
const (
	Success Result = iota
	Suboptimal
	OutOfDate
	SurfaceLost
	DeviceLost
	Failure
)

// Error implements error.
func (r Result) Error() string {
	switch r {
	case Success:
		return "success"
	case Suboptimal:
		return "suboptimal"
	case OutOfDate:
		return "out of date"
	case SurfaceLost:
		return "surface lost"
	case DeviceLost:
		return "device lost"
	}
	return "failure"
}

// Recoverable reports whether presentation can continue after r.
func (r Result) Recoverable() bool {
	return r == Success || r == Suboptimal || r == OutOfDate
}
