// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the vulkan renderer.
package vkr

import (
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/presenter/gfx"
)

// Result converts a vulkan result into a backend-neutral one.
func Result(res vk.Result) gfx.Result {
	switch res {
	case vk.Success:
		return gfx.Success
	case vk.Suboptimal:
		return gfx.Suboptimal
	case vk.ErrorOutOfDate:
		return gfx.OutOfDate
	case vk.ErrorSurfaceLost:
		return gfx.SurfaceLost
	case vk.ErrorDeviceLost:
		return gfx.DeviceLost
	}
	return gfx.Failure
}

func toExtent(e gfx.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func fromExtent(e vk.Extent2D) gfx.Extent2D {
	e.Deref()
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer((*sliceHeader)(unsafe.Pointer(&data)).Data))[:len(data)/4]
}

func safeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := []string{}
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}
