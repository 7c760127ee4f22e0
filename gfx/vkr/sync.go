// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"math"

	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
)

// NewSemaphore implements gfx.Synchronizer.
func (d *Device) NewSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	return semaphore, nil
}

// DestroySemaphore implements gfx.Synchronizer.
func (d *Device) DestroySemaphore(s gfx.Semaphore) {
	vk.DestroySemaphore(d.device, s.(vk.Semaphore), nil)
}

// NewFence implements gfx.Synchronizer.
func (d *Device) NewFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.New("vk.CreateFence(): " + err.Error())
	}
	return fence, nil
}

// DestroyFence implements gfx.Synchronizer.
func (d *Device) DestroyFence(f gfx.Fence) {
	vk.DestroyFence(d.device, f.(vk.Fence), nil)
}

// WaitForFence implements gfx.Synchronizer.
func (d *Device) WaitForFence(f gfx.Fence) gfx.Result {
	return Result(vk.WaitForFences(d.device, 1, []vk.Fence{f.(vk.Fence)}, vk.True, math.MaxUint64))
}

// ResetFence implements gfx.Synchronizer.
func (d *Device) ResetFence(f gfx.Fence) gfx.Result {
	return Result(vk.ResetFences(d.device, 1, []vk.Fence{f.(vk.Fence)}))
}

// AcquireNextImage implements gfx.Queue.
func (d *Device) AcquireNextImage(sc gfx.Swapchain, available gfx.Semaphore) (uint32, gfx.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(d.device, sc.(vk.Swapchain), math.MaxUint64, available.(vk.Semaphore), nil, &imageIndex)
	return imageIndex, Result(res)
}

// Submit implements gfx.Queue.
func (d *Device) Submit(s gfx.Submission) gfx.Result {
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.Wait.(vk.Semaphore)},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{s.Commands.(vk.CommandBuffer)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.Signal.(vk.Semaphore)},
	}}
	return Result(vk.QueueSubmit(d.graphicsQueue, 1, submit, s.Fence.(vk.Fence)))
}

// Present implements gfx.Queue.
func (d *Device) Present(sc gfx.Swapchain, index uint32, wait gfx.Semaphore) gfx.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(vk.Semaphore)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.(vk.Swapchain)},
		PImageIndices:      []uint32{index},
	}
	return Result(vk.QueuePresent(d.presentQueue, &presentInfo))
}

// WaitIdle implements gfx.Queue.
func (d *Device) WaitIdle() gfx.Result {
	return Result(vk.DeviceWaitIdle(d.device))
}
