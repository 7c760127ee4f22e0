// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
)

// NewSwapchain implements gfx.ChainAllocator.
func (d *Device) NewSwapchain(desc gfx.SwapchainDescriptor) (gfx.Swapchain, []gfx.Image, error) {
	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.surface, &capabilities)); err != nil {
		return nil, nil, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	capabilities.Deref()

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    desc.ImageCount,
		ImageFormat:      vk.Format(desc.Format.Format),
		ImageColorSpace:  vk.ColorSpace(desc.Format.ColorSpace),
		ImageExtent:      toExtent(desc.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(desc.PresentMode),
		Clipped:          vk.True,
	}
	if d.families.Shared() {
		scci.ImageSharingMode = vk.SharingModeExclusive
	} else {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{d.families.Graphics, d.families.Present}
	}

	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(d.device, &scci, nil, &swapchain); res != vk.Success {
		return nil, nil, errors.Wrap(Result(res), "vk.CreateSwapchain()")
	}

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &numImages, nil)); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return nil, nil, errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	vkImages := make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &numImages, vkImages)); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return nil, nil, errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}

	images := make([]gfx.Image, len(vkImages))
	for i, img := range vkImages {
		images[i] = img
	}
	return swapchain, images, nil
}

// DestroySwapchain implements gfx.ChainAllocator. Images go with it.
func (d *Device) DestroySwapchain(sc gfx.Swapchain) {
	vk.DestroySwapchain(d.device, sc.(vk.Swapchain), nil)
}

// NewImageView implements gfx.ChainAllocator.
func (d *Device) NewImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(vk.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &imageView)); err != nil {
		return nil, errors.New("vk.CreateImageView(): " + err.Error())
	}
	return imageView, nil
}

// DestroyImageView implements gfx.ChainAllocator.
func (d *Device) DestroyImageView(v gfx.ImageView) {
	vk.DestroyImageView(d.device, v.(vk.ImageView), nil)
}

// NewFramebuffer implements gfx.ChainAllocator.
func (d *Device) NewFramebuffer(rp gfx.RenderPass, view gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	attachments := []vk.ImageView{view.(vk.ImageView)}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.(vk.RenderPass),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
		return nil, errors.New("vk.CreateFramebuffer(): " + err.Error())
	}
	return framebuffer, nil
}

// DestroyFramebuffer implements gfx.ChainAllocator.
func (d *Device) DestroyFramebuffer(fb gfx.Framebuffer) {
	vk.DestroyFramebuffer(d.device, fb.(vk.Framebuffer), nil)
}

// AllocateCommandBuffers implements gfx.ChainAllocator.
func (d *Device) AllocateCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, commandBuffers)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}

	cbs := make([]gfx.CommandBuffer, count)
	for i, cb := range commandBuffers {
		cbs[i] = cb
	}
	return cbs, nil
}

// FreeCommandBuffers implements gfx.ChainAllocator.
func (d *Device) FreeCommandBuffers(cbs []gfx.CommandBuffer) {
	commandBuffers := make([]vk.CommandBuffer, len(cbs))
	for i, cb := range cbs {
		commandBuffers[i] = cb.(vk.CommandBuffer)
	}
	vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(commandBuffers)), commandBuffers)
}
