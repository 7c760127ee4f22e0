// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
)

// DefaultClearColor is the color a frame starts from.
var DefaultClearColor = mgl32.Vec4{0.05, 0.05, 0.05, 1.0}

// NewRecorder returns a recorder that clears to DefaultClearColor
// and draws a single triangle out of the vertex shader.
func NewRecorder() *Recorder {
	return &Recorder{
		ClearColor: DefaultClearColor,
	}
}

// Recorder implements gfx.Recorder for the vulkan device.
type Recorder struct {
	ClearColor mgl32.Vec4
}

// Record implements gfx.Recorder.
func (r *Recorder) Record(cb gfx.CommandBuffer, target gfx.RenderTarget) error {
	commandBuffer := cb.(vk.CommandBuffer)
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		return errors.Errorf("vk.BeginCommandBuffer()[%d]: %s", target.ImageIndex, err.Error())
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(r.ClearColor[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  target.RenderPass.(vk.RenderPass),
		Framebuffer: target.Framebuffer.(vk.Framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: toExtent(target.Extent),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(commandBuffer, &rpbi, vk.SubpassContentsInline)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, target.Pipeline.(*pipeline).pipeline)
	vk.CmdDraw(commandBuffer, 3, 1, 0, 0)
	vk.CmdEndRenderPass(commandBuffer)

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return errors.Errorf("vk.EndCommandBuffer()[%d]: %s", target.ImageIndex, err.Error())
	}
	return nil
}
