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

func newShaderModule(device vk.Device, shader gfx.Shader) (shaderModule, error) {
	if shader.Type == gfx.UnknownShaderType {
		return shaderModule{}, errors.Errorf("shader %s has no known stage", shader.Name)
	}
	if len(shader.Code) == 0 || len(shader.Code)%4 != 0 {
		return shaderModule{}, errors.Errorf("shader %s.%s is not SPIR-V, %d bytes", shader.Name, shader.Type, len(shader.Code))
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(shader.Code)),
		PCode:    SliceUint32(shader.Code),
	}

	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &module)); err != nil {
		return shaderModule{}, errors.Errorf("vk.CreateShaderModule(%s.%s): %s", shader.Name, shader.Type, err.Error())
	}

	return shaderModule{
		name:       shader.Name,
		shaderType: shader.Type,
		device:     device,
		module:     module,
	}, nil
}

// shaderModule is a Vulkan specific shader
type shaderModule struct {
	name       string
	shaderType gfx.ShaderType
	device     vk.Device
	module     vk.ShaderModule
}

func (s shaderModule) stage() vk.ShaderStageFlagBits {
	if s.shaderType == gfx.VertexShaderType {
		return vk.ShaderStageVertexBit
	}
	return vk.ShaderStageFragmentBit
}

// Release destroys the shader module
func (s shaderModule) Release() {
	vk.DestroyShaderModule(s.device, s.module, nil)
}
