// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"path"
	"strings"
)

// ShaderSuffix is carried by every compiled shader file.
const ShaderSuffix = ".spv"

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	}
	return "unknown"
}

// Shader is a compiled SPIR-V shader ready for a backend.
type Shader struct {
	Name string
	Type ShaderType
	Code []byte
}

// ParseShaderName splits a compiled shader file name. It is important
// that the file name does not contain more than two dots, the first is
// always the name of the shader, second is the stage and the last one
// ensures the shader is compiled (only compiled shaders end in .spv).
func ParseShaderName(file string) (string, ShaderType) {
	base := path.Base(file)
	if !strings.HasSuffix(base, ShaderSuffix) {
		return "", UnknownShaderType
	}

	nodes := strings.Split(strings.TrimSuffix(base, ShaderSuffix), ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return "", UnknownShaderType
	}

	switch nodes[1] {
	case "vert":
		return nodes[0], VertexShaderType
	case "frag":
		return nodes[0], FragmentShaderType
	}
	return "", UnknownShaderType
}
