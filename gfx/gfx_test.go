// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/presenter/gfx"
)

func TestParseShaderName(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		file       string
		name       string
		shaderType gfx.ShaderType
	}{
		{"triangle.vert.spv", "triangle", gfx.VertexShaderType},
		{"shaders/triangle.frag.spv", "triangle", gfx.FragmentShaderType},
		{"triangle.geom.spv", "", gfx.UnknownShaderType},
		{"triangle.vert", "", gfx.UnknownShaderType},
		{"a.b.vert.spv", "", gfx.UnknownShaderType},
		{".vert.spv", "", gfx.UnknownShaderType},
	}
	for _, test := range tests {
		name, shaderType := gfx.ParseShaderName(test.file)
		c.Check(name, qt.Equals, test.name, qt.Commentf("file %q", test.file))
		c.Check(shaderType, qt.Equals, test.shaderType, qt.Commentf("file %q", test.file))
	}
}

func TestExtentClamp(t *testing.T) {
	c := qt.New(t)

	min := gfx.Extent2D{Width: 100, Height: 100}
	max := gfx.Extent2D{Width: 1000, Height: 500}

	c.Assert(gfx.Extent2D{Width: 50, Height: 700}.Clamp(min, max), qt.Equals, gfx.Extent2D{Width: 100, Height: 500})
	c.Assert(gfx.Extent2D{Width: 800, Height: 600}.Clamp(min, max), qt.Equals, gfx.Extent2D{Width: 800, Height: 500})
	c.Assert(gfx.Extent2D{Width: 0, Height: 0}.IsZero(), qt.IsTrue)
	c.Assert(gfx.Extent2D{Width: 1, Height: 0}.IsZero(), qt.IsTrue)
	c.Assert(gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}.Defined(), qt.IsFalse)
}

func TestResultRecoverable(t *testing.T) {
	c := qt.New(t)

	for _, r := range []gfx.Result{gfx.Success, gfx.Suboptimal, gfx.OutOfDate} {
		c.Check(r.Recoverable(), qt.IsTrue, qt.Commentf("result %v", r))
	}
	for _, r := range []gfx.Result{gfx.SurfaceLost, gfx.DeviceLost, gfx.Failure} {
		c.Check(r.Recoverable(), qt.IsFalse, qt.Commentf("result %v", r))
	}
}
