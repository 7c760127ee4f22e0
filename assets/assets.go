// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets finds the compiled shaders the pipeline is built from,
// either in the packr box over shaders/ or in a kar bundle.
package assets

//go:generate glslangValidator -V ../shaders/triangle.vert -o ../shaders/triangle.vert.spv
//go:generate glslangValidator -V ../shaders/triangle.frag -o ../shaders/triangle.frag.spv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobuffalo/packd"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/presenter/gfx"
	"github.com/devblok/presenter/utility/kar"
)

// Box serves the default shaders.
var Box = packr.NewBox("../shaders")

// Source is anything shader files can be looked up in by name,
// a packr box or a kar bundle.
type Source interface {
	Find(name string) ([]byte, error)
}

// ResourceError is returned when a required resource can't be loaded.
type ResourceError struct {
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.Name, e.Err)
}

// Cause implements the causer of github.com/pkg/errors.
func (e *ResourceError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *ResourceError) Unwrap() error { return e.Err }

// ErrNotShader is the cause of a ResourceError for a name
// that does not follow <name>.<vert|frag>.spv.
var ErrNotShader = errors.New("not a compiled shader name")

// ErrNotGenerated is the cause of a ResourceError for a compiled shader
// whose GLSL source is present but which was never compiled.
var ErrNotGenerated = errors.New("shader source found but not compiled, run go generate ./assets")

// Default loads every named shader from Box, in order.
func Default(names ...string) ([]gfx.Shader, error) {
	return fromBox(Box, names...)
}

func fromBox(box Source, names ...string) ([]gfx.Shader, error) {
	for _, name := range names {
		if _, err := box.Find(name); err == nil {
			continue
		}
		if _, err := box.Find(strings.TrimSuffix(name, ".spv")); err == nil {
			return nil, &ResourceError{Name: name, Err: ErrNotGenerated}
		}
	}
	return Shaders(box, names...)
}

// Shaders loads every named shader from src, in order.
func Shaders(src Source, names ...string) ([]gfx.Shader, error) {
	shaders := make([]gfx.Shader, 0, len(names))
	for _, name := range names {
		shaderName, shaderType := gfx.ParseShaderName(name)
		if shaderType == gfx.UnknownShaderType {
			return nil, &ResourceError{Name: name, Err: ErrNotShader}
		}
		code, err := src.Find(name)
		if err != nil {
			return nil, &ResourceError{Name: name, Err: err}
		}
		log.WithFields(log.Fields{
			"shader": name,
			"size":   len(code),
		}).Debug("shader loaded")
		shaders = append(shaders, gfx.Shader{
			Name: shaderName,
			Type: shaderType,
			Code: code,
		})
	}
	return shaders, nil
}

// ShaderNames walks w and returns the sorted names of every compiled shader in it.
func ShaderNames(w packd.Walker) ([]string, error) {
	var names []string
	err := w.Walk(func(path string, f packd.File) error {
		if _, shaderType := gfx.ParseShaderName(path); shaderType != gfx.UnknownShaderType {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking shaders")
	}
	sort.Strings(names)
	return names, nil
}

// OpenBundle memory maps the kar bundle at path.
func OpenBundle(path string) (*Bundle, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping %s", path)
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	log.WithFields(log.Fields{
		"bundle": path,
		"files":  len(ar.Names()),
	}).Debug("shader bundle opened")
	return &Bundle{Archive: ar, mapping: r}, nil
}

// Bundle is a memory mapped kar archive.
type Bundle struct {
	*kar.Archive
	mapping *mmap.ReaderAt
}

// Release unmaps the bundle.
func (b *Bundle) Release() {
	if b.mapping == nil {
		return
	}
	if err := b.mapping.Close(); err != nil {
		log.WithError(err).Warn("unmapping shader bundle")
	}
	b.mapping = nil
}
