// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/devblok/presenter/gfx"
)

// package errors
var (
	ErrNoSurfaceFormats = errors.New("surface supports no formats")
	ErrNoPresentModes   = errors.New("surface supports no present modes")
	ErrZeroExtent       = errors.New("surface extent is zero")
	ErrReleased         = errors.New("presenter already released")
	ErrNoChain          = errors.New("no presentable image chain")
	ErrStopped          = errors.New("window closed while waiting for surface area")
)

// ChainCreationError is returned when a presentable image chain,
// or anything derived from it, could not be created.
type ChainCreationError struct {
	Op  string
	Err error
}

func (e *ChainCreationError) Error() string {
	return fmt.Sprintf("chain creation: %s: %s", e.Op, e.Err)
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *ChainCreationError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *ChainCreationError) Unwrap() error { return e.Err }

func chainError(op string, err error) error {
	return &ChainCreationError{Op: op, Err: err}
}

// PresentationError is a fatal result from acquisition,
// submission, presentation or fence handling.
type PresentationError struct {
	Op     string
	Result gfx.Result
}

func (e *PresentationError) Error() string {
	return fmt.Sprintf("presentation: %s: %s", e.Op, e.Result.Error())
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *PresentationError) Cause() error { return e.Result }

// Unwrap returns the underlying result.
func (e *PresentationError) Unwrap() error { return e.Result }
