// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core implements the presentation core: the per-frame
// synchronization resources, the lifecycle of the presentable image chain
// and the loop that drives frames onto the screen until shutdown.
//
// Everything in this package runs on a single thread. The only concurrency
// is between the CPU and the device, expressed through fences and semaphores.
package core

import (
	"github.com/devblok/presenter/gfx"
)

// Platform bundles the providers the presentation core runs against.
type Platform struct {
	Device   gfx.Device
	Surface  gfx.Surface
	Recorder gfx.Recorder
}
