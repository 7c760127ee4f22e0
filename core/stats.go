// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// NewFrameCounter creates a new frame counter
func NewFrameCounter(cfg TimeConfiguration) *FrameCounter {
	return &FrameCounter{
		interval: cfg.ReportInterval,
		now:      time.Now,
	}
}

// FrameCounter counts presented frames and logs the rate
// once every report interval
type FrameCounter struct {
	interval time.Duration
	now      func() time.Time

	start  time.Time
	frames uint64
	total  uint64
}

// Tick counts one presented frame
func (c *FrameCounter) Tick() {
	c.total++
	if c.interval <= 0 {
		return
	}

	now := c.now()
	if c.start.IsZero() {
		c.start = now
	}
	c.frames++

	if elapsed := now.Sub(c.start); elapsed >= c.interval {
		log.WithFields(log.Fields{
			"frames": c.frames,
			"fps":    float64(c.frames) / elapsed.Seconds(),
		}).Info("frames presented")
		c.start = now
		c.frames = 0
	}
}

// Total gets the number of frames counted since creation
func (c *FrameCounter) Total() uint64 {
	return c.total
}
