// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFrameCounter(t *testing.T) {
	c := qt.New(t)
	defer c.Done()

	hook := test.NewGlobal()
	c.Defer(hook.Reset)

	now := time.Date(2019, 9, 1, 12, 0, 0, 0, time.UTC)
	counter := NewFrameCounter(TimeConfiguration{ReportInterval: time.Second})
	counter.now = func() time.Time { return now }

	for i := 0; i < 60; i++ {
		counter.Tick()
		now = now.Add(10 * time.Millisecond)
	}
	c.Assert(hook.AllEntries(), qt.HasLen, 0)

	now = now.Add(500 * time.Millisecond)
	counter.Tick()

	entries := hook.AllEntries()
	c.Assert(entries, qt.HasLen, 1)
	c.Assert(entries[0].Level, qt.Equals, log.InfoLevel)
	c.Assert(entries[0].Message, qt.Equals, "frames presented")
	c.Assert(entries[0].Data["frames"], qt.Equals, uint64(61))
	c.Assert(counter.Total(), qt.Equals, uint64(61))
}

func TestFrameCounterDisabled(t *testing.T) {
	c := qt.New(t)
	defer c.Done()

	hook := test.NewGlobal()
	c.Defer(hook.Reset)

	counter := NewFrameCounter(TimeConfiguration{})
	for i := 0; i < 1000; i++ {
		counter.Tick()
	}
	c.Assert(counter.Total(), qt.Equals, uint64(1000))
	c.Assert(hook.AllEntries(), qt.HasLen, 0)
}

func BenchmarkFrameCounterTick(b *testing.B) {
	counter := NewFrameCounter(TimeConfiguration{ReportInterval: time.Hour})
	for i := 0; i < b.N; i++ {
		counter.Tick()
	}
}
