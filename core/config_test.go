// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		cfg, err := LoadConfiguration("")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Renderer.MaxFramesInFlight, qt.Equals, 2)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(800))
		c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(600))
		c.Assert(cfg.Time.ReportInterval, qt.Equals, time.Second)
		c.Assert(cfg.LogLevel, qt.Equals, log.InfoLevel)
		c.Assert(cfg.Instance.Validation, qt.IsFalse)
	})
}

func TestLoadConfigurationFromEnv(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		envy.Set(EnvMaxFramesInFlight, "3")
		envy.Set(EnvWidth, "1280")
		envy.Set(EnvHeight, "720")
		envy.Set(EnvValidation, "true")
		envy.Set(EnvShaderBundle, "shaders.kar")
		envy.Set(EnvReportInterval, "0s")
		envy.Set(EnvLogLevel, "debug")

		cfg, err := LoadConfiguration("")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Renderer.MaxFramesInFlight, qt.Equals, 3)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1280))
		c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(720))
		c.Assert(cfg.Instance.Validation, qt.IsTrue)
		c.Assert(cfg.Assets.ShaderBundle, qt.Equals, "shaders.kar")
		c.Assert(cfg.Time.ReportInterval, qt.Equals, time.Duration(0))
		c.Assert(cfg.LogLevel, qt.Equals, log.DebugLevel)
	})
}

func TestLoadConfigurationInvalid(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		key   string
		value string
		err   string
	}{
		{EnvMaxFramesInFlight, "0", "PRESENTER_MAX_FRAMES_IN_FLIGHT must be at least 1, got 0"},
		{EnvMaxFramesInFlight, "two", `PRESENTER_MAX_FRAMES_IN_FLIGHT: .*invalid syntax`},
		{EnvWidth, "-1", "screen size must be positive, got -1x600"},
		{EnvValidation, "maybe", `PRESENTER_VALIDATION: .*invalid syntax`},
		{EnvReportInterval, "soon", `PRESENTER_REPORT_INTERVAL: .*`},
		{EnvLogLevel, "loud", `PRESENTER_LOG_LEVEL: not a valid logrus Level: "loud"`},
	}
	for _, test := range tests {
		envy.Temp(func() {
			envy.Set(test.key, test.value)
			_, err := LoadConfiguration("")
			c.Check(err, qt.ErrorMatches, test.err, qt.Commentf("%s=%s", test.key, test.value))
		})
	}
}

func TestLoadConfigurationFile(t *testing.T) {
	c := qt.New(t)
	defer c.Done()

	c.Unsetenv(EnvHeight)
	c.Defer(func() {
		os.Unsetenv(EnvHeight)
		envy.Reload()
	})

	file := filepath.Join(c.Mkdir(), ".env")
	c.Assert(ioutil.WriteFile(file, []byte(EnvHeight+"=900\n"), 0644), qt.IsNil)

	cfg, err := LoadConfiguration(file)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(900))

	_, err = LoadConfiguration(filepath.Join(c.Mkdir(), "missing.env"))
	c.Assert(err, qt.ErrorMatches, "loading .*missing.env: .*")
}
