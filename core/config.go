// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/presenter/gfx"
)

// Environment keys read by LoadConfiguration.
const (
	EnvMaxFramesInFlight = "PRESENTER_MAX_FRAMES_IN_FLIGHT"
	EnvWidth             = "PRESENTER_WIDTH"
	EnvHeight            = "PRESENTER_HEIGHT"
	EnvValidation        = "PRESENTER_VALIDATION"
	EnvShaderBundle      = "PRESENTER_SHADER_BUNDLE"
	EnvReportInterval    = "PRESENTER_REPORT_INTERVAL"
	EnvLogLevel          = "PRESENTER_LOG_LEVEL"
)

// Configuration defines a global presenter configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Instance InstanceConfiguration
	Assets   AssetConfiguration
	LogLevel log.Level
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// ReportInterval is how often frame statistics are logged.
	// To disable, set to 0
	ReportInterval time.Duration
}

// RendererConfiguration is used to configure the presentation core
type RendererConfiguration struct {
	// MaxFramesInFlight is the number of frame slots, it bounds
	// how far CPU submission may run ahead of the GPU.
	MaxFramesInFlight int

	ScreenWidth  uint32
	ScreenHeight uint32

	// PreferredFormat is picked when the surface supports it,
	// otherwise the first supported format is used.
	PreferredFormat gfx.SurfaceFormat

	// PreferredPresentMode is picked when the surface supports it,
	// otherwise FIFO is used.
	PreferredPresentMode gfx.PresentMode
}

// InstanceConfiguration configures the API instance
type InstanceConfiguration struct {
	Validation bool
}

// AssetConfiguration tells where compiled shaders are found
type AssetConfiguration struct {
	// ShaderBundle is a kar bundle path, when empty
	// shaders come from the embedded shader box.
	ShaderBundle string

	VertexShader   string
	FragmentShader string
}

// DefaultConfiguration returns the configuration used
// for every key that is not set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			ReportInterval: time.Second,
		},
		Renderer: RendererConfiguration{
			MaxFramesInFlight: 2,
			ScreenWidth:       800,
			ScreenHeight:      600,
			PreferredFormat: gfx.SurfaceFormat{
				Format:     gfx.FormatB8G8R8A8Srgb,
				ColorSpace: gfx.ColorSpaceSrgbNonlinear,
			},
			PreferredPresentMode: gfx.PresentModeMailbox,
		},
		Assets: AssetConfiguration{
			VertexShader:   "triangle.vert.spv",
			FragmentShader: "triangle.frag.spv",
		},
		LogLevel: log.InfoLevel,
	}
}

// LoadConfiguration loads envFile when it is given and then reads
// every configuration key from the environment.
func LoadConfiguration(envFile string) (Configuration, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Configuration{}, errors.Wrapf(err, "loading %s", envFile)
		}
		envy.Reload()
	}

	cfg := DefaultConfiguration()

	frames, err := envInt(EnvMaxFramesInFlight, cfg.Renderer.MaxFramesInFlight)
	if err != nil {
		return Configuration{}, err
	}
	if frames < 1 {
		return Configuration{}, errors.Errorf("%s must be at least 1, got %d", EnvMaxFramesInFlight, frames)
	}
	cfg.Renderer.MaxFramesInFlight = frames

	width, err := envInt(EnvWidth, int(cfg.Renderer.ScreenWidth))
	if err != nil {
		return Configuration{}, err
	}
	height, err := envInt(EnvHeight, int(cfg.Renderer.ScreenHeight))
	if err != nil {
		return Configuration{}, err
	}
	if width <= 0 || height <= 0 {
		return Configuration{}, errors.Errorf("screen size must be positive, got %dx%d", width, height)
	}
	cfg.Renderer.ScreenWidth = uint32(width)
	cfg.Renderer.ScreenHeight = uint32(height)

	if cfg.Instance.Validation, err = strconv.ParseBool(envy.Get(EnvValidation, "false")); err != nil {
		return Configuration{}, errors.Wrap(err, EnvValidation)
	}

	if cfg.Time.ReportInterval, err = time.ParseDuration(envy.Get(EnvReportInterval, cfg.Time.ReportInterval.String())); err != nil {
		return Configuration{}, errors.Wrap(err, EnvReportInterval)
	}

	if cfg.LogLevel, err = log.ParseLevel(envy.Get(EnvLogLevel, cfg.LogLevel.String())); err != nil {
		return Configuration{}, errors.Wrap(err, EnvLogLevel)
	}

	cfg.Assets.ShaderBundle = envy.Get(EnvShaderBundle, "")
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	v, err := strconv.Atoi(envy.Get(key, strconv.Itoa(def)))
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return v, nil
}
