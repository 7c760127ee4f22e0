// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xlab/closer"

	"github.com/devblok/presenter/assets"
	"github.com/devblok/presenter/core"
	"github.com/devblok/presenter/gfx"
	"github.com/devblok/presenter/gfx/sdlwin"
	"github.com/devblok/presenter/gfx/vkr"
)

func init() {
	runtime.LockOSThread()
}

var (
	cpuProfile = flag.String("cpuprof", "", "Profile CPU usage to file")
	debug      = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	envFile    = flag.String("env", "", "Load configuration from a dotenv file")
)

func main() {
	flag.Parse()
	defer closer.Close()

	cfg, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}
	log.SetLevel(cfg.LogLevel)
	if *debug {
		cfg.Instance.Validation = true
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.WithError(err).Fatal("cpu profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.WithError(err).Error("presenter failed")
		pprof.StopCPUProfile()
		closer.Exit(1)
	}
}

func loadShaders(cfg core.AssetConfiguration) ([]gfx.Shader, error) {
	names := []string{cfg.VertexShader, cfg.FragmentShader}
	if cfg.ShaderBundle == "" {
		available, err := assets.ShaderNames(assets.Box)
		if err != nil {
			return nil, err
		}
		log.WithField("shaders", available).Debug("shader box")
		return assets.Default(names...)
	}

	bundle, err := assets.OpenBundle(cfg.ShaderBundle)
	if err != nil {
		return nil, err
	}
	defer bundle.Release()
	return assets.Shaders(bundle, names...)
}

func run(cfg core.Configuration) error {
	done := make(chan struct{})
	defer close(done)

	shaders, err := loadShaders(cfg.Assets)
	if err != nil {
		return err
	}

	quit, err := sdlwin.Init()
	if err != nil {
		return err
	}
	defer quit()

	window, err := sdlwin.New("Presenter", int(cfg.Renderer.ScreenWidth), int(cfg.Renderer.ScreenHeight))
	if err != nil {
		return err
	}
	defer window.Release()

	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, sdlwin.ProcAddr(), vkr.InstanceConfiguration{
		Validation: cfg.Instance.Validation,
		Extensions: window.InstanceExtensions(),
	})
	if err != nil {
		return err
	}
	defer instance.Release()

	surface, err := window.CreateSurface(instance.Inner())
	if err != nil {
		return err
	}
	instance.SetSurface(surface)

	device, err := vkr.NewDevice(instance, shaders)
	if err != nil {
		return err
	}
	defer device.Release()

	presenter, err := core.NewPresenter(core.Platform{
		Device:   device,
		Surface:  window,
		Recorder: vkr.NewRecorder(),
	}, cfg)
	if err != nil {
		return errors.Wrap(err, "starting presenter")
	}
	defer presenter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closer.Bind(func() {
		cancel()
		sdlwin.Interrupt()
		<-done
		log.Info("bye")
	})

	return presenter.Run(ctx, window)
}
