// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import (
	"time"

	"github.com/gogpu/g3d/config"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/shader"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// Default backend, automatic adapter selection
//	eng, err := g3d.New(surface, sc)
//
//	// Settings file, software backend, no vsync
//	eng, err := g3d.New(surface, sc,
//	    g3d.WithBackend("software"),
//	    g3d.WithSettingsFile("g3d.toml"),
//	    g3d.WithVSync(false))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	backend      string
	factory      gpucore.Factory
	settings     *config.Settings
	settingsFile string
	overrides    []func(*config.Settings)
	shaders      func(*shader.Library)
	clock        func() time.Time
	step         time.Duration
	fixedUpdate  func(time.Duration)
	cullWorkers  int
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		clock: time.Now,
		step:  DefaultFixedStep,
	}
}

// override records a settings change applied after the settings are
// loaded, so explicit options win over the settings file.
func (o *options) override(fn func(*config.Settings)) {
	o.overrides = append(o.overrides, fn)
}

// WithBackend selects a registered backend by name ("wgpu", "software").
// Without it the highest priority registered backend that opens is used.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithFactory injects an already opened factory. The engine does not
// destroy it. WithFactory takes precedence over WithBackend.
func WithFactory(f gpucore.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithSettings uses s instead of reading a settings file.
func WithSettings(s config.Settings) Option {
	return func(o *options) {
		o.settings = &s
	}
}

// WithSettingsFile reads the settings from path, creating the file from
// the enumerated adapters when it does not exist.
func WithSettingsFile(path string) Option {
	return func(o *options) {
		o.settingsFile = path
	}
}

// WithAdapter prefers the adapter at the given enumeration index.
// device.AutoAdapter picks the adapter with the most video memory.
func WithAdapter(index int) Option {
	return func(o *options) {
		o.override(func(s *config.Settings) { s.Video.DefaultAdapter = index })
	}
}

// WithBufferCount sets the number of swap chain buffers.
func WithBufferCount(n int) Option {
	return func(o *options) {
		o.override(func(s *config.Settings) { s.Video.BufferCount = n })
	}
}

// WithRingDepth sets the number of frame resources, which bounds how many
// frames the CPU may record ahead of the GPU.
func WithRingDepth(n int) Option {
	return func(o *options) {
		o.override(func(s *config.Settings) { s.Video.FrameResources = n })
	}
}

// WithClearColor sets the backbuffer clear color.
func WithClearColor(c gpucore.Color) Option {
	return func(o *options) {
		o.override(func(s *config.Settings) { s.Video.ClearColor = c })
	}
}

// WithVSync enables or disables presenting on vertical blank.
func WithVSync(on bool) Option {
	return func(o *options) {
		o.override(func(s *config.Settings) { s.Video.VSync = on })
	}
}

// WithShaders runs fn on the engine's shader library once the device
// exists, before the pipeline is built. Use it to register sources or to
// replace the built-in ones.
//
// Example:
//
//	g3d.WithShaders(func(lib *shader.Library) {
//	    lib.Register(shader.Opaque, myOpaqueWGSL)
//	})
func WithShaders(fn func(lib *shader.Library)) Option {
	return func(o *options) {
		o.shaders = fn
	}
}

// WithClock replaces time.Now as the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithFixedStep sets the fixed simulation step.
func WithFixedStep(step time.Duration) Option {
	return func(o *options) {
		o.step = step
	}
}

// WithFixedUpdate registers fn to run once per fixed simulation step,
// before the frame is rendered.
func WithFixedUpdate(fn func(step time.Duration)) Option {
	return func(o *options) {
		o.fixedUpdate = fn
	}
}

// WithCullWorkers culls render items on n goroutines. A negative n uses
// GOMAXPROCS; zero, the default, culls on the render goroutine.
func WithCullWorkers(n int) Option {
	return func(o *options) {
		o.cullWorkers = n
	}
}
