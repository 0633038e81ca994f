// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/config"
	"github.com/gogpu/g3d/device"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
	"github.com/gogpu/g3d/render"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/shader"
	"github.com/gogpu/g3d/swapchain"

	// The software backend is always available as the last resort.
	_ "github.com/gogpu/g3d/backend/software"
)

// ErrClosed is returned when using an engine after Close.
var ErrClosed = errors.New("g3d: engine closed")

// Captioner is implemented by surfaces that display a caption, such as a
// window title. The engine writes frame statistics to it once per second.
type Captioner interface {
	SetCaption(caption string)
}

// Engine ties together the backend, device context, swap chain and
// renderer for one output surface.
//
// An Engine is not safe for concurrent use: one goroutine drives the
// frame loop and delivers resize events.
type Engine struct {
	factory    gpucore.Factory
	ownFactory bool
	backend    string
	settings   config.Settings

	ctx      *device.Context
	swap     *swapchain.Manager
	shaders  *shader.Library
	renderer *render.Renderer

	surface     gpucore.Surface
	scene       *scene.Scene
	timer       *Timer
	clock       func() time.Time
	fixedUpdate func(time.Duration)
	closed      bool
}

// New creates an engine rendering sc to surface.
//
// The backend factory comes from WithFactory, WithBackend or the backend
// registry, in that order. Settings come from WithSettings or
// WithSettingsFile, then the remaining options are applied on top. The
// swap chain is sized to the surface.
func New(surface gpucore.Surface, sc *scene.Scene, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		surface:     surface,
		scene:       sc,
		timer:       NewTimer(o.step),
		clock:       o.clock,
		fixedUpdate: o.fixedUpdate,
	}
	if err := e.openFactory(&o); err != nil {
		return nil, err
	}
	if err := e.loadSettings(&o); err != nil {
		e.releaseFactory()
		return nil, err
	}
	if err := e.init(&o); err != nil {
		e.release()
		return nil, err
	}

	logx.Logger().Info("g3d: engine created",
		"backend", e.backend, "adapter", e.ctx.Adapter().Name,
		"buffers", e.settings.Video.BufferCount, "frames", e.settings.Video.FrameResources)
	return e, nil
}

func (e *Engine) openFactory(o *options) error {
	switch {
	case o.factory != nil:
		e.factory = o.factory
		e.backend = "injected"
	case o.backend != "":
		f, err := backend.Open(o.backend)
		if err != nil {
			return fmt.Errorf("g3d: %w", err)
		}
		e.factory, e.ownFactory, e.backend = f, true, o.backend
	default:
		f, name, err := backend.OpenDefault()
		if err != nil {
			return fmt.Errorf("g3d: %w", err)
		}
		e.factory, e.ownFactory, e.backend = f, true, name
	}
	return nil
}

func (e *Engine) loadSettings(o *options) error {
	switch {
	case o.settings != nil:
		e.settings = *o.settings
	case o.settingsFile != "":
		s, err := config.Build(o.settingsFile, e.factory)
		if err != nil {
			return fmt.Errorf("g3d: %w", err)
		}
		e.settings = *s
	default:
		e.settings = config.Default()
	}
	for _, fn := range o.overrides {
		fn(&e.settings)
	}
	if err := e.settings.Validate(); err != nil {
		return fmt.Errorf("g3d: %w", err)
	}
	return nil
}

func (e *Engine) init(o *options) error {
	var err error
	if e.ctx, err = device.Create(e.factory, e.settings.DeviceOptions()); err != nil {
		return fmt.Errorf("g3d: %w", err)
	}
	e.swap, err = swapchain.New(e.ctx, e.surface, swapchain.Config{
		BufferCount:  e.settings.Video.BufferCount,
		SyncInterval: e.settings.SyncInterval(),
	})
	if err != nil {
		return fmt.Errorf("g3d: %w", err)
	}
	e.shaders = shader.NewLibrary(e.ctx.Device())
	if o.shaders != nil {
		o.shaders(e.shaders)
	}
	e.renderer, err = render.New(e.ctx, e.swap, e.scene, render.Config{
		RingDepth:   e.settings.Video.FrameResources,
		ClearColor:  gpucore.Color(e.settings.Video.ClearColor),
		Shaders:     e.shaders,
		CullWorkers: o.cullWorkers,
	})
	if err != nil {
		return fmt.Errorf("g3d: %w", err)
	}
	return nil
}

// Render advances the timer, runs the due fixed updates and renders one
// frame. Once per second the frame statistics are written to the surface
// caption when the surface is a Captioner.
func (e *Engine) Render() error {
	if e.closed {
		return ErrClosed
	}

	steps, delta := e.timer.Tick(e.clock())
	if e.fixedUpdate != nil {
		for range steps {
			e.fixedUpdate(e.timer.Step())
		}
	}

	total := float32(e.timer.Total().Seconds())
	if err := e.renderer.Render(total, float32(delta.Seconds())); err != nil {
		return err
	}

	if e.timer.StatsUpdated() {
		e.updateCaption()
	}
	return nil
}

func (e *Engine) updateCaption() {
	c, ok := e.surface.(Captioner)
	if !ok {
		return
	}
	c.SetCaption(fmt.Sprintf("FPS: %d | V: %d", e.timer.FPS(), e.renderer.VisibleInstances()))
}

// OnResize reacts to a new surface size. Zero dimensions, as reported for
// a minimized window, are ignored.
func (e *Engine) OnResize(width, height int) error {
	if e.closed {
		return ErrClosed
	}
	return e.renderer.OnResize(width, height)
}

// RemoveItem removes a render item from the scene. Its GPU memory is
// released once the frames that may still draw it have completed.
func (e *Engine) RemoveItem(name string) bool {
	if e.closed {
		return false
	}
	return e.renderer.RemoveItem(name)
}

// Flush blocks until the GPU has executed all submitted work.
func (e *Engine) Flush() error {
	if e.closed {
		return ErrClosed
	}
	return e.ctx.Flush()
}

// Backend is the name of the backend the engine runs on.
func (e *Engine) Backend() string { return e.backend }

// Settings returns the effective settings.
func (e *Engine) Settings() config.Settings { return e.settings }

// Scene returns the rendered scene.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Timer returns the engine clock.
func (e *Engine) Timer() *Timer { return e.timer }

// Context returns the device context.
func (e *Engine) Context() *device.Context { return e.ctx }

// SwapChain returns the swap chain manager.
func (e *Engine) SwapChain() *swapchain.Manager { return e.swap }

// Shaders returns the shader library the pipeline was built from.
func (e *Engine) Shaders() *shader.Library { return e.shaders }

// Renderer returns the renderer.
func (e *Engine) Renderer() *render.Renderer { return e.renderer }

// Close waits for the GPU and releases everything in reverse creation
// order. Calling Close more than once is a no-op.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	err := e.release()
	logx.Logger().Info("g3d: engine closed")
	return err
}

func (e *Engine) release() error {
	var errs []error
	if e.renderer != nil {
		errs = append(errs, e.renderer.Close())
	}
	if e.shaders != nil {
		e.shaders.Destroy()
	}
	if e.swap != nil {
		errs = append(errs, e.swap.Close())
	}
	if e.ctx != nil {
		errs = append(errs, e.ctx.Close())
	}
	e.releaseFactory()
	return errors.Join(errs...)
}

func (e *Engine) releaseFactory() {
	if e.ownFactory && e.factory != nil {
		e.factory.Destroy()
	}
	e.factory = nil
}
