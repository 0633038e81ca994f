// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/g3d/device"
	"github.com/gogpu/g3d/frame"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
	"github.com/gogpu/g3d/internal/parallel"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/shader"
	"github.com/gogpu/g3d/swapchain"
	"github.com/gogpu/g3d/upload"
)

// Shader bindings shared with the built-in shaders.
const (
	slotPass      = 0
	slotMaterials = 1
	slotInstances = 2
	slotVertices  = 3
)

// DefaultRingDepth is the number of frames the CPU may record ahead.
const DefaultRingDepth = 3

// DefaultShadowMapSize is the side of the shadow pass target.
const DefaultShadowMapSize = 2048

// ErrNoScene is returned by New without a scene or camera.
var ErrNoScene = errors.New("render: scene with a camera required")

// Config configures a Renderer.
type Config struct {
	// RingDepth is the number of frame resources. Zero means DefaultRingDepth.
	RingDepth int

	// ClearColor is the backbuffer clear color.
	ClearColor gpucore.Color

	// ShadowMapSize sizes the shadow pass. Zero means DefaultShadowMapSize.
	// The shadow pass constants are written every frame in slot
	// frame.PassShadow; no depth pass reads them yet.
	ShadowMapSize int

	// Shaders supplies the pipeline shaders. Nil means a library with the
	// built-in shaders, owned by the renderer.
	Shaders *shader.Library

	// Shader names the module holding the vertex and fragment entry
	// points. Empty means shader.Opaque.
	Shader string

	// CullWorkers is the number of goroutines culling render items. Zero
	// culls on the calling goroutine; a negative value uses GOMAXPROCS.
	CullWorkers int
}

func (c *Config) setDefaults() {
	if c.RingDepth == 0 {
		c.RingDepth = DefaultRingDepth
	}
	if c.ShadowMapSize == 0 {
		c.ShadowMapSize = DefaultShadowMapSize
	}
	if c.Shader == "" {
		c.Shader = shader.Opaque
	}
}

// drawItem is the renderer's view of one render item.
type drawItem struct {
	item     *scene.RenderItem
	slot     int
	vertices *upload.Buffer
	visible  int
	scratch  []scene.InstanceData
}

// Renderer renders a scene into a swap chain.
//
// A Renderer is not safe for concurrent use: one goroutine drives the
// frame loop.
type Renderer struct {
	ctx   *device.Context
	swap  *swapchain.Manager
	scene *scene.Scene
	cfg   Config

	shaders    *shader.Library
	ownShaders bool
	pipeline   gpucore.Pipeline

	ring      *frame.Ring
	items     []*drawItem
	cullers   *parallel.Pool
	cullJobs  []func()
	visible   int
	materials int
	frames    uint64
	closed    bool

	// err is the failure that left a frame submitted without a fence.
	err error
}

// New creates a renderer for sc drawing into swap. The instance capacity
// of every frame resource is sized from the items sc holds now.
func New(ctx *device.Context, swap *swapchain.Manager, sc *scene.Scene, cfg Config) (*Renderer, error) {
	if sc == nil || sc.Camera == nil {
		return nil, ErrNoScene
	}
	cfg.setDefaults()

	r := &Renderer{ctx: ctx, swap: swap, scene: sc, cfg: cfg, shaders: cfg.Shaders}
	if r.shaders == nil {
		r.shaders = shader.NewLibrary(ctx.Device())
		r.ownShaders = true
	}
	if err := r.createPipeline(); err != nil {
		r.releaseShaders()
		return nil, err
	}

	r.materials = max(len(sc.Materials), 1)
	ring, err := frame.NewRing(ctx.Device(), ctx, cfg.RingDepth, frame.Config{
		PassSize:         uint64(unsafe.Sizeof(scene.PassData{})),
		MaterialSize:     uint64(unsafe.Sizeof(scene.MaterialData{})),
		MaterialCount:    r.materials,
		InstanceSize:     uint64(unsafe.Sizeof(scene.InstanceData{})),
		InstanceCapacity: sc.InstanceCapacity(),
	})
	if err != nil {
		r.pipeline.Destroy()
		r.releaseShaders()
		return nil, fmt.Errorf("render: %w", err)
	}
	r.ring = ring
	if cfg.CullWorkers != 0 {
		r.cullers = parallel.NewPool(cfg.CullWorkers)
	}

	for i, it := range sc.Items {
		d := &drawItem{item: it, slot: i}
		if len(it.Vertices) > 0 {
			d.vertices, err = upload.New(ctx.Device(), "item/"+it.Name+"/vertices",
				upload.Layout{ElementSize: uint64(len(it.Vertices))}, 1)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("render: item %q: %w", it.Name, err)
			}
			d.vertices.CopyData(0, it.Vertices)
		}
		r.items = append(r.items, d)
	}

	sc.Camera.SetAspectRatio(swap.AspectRatio())
	logx.Logger().Info("render: renderer created",
		"items", len(r.items), "materials", len(sc.Materials), "ring", cfg.RingDepth)
	return r, nil
}

func (r *Renderer) createPipeline() error {
	mod, err := r.shaders.Module(r.cfg.Shader)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	p, err := r.ctx.Device().CreatePipeline(gpucore.PipelineDesc{
		Label:         "opaque",
		Vertex:        mod,
		VertexEntry:   shader.VertexEntry,
		Fragment:      mod,
		FragmentEntry: shader.FragmentEntry,
		ColorFormat:   r.swap.CurrentBackBuffer().Format(),
		DepthFormat:   r.swap.DepthStencil().Format(),
	})
	if err != nil {
		return fmt.Errorf("render: pipeline: %w", err)
	}
	r.pipeline = p
	return nil
}

func (r *Renderer) releaseShaders() {
	if r.ownShaders {
		r.shaders.Destroy()
	}
}

// Render runs one frame. totalTime and deltaTime are in seconds and are
// forwarded to the pass constants.
//
// A frame that fails before its commands are executed is dropped and the
// next Render starts over. Once a fence signal has failed, every later
// call returns that error.
func (r *Renderer) Render(totalTime, deltaTime float32) error {
	if r.err != nil {
		return r.err
	}
	res, err := r.ring.Acquire()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	r.writeConstants(res, totalTime, deltaTime)

	if err := r.record(res); err != nil {
		r.ring.Abandon()
		return err
	}
	if err := r.ctx.Execute(); err != nil {
		r.ring.Abandon()
		return fmt.Errorf("render: %w", err)
	}
	fence, err := r.ring.Submit()
	if err != nil {
		// The frame's commands are queued without a fence to wait on, so
		// its slot can never be reused safely.
		r.err = fmt.Errorf("render: %w", err)
		return r.err
	}
	if err := r.swap.Present(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	r.frames++
	logx.Logger().Debug("render: frame submitted",
		"frame", r.frames, "slot", res.Index(), "fence", fence, "visible", r.visible)
	return nil
}

// writeConstants fills the slot's buffers. The slot's fence has been
// reached, so the GPU no longer reads them.
func (r *Renderer) writeConstants(res *frame.Resource, totalTime, deltaTime float32) {
	w, h := r.swap.Size()
	mainPass := r.scene.MainPass(w, h, totalTime, deltaTime)
	// TODO: record a depth-only pass with shader.Shadow into a
	// ShadowMapSize depth target reading these constants.
	shadowPass := r.scene.ShadowPass(r.cfg.ShadowMapSize, totalTime, deltaTime)
	res.Passes.CopyData(frame.PassMain, upload.Bytes(&mainPass))
	res.Passes.CopyData(frame.PassShadow, upload.Bytes(&shadowPass))

	for i, m := range r.scene.Materials {
		if i >= r.materials {
			break
		}
		data := m.Data()
		res.Materials.CopyData(i, upload.Bytes(&data))
	}

	frustum := r.scene.Camera.Frustum()
	if r.cullers == nil {
		for _, d := range r.items {
			d.cull(frustum, res.Instances[d.slot])
		}
	} else {
		r.cullJobs = r.cullJobs[:0]
		for _, d := range r.items {
			buf := res.Instances[d.slot]
			r.cullJobs = append(r.cullJobs, func() { d.cull(frustum, buf) })
		}
		r.cullers.Run(r.cullJobs)
	}
	r.visible = 0
	for _, d := range r.items {
		r.visible += d.visible
	}
}

// cull writes the instances of d inside f to buf. Items own distinct
// buffers, so items may be culled concurrently.
func (d *drawItem) cull(f scene.Frustum, buf *upload.Buffer) {
	d.scratch = d.item.Cull(f, d.scratch[:0])
	if len(d.scratch) > buf.Count() {
		logx.Logger().Warn("render: instance capacity exceeded",
			"item", d.item.Name, "visible", len(d.scratch), "capacity", buf.Count())
		d.scratch = d.scratch[:buf.Count()]
	}
	for i := range d.scratch {
		buf.CopyData(i, upload.Bytes(&d.scratch[i]))
	}
	d.visible = len(d.scratch)
}

func (r *Renderer) record(res *frame.Resource) error {
	list := r.ctx.CommandList()
	if err := list.Reset(res.Allocator); err != nil {
		return fmt.Errorf("render: reset command list: %w", err)
	}

	back := r.swap.CurrentBackBuffer()
	rtv := r.swap.CurrentBackBufferView()
	dsv := r.swap.DepthStencilView()

	list.ResourceBarrier(gpucore.Transition(back, gpucore.StatePresent, gpucore.StateRenderTarget))
	list.SetViewport(r.swap.Viewport())
	list.SetScissorRect(r.swap.ScissorRect())
	list.ClearRenderTarget(rtv, r.cfg.ClearColor)
	list.ClearDepthStencil(dsv, 1, 0)
	list.SetRenderTargets(rtv, dsv)

	list.SetPipeline(r.pipeline)
	list.SetConstantBuffer(slotPass, res.Passes.Resource(), res.Passes.Offset(frame.PassMain), res.Passes.Stride())
	list.SetShaderResource(slotMaterials, res.Materials.Resource(), 0, res.Materials.Size())

	for _, d := range r.items {
		if d.visible == 0 {
			continue
		}
		inst := res.Instances[d.slot]
		list.SetShaderResource(slotInstances, inst.Resource(), 0, uint64(d.visible)*inst.Stride())
		if d.vertices != nil {
			list.SetShaderResource(slotVertices, d.vertices.Resource(), 0, d.vertices.Size())
		}
		//nolint:gosec // G115: visible is bounded by the instance buffer capacity
		list.DrawInstanced(d.item.VertexCount, uint32(d.visible), 0, 0)
	}

	list.ResourceBarrier(gpucore.Transition(back, gpucore.StateRenderTarget, gpucore.StatePresent))
	return nil
}

// OnResize resizes the swap chain and updates the camera projection.
func (r *Renderer) OnResize(width, height int) error {
	if err := r.swap.OnResize(width, height); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	r.scene.Camera.SetAspectRatio(r.swap.AspectRatio())
	return nil
}

// RemoveItem removes the named item from the scene. Its vertex buffer is
// released once no submitted frame can still read it.
func (r *Renderer) RemoveItem(name string) bool {
	for i, d := range r.items {
		if d.item.Name != name {
			continue
		}
		r.items = append(r.items[:i], r.items[i+1:]...)
		for j, it := range r.scene.Items {
			if it == d.item {
				r.scene.Items = append(r.scene.Items[:j], r.scene.Items[j+1:]...)
				break
			}
		}
		if vb := d.vertices; vb != nil {
			r.ring.Defer(vb.Destroy)
		}
		logx.Logger().Debug("render: item removed", "item", name)
		return true
	}
	return false
}

// VisibleInstances is the number of instances drawn by the last frame.
func (r *Renderer) VisibleInstances() int { return r.visible }

// ItemVisible is the number of instances of the named item drawn by the
// last frame.
func (r *Renderer) ItemVisible(name string) int {
	for _, d := range r.items {
		if d.item.Name == name {
			return d.visible
		}
	}
	return 0
}

// Frames is the number of rendered frames.
func (r *Renderer) Frames() uint64 { return r.frames }

// Ring exposes the frame resource ring.
func (r *Renderer) Ring() *frame.Ring { return r.ring }

// Pipeline returns the opaque pass pipeline.
func (r *Renderer) Pipeline() gpucore.Pipeline { return r.pipeline }

// Close waits for every submitted frame and releases the renderer's
// resources. The device context and swap chain are left to their owner.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.ring != nil {
		err = r.ring.Close()
	}
	for _, d := range r.items {
		if d.vertices != nil {
			d.vertices.Destroy()
		}
	}
	r.items = nil
	if r.cullers != nil {
		r.cullers.Close()
	}
	if r.pipeline != nil {
		r.pipeline.Destroy()
	}
	r.releaseShaders()
	return err
}
