// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
)

var errNoTargets = errors.New("wgpu: draw without render targets")

type binding struct {
	buf          *Buffer
	offset, size uint64
}

type depthClear struct {
	depth   float32
	stencil uint8
}

// listEncoder replays a recorded command list into a HAL command buffer.
//
// Clears are folded into the load operations of the next render pass on
// the cleared texture. A clear that no pass consumes before a barrier or
// the end of the list is encoded as an empty pass of its own.
type listEncoder struct {
	dev *Device
	enc hal.CommandEncoder

	pass     hal.RenderPassEncoder
	rtv, dsv *Texture
	viewport *gpucore.Viewport
	scissor  *gpucore.Rect

	colorClears map[*Texture]gpucore.Color
	depthClears map[*Texture]depthClear

	pipeline *Pipeline
	bindings [bindingSlots]binding
	dirty    bool

	groups []hal.BindGroup
	used   map[*Texture]struct{}
}

func (e *listEncoder) encode(l *CommandList) (hal.CommandBuffer, error) {
	enc, err := e.dev.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "g3d_list"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("g3d_list"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	e.enc = enc
	e.colorClears = make(map[*Texture]gpucore.Color)
	e.depthClears = make(map[*Texture]depthClear)

	for i := range l.cmds {
		if err := e.apply(&l.cmds[i]); err != nil {
			e.endPass()
			enc.DiscardEncoding()
			return nil, err
		}
	}
	e.endPass()
	e.flushClears()

	cb, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	return cb, nil
}

func (e *listEncoder) apply(c *command) error {
	switch c.kind {
	case cmdBarrier:
		e.endPass()
		e.flushClears()
		e.barrier(c.barriers)
	case cmdSetTargets:
		e.endPass()
		e.rtv = e.dev.resolve(c.rtv)
		e.dsv = e.dev.resolve(c.dsv)
	case cmdClearColor:
		t := e.dev.resolve(c.rtv)
		if t == nil {
			return fmt.Errorf("wgpu: clear of unbound render target view %#x", c.rtv.Ptr)
		}
		e.endPass()
		e.colorClears[t] = c.color
	case cmdClearDepth:
		t := e.dev.resolve(c.dsv)
		if t == nil {
			return fmt.Errorf("wgpu: clear of unbound depth stencil view %#x", c.dsv.Ptr)
		}
		e.endPass()
		e.depthClears[t] = depthClear{depth: c.depth, stencil: c.stencil}
	case cmdViewport:
		v := c.viewport
		e.viewport = &v
		if e.pass != nil {
			e.applyViewport()
		}
	case cmdScissor:
		r := c.rect
		e.scissor = &r
		if e.pass != nil {
			e.applyViewport()
		}
	case cmdPipeline:
		e.pipeline = c.pipeline
		e.dirty = true
		if e.pass != nil {
			e.pass.SetPipeline(c.pipeline.hal)
		}
	case cmdConstantBuffer, cmdShaderResource:
		if c.slot < 0 || c.slot >= bindingSlots {
			return fmt.Errorf("wgpu: binding slot %d out of range [0,%d)", c.slot, bindingSlots)
		}
		e.bindings[c.slot] = binding{buf: c.buf, offset: c.offset, size: c.size}
		e.dirty = true
	case cmdDraw:
		return e.draw(c.draw)
	}
	return nil
}

func (e *listEncoder) barrier(barriers []gpucore.Barrier) {
	transitions := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		t, ok := b.Texture.(*Texture)
		if !ok {
			panic(fmt.Sprintf("wgpu: foreign texture %T", b.Texture))
		}
		e.used[t] = struct{}{}
		t.setState(b.After)
		from, to := textureUsage(b.Before), textureUsage(b.After)
		if from == to {
			continue
		}
		transitions = append(transitions, hal.TextureBarrier{
			Texture: t.hal,
			Usage: hal.TextureUsageTransition{
				OldUsage: from,
				NewUsage: to,
			},
		})
	}
	if len(transitions) > 0 {
		e.enc.TransitionTextures(transitions)
	}
}

func (e *listEncoder) beginPass() error {
	if e.rtv == nil && e.dsv == nil {
		return errNoTargets
	}
	desc := &hal.RenderPassDescriptor{Label: "g3d_pass"}
	if e.rtv != nil {
		desc.ColorAttachments = []hal.RenderPassColorAttachment{e.colorAttachment(e.rtv)}
	}
	if e.dsv != nil {
		desc.DepthStencilAttachment = e.depthAttachment(e.dsv)
	}
	e.pass = e.enc.BeginRenderPass(desc)
	e.applyViewport()
	if e.pipeline != nil {
		e.pass.SetPipeline(e.pipeline.hal)
	}
	e.dirty = true
	return nil
}

func (e *listEncoder) colorAttachment(t *Texture) hal.RenderPassColorAttachment {
	e.used[t] = struct{}{}
	a := hal.RenderPassColorAttachment{
		View:    t.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if c, ok := e.colorClears[t]; ok {
		delete(e.colorClears, t)
		a.LoadOp = gputypes.LoadOpClear
		a.ClearValue = gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
	}
	return a
}

func (e *listEncoder) depthAttachment(t *Texture) *hal.RenderPassDepthStencilAttachment {
	e.used[t] = struct{}{}
	a := &hal.RenderPassDepthStencilAttachment{
		View:           t.view,
		DepthLoadOp:    gputypes.LoadOpLoad,
		DepthStoreOp:   gputypes.StoreOpStore,
		StencilLoadOp:  gputypes.LoadOpLoad,
		StencilStoreOp: gputypes.StoreOpStore,
	}
	if c, ok := e.depthClears[t]; ok {
		delete(e.depthClears, t)
		a.DepthLoadOp = gputypes.LoadOpClear
		a.DepthClearValue = c.depth
		a.StencilLoadOp = gputypes.LoadOpClear
		a.StencilClearValue = uint32(c.stencil)
	}
	return a
}

func (e *listEncoder) applyViewport() {
	if e.viewport != nil {
		v := e.viewport
		e.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if r := e.scissor; r != nil && r.Right > r.Left && r.Bottom > r.Top {
		e.pass.SetScissorRect(uint32(r.Left), uint32(r.Top), //nolint:gosec // G115: non-negative for a valid rect
			uint32(r.Right-r.Left), uint32(r.Bottom-r.Top)) //nolint:gosec // G115: checked positive above
	}
}

func (e *listEncoder) endPass() {
	if e.pass != nil {
		e.pass.End()
		e.pass = nil
	}
}

// flushClears encodes the clears no render pass consumed.
func (e *listEncoder) flushClears() {
	for t := range e.colorClears {
		pass := e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label:            "g3d_clear",
			ColorAttachments: []hal.RenderPassColorAttachment{e.colorAttachment(t)},
		})
		pass.End()
	}
	for t := range e.depthClears {
		pass := e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label:                  "g3d_clear",
			DepthStencilAttachment: e.depthAttachment(t),
		})
		pass.End()
	}
}

func (e *listEncoder) draw(args [4]uint32) error {
	if e.pipeline == nil {
		return fmt.Errorf("wgpu: draw without a pipeline")
	}
	if e.pass == nil {
		if err := e.beginPass(); err != nil {
			return err
		}
	}
	if e.dirty {
		bg, err := e.bindGroup()
		if err != nil {
			return err
		}
		e.pass.SetBindGroup(0, bg, nil)
		e.dirty = false
	}
	e.pass.Draw(args[0], args[1], args[2], args[3])
	return nil
}

func (e *listEncoder) bindGroup() (hal.BindGroup, error) {
	entries := make([]gputypes.BindGroupEntry, 0, bindingSlots)
	for slot, b := range e.bindings {
		if b.buf == nil {
			continue
		}
		size := b.size
		if size == 0 {
			size = b.buf.size - min(b.offset, b.buf.size)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: uint32(slot), //nolint:gosec // G115: slot < bindingSlots
			Resource: gputypes.BufferBinding{
				Buffer: b.buf.hal.NativeHandle(),
				Offset: b.offset,
				Size:   size,
			},
		})
	}
	bg, err := e.dev.hal.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   e.pipeline.label + "_bind",
		Layout:  e.pipeline.groupLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: bind group for %q: %w", e.pipeline.label, err)
	}
	e.groups = append(e.groups, bg)
	return bg, nil
}

// release destroys the bind groups of a list that was not submitted.
func (e *listEncoder) release() {
	for _, g := range e.groups {
		e.dev.hal.DestroyBindGroup(g)
	}
	e.groups = nil
}
