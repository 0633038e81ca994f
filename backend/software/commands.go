// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/g3d/gpucore"
)

// CommandAllocator tracks the lists recorded from it that are still
// recording or executing.
type CommandAllocator struct {
	recording atomic.Int32
	pending   atomic.Int32
}

// Reset implements gpucore.CommandAllocator.
func (a *CommandAllocator) Reset() error {
	if a.pending.Load() > 0 {
		return gpucore.ErrAllocatorInUse
	}
	if a.recording.Load() > 0 {
		return errors.New("software: allocator reset while a list is recording")
	}
	return nil
}

// Pending returns the number of submitted lists from this allocator that
// the GPU has not finished.
func (a *CommandAllocator) Pending() int { return int(a.pending.Load()) }

func asAllocator(alloc gpucore.CommandAllocator) (*CommandAllocator, error) {
	a, ok := alloc.(*CommandAllocator)
	if !ok {
		return nil, fmt.Errorf("software: foreign allocator %T", alloc)
	}
	return a, nil
}

type cmdKind int

const (
	cmdBarrier cmdKind = iota
	cmdSetRenderTargets
	cmdClearRenderTarget
	cmdClearDepthStencil
	cmdViewport
	cmdScissor
	cmdPipeline
	cmdConstantBuffer
	cmdShaderResource
	cmdDraw
)

// command is one recorded instruction. Descriptors are resolved to
// textures at record time.
type command struct {
	kind     cmdKind
	barriers []gpucore.Barrier
	rt, ds   *Texture
	color    gpucore.Color
	depth    float32
	stencil  uint8
	viewport gpucore.Viewport
	rect     gpucore.Rect
	pipeline gpucore.Pipeline
	slot     int
	buf      *Buffer
	offset   uint64
	size     uint64
	draw     [4]uint32
}

// CommandList records commands for later execution by a Queue.
type CommandList struct {
	dev   *Device
	alloc *CommandAllocator
	open  bool
	cmds  []command
	label string
}

// SetLabel names the list in the draw log.
func (l *CommandList) SetLabel(label string) { l.label = label }

// Recording reports whether the list is open.
func (l *CommandList) Recording() bool { return l.open }

// Reset implements gpucore.CommandList.
func (l *CommandList) Reset(alloc gpucore.CommandAllocator) error {
	if l.open {
		return errors.New("software: command list reset while recording")
	}
	a, err := asAllocator(alloc)
	if err != nil {
		return err
	}
	l.alloc = a
	l.cmds = nil
	l.open = true
	a.recording.Add(1)
	return nil
}

// Close implements gpucore.CommandList.
func (l *CommandList) Close() error {
	if !l.open {
		return errors.New("software: command list already closed")
	}
	l.open = false
	l.alloc.recording.Add(-1)
	return nil
}

func (l *CommandList) record(c command) {
	if !l.open {
		panic("software: command recorded into a closed list")
	}
	l.cmds = append(l.cmds, c)
}

// ResourceBarrier implements gpucore.CommandList.
func (l *CommandList) ResourceBarrier(barriers ...gpucore.Barrier) {
	l.record(command{kind: cmdBarrier, barriers: append([]gpucore.Barrier(nil), barriers...)})
}

// SetRenderTargets implements gpucore.CommandList.
func (l *CommandList) SetRenderTargets(rtv, dsv gpucore.DescriptorHandle) {
	c := command{kind: cmdSetRenderTargets, rt: l.dev.resolve(rtv)}
	if !dsv.IsZero() {
		c.ds = l.dev.resolve(dsv)
	}
	l.record(c)
}

// ClearRenderTarget implements gpucore.CommandList.
func (l *CommandList) ClearRenderTarget(rtv gpucore.DescriptorHandle, c gpucore.Color) {
	l.record(command{kind: cmdClearRenderTarget, rt: l.dev.resolve(rtv), color: c})
}

// ClearDepthStencil implements gpucore.CommandList.
func (l *CommandList) ClearDepthStencil(dsv gpucore.DescriptorHandle, depth float32, stencil uint8) {
	l.record(command{kind: cmdClearDepthStencil, ds: l.dev.resolve(dsv), depth: depth, stencil: stencil})
}

// SetViewport implements gpucore.CommandList.
func (l *CommandList) SetViewport(v gpucore.Viewport) {
	l.record(command{kind: cmdViewport, viewport: v})
}

// SetScissorRect implements gpucore.CommandList.
func (l *CommandList) SetScissorRect(r gpucore.Rect) {
	l.record(command{kind: cmdScissor, rect: r})
}

// SetPipeline implements gpucore.CommandList.
func (l *CommandList) SetPipeline(p gpucore.Pipeline) {
	l.record(command{kind: cmdPipeline, pipeline: p})
}

// SetConstantBuffer implements gpucore.CommandList.
func (l *CommandList) SetConstantBuffer(slot int, buf gpucore.Buffer, offset, size uint64) {
	l.record(command{kind: cmdConstantBuffer, slot: slot, buf: asBuffer(buf), offset: offset, size: size})
}

// SetShaderResource implements gpucore.CommandList.
func (l *CommandList) SetShaderResource(slot int, buf gpucore.Buffer, offset, size uint64) {
	l.record(command{kind: cmdShaderResource, slot: slot, buf: asBuffer(buf), offset: offset, size: size})
}

// DrawInstanced implements gpucore.CommandList.
func (l *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	l.record(command{kind: cmdDraw, draw: [4]uint32{vertexCountPerInstance, instanceCount, startVertex, startInstance}})
}

// textures returns every texture the recorded commands reference.
func textures(cmds []command) []*Texture {
	seen := make(map[*Texture]struct{})
	var out []*Texture
	add := func(t *Texture) {
		if t == nil {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, c := range cmds {
		add(c.rt)
		add(c.ds)
		for _, b := range c.barriers {
			if t, ok := b.Texture.(*Texture); ok {
				add(t)
			}
		}
	}
	return out
}
