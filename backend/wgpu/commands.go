// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/g3d/gpucore"
)

// CommandAllocator counts the executed lists the GPU has not finished.
type CommandAllocator struct {
	pending atomic.Int32
}

// Reset implements gpucore.CommandAllocator.
func (a *CommandAllocator) Reset() error {
	if a.pending.Load() > 0 {
		return gpucore.ErrAllocatorInUse
	}
	return nil
}

// Pending returns the number of executed lists not yet completed.
func (a *CommandAllocator) Pending() int { return int(a.pending.Load()) }

func asAllocator(alloc gpucore.CommandAllocator) (*CommandAllocator, error) {
	a, ok := alloc.(*CommandAllocator)
	if !ok || a == nil {
		return nil, fmt.Errorf("wgpu: foreign command allocator %T", alloc)
	}
	return a, nil
}

type cmdKind int

const (
	cmdBarrier cmdKind = iota
	cmdSetTargets
	cmdClearColor
	cmdClearDepth
	cmdViewport
	cmdScissor
	cmdPipeline
	cmdConstantBuffer
	cmdShaderResource
	cmdDraw
)

type command struct {
	kind     cmdKind
	barriers []gpucore.Barrier
	rtv      gpucore.DescriptorHandle
	dsv      gpucore.DescriptorHandle
	color    gpucore.Color
	depth    float32
	stencil  uint8
	viewport gpucore.Viewport
	rect     gpucore.Rect
	pipeline *Pipeline
	slot     int
	buf      *Buffer
	offset   uint64
	size     uint64
	draw     [4]uint32
}

// CommandList records commands on the CPU. They are encoded into a HAL
// command buffer when the list is executed.
type CommandList struct {
	dev   *Device
	alloc *CommandAllocator
	cmds  []command
	open  bool
}

var _ gpucore.CommandList = (*CommandList)(nil)

// Recording reports whether the list is open.
func (l *CommandList) Recording() bool { return l.open }

// Reset implements gpucore.CommandList.
func (l *CommandList) Reset(alloc gpucore.CommandAllocator) error {
	a, err := asAllocator(alloc)
	if err != nil {
		return err
	}
	if l.open {
		return fmt.Errorf("wgpu: reset of a recording command list")
	}
	l.alloc = a
	l.cmds = l.cmds[:0]
	l.open = true
	return nil
}

// Close implements gpucore.CommandList.
func (l *CommandList) Close() error {
	if !l.open {
		return fmt.Errorf("wgpu: command list already closed")
	}
	l.open = false
	return nil
}

func (l *CommandList) record(c command) {
	if !l.open {
		panic("wgpu: recording into a closed command list")
	}
	l.cmds = append(l.cmds, c)
}

// ResourceBarrier implements gpucore.CommandList.
func (l *CommandList) ResourceBarrier(barriers ...gpucore.Barrier) {
	l.record(command{kind: cmdBarrier, barriers: append([]gpucore.Barrier(nil), barriers...)})
}

// SetRenderTargets implements gpucore.CommandList.
func (l *CommandList) SetRenderTargets(rtv, dsv gpucore.DescriptorHandle) {
	l.record(command{kind: cmdSetTargets, rtv: rtv, dsv: dsv})
}

// ClearRenderTarget implements gpucore.CommandList.
func (l *CommandList) ClearRenderTarget(rtv gpucore.DescriptorHandle, c gpucore.Color) {
	l.record(command{kind: cmdClearColor, rtv: rtv, color: c})
}

// ClearDepthStencil implements gpucore.CommandList.
func (l *CommandList) ClearDepthStencil(dsv gpucore.DescriptorHandle, depth float32, stencil uint8) {
	l.record(command{kind: cmdClearDepth, dsv: dsv, depth: depth, stencil: stencil})
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
	pp, ok := p.(*Pipeline)
	if !ok {
		panic(fmt.Sprintf("wgpu: foreign pipeline %T", p))
	}
	l.record(command{kind: cmdPipeline, pipeline: pp})
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

func asBuffer(buf gpucore.Buffer) *Buffer {
	b, ok := buf.(*Buffer)
	if !ok {
		panic(fmt.Sprintf("wgpu: foreign buffer %T", buf))
	}
	return b
}
