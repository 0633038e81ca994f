// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
)

// Buffer is an upload buffer: a HAL buffer plus the CPU copy that Map
// returns.
type Buffer struct {
	dev    *Device
	hal    hal.Buffer
	label  string
	size   uint64
	shadow []byte
	addr   uint64

	mu        sync.Mutex
	mapped    bool
	destroyed bool
}

// Label implements gpucore.Buffer.
func (b *Buffer) Label() string { return b.label }

// Size implements gpucore.Buffer.
func (b *Buffer) Size() uint64 { return b.size }

// Map implements gpucore.Buffer.
func (b *Buffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil, fmt.Errorf("wgpu: map %q: %w", b.label, gpucore.ErrDestroyed)
	}
	b.mapped = true
	return b.shadow[:b.size], nil
}

// Unmap implements gpucore.Buffer.
func (b *Buffer) Unmap() {
	b.mu.Lock()
	b.mapped = false
	b.mu.Unlock()
}

// Mapped reports whether the buffer is mapped.
func (b *Buffer) Mapped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mapped
}

// GPUAddress implements gpucore.Buffer.
func (b *Buffer) GPUAddress() uint64 { return b.addr }

// Destroy implements gpucore.Buffer.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.mapped = false
	b.dev.hal.DestroyBuffer(b.hal)
}

// flush writes the CPU copy of [offset, offset+size) to the GPU buffer,
// widened to four byte boundaries.
func (b *Buffer) flush(q hal.Queue, offset, size uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	if size == 0 || offset+size > b.size {
		size = b.size - min(offset, b.size)
	}
	start := offset &^ 3
	end := min(align4(offset+size), uint64(len(b.shadow)))
	if start >= end {
		return
	}
	q.WriteBuffer(b.hal, start, b.shadow[start:end])
}

// Texture is a two dimensional HAL texture with its default view.
type Texture struct {
	dev    *Device
	hal    hal.Texture
	view   hal.TextureView
	label  string
	width  int
	height int
	format gpucore.Format

	mu        sync.Mutex
	state     gpucore.ResourceState
	destroyed bool
}

func (d *Device) newTexture(label string, width, height int, format gpucore.Format, usage gputypes.TextureUsage, state gpucore.ResourceState) (*Texture, error) {
	ht, err := d.hal.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),  //nolint:gosec // G115: validated positive by callers
			Height:             uint32(height), //nolint:gosec // G115: validated positive by callers
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w", label, err)
	}
	view, err := d.hal.CreateTextureView(ht, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		d.hal.DestroyTexture(ht)
		return nil, fmt.Errorf("wgpu: create view %q: %w", label, err)
	}
	return &Texture{
		dev:    d,
		hal:    ht,
		view:   view,
		label:  label,
		width:  width,
		height: height,
		format: format,
		state:  state,
	}, nil
}

// Label implements gpucore.Texture.
func (t *Texture) Label() string { return t.label }

// Width implements gpucore.Texture.
func (t *Texture) Width() int { return t.width }

// Height implements gpucore.Texture.
func (t *Texture) Height() int { return t.height }

// Format implements gpucore.Texture.
func (t *Texture) Format() gpucore.Format { return t.format }

// Destroy implements gpucore.Texture.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.dev.hal.DestroyTextureView(t.view)
	t.dev.hal.DestroyTexture(t.hal)
}

// Destroyed reports whether Destroy was called.
func (t *Texture) Destroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

// State returns the state the last encoded barrier left the texture in.
func (t *Texture) State() gpucore.ResourceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Texture) setState(s gpucore.ResourceState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// textureUsage maps a resource state to the HAL usage it corresponds to.
// Presentable buffers are copy sources: a host reads them out.
func textureUsage(s gpucore.ResourceState) gputypes.TextureUsage {
	switch s {
	case gpucore.StatePresent:
		return gputypes.TextureUsageCopySrc
	default:
		return gputypes.TextureUsageRenderAttachment
	}
}

// DescriptorHeap is a range of descriptor handles.
type DescriptorHeap struct {
	typ      gpucore.DescriptorHeapType
	capacity int
	start    gpucore.DescriptorHandle
}

// Type implements gpucore.DescriptorHeap.
func (h *DescriptorHeap) Type() gpucore.DescriptorHeapType { return h.typ }

// Capacity implements gpucore.DescriptorHeap.
func (h *DescriptorHeap) Capacity() int { return h.capacity }

// Start implements gpucore.DescriptorHeap.
func (h *DescriptorHeap) Start() gpucore.DescriptorHandle { return h.start }

// Destroy implements gpucore.DescriptorHeap.
func (h *DescriptorHeap) Destroy() {}

// ShaderModule is a HAL shader module.
type ShaderModule struct {
	dev   *Device
	hal   hal.ShaderModule
	label string
	once  sync.Once
}

// Label implements gpucore.ShaderModule.
func (m *ShaderModule) Label() string { return m.label }

// Destroy implements gpucore.ShaderModule.
func (m *ShaderModule) Destroy() {
	m.once.Do(func() { m.dev.hal.DestroyShaderModule(m.hal) })
}

// Pipeline is a HAL render pipeline with its layouts.
type Pipeline struct {
	dev         *Device
	label       string
	hal         hal.RenderPipeline
	layout      hal.PipelineLayout
	groupLayout hal.BindGroupLayout
	once        sync.Once
}

// Label implements gpucore.Pipeline.
func (p *Pipeline) Label() string { return p.label }

// Destroy implements gpucore.Pipeline.
func (p *Pipeline) Destroy() {
	p.once.Do(func() {
		if p.hal != nil {
			p.dev.hal.DestroyRenderPipeline(p.hal)
		}
		if p.layout != nil {
			p.dev.hal.DestroyPipelineLayout(p.layout)
		}
		if p.groupLayout != nil {
			p.dev.hal.DestroyBindGroupLayout(p.groupLayout)
		}
	})
}
