// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/g3d/gpucore"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Buffer is an upload buffer backed by a Go byte slice. The mapped view
// aliases the memory the simulated GPU reads from.
type Buffer struct {
	label string
	mem   []byte
	addr  uint64

	mu        sync.Mutex
	mapped    bool
	destroyed bool
}

// Label implements gpucore.Buffer.
func (b *Buffer) Label() string { return b.label }

// Size implements gpucore.Buffer.
func (b *Buffer) Size() uint64 { return uint64(len(b.mem)) }

// Map implements gpucore.Buffer.
func (b *Buffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil, gpucore.ErrDestroyed
	}
	b.mapped = true
	return b.mem, nil
}

// Unmap implements gpucore.Buffer.
func (b *Buffer) Unmap() {
	b.mu.Lock()
	b.mapped = false
	b.mu.Unlock()
}

// Mapped reports whether the buffer is currently mapped.
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
	b.destroyed = true
	b.mapped = false
	b.mu.Unlock()
}

// Destroyed reports whether Destroy was called.
func (b *Buffer) Destroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// read copies size bytes at offset, as the GPU sees them.
func (b *Buffer) read(offset, size uint64) ([]byte, bool) {
	if offset+size > uint64(len(b.mem)) {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, b.mem[offset:offset+size])
	return out, true
}

// Texture is a simulated 2D image. Color textures keep RGBA pixels;
// depth textures keep their clear values only.
type Texture struct {
	label  string
	width  int
	height int
	format gpucore.Format

	mu        sync.Mutex
	state     gpucore.ResourceState
	pix       *image.RGBA
	depth     float32
	stencil   uint8
	destroyed bool
}

func newTexture(label string, width, height int, format gpucore.Format, state gpucore.ResourceState) *Texture {
	t := &Texture{label: label, width: width, height: height, format: format, state: state}
	if format != gpucore.DepthStencilFormat {
		t.pix = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return t
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
	t.destroyed = true
	t.mu.Unlock()
}

// Destroyed reports whether the texture was destroyed.
func (t *Texture) Destroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

// State returns the resource state on the GPU timeline.
func (t *Texture) State() gpucore.ResourceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Pixel returns the color at (x, y). Depth textures return transparent black.
func (t *Texture) Pixel(x, y int) color.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pix == nil {
		return color.RGBA{}
	}
	return t.pix.RGBAAt(x, y)
}

// DepthStencil returns the last depth and stencil clear values.
func (t *Texture) DepthStencil() (float32, uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.depth, t.stencil
}

func (t *Texture) snapshot() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pix == nil {
		return nil
	}
	img := image.NewRGBA(t.pix.Rect)
	copy(img.Pix, t.pix.Pix)
	return img
}

// DescriptorHeap is a range of descriptor addresses. The simulated device
// keeps the descriptor contents itself, keyed by address.
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

// ShaderModule is a validated SPIR-V module.
type ShaderModule struct {
	label string
	words int
}

// Label implements gpucore.ShaderModule.
func (m *ShaderModule) Label() string { return m.label }

// Destroy implements gpucore.ShaderModule.
func (m *ShaderModule) Destroy() {}

// Pipeline is a simulated pipeline state object.
type Pipeline struct {
	label string
}

// Label implements gpucore.Pipeline.
func (p *Pipeline) Label() string { return p.label }

// Destroy implements gpucore.Pipeline.
func (p *Pipeline) Destroy() {}

func asBuffer(b gpucore.Buffer) *Buffer {
	sb, ok := b.(*Buffer)
	if !ok {
		panic(fmt.Sprintf("software: foreign buffer %T", b))
	}
	return sb
}

func asTexture(t gpucore.Texture) *Texture {
	st, ok := t.(*Texture)
	if !ok {
		panic(fmt.Sprintf("software: foreign texture %T", t))
	}
	return st
}
