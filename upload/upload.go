// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package upload provides persistently mapped upload buffers.
//
// An upload buffer is an array of fixed-size elements in host-visible
// memory. It is mapped once at creation and stays mapped until Destroy;
// the CPU writes elements with CopyData and the GPU reads them later.
// Nothing here stops the CPU from overwriting an element the GPU has not
// consumed yet: the frame ring's fence protocol does that.
//
// Elements used as constant buffers are padded to
// gpucore.ConstantBufferAlignment bytes so each can be bound on its own.
package upload

import (
	"fmt"

	"github.com/gogpu/g3d/gpucore"
)

// ConstantBufferByteSize rounds n up to the constant buffer alignment.
func ConstantBufferByteSize(n uint64) uint64 {
	const mask = gpucore.ConstantBufferAlignment - 1
	return (n + mask) &^ mask
}

// Layout describes the elements of a buffer.
type Layout struct {
	// ElementSize is the raw size of one element in bytes.
	ElementSize uint64

	// ConstantBuffer pads each element to the constant buffer alignment.
	ConstantBuffer bool
}

// Stride is the distance between two consecutive elements.
func (l Layout) Stride() uint64 {
	if l.ConstantBuffer {
		return ConstantBufferByteSize(l.ElementSize)
	}
	return l.ElementSize
}

// Buffer is an upload buffer of count elements.
type Buffer struct {
	buf    gpucore.Buffer
	mem    []byte
	layout Layout
	stride uint64
	count  int
}

// New allocates and maps a buffer of count elements.
func New(dev gpucore.Device, name string, layout Layout, count int) (*Buffer, error) {
	if layout.ElementSize == 0 {
		return nil, fmt.Errorf("upload: %s: zero element size", name)
	}
	if count <= 0 {
		return nil, fmt.Errorf("upload: %s: element count %d", name, count)
	}

	stride := layout.Stride()
	size := stride * uint64(count)
	buf, err := dev.CreateUploadBuffer(name, size)
	if err != nil {
		return nil, fmt.Errorf("upload: create %s (%d bytes): %w", name, size, err)
	}
	mem, err := buf.Map()
	if err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("upload: map %s: %w", name, err)
	}

	return &Buffer{buf: buf, mem: mem, layout: layout, stride: stride, count: count}, nil
}

// CopyData copies data into element index.
//
// index must be in [0, Count) and data no longer than the element size;
// anything else is a programming error and panics. The caller guarantees
// the GPU is not reading the element.
func (b *Buffer) CopyData(index int, data []byte) {
	b.check(index)
	if uint64(len(data)) > b.layout.ElementSize {
		panic(fmt.Sprintf("upload: %s: %d bytes into a %d byte element", b.buf.Label(), len(data), b.layout.ElementSize))
	}
	off := uint64(index) * b.stride
	copy(b.mem[off:off+uint64(len(data))], data)
}

// Read returns a copy of element index, without padding.
func (b *Buffer) Read(index int) []byte {
	b.check(index)
	off := uint64(index) * b.stride
	out := make([]byte, b.layout.ElementSize)
	copy(out, b.mem[off:off+b.layout.ElementSize])
	return out
}

func (b *Buffer) check(index int) {
	if index < 0 || index >= b.count {
		panic(fmt.Sprintf("upload: %s: element %d out of range [0,%d)", b.buf.Label(), index, b.count))
	}
}

// Offset is the byte offset of element index.
func (b *Buffer) Offset(index int) uint64 {
	b.check(index)
	return uint64(index) * b.stride
}

// GPUAddress is the device address of element index.
func (b *Buffer) GPUAddress(index int) uint64 {
	return b.buf.GPUAddress() + b.Offset(index)
}

// Stride is the distance between two elements in bytes.
func (b *Buffer) Stride() uint64 { return b.stride }

// ElementSize is the unpadded element size.
func (b *Buffer) ElementSize() uint64 { return b.layout.ElementSize }

// Count is the number of elements.
func (b *Buffer) Count() int { return b.count }

// Size is the allocated size in bytes.
func (b *Buffer) Size() uint64 { return b.buf.Size() }

// Resource returns the underlying GPU buffer, for binding.
func (b *Buffer) Resource() gpucore.Buffer { return b.buf }

// Destroy unmaps and releases the buffer. No unflushed command may
// reference it.
func (b *Buffer) Destroy() {
	if b.buf == nil {
		return
	}
	b.buf.Unmap()
	b.buf.Destroy()
	b.mem = nil
	b.buf = nil
}
