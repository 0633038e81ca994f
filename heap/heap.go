// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package heap manages fixed-capacity descriptor heaps.
//
// A heap is created once with its final capacity. Slot addresses are
// computed by linear offset from the heap start and never move, so a
// handle stays valid for the heap's lifetime. Rewriting a slot (for
// example when the swap chain is resized) changes what the handle refers
// to, not the handle itself.
package heap

import (
	"fmt"

	"github.com/gogpu/g3d/gpucore"
)

// Heap is a descriptor heap with a fixed slot stride.
type Heap struct {
	h      gpucore.DescriptorHeap
	stride uint64
}

// New creates a heap of the given type and capacity on dev.
func New(dev gpucore.Device, typ gpucore.DescriptorHeapType, capacity int) (*Heap, error) {
	h, err := dev.CreateDescriptorHeap(gpucore.DescriptorHeapDesc{Type: typ, Capacity: capacity})
	if err != nil {
		return nil, fmt.Errorf("heap: create %s heap (%d slots): %w", typ, capacity, err)
	}
	return &Heap{h: h, stride: dev.DescriptorIncrementSize(typ)}, nil
}

// Handle returns the address of slot index.
//
// An index outside [0, Capacity) is a programming error and panics.
func (h *Heap) Handle(index int) gpucore.DescriptorHandle {
	if index < 0 || index >= h.h.Capacity() {
		panic(fmt.Sprintf("heap: %s slot %d out of range [0,%d)", h.h.Type(), index, h.h.Capacity()))
	}
	return h.h.Start().Offset(index, h.stride)
}

// Start returns the address of slot 0.
func (h *Heap) Start() gpucore.DescriptorHandle { return h.h.Start() }

// Capacity returns the number of slots.
func (h *Heap) Capacity() int { return h.h.Capacity() }

// Stride returns the distance between two consecutive slots.
func (h *Heap) Stride() uint64 { return h.stride }

// Type returns the kind of descriptors the heap holds.
func (h *Heap) Type() gpucore.DescriptorHeapType { return h.h.Type() }

// Destroy releases the heap. No unflushed command may reference it.
func (h *Heap) Destroy() { h.h.Destroy() }
