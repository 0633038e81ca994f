// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"unsafe"

	"github.com/gogpu/g3d/gpucore"
)

// Typed is an upload buffer whose elements are values of T. T must be a
// plain-old-data type (no pointers, slices, maps or strings) whose memory
// layout matches what the shaders expect.
type Typed[T any] struct {
	*Buffer
}

// NewTyped allocates a buffer of count elements of T.
func NewTyped[T any](dev gpucore.Device, name string, constantBuffer bool, count int) (*Typed[T], error) {
	var zero T
	b, err := New(dev, name, Layout{ElementSize: uint64(unsafe.Sizeof(zero)), ConstantBuffer: constantBuffer}, count)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{Buffer: b}, nil
}

// Set copies v into element index.
func (b *Typed[T]) Set(index int, v *T) {
	b.CopyData(index, Bytes(v))
}

// Get reads element index back.
func (b *Typed[T]) Get(index int) T {
	var v T
	copy(Bytes(&v), b.Read(index))
	return v
}

// Bytes returns the memory of the plain-old-data value v as a byte slice.
// The slice aliases v.
func Bytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v)) //nolint:gosec // plain-old-data element
}
