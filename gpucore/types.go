// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Format is the pixel format of a texture. It reuses the WebGPU format enum.
type Format = gputypes.TextureFormat

// Default formats used by the swap chain and the depth/stencil buffer.
const (
	// BackBufferFormat is the default swap chain buffer format.
	BackBufferFormat Format = gputypes.TextureFormatBGRA8Unorm

	// DepthStencilFormat is the default depth/stencil buffer format.
	DepthStencilFormat Format = gputypes.TextureFormatDepth24PlusStencil8
)

// ConstantBufferAlignment is the size multiple required for a buffer range
// bound as a constant buffer.
const ConstantBufferAlignment = 256

// AdapterKind classifies a physical adapter.
type AdapterKind int

const (
	// AdapterUnknown is an adapter of unknown kind.
	AdapterUnknown AdapterKind = iota
	// AdapterDiscrete is a discrete GPU.
	AdapterDiscrete
	// AdapterIntegrated is a GPU integrated with the CPU.
	AdapterIntegrated
	// AdapterSoftware is a software rasterizer (the reference/WARP adapter).
	AdapterSoftware
)

// String returns the string representation of AdapterKind.
func (k AdapterKind) String() string {
	switch k {
	case AdapterUnknown:
		return "Unknown"
	case AdapterDiscrete:
		return "Discrete"
	case AdapterIntegrated:
		return "Integrated"
	case AdapterSoftware:
		return "Software"
	default:
		return fmt.Sprintf("AdapterKind(%d)", int(k))
	}
}

// AdapterInfo describes a physical adapter.
type AdapterInfo struct {
	// Index is the enumeration index of the adapter within its factory.
	Index int

	// Name is a human readable description.
	Name string

	// Kind classifies the adapter.
	Kind AdapterKind

	// DedicatedVideoMemory is the amount of memory not shared with the CPU, in bytes.
	DedicatedVideoMemory uint64
}

// String returns a short human readable description.
func (a AdapterInfo) String() string {
	return fmt.Sprintf("#%d %s (%s, %d MB)", a.Index, a.Name, a.Kind, a.DedicatedVideoMemory/(1024*1024))
}

// DescriptorHeapType is the kind of view stored in a descriptor heap.
type DescriptorHeapType int

const (
	// DescriptorHeapRTV stores render-target views.
	DescriptorHeapRTV DescriptorHeapType = iota
	// DescriptorHeapDSV stores depth-stencil views.
	DescriptorHeapDSV
	// DescriptorHeapCBVSRVUAV stores constant, shader-resource and unordered-access views.
	DescriptorHeapCBVSRVUAV
)

// String returns the string representation of DescriptorHeapType.
func (t DescriptorHeapType) String() string {
	switch t {
	case DescriptorHeapRTV:
		return "RTV"
	case DescriptorHeapDSV:
		return "DSV"
	case DescriptorHeapCBVSRVUAV:
		return "CBV_SRV_UAV"
	default:
		return fmt.Sprintf("DescriptorHeapType(%d)", int(t))
	}
}

// DescriptorHeapDesc describes a descriptor heap to create.
type DescriptorHeapDesc struct {
	// Type is the kind of descriptor stored in the heap.
	Type DescriptorHeapType

	// Capacity is the fixed number of descriptors in the heap.
	Capacity int
}

// DescriptorHandle is the CPU address of one descriptor slot.
// Handles are plain values: they are never reallocated, only reinterpreted.
type DescriptorHandle struct {
	Ptr uint64
}

// Offset returns the handle n slots after h, given the heap increment size.
func (h DescriptorHandle) Offset(n int, increment uint64) DescriptorHandle {
	//nolint:gosec // G115: descriptor indices are bounded by heap capacity
	return DescriptorHandle{Ptr: h.Ptr + uint64(n)*increment}
}

// IsZero reports whether h is the null handle.
func (h DescriptorHandle) IsZero() bool { return h.Ptr == 0 }

// ResourceState is the usage state of a texture, changed by barriers.
type ResourceState int

const (
	// StateCommon is the initial state of newly created textures.
	StateCommon ResourceState = iota
	// StatePresent is the state a backbuffer must be in to be presented.
	StatePresent
	// StateRenderTarget is the state a texture must be in to be rendered to.
	StateRenderTarget
	// StateDepthWrite is the state of a depth buffer being written.
	StateDepthWrite
)

// String returns the string representation of ResourceState.
func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "Common"
	case StatePresent:
		return "Present"
	case StateRenderTarget:
		return "RenderTarget"
	case StateDepthWrite:
		return "DepthWrite"
	default:
		return fmt.Sprintf("ResourceState(%d)", int(s))
	}
}

// Barrier is a resource state transition recorded into a command list.
type Barrier struct {
	Texture Texture
	Before  ResourceState
	After   ResourceState
}

// Transition returns a barrier moving tex from before to after.
func Transition(tex Texture, before, after ResourceState) Barrier {
	return Barrier{Texture: tex, Before: before, After: after}
}

// Viewport is the rasterizer viewport.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect is an integer rectangle, used for scissor tests.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Color is a linear RGBA clear color.
type Color [4]float32

// SwapChainDesc describes a swap chain.
type SwapChainDesc struct {
	Width       int
	Height      int
	BufferCount int
	Format      Format
}
