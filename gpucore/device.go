// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

// Device errors.
var (
	// ErrNoAdapter is returned when a factory exposes no usable adapter.
	ErrNoAdapter = errors.New("gpucore: no adapter available")

	// ErrDeviceCreation is returned when an adapter cannot create a device.
	ErrDeviceCreation = errors.New("gpucore: device creation failed")

	// ErrAllocatorInUse is returned when a command allocator is reset while
	// the GPU may still execute commands recorded from it.
	ErrAllocatorInUse = errors.New("gpucore: command allocator still in use by the GPU")

	// ErrResourceInUse is returned when a resource is released or resized
	// while submitted GPU work may still reference it.
	ErrResourceInUse = errors.New("gpucore: resource still referenced by in-flight GPU work")

	// ErrListNotClosed is returned when an open command list is executed.
	ErrListNotClosed = errors.New("gpucore: command list is still recording")

	// ErrDestroyed is returned when operating on a destroyed object.
	ErrDestroyed = errors.New("gpucore: object has been destroyed")
)

// Factory enumerates the adapters of one backend.
type Factory interface {
	// Adapters returns the enumerated adapters, in enumeration order.
	Adapters() []Adapter

	// SoftwareAdapter returns the backend's software/reference adapter,
	// used when hardware device creation fails.
	SoftwareAdapter() (Adapter, error)

	// Destroy releases the factory. Devices created from it stay valid.
	Destroy()
}

// Adapter is a physical adapter able to create logical devices.
type Adapter interface {
	Info() AdapterInfo
	CreateDevice() (Device, error)
}

// Device is the logical device: the factory of every other GPU object.
type Device interface {
	// Info describes the adapter the device was created from.
	Info() AdapterInfo

	CreateCommandQueue() (CommandQueue, error)
	CreateCommandAllocator() (CommandAllocator, error)

	// CreateCommandList returns a list in the recording state, bound to alloc.
	CreateCommandList(alloc CommandAllocator) (CommandList, error)

	CreateFence(initial uint64) (Fence, error)

	CreateDescriptorHeap(desc DescriptorHeapDesc) (DescriptorHeap, error)

	// DescriptorIncrementSize is the stride between two slots of a heap of type t.
	DescriptorIncrementSize(t DescriptorHeapType) uint64

	// CreateUploadBuffer allocates host-visible memory readable by the GPU.
	CreateUploadBuffer(label string, size uint64) (Buffer, error)

	// CreateDepthStencil allocates a depth/stencil texture in StateCommon.
	CreateDepthStencil(width, height int, format Format) (Texture, error)

	// CreateRenderTargetView writes a render-target view of tex into slot h.
	CreateRenderTargetView(tex Texture, h DescriptorHandle)

	// CreateDepthStencilView writes a depth-stencil view of tex into slot h.
	CreateDepthStencilView(tex Texture, h DescriptorHandle)

	// CreateSwapChain creates the swap chain presenting to surface. The
	// queue is the one presentation is ordered against.
	CreateSwapChain(queue CommandQueue, surface Surface, desc SwapChainDesc) (SwapChain, error)

	CreateShaderModule(label string, code []uint32) (ShaderModule, error)
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	// Destroy releases the device. All submitted work must be complete.
	Destroy()
}

// CommandQueue executes command lists in submission order.
type CommandQueue interface {
	// ExecuteCommandLists submits closed lists for asynchronous execution.
	ExecuteCommandLists(lists ...CommandList) error

	// Signal enqueues an instruction setting f to value once every
	// previously submitted command has completed.
	Signal(f Fence, value uint64) error
}

// CommandAllocator backs the memory of recorded commands.
type CommandAllocator interface {
	// Reset reclaims the memory. Fails with ErrAllocatorInUse when the GPU
	// has not finished executing lists recorded from this allocator.
	Reset() error
}

// CommandList records GPU commands. A list is either recording (open) or
// closed; recording into a closed list is a programming error and panics.
type CommandList interface {
	// Reset reopens the list for recording into alloc.
	Reset(alloc CommandAllocator) error
	Close() error

	ResourceBarrier(barriers ...Barrier)
	SetRenderTargets(rtv DescriptorHandle, dsv DescriptorHandle)
	ClearRenderTarget(rtv DescriptorHandle, c Color)
	ClearDepthStencil(dsv DescriptorHandle, depth float32, stencil uint8)
	SetViewport(v Viewport)
	SetScissorRect(r Rect)
	SetPipeline(p Pipeline)

	// SetConstantBuffer binds size bytes of buf starting at offset to slot.
	SetConstantBuffer(slot int, buf Buffer, offset, size uint64)

	// SetShaderResource binds size bytes of buf starting at offset to slot
	// as a structured (read-only) buffer.
	SetShaderResource(slot int, buf Buffer, offset, size uint64)

	DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32)
}

// Fence is a GPU/CPU synchronization counter.
type Fence interface {
	// CompletedValue is the last value the GPU timeline reached.
	CompletedValue() uint64

	// SetEventOnCompletion signals ev when the completed value reaches
	// value. The event is signaled immediately if it already has.
	SetEventOnCompletion(value uint64, ev *Event) error
}

// Buffer is host-visible GPU memory.
type Buffer interface {
	Label() string
	Size() uint64

	// Map returns the CPU view of the whole buffer. The view stays valid
	// until Unmap or Destroy.
	Map() ([]byte, error)
	Unmap()

	// GPUAddress is the device address of the first byte.
	GPUAddress() uint64

	Destroy()
}

// Texture is a two dimensional GPU image.
type Texture interface {
	Label() string
	Width() int
	Height() int
	Format() Format
	Destroy()
}

// DescriptorHeap is a fixed-capacity array of descriptors.
type DescriptorHeap interface {
	Type() DescriptorHeapType
	Capacity() int
	Start() DescriptorHandle
	Destroy()
}

// Surface is the output the swap chain presents to: typically a window
// client area supplied by the windowing collaborator.
type Surface interface {
	// Size returns the current client size in pixels.
	Size() (width, height int)
}

// SwapChain owns the buffered output images.
type SwapChain interface {
	BufferCount() int

	// Buffer returns the i-th buffer. The returned texture is owned by the
	// swap chain and becomes invalid after ResizeBuffers.
	Buffer(i int) (Texture, error)

	// ResizeBuffers recreates all buffers. Fails with ErrResourceInUse when
	// submitted work may still reference any of them.
	ResizeBuffers(count, width, height int) error

	// Present queues the presentation of buffer index after all work
	// submitted before it.
	Present(index int, syncInterval int) error

	Destroy()
}
