// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// Descriptor increment sizes reported by the device.
const (
	rtvIncrement = 32
	dsvIncrement = 32
	cbvIncrement = 64
)

// bufferPlacement is the alignment of buffer GPU addresses.
const bufferPlacement = 64 * 1024

// ErrValidation wraps every validation error recorded by the device.
var ErrValidation = errors.New("software: validation")

// Device is the simulated logical device.
type Device struct {
	info gpucore.AdapterInfo

	mu          sync.Mutex
	nextHeapID  uint64
	nextAddr    uint64
	descriptors map[uint64]*Texture
	queues      []*Queue
	draws       []DrawRecord
	errs        []error
	destroyed   bool
}

func newDevice(info gpucore.AdapterInfo) *Device {
	return &Device{
		info:        info,
		nextHeapID:  1,
		nextAddr:    bufferPlacement,
		descriptors: make(map[uint64]*Texture),
	}
}

// Info implements gpucore.Device.
func (d *Device) Info() gpucore.AdapterInfo { return d.info }

// CreateCommandQueue implements gpucore.Device. The returned queue is a
// *Queue whose goroutine runs until the device is destroyed.
func (d *Device) CreateCommandQueue() (gpucore.CommandQueue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, gpucore.ErrDestroyed
	}
	q := newQueue(d)
	d.queues = append(d.queues, q)
	return q, nil
}

// CreateCommandAllocator implements gpucore.Device.
func (d *Device) CreateCommandAllocator() (gpucore.CommandAllocator, error) {
	return &CommandAllocator{}, nil
}

// CreateCommandList implements gpucore.Device. The list starts recording.
func (d *Device) CreateCommandList(alloc gpucore.CommandAllocator) (gpucore.CommandList, error) {
	a, err := asAllocator(alloc)
	if err != nil {
		return nil, err
	}
	l := &CommandList{dev: d, alloc: a, open: true}
	a.recording.Add(1)
	return l, nil
}

// CreateFence implements gpucore.Device.
func (d *Device) CreateFence(initial uint64) (gpucore.Fence, error) {
	return &Fence{completed: initial}, nil
}

// CreateDescriptorHeap implements gpucore.Device.
func (d *Device) CreateDescriptorHeap(desc gpucore.DescriptorHeapDesc) (gpucore.DescriptorHeap, error) {
	if desc.Capacity <= 0 {
		return nil, fmt.Errorf("software: descriptor heap capacity %d", desc.Capacity)
	}
	d.mu.Lock()
	id := d.nextHeapID
	d.nextHeapID++
	d.mu.Unlock()
	return &DescriptorHeap{
		typ:      desc.Type,
		capacity: desc.Capacity,
		start:    gpucore.DescriptorHandle{Ptr: id << 32},
	}, nil
}

// DescriptorIncrementSize implements gpucore.Device.
func (d *Device) DescriptorIncrementSize(t gpucore.DescriptorHeapType) uint64 {
	switch t {
	case gpucore.DescriptorHeapRTV:
		return rtvIncrement
	case gpucore.DescriptorHeapDSV:
		return dsvIncrement
	default:
		return cbvIncrement
	}
}

// CreateUploadBuffer implements gpucore.Device.
func (d *Device) CreateUploadBuffer(label string, size uint64) (gpucore.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("software: buffer %q: zero size", label)
	}
	d.mu.Lock()
	addr := d.nextAddr
	d.nextAddr += (size + bufferPlacement - 1) / bufferPlacement * bufferPlacement
	d.mu.Unlock()
	return &Buffer{label: label, mem: make([]byte, size), addr: addr}, nil
}

// CreateDepthStencil implements gpucore.Device.
func (d *Device) CreateDepthStencil(width, height int, format gpucore.Format) (gpucore.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: depth buffer size %dx%d", width, height)
	}
	return newTexture("depth-stencil", width, height, format, gpucore.StateCommon), nil
}

// CreateRenderTargetView implements gpucore.Device.
func (d *Device) CreateRenderTargetView(tex gpucore.Texture, h gpucore.DescriptorHandle) {
	d.writeDescriptor(tex, h)
}

// CreateDepthStencilView implements gpucore.Device.
func (d *Device) CreateDepthStencilView(tex gpucore.Texture, h gpucore.DescriptorHandle) {
	d.writeDescriptor(tex, h)
}

func (d *Device) writeDescriptor(tex gpucore.Texture, h gpucore.DescriptorHandle) {
	t, ok := tex.(*Texture)
	if !ok {
		panic(fmt.Sprintf("software: foreign texture %T", tex))
	}
	d.mu.Lock()
	d.descriptors[h.Ptr] = t
	d.mu.Unlock()
}

// resolve returns the texture a descriptor currently points to.
func (d *Device) resolve(h gpucore.DescriptorHandle) *Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.descriptors[h.Ptr]
}

// CreateSwapChain implements gpucore.Device.
func (d *Device) CreateSwapChain(queue gpucore.CommandQueue, surface gpucore.Surface, desc gpucore.SwapChainDesc) (gpucore.SwapChain, error) {
	q, ok := queue.(*Queue)
	if !ok {
		return nil, fmt.Errorf("software: foreign queue %T", queue)
	}
	if desc.BufferCount < 1 {
		return nil, fmt.Errorf("software: swap chain buffer count %d", desc.BufferCount)
	}
	sc := &SwapChain{queue: q, surface: surface, format: desc.Format}
	if err := sc.allocate(desc.BufferCount, desc.Width, desc.Height); err != nil {
		return nil, err
	}
	return sc, nil
}

// CreateShaderModule implements gpucore.Device. The code must be SPIR-V.
func (d *Device) CreateShaderModule(label string, code []uint32) (gpucore.ShaderModule, error) {
	if len(code) < 5 || code[0] != spirvMagic {
		return nil, fmt.Errorf("software: shader %q: not a SPIR-V module", label)
	}
	return &ShaderModule{label: label, words: len(code)}, nil
}

// CreatePipeline implements gpucore.Device.
func (d *Device) CreatePipeline(desc gpucore.PipelineDesc) (gpucore.Pipeline, error) {
	if desc.Vertex == nil {
		return nil, fmt.Errorf("software: pipeline %q: missing vertex shader", desc.Label)
	}
	return &Pipeline{label: desc.Label}, nil
}

// Destroy implements gpucore.Device. Queued work is drained first.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	queues := d.queues
	d.mu.Unlock()

	for _, q := range queues {
		q.close()
	}
}

// Draws returns a copy of the draw log.
func (d *Device) Draws() []DrawRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DrawRecord(nil), d.draws...)
}

// ValidationErrors returns the validation errors recorded so far.
func (d *Device) ValidationErrors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]error(nil), d.errs...)
}

func (d *Device) recordDraw(r DrawRecord) {
	d.mu.Lock()
	d.draws = append(d.draws, r)
	d.mu.Unlock()
}

func (d *Device) validationf(format string, args ...any) {
	err := fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
	logx.Logger().Warn("software: validation error", "err", err)
	d.mu.Lock()
	d.errs = append(d.errs, err)
	d.mu.Unlock()
}

// DrawRecord is one executed draw.
type DrawRecord struct {
	// List is the label of the command list the draw was recorded in.
	List string

	// Target is the label of the bound render target.
	Target string

	// Pipeline is the label of the bound pipeline, if any.
	Pipeline string

	VertexCount   uint32
	InstanceCount uint32
	StartVertex   uint32
	StartInstance uint32

	// Constants holds, per slot, the bytes read from the bound constant
	// buffer range when the draw executed.
	Constants map[int][]byte

	// Resources holds, per slot, the bytes read from the bound structured
	// buffer range when the draw executed.
	Resources map[int][]byte
}
