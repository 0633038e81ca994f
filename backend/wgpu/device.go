// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// Descriptor increment sizes reported by the device. Descriptors live on
// the CPU: a handle is a key into the device's descriptor table.
const (
	rtvIncrement = 32
	dsvIncrement = 32
	cbvIncrement = 64
)

// bufferPlacement is the alignment of buffer GPU addresses.
const bufferPlacement = 64 * 1024

// uploadUsage is the usage of every upload buffer: it may be bound as a
// uniform or a read-only storage buffer and is written by the queue.
const uploadUsage = gputypes.BufferUsageUniform | gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst

// Device is a logical device over a HAL device and its queue.
type Device struct {
	info   gpucore.AdapterInfo
	hal    hal.Device
	queue  hal.Queue
	format gpucore.Format

	owned   bool
	release func()

	mu          sync.Mutex
	nextHeapID  uint64
	nextAddr    uint64
	descriptors map[uint64]*Texture
	cmdQueue    *Queue
	fences      []*Fence
	destroyed   bool
}

var _ gpucore.Device = (*Device)(nil)

func newDevice(info gpucore.AdapterInfo, dev hal.Device, queue hal.Queue, format gpucore.Format) *Device {
	return &Device{
		info:        info,
		hal:         dev,
		queue:       queue,
		format:      format,
		nextHeapID:  1,
		nextAddr:    bufferPlacement,
		descriptors: make(map[uint64]*Texture),
	}
}

// Info implements gpucore.Device.
func (d *Device) Info() gpucore.AdapterInfo { return d.info }

// SurfaceFormat is the preferred swap chain format.
func (d *Device) SurfaceFormat() gpucore.Format { return d.format }

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device { return d.hal }

// CreateCommandQueue implements gpucore.Device. A HAL device has a single
// queue, so a device creates at most one command queue.
func (d *Device) CreateCommandQueue() (gpucore.CommandQueue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, gpucore.ErrDestroyed
	}
	if d.cmdQueue != nil {
		return nil, fmt.Errorf("wgpu: device %q has a single queue", d.info.Name)
	}
	d.cmdQueue = newQueue(d)
	return d.cmdQueue, nil
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
	return &CommandList{dev: d, alloc: a, open: true}, nil
}

// CreateFence implements gpucore.Device.
func (d *Device) CreateFence(initial uint64) (gpucore.Fence, error) {
	hf, err := d.hal.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("wgpu: create fence: %w", err)
	}
	f := newFence(d.hal, hf, initial)
	d.mu.Lock()
	d.fences = append(d.fences, f)
	d.mu.Unlock()
	return f, nil
}

// CreateDescriptorHeap implements gpucore.Device.
func (d *Device) CreateDescriptorHeap(desc gpucore.DescriptorHeapDesc) (gpucore.DescriptorHeap, error) {
	if desc.Capacity <= 0 {
		return nil, fmt.Errorf("wgpu: descriptor heap capacity %d", desc.Capacity)
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

// CreateUploadBuffer implements gpucore.Device. The GPU buffer is rounded
// up to a multiple of four bytes, as queue writes require.
func (d *Device) CreateUploadBuffer(label string, size uint64) (gpucore.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("wgpu: buffer %q: zero size", label)
	}
	aligned := align4(size)
	hb, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  aligned,
		Usage: uploadUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", label, err)
	}

	d.mu.Lock()
	addr := d.nextAddr
	d.nextAddr += (size + bufferPlacement - 1) / bufferPlacement * bufferPlacement
	d.mu.Unlock()
	return &Buffer{dev: d, hal: hb, label: label, size: size, shadow: make([]byte, aligned), addr: addr}, nil
}

// CreateDepthStencil implements gpucore.Device.
func (d *Device) CreateDepthStencil(width, height int, format gpucore.Format) (gpucore.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wgpu: depth buffer size %dx%d", width, height)
	}
	t, err := d.newTexture("depth-stencil", width, height, format,
		gputypes.TextureUsageRenderAttachment, gpucore.StateCommon)
	if err != nil {
		return nil, err
	}
	return t, nil
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
		panic(fmt.Sprintf("wgpu: foreign texture %T", tex))
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

// CreateSwapChain implements gpucore.Device. A zero format takes the
// device's surface format.
func (d *Device) CreateSwapChain(queue gpucore.CommandQueue, surface gpucore.Surface, desc gpucore.SwapChainDesc) (gpucore.SwapChain, error) {
	q, ok := queue.(*Queue)
	if !ok {
		return nil, fmt.Errorf("wgpu: foreign queue %T", queue)
	}
	if desc.BufferCount < 1 {
		return nil, fmt.Errorf("wgpu: swap chain buffer count %d", desc.BufferCount)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = d.format
	}
	sc := &SwapChain{dev: d, queue: q, surface: surface, format: format}
	if err := sc.allocate(desc.BufferCount, desc.Width, desc.Height); err != nil {
		return nil, err
	}
	return sc, nil
}

// CreateShaderModule implements gpucore.Device. The code must be SPIR-V.
func (d *Device) CreateShaderModule(label string, code []uint32) (gpucore.ShaderModule, error) {
	m, err := d.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: shader module %q: %w", label, err)
	}
	return &ShaderModule{dev: d, hal: m, label: label}, nil
}

// CreatePipeline implements gpucore.Device.
//
// The pipeline layout has one bind group: binding 0 is a uniform buffer,
// bindings 1 to 3 are read-only storage buffers. Slots passed to
// SetConstantBuffer and SetShaderResource are binding numbers.
func (d *Device) CreatePipeline(desc gpucore.PipelineDesc) (gpucore.Pipeline, error) {
	vs, ok := desc.Vertex.(*ShaderModule)
	if !ok || vs == nil {
		return nil, fmt.Errorf("wgpu: pipeline %q: vertex module required", desc.Label)
	}
	p := &Pipeline{dev: d, label: desc.Label}

	var err error
	p.groupLayout, err = d.hal.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bindings",
		Entries: bindingLayout(),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: pipeline %q: bind group layout: %w", desc.Label, err)
	}
	p.layout, err = d.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.groupLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("wgpu: pipeline %q: layout: %w", desc.Label, err)
	}

	rpd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     vs.hal,
			EntryPoint: desc.VertexEntry,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if fs, ok := desc.Fragment.(*ShaderModule); ok && fs != nil {
		rpd.Fragment = &hal.FragmentState{
			Module:     fs.hal,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.ColorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		}
	}
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		rpd.DepthStencil = &hal.DepthStencilState{
			Format:            desc.DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	}

	p.hal, err = d.hal.CreateRenderPipeline(rpd)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("wgpu: pipeline %q: %w", desc.Label, err)
	}
	return p, nil
}

// bindingSlots is the number of bindings of the pipeline layout.
const bindingSlots = 4

func bindingLayout() []gputypes.BindGroupLayoutEntry {
	visibility := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	uniform := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	storage := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	return []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: visibility, Buffer: uniform},
		{Binding: 1, Visibility: visibility, Buffer: storage},
		{Binding: 2, Visibility: visibility, Buffer: storage},
		{Binding: 3, Visibility: visibility, Buffer: storage},
	}
}

// Destroy implements gpucore.Device. Fence watchers are stopped; the HAL
// device is destroyed only when this device created it.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	fences := d.fences
	d.fences = nil
	d.mu.Unlock()

	for _, f := range fences {
		f.stop()
	}
	if d.owned {
		d.hal.Destroy()
	}
	if d.release != nil {
		d.release()
	}
	logx.Logger().Debug("wgpu: device destroyed", "adapter", d.info.Name)
}

func align4(n uint64) uint64 { return (n + 3) &^ 3 }
