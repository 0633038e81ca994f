// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/g3d/backend/software"
	"github.com/gogpu/g3d/device"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/render"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/shader"
	"github.com/gogpu/g3d/swapchain"
)

// testShader is a SPIR-V header. The noop device accepts any module.
var testShader = []uint32{0x07230203, 0x00010000, 0, 1, 0}

// newNoopFactory creates a factory over the noop HAL backend.
func newNoopFactory(t *testing.T) *Factory {
	t.Helper()
	f, err := NewFactory(&noop.API{})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	t.Cleanup(f.Destroy)
	return f
}

func newTestDevice(t *testing.T) (*Device, *Queue) {
	t.Helper()
	f := newNoopFactory(t)
	adapters := f.Adapters()
	if len(adapters) == 0 {
		t.Fatal("noop instance has no adapters")
	}
	dev, err := adapters[0].CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	t.Cleanup(dev.Destroy)
	q, err := dev.CreateCommandQueue()
	if err != nil {
		t.Fatalf("CreateCommandQueue: %v", err)
	}
	return dev.(*Device), q.(*Queue)
}

// waitFence blocks until f reaches value or fails the test.
func waitFence(t *testing.T, f gpucore.Fence, value uint64) {
	t.Helper()
	ev := gpucore.NewEvent()
	if err := f.SetEventOnCompletion(value, ev); err != nil {
		t.Fatalf("SetEventOnCompletion: %v", err)
	}
	select {
	case <-ev.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("fence did not reach %d (completed %d)", value, f.CompletedValue())
	}
}

func TestFactorySoftwareAdapter(t *testing.T) {
	f := newNoopFactory(t)
	a, err := f.SoftwareAdapter()
	if err != nil {
		t.Fatalf("SoftwareAdapter: %v", err)
	}
	if got := a.Info().Kind; got != gpucore.AdapterSoftware {
		t.Errorf("reference adapter kind = %v, want Software", got)
	}
	again, _ := f.SoftwareAdapter()
	if again != a {
		t.Error("SoftwareAdapter should return the same adapter")
	}
}

func TestFactoryDestroyKeepsDevices(t *testing.T) {
	f, err := NewFactory(&noop.API{})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	dev, err := f.Adapters()[0].CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	f.Destroy()
	if f.instance == nil {
		t.Fatal("instance released while a device is alive")
	}
	if _, err := dev.CreateUploadBuffer("after-destroy", 16); err != nil {
		t.Errorf("CreateUploadBuffer after factory Destroy: %v", err)
	}
	dev.Destroy()
	if f.instance != nil {
		t.Error("instance not released after the last device")
	}
}

func TestAdapterKind(t *testing.T) {
	tests := []struct {
		in   gputypes.DeviceType
		want gpucore.AdapterKind
	}{
		{gputypes.DeviceTypeDiscreteGPU, gpucore.AdapterDiscrete},
		{gputypes.DeviceTypeIntegratedGPU, gpucore.AdapterIntegrated},
	}
	for _, tt := range tests {
		if got := adapterKind(tt.in); got != tt.want {
			t.Errorf("adapterKind(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUploadBuffer(t *testing.T) {
	dev, _ := newTestDevice(t)
	a, err := dev.CreateUploadBuffer("a", 10)
	if err != nil {
		t.Fatalf("CreateUploadBuffer: %v", err)
	}
	b, _ := dev.CreateUploadBuffer("b", 1)

	if a.Size() != 10 {
		t.Errorf("Size() = %d, want 10", a.Size())
	}
	data, err := a.Map()
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(data) != 10 {
		t.Errorf("len(Map()) = %d, want 10", len(data))
	}
	if a.GPUAddress()%bufferPlacement != 0 || b.GPUAddress()%bufferPlacement != 0 {
		t.Errorf("addresses %#x, %#x not placement aligned", a.GPUAddress(), b.GPUAddress())
	}
	if b.GPUAddress() <= a.GPUAddress() {
		t.Errorf("address of b %#x not after a %#x", b.GPUAddress(), a.GPUAddress())
	}

	a.Unmap()
	a.Destroy()
	if _, err := a.Map(); !errors.Is(err, gpucore.ErrDestroyed) {
		t.Errorf("Map after Destroy: err = %v, want ErrDestroyed", err)
	}
	if _, err := dev.CreateUploadBuffer("zero", 0); err == nil {
		t.Error("zero sized buffer should fail")
	}
}

func TestDescriptorHeaps(t *testing.T) {
	dev, _ := newTestDevice(t)
	h1, err := dev.CreateDescriptorHeap(gpucore.DescriptorHeapDesc{Type: gpucore.DescriptorHeapRTV, Capacity: 2})
	if err != nil {
		t.Fatalf("CreateDescriptorHeap: %v", err)
	}
	h2, _ := dev.CreateDescriptorHeap(gpucore.DescriptorHeapDesc{Type: gpucore.DescriptorHeapDSV, Capacity: 1})
	if h1.Start() == h2.Start() {
		t.Error("heaps share a start handle")
	}
	if got := dev.DescriptorIncrementSize(gpucore.DescriptorHeapCBVSRVUAV); got != cbvIncrement {
		t.Errorf("CBV increment = %d, want %d", got, cbvIncrement)
	}
	if _, err := dev.CreateDescriptorHeap(gpucore.DescriptorHeapDesc{Capacity: 0}); err == nil {
		t.Error("zero capacity heap should fail")
	}
}

func TestSingleQueue(t *testing.T) {
	dev, _ := newTestDevice(t)
	if _, err := dev.CreateCommandQueue(); err == nil {
		t.Error("second CreateCommandQueue should fail")
	}
}

func TestCommandListStates(t *testing.T) {
	dev, q := newTestDevice(t)
	alloc, _ := dev.CreateCommandAllocator()
	cl, _ := dev.CreateCommandList(alloc)

	if err := q.ExecuteCommandLists(cl); !errors.Is(err, gpucore.ErrListNotClosed) {
		t.Errorf("execute of a recording list: err = %v, want ErrListNotClosed", err)
	}
	if err := cl.Reset(alloc); err == nil {
		t.Error("Reset of a recording list should fail")
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := cl.Close(); err == nil {
		t.Error("second Close should fail")
	}

	defer func() {
		if recover() == nil {
			t.Error("recording into a closed list should panic")
		}
	}()
	cl.DrawInstanced(3, 1, 0, 0)
}

func TestAllocatorInUseUntilSignaled(t *testing.T) {
	dev, q := newTestDevice(t)
	alloc, _ := dev.CreateCommandAllocator()
	cl, _ := dev.CreateCommandList(alloc)
	fence, _ := dev.CreateFence(0)
	_ = cl.Close()

	if err := q.ExecuteCommandLists(cl); err != nil {
		t.Fatalf("ExecuteCommandLists: %v", err)
	}
	if err := alloc.Reset(); !errors.Is(err, gpucore.ErrAllocatorInUse) {
		t.Errorf("Reset before signal: err = %v, want ErrAllocatorInUse", err)
	}
	if err := q.Signal(fence, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	waitFence(t, fence, 1)
	if err := alloc.Reset(); err != nil {
		t.Errorf("Reset after completion: %v", err)
	}
	if q.Executed() != 1 {
		t.Errorf("Executed() = %d, want 1", q.Executed())
	}
}

func TestFenceEventAlreadyReached(t *testing.T) {
	dev, _ := newTestDevice(t)
	fence, _ := dev.CreateFence(5)
	ev := gpucore.NewEvent()
	if err := fence.SetEventOnCompletion(3, ev); err != nil {
		t.Fatalf("SetEventOnCompletion: %v", err)
	}
	if !ev.Signaled() {
		t.Error("event for a completed value should be signaled immediately")
	}
	if n := fence.(*Fence).PendingEvents(); n != 0 {
		t.Errorf("PendingEvents() = %d, want 0", n)
	}
}

func TestEncodeClearsAndBarriers(t *testing.T) {
	dev, q := newTestDevice(t)
	surface := software.NewSurface(32, 16)
	chain, err := dev.CreateSwapChain(q, surface, gpucore.SwapChainDesc{BufferCount: 2})
	if err != nil {
		t.Fatalf("CreateSwapChain: %v", err)
	}
	sc := chain.(*SwapChain)
	if w, h := sc.Size(); w != 32 || h != 16 {
		t.Fatalf("Size() = %dx%d, want 32x16", w, h)
	}

	heap, _ := dev.CreateDescriptorHeap(gpucore.DescriptorHeapDesc{Type: gpucore.DescriptorHeapRTV, Capacity: 1})
	back, _ := sc.Buffer(0)
	dev.CreateRenderTargetView(back, heap.Start())

	alloc, _ := dev.CreateCommandAllocator()
	cl, _ := dev.CreateCommandList(alloc)
	cl.ResourceBarrier(gpucore.Transition(back, gpucore.StatePresent, gpucore.StateRenderTarget))
	cl.ClearRenderTarget(heap.Start(), gpucore.Color{0, 0, 1, 1})
	cl.ResourceBarrier(gpucore.Transition(back, gpucore.StateRenderTarget, gpucore.StatePresent))
	_ = cl.Close()

	if err := q.ExecuteCommandLists(cl); err != nil {
		t.Fatalf("ExecuteCommandLists: %v", err)
	}
	if got := back.(*Texture).State(); got != gpucore.StatePresent {
		t.Errorf("back buffer state = %v, want Present", got)
	}
	if !q.InFlight(back.(*Texture)) {
		t.Error("back buffer should be in flight before the signal")
	}
	if err := sc.ResizeBuffers(0, 8, 8); !errors.Is(err, gpucore.ErrResourceInUse) {
		t.Errorf("resize while in flight: err = %v, want ErrResourceInUse", err)
	}

	fence, _ := dev.CreateFence(0)
	if err := q.Signal(fence, 1); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	waitFence(t, fence, 1)
	if q.InFlight(back.(*Texture)) {
		t.Error("back buffer still in flight after completion")
	}
	if err := sc.Present(0, 1); err != nil {
		t.Errorf("Present: %v", err)
	}
	if err := sc.ResizeBuffers(0, 8, 8); err != nil {
		t.Fatalf("ResizeBuffers: %v", err)
	}
	if !back.(*Texture).Destroyed() {
		t.Error("old buffer not destroyed by resize")
	}
	if sc.BufferCount() != 2 {
		t.Errorf("BufferCount() = %d, want 2", sc.BufferCount())
	}
}

func TestDrawWithoutTargets(t *testing.T) {
	dev, q := newTestDevice(t)
	vs, err := dev.CreateShaderModule("vs", testShader)
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	defer vs.Destroy()
	p, err := dev.CreatePipeline(gpucore.PipelineDesc{Label: "p", Vertex: vs, VertexEntry: "main"})
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	defer p.Destroy()

	alloc, _ := dev.CreateCommandAllocator()
	cl, _ := dev.CreateCommandList(alloc)
	cl.SetPipeline(p)
	cl.DrawInstanced(3, 1, 0, 0)
	_ = cl.Close()
	if err := q.ExecuteCommandLists(cl); !errors.Is(err, errNoTargets) {
		t.Errorf("draw without targets: err = %v, want errNoTargets", err)
	}
	if err := alloc.Reset(); err != nil {
		t.Errorf("failed execution left the allocator in use: %v", err)
	}
}

func TestContextFlush(t *testing.T) {
	ctx, err := device.Create(newNoopFactory(t), device.DefaultOptions())
	if err != nil {
		t.Fatalf("device.Create: %v", err)
	}
	defer ctx.Close()

	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if ctx.CompletedFence() < ctx.CurrentFence() {
		t.Errorf("completed %d < current %d after Flush", ctx.CompletedFence(), ctx.CurrentFence())
	}
}

func TestRenderFrames(t *testing.T) {
	ctx, err := device.Create(newNoopFactory(t), device.DefaultOptions())
	if err != nil {
		t.Fatalf("device.Create: %v", err)
	}
	defer ctx.Close()

	swap, err := swapchain.New(ctx, software.NewSurface(64, 32), swapchain.Config{BufferCount: 2})
	if err != nil {
		t.Fatalf("swapchain.New: %v", err)
	}
	defer swap.Close()

	lib := shader.NewLibrary(ctx.Device())
	defer lib.Destroy()
	lib.RegisterSPIRV("test", testShader)

	sc := &scene.Scene{
		Camera:    scene.DefaultCamera(1),
		Materials: []scene.Material{{Name: "white", DiffuseAlbedo: [4]float32{1, 1, 1, 1}}},
		Items: []*scene.RenderItem{{
			Name:        "tri",
			Bounds:      scene.Sphere(mgl32.Vec3{0, 0, 0}, 1),
			Vertices:    make([]byte, 3*24),
			VertexCount: 3,
			Instances:   []scene.Instance{{World: mgl32.Translate3D(0, 0, 5)}},
		}},
		LightDirection: mgl32.Vec3{0, -1, 0},
		LightIntensity: 1,
	}
	r, err := render.New(ctx, swap, sc, render.Config{RingDepth: 3, Shaders: lib, Shader: "test"})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	defer r.Close()

	const frames = 5
	for i := range frames {
		if err := r.Render(float32(i)*0.016, 0.016); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := swap.Chain().(*SwapChain).Presents(); got != frames {
		t.Errorf("Presents() = %d, want %d", got, frames)
	}
	if r.VisibleInstances() != 1 {
		t.Errorf("VisibleInstances() = %d, want 1", r.VisibleInstances())
	}
}

// mockProvider exposes a noop HAL device through gpucontext.
type mockProvider struct {
	dev    hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (m *mockProvider) Device() gpucontext.Device             { return nil }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) HalDevice() any                        { return m.dev }
func (m *mockProvider) HalQueue() any                         { return m.queue }

// plainProvider has no HAL accessors.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

func TestFromProvider(t *testing.T) {
	inst, err := (&noop.API{}).CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	defer inst.Destroy()
	open, err := inst.EnumerateAdapters(nil)[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer open.Device.Destroy()

	p := &mockProvider{dev: open.Device, queue: open.Queue, format: gputypes.TextureFormatRGBA8Unorm}
	dev, err := FromProvider(p)
	if err != nil {
		t.Fatalf("FromProvider: %v", err)
	}
	if dev.SurfaceFormat() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("SurfaceFormat() = %v, want RGBA8Unorm", dev.SurfaceFormat())
	}
	if dev.HAL() != open.Device {
		t.Error("HAL() is not the provider's device")
	}
	dev.Destroy()

	p.format = gputypes.TextureFormatUndefined
	dev, _ = FromProvider(p)
	if dev.SurfaceFormat() != gpucore.BackBufferFormat {
		t.Errorf("undefined provider format: SurfaceFormat() = %v, want %v", dev.SurfaceFormat(), gpucore.BackBufferFormat)
	}
	dev.Destroy()

	if _, err := FromProvider(plainProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("provider without HAL: err = %v, want ErrNoHAL", err)
	}
}
