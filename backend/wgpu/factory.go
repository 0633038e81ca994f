// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan" // Register the Vulkan HAL backend.

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

func init() {
	backend.Register(backend.BackendWGPU, func() (gpucore.Factory, error) {
		return Open()
	})
}

// Errors returned by the factory.
var (
	// ErrNoVulkan is returned by Open when the Vulkan HAL is not compiled in.
	ErrNoVulkan = errors.New("wgpu: vulkan backend not available")

	// ErrNoHAL is returned by FromProvider when the provider does not
	// expose its HAL device and queue.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL types")
)

// API creates HAL instances. hal.Backend and noop.API implement it.
type API interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Open creates a factory over the Vulkan HAL backend.
func Open() (*Factory, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoVulkan
	}
	return NewFactory(b)
}

// Factory enumerates the adapters of one HAL instance.
//
// The instance outlives Destroy until the last device created from the
// factory is destroyed.
type Factory struct {
	instance hal.Instance
	adapters []*Adapter

	mu        sync.Mutex
	refInst   hal.Instance
	reference *Adapter
	devices   int
	destroyed bool
}

// NewFactory creates an instance of api and enumerates its adapters.
func NewFactory(api API) (*Factory, error) {
	inst, err := api.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	f := &Factory{instance: inst}
	exposed := inst.EnumerateAdapters(nil)
	for i := range exposed {
		f.adapters = append(f.adapters, newAdapter(f, i, exposed[i]))
	}
	logx.Logger().Debug("wgpu: instance created", "adapters", len(f.adapters))
	return f, nil
}

// Adapters implements gpucore.Factory.
func (f *Factory) Adapters() []gpucore.Adapter {
	out := make([]gpucore.Adapter, len(f.adapters))
	for i, a := range f.adapters {
		out[i] = a
	}
	return out
}

// SoftwareAdapter implements gpucore.Factory. It returns the noop HAL
// adapter, which accepts every command and executes none.
func (f *Factory) SoftwareAdapter() (gpucore.Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reference != nil {
		return f.reference, nil
	}
	inst, err := (&noop.API{}).CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: reference instance: %w", err)
	}
	exposed := inst.EnumerateAdapters(nil)
	if len(exposed) == 0 {
		inst.Destroy()
		return nil, gpucore.ErrNoAdapter
	}
	f.refInst = inst
	f.reference = newAdapter(f, len(f.adapters), exposed[0])
	f.reference.info.Kind = gpucore.AdapterSoftware
	return f.reference, nil
}

// Destroy implements gpucore.Factory.
func (f *Factory) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
	f.releaseLocked()
}

func (f *Factory) acquire() {
	f.mu.Lock()
	f.devices++
	f.mu.Unlock()
}

func (f *Factory) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices--
	f.releaseLocked()
}

func (f *Factory) releaseLocked() {
	if !f.destroyed || f.devices > 0 {
		return
	}
	if f.instance != nil {
		f.instance.Destroy()
		f.instance = nil
	}
	if f.refInst != nil {
		f.refInst.Destroy()
		f.refInst = nil
	}
}

// Adapter is one enumerated HAL adapter.
type Adapter struct {
	factory *Factory
	exposed hal.ExposedAdapter
	info    gpucore.AdapterInfo
}

func newAdapter(f *Factory, index int, exposed hal.ExposedAdapter) *Adapter {
	return &Adapter{
		factory: f,
		exposed: exposed,
		info: gpucore.AdapterInfo{
			Index: index,
			Name:  exposed.Info.Name,
			Kind:  adapterKind(exposed.Info.DeviceType),
		},
	}
}

// adapterKind maps HAL device types. HAL does not report video memory, so
// the kind is the only ranking information an adapter carries.
func adapterKind(t gputypes.DeviceType) gpucore.AdapterKind {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucore.AdapterDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucore.AdapterIntegrated
	default:
		return gpucore.AdapterUnknown
	}
}

// Info implements gpucore.Adapter.
func (a *Adapter) Info() gpucore.AdapterInfo { return a.info }

// CreateDevice implements gpucore.Adapter.
func (a *Adapter) CreateDevice() (gpucore.Device, error) {
	open, err := a.exposed.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gpucore.ErrDeviceCreation, a.info.Name, err)
	}
	a.factory.acquire()
	d := newDevice(a.info, open.Device, open.Queue, gpucore.BackBufferFormat)
	d.owned = true
	d.release = a.factory.release
	return d, nil
}

// halProvider is implemented by device providers that expose their HAL
// objects, such as a gogpu application.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider wraps the device of a host application. The device stays
// owned by the provider: Destroy releases only the objects created through
// the returned device. Swap chains use the provider's surface format.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}

	format := gpucore.BackBufferFormat
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		format = f
	}
	d := newDevice(gpucore.AdapterInfo{Name: "shared device"}, dev, queue, format)
	logx.Logger().Info("wgpu: using shared device", "format", format)
	return d, nil
}
