// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/gpucore"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (gpucore.Factory, error) {
		return NewFactory(), nil
	})
}

// ReferenceAdapterName is the name of the adapter returned by
// Factory.SoftwareAdapter.
const ReferenceAdapterName = "Software Reference Rasterizer"

// AdapterSpec describes a simulated adapter.
type AdapterSpec struct {
	// Info is reported by the adapter. Index is assigned by the factory.
	Info gpucore.AdapterInfo

	// FailCreate makes CreateDevice fail, simulating a driver that cannot
	// create a device on this adapter.
	FailCreate bool
}

// Factory enumerates simulated adapters.
type Factory struct {
	adapters  []*Adapter
	reference *Adapter
}

// NewFactory creates a factory exposing the given adapters, in order.
// Without specs the factory exposes the reference adapter only.
func NewFactory(specs ...AdapterSpec) *Factory {
	f := &Factory{}
	for i, s := range specs {
		info := s.Info
		info.Index = i
		f.adapters = append(f.adapters, &Adapter{info: info, fail: s.FailCreate})
	}
	f.reference = &Adapter{info: gpucore.AdapterInfo{
		Index: len(specs),
		Name:  ReferenceAdapterName,
		Kind:  gpucore.AdapterSoftware,
	}}
	if len(specs) == 0 {
		f.reference.info.Index = 0
		f.adapters = append(f.adapters, f.reference)
	}
	return f
}

// Adapters implements gpucore.Factory.
func (f *Factory) Adapters() []gpucore.Adapter {
	out := make([]gpucore.Adapter, len(f.adapters))
	for i, a := range f.adapters {
		out[i] = a
	}
	return out
}

// SoftwareAdapter implements gpucore.Factory.
func (f *Factory) SoftwareAdapter() (gpucore.Adapter, error) {
	return f.reference, nil
}

// Destroy implements gpucore.Factory.
func (f *Factory) Destroy() {}

// Adapter is a simulated physical adapter.
type Adapter struct {
	info gpucore.AdapterInfo
	fail bool
}

// Info implements gpucore.Adapter.
func (a *Adapter) Info() gpucore.AdapterInfo { return a.info }

// CreateDevice implements gpucore.Adapter.
func (a *Adapter) CreateDevice() (gpucore.Device, error) {
	if a.fail {
		return nil, fmt.Errorf("software: adapter %q: %w", a.info.Name, gpucore.ErrDeviceCreation)
	}
	return newDevice(a.info), nil
}
