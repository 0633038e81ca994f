// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/g3d/gpucore"
)

type stubFactory struct{ name string }

func (f *stubFactory) Adapters() []gpucore.Adapter { return nil }
func (f *stubFactory) SoftwareAdapter() (gpucore.Adapter, error) {
	return nil, gpucore.ErrNoAdapter
}
func (f *stubFactory) Destroy() {}

func withRegistry(t *testing.T, entries map[string]FactoryFunc) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = entries
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func opener(name string) FactoryFunc {
	return func() (gpucore.Factory, error) { return &stubFactory{name: name}, nil }
}

func TestRegistryRegisterAndOpen(t *testing.T) {
	withRegistry(t, map[string]FactoryFunc{})

	Register("test", opener("test"))
	if !IsRegistered("test") {
		t.Fatal("IsRegistered(test) = false after Register")
	}

	f, err := Open("test")
	if err != nil {
		t.Fatalf("Open(test) error = %v", err)
	}
	if sf, ok := f.(*stubFactory); !ok || sf.name != "test" {
		t.Errorf("Open(test) returned %#v", f)
	}
}

func TestRegistryOpenUnregistered(t *testing.T) {
	withRegistry(t, map[string]FactoryFunc{})

	_, err := Open("missing")
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryAvailableSorted(t *testing.T) {
	withRegistry(t, map[string]FactoryFunc{})

	Register("zeta", opener("zeta"))
	Register("alpha", opener("alpha"))

	got := Available()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("Available() = %v, want [alpha zeta]", got)
	}
}

func TestRegistryUnregister(t *testing.T) {
	withRegistry(t, map[string]FactoryFunc{})

	Register("temp", opener("temp"))
	Unregister("temp")
	if IsRegistered("temp") {
		t.Error("IsRegistered(temp) = true after Unregister")
	}
}

func TestOpenDefaultPriority(t *testing.T) {
	withRegistry(t, map[string]FactoryFunc{
		BackendSoftware: opener(BackendSoftware),
		BackendWGPU:     opener(BackendWGPU),
	})

	_, name, err := OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	if name != BackendWGPU {
		t.Errorf("OpenDefault() picked %q, want %q", name, BackendWGPU)
	}
}

func TestOpenDefaultFallsBack(t *testing.T) {
	failure := errors.New("no vulkan")
	withRegistry(t, map[string]FactoryFunc{
		BackendWGPU:     func() (gpucore.Factory, error) { return nil, failure },
		BackendSoftware: opener(BackendSoftware),
	})

	_, name, err := OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() error = %v", err)
	}
	if name != BackendSoftware {
		t.Errorf("OpenDefault() picked %q, want %q", name, BackendSoftware)
	}
}

func TestOpenDefaultNothingOpens(t *testing.T) {
	failure := errors.New("no vulkan")
	withRegistry(t, map[string]FactoryFunc{
		BackendWGPU: func() (gpucore.Factory, error) { return nil, failure },
	})

	_, _, err := OpenDefault()
	if !errors.Is(err, failure) {
		t.Errorf("OpenDefault() error = %v, want wrapped %v", err, failure)
	}
}

func TestOpenDefaultEmpty(t *testing.T) {
	withRegistry(t, map[string]FactoryFunc{})

	_, _, err := OpenDefault()
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("OpenDefault() error = %v, want ErrBackendNotAvailable", err)
	}
}
