// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "testing"

func TestDescriptorHandleOffset(t *testing.T) {
	tests := []struct {
		name      string
		start     uint64
		n         int
		increment uint64
		want      uint64
	}{
		{"zero offset", 0x1000, 0, 32, 0x1000},
		{"first slot", 0x1000, 1, 32, 0x1020},
		{"third slot", 0x1000, 3, 32, 0x1060},
		{"wide stride", 0x2000, 2, 256, 0x2200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DescriptorHandle{Ptr: tt.start}
			got := h.Offset(tt.n, tt.increment)
			if got.Ptr != tt.want {
				t.Errorf("Offset(%d, %d) = %#x, want %#x", tt.n, tt.increment, got.Ptr, tt.want)
			}
		})
	}
}

func TestDescriptorHandleIsZero(t *testing.T) {
	if !(DescriptorHandle{}).IsZero() {
		t.Error("zero handle IsZero() = false")
	}
	if (DescriptorHandle{Ptr: 1}).IsZero() {
		t.Error("non-zero handle IsZero() = true")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{AdapterDiscrete.String(), "Discrete"},
		{AdapterSoftware.String(), "Software"},
		{AdapterKind(42).String(), "AdapterKind(42)"},
		{DescriptorHeapRTV.String(), "RTV"},
		{DescriptorHeapCBVSRVUAV.String(), "CBV_SRV_UAV"},
		{StatePresent.String(), "Present"},
		{StateDepthWrite.String(), "DepthWrite"},
		{ResourceState(9).String(), "ResourceState(9)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestAdapterInfoString(t *testing.T) {
	info := AdapterInfo{Index: 1, Name: "Test GPU", Kind: AdapterDiscrete, DedicatedVideoMemory: 4 << 30}
	want := "#1 Test GPU (Discrete, 4096 MB)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTransition(t *testing.T) {
	b := Transition(nil, StatePresent, StateRenderTarget)
	if b.Before != StatePresent || b.After != StateRenderTarget {
		t.Errorf("Transition() = %+v", b)
	}
}
