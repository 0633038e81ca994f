// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"bytes"
	"testing"

	"github.com/gogpu/g3d/backend/software"
	"github.com/gogpu/g3d/gpucore"
)

func newTestDevice(t *testing.T) gpucore.Device {
	t.Helper()
	dev, err := software.NewFactory().Adapters()[0].CreateDevice()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(dev.Destroy)
	return dev
}

func TestConstantBufferByteSize(t *testing.T) {
	tests := []struct {
		in, want uint64
	}{
		{0, 0},
		{1, 256},
		{64, 256},
		{255, 256},
		{256, 256},
		{257, 512},
		{300, 512},
		{1000, 1024},
	}
	for _, tt := range tests {
		if got := ConstantBufferByteSize(tt.in); got != tt.want {
			t.Errorf("ConstantBufferByteSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStride(t *testing.T) {
	dev := newTestDevice(t)

	tests := []struct {
		name     string
		size     uint64
		constant bool
		want     uint64
	}{
		{"constant small", 64, true, 256},
		{"constant exact", 256, true, 256},
		{"constant large", 300, true, 512},
		{"structured", 64, false, 64},
		{"structured odd", 300, false, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const count = 4
			b, err := New(dev, tt.name, Layout{ElementSize: tt.size, ConstantBuffer: tt.constant}, count)
			if err != nil {
				t.Fatal(err)
			}
			defer b.Destroy()

			if b.Stride() != tt.want {
				t.Errorf("Stride() = %d, want %d", b.Stride(), tt.want)
			}
			if b.Size() != tt.want*count {
				t.Errorf("Size() = %d, want %d", b.Size(), tt.want*count)
			}
			if got := b.GPUAddress(1) - b.GPUAddress(0); got != tt.want {
				t.Errorf("address step = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCopyDataRoundTrip(t *testing.T) {
	dev := newTestDevice(t)
	const n = 5
	b, err := New(dev, "cb", Layout{ElementSize: 12, ConstantBuffer: true}, n)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	for i := 0; i < n; i++ {
		data := bytes.Repeat([]byte{byte(i + 1)}, 12)
		b.CopyData(i, data)
	}
	for i := 0; i < n; i++ {
		want := bytes.Repeat([]byte{byte(i + 1)}, 12)
		if got := b.Read(i); !bytes.Equal(got, want) {
			t.Errorf("Read(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestCopyDataVisibleThroughMapping(t *testing.T) {
	dev := newTestDevice(t)
	b, err := New(dev, "cb", Layout{ElementSize: 4, ConstantBuffer: true}, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	b.CopyData(1, []byte{0xde, 0xad, 0xbe, 0xef})
	mem, _ := b.Resource().Map()
	if got := mem[256:260]; !bytes.Equal(got, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("mapped bytes at stride offset = %v", got)
	}
	if !b.Resource().(*software.Buffer).Mapped() {
		t.Error("buffer not persistently mapped")
	}
}

func TestCopyDataOutOfRangePanics(t *testing.T) {
	dev := newTestDevice(t)
	b, err := New(dev, "cb", Layout{ElementSize: 8}, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	tests := []struct {
		name  string
		index int
		data  []byte
	}{
		{"index equals count", 3, make([]byte, 8)},
		{"negative index", -1, make([]byte, 8)},
		{"oversized payload", 0, make([]byte, 9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("CopyData did not panic")
				}
			}()
			b.CopyData(tt.index, tt.data)
		})
	}
}

func TestNewInvalid(t *testing.T) {
	dev := newTestDevice(t)
	if _, err := New(dev, "zero", Layout{ElementSize: 0}, 1); err == nil {
		t.Error("zero element size accepted")
	}
	if _, err := New(dev, "empty", Layout{ElementSize: 4}, 0); err == nil {
		t.Error("zero count accepted")
	}
}

func TestDestroyUnmaps(t *testing.T) {
	dev := newTestDevice(t)
	b, err := New(dev, "cb", Layout{ElementSize: 4}, 1)
	if err != nil {
		t.Fatal(err)
	}
	res := b.Resource().(*software.Buffer)
	b.Destroy()
	if res.Mapped() || !res.Destroyed() {
		t.Errorf("after Destroy mapped = %v, destroyed = %v", res.Mapped(), res.Destroyed())
	}
	b.Destroy()
}

type objectConstants struct {
	World    [16]float32
	Material uint32
	_        [3]uint32
}

func TestTypedRoundTrip(t *testing.T) {
	dev := newTestDevice(t)
	b, err := NewTyped[objectConstants](dev, "objects", true, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	if b.ElementSize() != 80 || b.Stride() != 256 {
		t.Errorf("ElementSize() = %d, Stride() = %d, want 80 and 256", b.ElementSize(), b.Stride())
	}

	v := objectConstants{Material: 7}
	v.World[0], v.World[15] = 1, 2
	b.Set(2, &v)

	got := b.Get(2)
	if got != v {
		t.Errorf("Get(2) = %+v, want %+v", got, v)
	}
	if zero := b.Get(0); zero != (objectConstants{}) {
		t.Errorf("Get(0) = %+v, want zero value", zero)
	}
}
