// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/g3d/backend/software"
	"github.com/gogpu/g3d/gpucore"
)

const trivialVertex = `
@vertex
fn vs_main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

// headerOnly is the smallest word sequence the software device accepts.
var headerOnly = []uint32{spirvMagic, 0x00010000, 0, 1, 0}

func newDevice(t *testing.T) gpucore.Device {
	t.Helper()
	a, err := software.NewFactory().SoftwareAdapter()
	if err != nil {
		t.Fatalf("SoftwareAdapter: %v", err)
	}
	dev, err := a.CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	t.Cleanup(dev.Destroy)
	return dev
}

// skipUnsupported skips when the WGSL front end lacks a feature the
// shader needs.
func skipUnsupported(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: WGSL feature not implemented: %v", err)
	}
}

func TestCompileTrivial(t *testing.T) {
	code, err := Compile(trivialVertex)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if code[0] != spirvMagic {
		t.Errorf("magic = 0x%08X, want 0x%08X", code[0], spirvMagic)
	}
	if len(code) < 5 {
		t.Errorf("SPIR-V is %d words, shorter than its header", len(code))
	}
}

func TestCompileInvalid(t *testing.T) {
	if _, err := Compile("fn broken( {"); err == nil {
		t.Error("Compile() of invalid WGSL succeeded")
	}
}

func TestCompileBuiltins(t *testing.T) {
	for _, name := range []string{Opaque, Shadow} {
		t.Run(name, func(t *testing.T) {
			src, ok := Builtin(name)
			if !ok {
				t.Fatalf("Builtin(%q) missing", name)
			}
			code, err := Compile(src)
			if err != nil {
				skipUnsupported(t, err)
				t.Fatalf("Compile(%s) error = %v", name, err)
			}
			t.Logf("%s shader compiled to %d words of SPIR-V", name, len(code))
		})
	}
}

func TestBuiltinSources(t *testing.T) {
	tests := []struct {
		name     string
		required []string
	}{
		{Opaque, []string{"@vertex", "@fragment", VertexEntry, FragmentEntry, "instance_index", "PassConstants"}},
		{Shadow, []string{"@vertex", VertexEntry, "shadow_pass"}},
	}
	for _, tt := range tests {
		src, _ := Builtin(tt.name)
		for _, req := range tt.required {
			if !strings.Contains(src, req) {
				t.Errorf("%s shader missing %q", tt.name, req)
			}
		}
	}
	if _, ok := Builtin("missing"); ok {
		t.Error("Builtin(missing) reported found")
	}
}

func TestLibraryCachesModules(t *testing.T) {
	l := NewLibrary(newDevice(t))
	l.Register("trivial", trivialVertex)

	a, err := l.Module("trivial")
	if err != nil {
		t.Fatalf("Module() error = %v", err)
	}
	b, err := l.Module("trivial")
	if err != nil {
		t.Fatalf("Module() error = %v", err)
	}
	if a != b {
		t.Error("second Module() call created a new module")
	}
	if got := l.Compiles(); got != 1 {
		t.Errorf("Compiles() = %d, want 1", got)
	}
	if a.Label() != "trivial" {
		t.Errorf("Label() = %q", a.Label())
	}
}

func TestLibraryReRegister(t *testing.T) {
	l := NewLibrary(newDevice(t))
	l.RegisterSPIRV("custom", headerOnly)
	first, err := l.Module("custom")
	if err != nil {
		t.Fatalf("Module() error = %v", err)
	}

	l.RegisterSPIRV("custom", headerOnly)
	second, err := l.Module("custom")
	if err != nil {
		t.Fatalf("Module() error = %v", err)
	}
	if first == second {
		t.Error("re-registering did not rebuild the module")
	}
	if got := l.Compiles(); got != 0 {
		t.Errorf("Compiles() = %d, want 0 for precompiled SPIR-V", got)
	}
}

func TestLibraryErrors(t *testing.T) {
	l := NewLibrary(newDevice(t))

	if _, err := l.Module("missing"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Module(missing) error = %v, want ErrUnknown", err)
	}

	l.Register("broken", "fn broken( {")
	if _, err := l.Module("broken"); err == nil {
		t.Error("Module(broken) succeeded")
	}

	l.RegisterSPIRV("garbage", []uint32{1, 2, 3, 4, 5})
	if _, err := l.Module("garbage"); err == nil {
		t.Error("device accepted a module without the SPIR-V magic")
	}
}

func TestLibraryNames(t *testing.T) {
	l := NewLibrary(newDevice(t))
	l.Register("aaa", trivialVertex)
	got := l.Names()
	want := []string{"aaa", Opaque, Shadow}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLibraryDestroyRecreates(t *testing.T) {
	l := NewLibrary(newDevice(t))
	l.RegisterSPIRV("custom", headerOnly)
	before, _ := l.Module("custom")
	l.Destroy()
	after, err := l.Module("custom")
	if err != nil {
		t.Fatalf("Module() after Destroy error = %v", err)
	}
	if before == after {
		t.Error("Destroy kept the cached module")
	}
}
