// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/software"
	"github.com/gogpu/g3d/config"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/shader"
)

// headerOnly is a SPIR-V header, enough for the software device.
var headerOnly = []uint32{0x07230203, 0x00010000, 0, 1, 0}

func testShaders(lib *shader.Library) {
	lib.RegisterSPIRV(shader.Opaque, headerOnly)
}

// fakeClock advances by step on every call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func testScene() *scene.Scene {
	return &scene.Scene{
		Camera:    scene.DefaultCamera(1),
		Materials: []scene.Material{{Name: "grey", DiffuseAlbedo: [4]float32{0.5, 0.5, 0.5, 1}}},
		Items: []*scene.RenderItem{{
			Name:        "cube",
			Bounds:      scene.Box(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5}),
			Vertices:    make([]byte, 3*24),
			VertexCount: 3,
			Instances: []scene.Instance{
				{World: mgl32.Translate3D(0, 0, 5)},
				{World: mgl32.Translate3D(1, 0, 8)},
			},
		}},
	}
}

func newTestEngine(t *testing.T, surface *software.Surface, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithBackend(backend.BackendSoftware), WithShaders(testShaders)}, opts...)
	e, err := New(surface, testScene(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineRenderLoop(t *testing.T) {
	surface := software.NewSurface(64, 64)
	clock := &fakeClock{now: time.Unix(1000, 0), step: 20 * time.Millisecond}
	var updates int
	e := newTestEngine(t, surface,
		WithClock(clock.Now),
		WithFixedStep(10*time.Millisecond),
		WithFixedUpdate(func(step time.Duration) {
			if step != 10*time.Millisecond {
				t.Errorf("fixed update step = %v", step)
			}
			updates++
		}))

	// The first frame starts the clock; 50 more span one second.
	for i := 0; i < 51; i++ {
		if err := e.Render(); err != nil {
			t.Fatalf("Render frame %d: %v", i, err)
		}
	}
	if err := e.Flush(); err != nil {
		t.Fatal(err)
	}

	if got := e.Renderer().Frames(); got != 51 {
		t.Errorf("Frames() = %d, want 51", got)
	}
	if updates != 100 {
		t.Errorf("fixed updates = %d, want 100", updates)
	}
	if got, want := surface.Caption(), "FPS: 50 | V: 2"; got != want {
		t.Errorf("caption = %q, want %q", got, want)
	}
	if e.Backend() != backend.BackendSoftware {
		t.Errorf("Backend() = %q", e.Backend())
	}
	if e.Context().CurrentFence() != e.Context().CompletedFence() {
		t.Errorf("fence %d not reached after Flush (completed %d)",
			e.Context().CurrentFence(), e.Context().CompletedFence())
	}
}

func TestEngineSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings", config.DefaultFile)
	e := newTestEngine(t, software.NewSurface(32, 32),
		WithSettingsFile(path),
		WithRingDepth(2),
		WithVSync(false))

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file not created: %v", err)
	}
	s := e.Settings()
	if s.Video.FrameResources != 2 {
		t.Errorf("FrameResources = %d, want option override 2", s.Video.FrameResources)
	}
	if s.Video.VSync {
		t.Error("VSync = true, want option override false")
	}
	if s.Video.DefaultAdapter != 0 {
		t.Errorf("DefaultAdapter = %d, want 0", s.Video.DefaultAdapter)
	}
	if got := e.Renderer().Ring().Depth(); got != 2 {
		t.Errorf("ring depth = %d, want 2", got)
	}

	// The file keeps the values built from the adapters.
	onDisk, err := config.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if onDisk.Video.FrameResources != 3 {
		t.Errorf("file frame_resources = %d, want 3", onDisk.Video.FrameResources)
	}
}

func TestEngineWithSettings(t *testing.T) {
	s := config.Default()
	s.Video.BufferCount = 3
	e := newTestEngine(t, software.NewSurface(32, 32), WithSettings(s))
	if got := e.SwapChain().BufferCount(); got != 3 {
		t.Errorf("BufferCount() = %d, want 3", got)
	}
}

func TestEngineInjectedFactory(t *testing.T) {
	f := software.NewFactory()
	e := newTestEngine(t, software.NewSurface(32, 32), WithFactory(f))
	if e.Backend() != "injected" {
		t.Errorf("Backend() = %q, want injected", e.Backend())
	}
}

func TestEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"unknown backend", []Option{WithBackend("missing")}, backend.ErrBackendNotAvailable},
		{"invalid buffer count", []Option{WithBackend(backend.BackendSoftware), WithBufferCount(0)}, config.ErrInvalid},
		{"invalid ring depth", []Option{WithBackend(backend.BackendSoftware), WithRingDepth(0)}, config.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(software.NewSurface(32, 32), testScene(), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEngineOnResize(t *testing.T) {
	surface := software.NewSurface(64, 64)
	e := newTestEngine(t, surface)
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}

	surface.Resize(128, 64)
	if err := e.OnResize(128, 64); err != nil {
		t.Fatalf("OnResize: %v", err)
	}
	if got := e.Scene().Camera.AspectRatio(); got != 2 {
		t.Errorf("camera aspect = %v, want 2", got)
	}
	if err := e.Render(); err != nil {
		t.Fatalf("Render after resize: %v", err)
	}

	// Minimized: ignored.
	if err := e.OnResize(0, 0); err != nil {
		t.Fatalf("OnResize(0, 0): %v", err)
	}
	if w, h := e.SwapChain().Size(); w != 128 || h != 64 {
		t.Errorf("size after minimize = %dx%d, want 128x64", w, h)
	}
}

func TestEngineRemoveItem(t *testing.T) {
	e := newTestEngine(t, software.NewSurface(32, 32))
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}
	if !e.RemoveItem("cube") {
		t.Fatal("RemoveItem(cube) = false")
	}
	if e.RemoveItem("cube") {
		t.Error("second RemoveItem(cube) = true")
	}
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}
	if got := e.Renderer().VisibleInstances(); got != 0 {
		t.Errorf("VisibleInstances() = %d after removal, want 0", got)
	}
}

func TestEngineClose(t *testing.T) {
	e, err := New(software.NewSurface(32, 32), testScene(),
		WithBackend(backend.BackendSoftware), WithShaders(testShaders))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := e.Render(); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after Close = %v, want ErrClosed", err)
	}
	if err := e.OnResize(10, 10); !errors.Is(err, ErrClosed) {
		t.Errorf("OnResize after Close = %v, want ErrClosed", err)
	}
}
