// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/g3d/backend/software"
	"github.com/gogpu/g3d/device"
	"github.com/gogpu/g3d/gpucore"
)

func testFactory() *software.Factory {
	return software.NewFactory(
		software.AdapterSpec{Info: gpucore.AdapterInfo{Name: "Integrated", Kind: gpucore.AdapterIntegrated, DedicatedVideoMemory: 512 << 20}},
		software.AdapterSpec{Info: gpucore.AdapterInfo{Name: "Discrete", Kind: gpucore.AdapterDiscrete, DedicatedVideoMemory: 8 << 30}},
		software.AdapterSpec{Info: gpucore.AdapterInfo{Name: "Other", Kind: gpucore.AdapterDiscrete, DedicatedVideoMemory: 8 << 30}},
	)
}

func TestFromAdaptersPicksMostMemory(t *testing.T) {
	s := FromAdapters(testFactory().Adapters())
	if s.Video.DefaultAdapter != 1 {
		t.Errorf("DefaultAdapter = %d, want 1", s.Video.DefaultAdapter)
	}
	if len(s.Video.Adapters) != 3 || s.Video.Adapters[1].Description != "Discrete" {
		t.Errorf("Adapters = %+v", s.Video.Adapters)
	}
}

func TestFromAdaptersNone(t *testing.T) {
	s := FromAdapters(nil)
	if s.AdapterPreference() != device.AutoAdapter {
		t.Errorf("AdapterPreference() = %d, want AutoAdapter", s.AdapterPreference())
	}
}

func TestBuildCreatesThenReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings", DefaultFile)

	s, err := Build(path, testFactory())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s.AdapterPreference() != 1 {
		t.Errorf("AdapterPreference() = %d, want 1", s.AdapterPreference())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	if !strings.Contains(string(data), "default_adapter = 1") {
		t.Errorf("settings file:\n%s", data)
	}

	// Edit the file: Build must now read it instead of enumerating.
	edited := strings.Replace(string(data), "default_adapter = 1", "default_adapter = 2", 1)
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = Build(path, software.NewFactory())
	if err != nil {
		t.Fatalf("Build() of existing file error = %v", err)
	}
	if s.AdapterPreference() != 2 || len(s.Video.Adapters) != 3 {
		t.Errorf("read settings = %+v", s.Video)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	s, err := Parse([]byte("[video]\nbuffer_count = 3\nvsync = false\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Video.BufferCount != 3 {
		t.Errorf("BufferCount = %d, want 3", s.Video.BufferCount)
	}
	if s.Video.FrameResources != 3 || s.Video.Width != 1280 {
		t.Errorf("defaults lost: %+v", s.Video)
	}
	if s.SyncInterval() != 0 {
		t.Errorf("SyncInterval() = %d, want 0", s.SyncInterval())
	}
	if s.DeviceOptions().AdapterIndex != device.AutoAdapter {
		t.Errorf("DeviceOptions().AdapterIndex = %d", s.DeviceOptions().AdapterIndex)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{"syntax", "[video\nwidth = 1", false},
		{"unknown key", "[video]\nfullscreen = true\n", false},
		{"wrong type", "[video]\nwidth = \"wide\"\n", false},
		{"zero buffers", "[video]\nbuffer_count = 0\n", true},
		{"zero frames", "[video]\nframe_resources = 0\n", true},
		{"negative size", "[video]\nwidth = -1\n", true},
		{"adapter out of list", "[video]\ndefault_adapter = 1\n[[video.adapters]]\nindex = 0\n", true},
		{"adapter below auto", "[video]\ndefault_adapter = -2\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() succeeded")
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalid) = %v, want %v (err %v)", got, tt.invalid, err)
			}
		})
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	s := FromAdapters(testFactory().Adapters())
	s.Video.ClearColor = [4]float32{0.25, 0.5, 0.75, 1}
	s.Video.VSync = false
	if err := s.Write(path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Video.ClearColor != s.Video.ClearColor || got.Video.VSync || got.Video.Adapters[2].Description != "Other" {
		t.Errorf("Read() = %+v, want %+v", got.Video, s.Video)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error = %v, want os.ErrNotExist", err)
	}
}

func TestWindowSize(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantW, wantH int
	}{
		{"defaults", "", 1280, 720},
		{"from file", "[video]\nwidth = 640\nheight = 480\n", 640, 480},
		{"zero height keeps default", "[video]\nwidth = 1024\nheight = 0\n", 1024, 720},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if w, h := s.WindowSize(); w != tt.wantW || h != tt.wantH {
				t.Errorf("WindowSize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
