// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config reads and writes the engine settings file.
//
// The file is TOML. On first run it does not exist: Build enumerates the
// adapters, picks the one with the most dedicated video memory as the
// default and writes the file, so later runs reuse the same choice and
// users can edit it.
//
//	[video]
//	default_adapter = 0
//	buffer_count = 2
//	frame_resources = 3
//	vsync = true
//	width = 1280
//	height = 720
//	clear_color = [0.0, 0.0, 0.0, 1.0]
//
//	[[video.adapters]]
//	index = 0
//	description = "Software Reference Rasterizer"
//	dedicated_video_memory = 0
//	software = true
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/g3d/device"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// DefaultFile is the settings file name used by the demo.
const DefaultFile = "g3d.toml"

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("config: invalid settings")

// Adapter records one enumerated adapter.
type Adapter struct {
	Index                int    `toml:"index"`
	Description          string `toml:"description"`
	DedicatedVideoMemory uint64 `toml:"dedicated_video_memory"`
	Software             bool   `toml:"software"`
}

// Video holds the display and adapter settings.
type Video struct {
	// DefaultAdapter is the enumeration index of the preferred adapter.
	DefaultAdapter int `toml:"default_adapter"`

	// BufferCount is the number of swap chain buffers.
	BufferCount int `toml:"buffer_count"`

	// FrameResources is the depth of the frame resource ring.
	FrameResources int `toml:"frame_resources"`

	// VSync presents on vertical blank when true.
	VSync bool `toml:"vsync"`

	// Width and Height are the initial client size of the window the
	// engine presents to. The swap chain follows the surface it is given.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// ClearColor is the backbuffer clear color, linear RGBA.
	ClearColor [4]float32 `toml:"clear_color"`

	// Adapters lists the adapters seen when the file was built.
	Adapters []Adapter `toml:"adapters"`
}

// Settings is the content of the settings file.
type Settings struct {
	Video Video `toml:"video"`
}

// Default returns the settings used for keys missing from a file.
func Default() Settings {
	return Settings{Video: Video{
		DefaultAdapter: device.AutoAdapter,
		BufferCount:    2,
		FrameResources: 3,
		VSync:          true,
		Width:          1280,
		Height:         720,
		ClearColor:     [4]float32{0, 0, 0, 1},
	}}
}

// FromAdapters returns default settings listing adapters, with the one
// with the most dedicated video memory as the default. Ties keep the
// lower index.
func FromAdapters(adapters []gpucore.Adapter) Settings {
	s := Default()
	var best uint64
	for i, a := range adapters {
		info := a.Info()
		s.Video.Adapters = append(s.Video.Adapters, Adapter{
			Index:                i,
			Description:          info.Name,
			DedicatedVideoMemory: info.DedicatedVideoMemory,
			Software:             info.Kind == gpucore.AdapterSoftware,
		})
		if s.Video.DefaultAdapter == device.AutoAdapter || info.DedicatedVideoMemory > best {
			s.Video.DefaultAdapter = i
			best = info.DedicatedVideoMemory
		}
	}
	return s
}

// Build reads the settings file at path. If the file does not exist it is
// created from the adapters factory enumerates. A failure to write the new
// file is logged, not returned: the settings are still usable.
func Build(path string, factory gpucore.Factory) (*Settings, error) {
	s, err := Read(path)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	built := FromAdapters(factory.Adapters())
	if werr := built.Write(path); werr != nil {
		logx.Logger().Warn("config: settings file not written", "path", path, "err", werr)
	} else {
		logx.Logger().Info("config: settings file created", "path", path,
			"adapters", len(built.Video.Adapters), "default", built.Video.DefaultAdapter)
	}
	return &built, nil
}

// Read decodes the settings file at path. Keys missing from the file keep
// their Default values; unknown keys are an error.
func Read(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes settings from TOML data.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Write encodes the settings to path, creating parent directories.
func (s *Settings) Write(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // settings are not secret
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	v := s.Video
	switch {
	case v.BufferCount < 1:
		return fmt.Errorf("%w: buffer_count %d", ErrInvalid, v.BufferCount)
	case v.FrameResources < 1:
		return fmt.Errorf("%w: frame_resources %d", ErrInvalid, v.FrameResources)
	case v.Width < 0 || v.Height < 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, v.Width, v.Height)
	case v.DefaultAdapter < device.AutoAdapter:
		return fmt.Errorf("%w: default_adapter %d", ErrInvalid, v.DefaultAdapter)
	case len(v.Adapters) > 0 && v.DefaultAdapter >= len(v.Adapters):
		return fmt.Errorf("%w: default_adapter %d, %d adapters listed", ErrInvalid, v.DefaultAdapter, len(v.Adapters))
	}
	return nil
}

// WindowSize is the initial window client size. Zero values take the
// Default size.
func (s *Settings) WindowSize() (width, height int) {
	d := Default().Video
	width, height = s.Video.Width, s.Video.Height
	if width == 0 {
		width = d.Width
	}
	if height == 0 {
		height = d.Height
	}
	return width, height
}

// AdapterPreference is the adapter index to hand to device.Create.
func (s *Settings) AdapterPreference() int { return s.Video.DefaultAdapter }

// SyncInterval is the present sync interval matching VSync.
func (s *Settings) SyncInterval() int {
	if s.Video.VSync {
		return 1
	}
	return 0
}

// DeviceOptions returns device options honoring the adapter preference.
func (s *Settings) DeviceOptions() device.Options {
	opts := device.DefaultOptions()
	opts.AdapterIndex = s.AdapterPreference()
	return opts
}
