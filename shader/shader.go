// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader compiles WGSL to SPIR-V and caches the resulting
// device shader modules.
//
// The engine's own shaders are embedded and registered in every Library
// under the names Opaque and Shadow.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// Built-in shader names.
const (
	// Opaque is the lit, instanced opaque pass.
	Opaque = "opaque"

	// Shadow is the depth-only pass rendered from the light.
	Shadow = "shadow"
)

// Entry points shared by the built-in shaders.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

//go:embed shaders/opaque.wgsl
var opaqueSource string

//go:embed shaders/shadow.wgsl
var shadowSource string

// ErrUnknown is returned for a shader name that was never registered.
var ErrUnknown = errors.New("shader: unknown shader")

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Builtin returns the WGSL source of a built-in shader.
func Builtin(name string) (string, bool) {
	switch name {
	case Opaque:
		return opaqueSource, true
	case Shadow:
		return shadowSource, true
	}
	return "", false
}

// Compile translates WGSL source to SPIR-V words.
func Compile(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: compile: SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	if len(code) == 0 || code[0] != spirvMagic {
		return nil, errors.New("shader: compile: output is not a SPIR-V module")
	}
	return code, nil
}

// source is a registered shader: WGSL still to compile, or ready SPIR-V.
type source struct {
	wgsl  string
	spirv []uint32
}

// Library compiles shaders on first use and keeps one module per name.
//
// Library is safe for concurrent use.
type Library struct {
	dev gpucore.Device

	mu       sync.Mutex
	sources  map[string]source
	modules  map[string]gpucore.ShaderModule
	compiles int
}

// NewLibrary returns a library creating modules on dev, with the built-in
// shaders registered.
func NewLibrary(dev gpucore.Device) *Library {
	l := &Library{
		dev:     dev,
		sources: make(map[string]source),
		modules: make(map[string]gpucore.ShaderModule),
	}
	l.Register(Opaque, opaqueSource)
	l.Register(Shadow, shadowSource)
	return l
}

// Register adds or replaces the WGSL source for name. A module already
// created for name is destroyed and rebuilt on next use.
func (l *Library) Register(name, wgsl string) {
	l.set(name, source{wgsl: wgsl})
}

// RegisterSPIRV adds or replaces precompiled SPIR-V for name.
func (l *Library) RegisterSPIRV(name string, code []uint32) {
	l.set(name, source{spirv: append([]uint32(nil), code...)})
}

func (l *Library) set(name string, src source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[name] = src
	if m, ok := l.modules[name]; ok {
		m.Destroy()
		delete(l.modules, name)
	}
}

// Names returns the registered shader names, sorted.
func (l *Library) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.sources))
	for name := range l.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module returns the device module for name, compiling it on first use.
func (l *Library) Module(name string) (gpucore.ShaderModule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.modules[name]; ok {
		return m, nil
	}
	src, ok := l.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}

	code := src.spirv
	if code == nil {
		var err error
		code, err = Compile(src.wgsl)
		if err != nil {
			return nil, fmt.Errorf("shader %q: %w", name, err)
		}
		l.compiles++
		logx.Logger().Debug("shader: compiled", "name", name, "words", len(code))
	}

	m, err := l.dev.CreateShaderModule(name, code)
	if err != nil {
		return nil, fmt.Errorf("shader %q: create module: %w", name, err)
	}
	l.modules[name] = m
	return m, nil
}

// Compiles returns the number of WGSL compilations performed.
func (l *Library) Compiles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.compiles
}

// Destroy releases every module. The library stays usable and recreates
// modules on demand.
func (l *Library) Destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, m := range l.modules {
		m.Destroy()
		delete(l.modules, name)
	}
}
