// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/g3d/gpucore"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the in-process reference backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the gogpu/wgpu HAL backend.
	BackendWGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// FactoryFunc opens a backend, returning the factory that enumerates its
// adapters. Backends are registered via Register and selected via Open or
// OpenDefault.
type FactoryFunc func() (gpucore.Factory, error)
