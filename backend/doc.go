// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend provides the registry of GPU backends.
//
// Each backend package registers a [FactoryFunc] from its init() function.
// Import the backends the application should be able to use:
//
//	import _ "github.com/gogpu/g3d/backend/software"
//	import _ "github.com/gogpu/g3d/backend/wgpu"
//
// # Backend Selection
//
// Use OpenDefault to open the best available backend, or Open to request
// a specific one by name:
//
//	factory, name, err := backend.OpenDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer factory.Destroy()
//
//	factory, err := backend.Open("software")
//
// # Available Backends
//
//   - "wgpu": gogpu/wgpu HAL (Vulkan, with the noop adapter as reference)
//   - "software": deterministic in-process GPU (always available)
package backend
