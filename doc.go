// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package g3d is a real-time 3D renderer built around an explicit frame
// and resource lifecycle.
//
// # Overview
//
// An Engine owns, in dependency order, a GPU backend factory, the device
// context (device, command queue, fence), the swap chain manager and the
// renderer with its ring of frame resources. New builds them once; Close
// tears them down in reverse order after the GPU has finished.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/g3d"
//	    "github.com/gogpu/g3d/backend/software"
//	    "github.com/gogpu/g3d/scene"
//	)
//
//	surface := software.NewSurface(1280, 720)
//	sc := &scene.Scene{Camera: scene.DefaultCamera(16.0 / 9)}
//	eng, err := g3d.New(surface, sc, g3d.WithBackend("software"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	for running {
//	    if err := eng.Render(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Frame Lifecycle
//
// Every frame acquires the next frame resource, blocking only when the
// GPU has not finished the frame that last used it. The CPU therefore
// runs at most RingDepth frames ahead of the GPU, and never overwrites
// constants the GPU is still reading. Swap chain resizes and shutdown
// flush the GPU completely.
//
// # Packages
//
//   - gpucore: the portable GPU abstraction
//   - backend/software: deterministic in-process reference device
//   - backend/wgpu: device over gogpu/wgpu HAL
//   - device: device context, fence and Flush
//   - heap, upload: descriptor heaps and mapped upload buffers
//   - swapchain: backbuffers, depth buffer and resize
//   - frame: frame resources and the fence-guarded ring
//   - scene, shader, render: content, shaders and the frame loop
//   - config: the TOML settings file
package g3d

// Version is the current version of the library.
const Version = "0.1.0"
