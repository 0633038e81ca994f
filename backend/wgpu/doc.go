// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the gpucore device abstraction over the
// gogpu/wgpu hardware abstraction layer.
//
// The package registers itself as the "wgpu" backend when imported:
//
//	import _ "github.com/gogpu/g3d/backend/wgpu"
//
// Open enumerates the Vulkan adapters. The noop HAL adapter serves as the
// reference adapter the device context falls back to when hardware device
// creation fails.
//
// # Mapping
//
//   - Timeline fences map to HAL fences: Signal submits an empty batch
//     that sets the fence to the requested value. A goroutine per fence
//     blocks in Device.Wait and fires completion events in value order.
//   - Upload buffers keep a CPU copy mapped for their whole lifetime. The
//     ranges bound by a command list are written to the GPU buffer with
//     Queue.WriteBuffer when the list is executed.
//   - Command lists are recorded on the CPU and encoded into a HAL command
//     buffer at execution. Clears become load operations of the render
//     pass that follows them.
//   - Swap chain buffers are offscreen render attachments. Presentation is
//     headless: the backend tracks buffer states and counts presents.
//
// # Shared devices
//
// FromProvider wraps a device owned by a host application, such as a
// gogpu window, given a gpucontext.DeviceProvider that also exposes its
// HAL device and queue.
package wgpu
