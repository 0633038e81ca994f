// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore provides the GPU abstraction shared by every g3d component.
//
// This package defines the explicit, queue-and-fence shaped device model the
// frame lifecycle is built on. Backends translate it to a concrete API:
//   - backend/software: deterministic in-process reference device
//   - backend/wgpu: gogpu/wgpu HAL (Vulkan, or the noop reference adapter)
//
// # Architecture
//
//	               +------------------+
//	               |  device/ heap/   |
//	               | swapchain/ frame |
//	               +--------+---------+
//	                        |
//	               +--------v---------+
//	               |     gpucore      |
//	               | (Device, Fence)  |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|    software     |          |      wgpu       |
//	| (goroutine GPU) |          |  (hal.Device)   |
//	+-----------------+          +-----------------+
//
// # Ownership
//
// A [Device] owns every object it creates. Destroying the device requires all
// work submitted to its queues to be complete; callers flush first.
//
// # Timelines
//
// A [Fence] is a monotonically increasing counter written by the GPU timeline
// when it reaches a [CommandQueue.Signal] instruction. The CPU observes it via
// [Fence.CompletedValue] or blocks on an [Event] registered with
// [Fence.SetEventOnCompletion]. Waits never time out at this layer.
package gpucore
