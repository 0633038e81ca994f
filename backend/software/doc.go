// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements gpucore on a deterministic in-process GPU.
//
// The device behaves like an asynchronous GPU: every command queue owns a
// goroutine that executes submissions strictly in FIFO order and advances
// fences as it reaches Signal instructions. Everything the hardware would
// reject is reported instead of silently accepted:
//
//   - resetting a command allocator whose lists are still executing
//     fails with gpucore.ErrAllocatorInUse
//   - resizing swap chain buffers still referenced by queued work fails
//     with gpucore.ErrResourceInUse
//   - drawing into a texture that is not in the RenderTarget state, or
//     presenting one that is not in the Present state, is recorded as a
//     validation error (see Device.ValidationErrors)
//
// Every draw is appended to a log together with the bytes it read from its
// bound buffers at the moment the queue executed it. A CPU write that
// raced a pending draw therefore shows up as an unexpected payload.
//
// Queues can be paused, which freezes the GPU timeline:
//
//	q := queue.(*software.Queue)
//	q.Pause()
//	// ... submissions accumulate, fences stop advancing ...
//	q.Resume()
//
// Importing the package registers the "software" backend:
//
//	import _ "github.com/gogpu/g3d/backend/software"
package software
