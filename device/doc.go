// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device owns the logical GPU device and its synchronization.
//
// A [Context] bundles everything the render loop submits through: the
// device, one command queue, one command allocator with its command list,
// and the fence tracking completed GPU work. Other packages create their
// objects through Context.Device and synchronize through Signal,
// WaitForFence and Flush.
//
// # Fence protocol
//
// The context keeps two fence values. The current value is the last one
// requested with Signal; the completed value is the last one the GPU
// reached. completed <= current always holds. Work tagged with value V may
// be reused once completed >= V:
//
//	v, _ := ctx.Signal()       // tag the work just submitted
//	...
//	_ = ctx.WaitForFence(v)    // before touching what it referenced
//
// Waits block on a completion event and never time out: a GPU that stops
// making progress is hung, and nothing above this layer can recover it.
//
// Context is not safe for concurrent use. It belongs to the submission
// thread.
package device
