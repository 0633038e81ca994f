// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render drives the per-frame loop.
//
// Each call to Renderer.Render runs one frame:
//
//	ring.Acquire        wait for the slot's fence, reset its allocator
//	write constants     pass, material and culled instance data
//	record              Present->RenderTarget, clear, draw, RenderTarget->Present
//	execute             close the list and submit it
//	ring.Submit         signal a new fence value tagging the slot
//	swapchain.Present   queue the buffer and advance the current index
//
// Render items are drawn instanced: one draw per item covering every
// instance that survived frustum culling.
package render
