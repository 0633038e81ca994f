// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene holds the content the renderer draws: a camera, materials
// and instanced render items, plus the float32 math and bounding volumes
// used to cull instances against the view frustum.
//
// The payload types (PassData, MaterialData, InstanceData) are plain data
// laid out the way the shaders read them; the renderer copies them into
// upload buffers byte for byte.
package scene
