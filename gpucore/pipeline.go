// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// ShaderModule is compiled shader code owned by a device.
type ShaderModule interface {
	Label() string
	Destroy()
}

// Pipeline is a graphics pipeline state object.
type Pipeline interface {
	Label() string
	Destroy()
}

// PipelineDesc describes a graphics pipeline.
type PipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Vertex is the module containing the vertex entry point.
	Vertex ShaderModule

	// VertexEntry is the name of the vertex entry point.
	VertexEntry string

	// Fragment is the module containing the fragment entry point.
	Fragment ShaderModule

	// FragmentEntry is the name of the fragment entry point.
	FragmentEntry string

	// ColorFormat is the render target format.
	ColorFormat Format

	// DepthFormat is the depth/stencil format.
	DepthFormat Format
}
