// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

// PassData is the per-pass constant buffer.
type PassData struct {
	View        [16]float32
	Proj        [16]float32
	ViewProj    [16]float32
	InvViewProj [16]float32

	EyePosition [3]float32
	_           float32

	RenderTargetSize    [2]float32
	InvRenderTargetSize [2]float32

	NearZ     float32
	FarZ      float32
	TotalTime float32
	DeltaTime float32

	AmbientLight [4]float32

	LightDirection [3]float32
	LightIntensity float32
}

// MaterialData is one entry of the material buffer.
type MaterialData struct {
	DiffuseAlbedo [4]float32
	FresnelR0     [3]float32
	Roughness     float32
}

// InstanceData is one entry of an instance buffer.
type InstanceData struct {
	World         [16]float32
	MaterialIndex uint32
	_             [3]uint32
}
