// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// Material describes a surface.
type Material struct {
	Name          string
	DiffuseAlbedo [4]float32
	FresnelR0     mgl32.Vec3
	Roughness     float32
}

// Data returns the material's buffer entry.
func (m Material) Data() MaterialData {
	return MaterialData{
		DiffuseAlbedo: m.DiffuseAlbedo,
		FresnelR0:     [3]float32(m.FresnelR0),
		Roughness:     m.Roughness,
	}
}

// Instance places one copy of a render item in the world.
type Instance struct {
	World         mgl32.Mat4
	MaterialIndex uint32
}

// RenderItem is a mesh drawn once per visible instance.
type RenderItem struct {
	// Name identifies the item.
	Name string

	// Bounds is the mesh bounding volume in local space.
	Bounds Collider

	// Vertices is the vertex data, opaque to the engine.
	Vertices []byte

	// VertexCount is the number of vertices drawn per instance.
	VertexCount uint32

	// Instances are the placements of the item.
	Instances []Instance
}

// Cull appends the data of the instances whose bounds intersect f to dst.
func (it *RenderItem) Cull(f Frustum, dst []InstanceData) []InstanceData {
	for _, inst := range it.Instances {
		if !f.Intersects(it.Bounds.Transform(inst.World)) {
			continue
		}
		dst = append(dst, InstanceData{World: [16]float32(inst.World), MaterialIndex: inst.MaterialIndex})
	}
	return dst
}

// Scene is everything drawn in a frame.
type Scene struct {
	Camera    *Camera
	Materials []Material
	Items     []*RenderItem

	AmbientLight   [4]float32
	LightDirection mgl32.Vec3
	LightIntensity float32

	// ShadowExtent is the half-size of the volume the shadow pass covers
	// around the origin.
	ShadowExtent float32
}

// Item returns the render item with the given name, or nil.
func (s *Scene) Item(name string) *RenderItem {
	for _, it := range s.Items {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// InstanceCapacity returns, per item, the number of instances it holds.
func (s *Scene) InstanceCapacity() []int {
	out := make([]int, len(s.Items))
	for i, it := range s.Items {
		out[i] = max(len(it.Instances), 1)
	}
	return out
}

// MainPass builds the camera pass constants for a target of the given size.
func (s *Scene) MainPass(width, height int, totalTime, deltaTime float32) PassData {
	cam := s.Camera
	cam.Update()
	return s.pass(cam.View(), cam.Projection(), cam.Position(), cam.NearZ(), cam.FarZ(),
		width, height, totalTime, deltaTime)
}

// ShadowPass builds the constants of the pass rendering from the light.
func (s *Scene) ShadowPass(size int, totalTime, deltaTime float32) PassData {
	extent := s.ShadowExtent
	if extent <= 0 {
		extent = 100
	}
	dir := normalize(s.LightDirection)
	if dir == (mgl32.Vec3{}) {
		dir = mgl32.Vec3{0, -1, 0}
	}
	eye := dir.Mul(-2 * extent)
	up := mgl32.Vec3{0, 1, 0}
	if absVec(dir)[1] > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := LookToLH(eye, dir, up)
	proj := OrthographicLH(2*extent, 2*extent, extent, 3*extent)
	return s.pass(view, proj, eye, extent, 3*extent, size, size, totalTime, deltaTime)
}

func (s *Scene) pass(view, proj mgl32.Mat4, eye mgl32.Vec3, nearZ, farZ float32, width, height int, totalTime, deltaTime float32) PassData {
	vp := proj.Mul4(view)
	w, h := float32(width), float32(height)
	d := PassData{
		View:             [16]float32(view),
		Proj:             [16]float32(proj),
		ViewProj:         [16]float32(vp),
		InvViewProj:      [16]float32(vp.Inv()),
		EyePosition:      [3]float32(eye),
		RenderTargetSize: [2]float32{w, h},
		NearZ:            nearZ,
		FarZ:             farZ,
		TotalTime:        totalTime,
		DeltaTime:        deltaTime,
		AmbientLight:     s.AmbientLight,
		LightDirection:   [3]float32(s.LightDirection),
		LightIntensity:   s.LightIntensity,
	}
	if w > 0 && h > 0 {
		d.InvRenderTargetSize = [2]float32{1 / w, 1 / h}
	}
	return d
}
