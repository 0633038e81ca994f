// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/scene"
)

// cubeFaces lists, per face, the normal and the two axes spanning it.
var cubeFaces = [6][3]mgl32.Vec3{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
}

// cubeMesh returns a unit cube as 36 vertices of position and normal,
// six little endian float32 each.
func cubeMesh(half float32) (data []byte, count uint32) {
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}
	data = make([]byte, 0, 36*6*4)
	put := func(vs ...float32) {
		for _, v := range vs {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
	}
	for _, f := range cubeFaces {
		n, u, v := f[0], f[1], f[2]
		for _, c := range corners {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1])).Mul(half)
			put(p[0], p[1], p[2], n[0], n[1], n[2])
			count++
		}
	}
	return data, count
}

// gridScene places n*n cubes on the XZ plane in front of the camera.
func gridScene(n int, aspect float32) *scene.Scene {
	verts, count := cubeMesh(0.5)
	item := &scene.RenderItem{
		Name:        "cube",
		Bounds:      scene.Box(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5}),
		Vertices:    verts,
		VertexCount: count,
	}
	offset := float32(n-1) * 1.5
	for i := range n {
		for j := range n {
			item.Instances = append(item.Instances, scene.Instance{
				World:         mgl32.Translate3D(float32(i)*3-offset, 0, float32(j)*3+5),
				MaterialIndex: uint32((i + j) % 3), //nolint:gosec // G115: modulo 3
			})
		}
	}
	return &scene.Scene{
		Camera: scene.DefaultCamera(aspect),
		Materials: []scene.Material{
			{Name: "red", DiffuseAlbedo: [4]float32{0.9, 0.2, 0.2, 1}, Roughness: 0.5},
			{Name: "green", DiffuseAlbedo: [4]float32{0.2, 0.9, 0.2, 1}, Roughness: 0.3},
			{Name: "blue", DiffuseAlbedo: [4]float32{0.2, 0.2, 0.9, 1}, Roughness: 0.1},
		},
		Items:          []*scene.RenderItem{item},
		AmbientLight:   [4]float32{0.2, 0.2, 0.2, 1},
		LightDirection: mgl32.Vec3{0.57, -0.57, 0.57},
		LightIntensity: 1,
		ShadowExtent:   float32(n) * 3,
	}
}
