// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Matrices are mgl32 column-major matrices applied to column vectors.
// Their memory layout is what the shaders read, so a Mat4 is copied into
// the constant buffers unchanged.

// LookToLH returns a left-handed view matrix looking from eye along dir.
// mgl32.LookAtV is right-handed.
func LookToLH(eye, dir, up mgl32.Vec3) mgl32.Mat4 {
	z := normalize(dir)
	x := normalize(up.Cross(z))
	y := z.Cross(x)
	return mgl32.Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// PerspectiveFovLH returns a left-handed perspective projection mapping
// depth to [0, 1]. mgl32.Perspective maps to [-1, 1].
func PerspectiveFovLH(fovY, aspect, nearZ, farZ float32) mgl32.Mat4 {
	h := 1 / math32.Tan(fovY/2)
	w := h / aspect
	rng := farZ / (farZ - nearZ)
	return mgl32.Mat4{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, rng, 1,
		0, 0, -rng * nearZ, 0,
	}
}

// OrthographicLH returns a left-handed orthographic projection mapping
// depth to [0, 1].
func OrthographicLH(width, height, nearZ, farZ float32) mgl32.Mat4 {
	rng := 1 / (farZ - nearZ)
	return mgl32.Mat4{
		2 / width, 0, 0, 0,
		0, 2 / height, 0, 0,
		0, 0, rng, 0,
		0, 0, -rng * nearZ, 1,
	}
}

// normalize is Vec3.Normalize that leaves the zero vector unchanged.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Abs(v[0]), math32.Abs(v[1]), math32.Abs(v[2])}
}

func minVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func maxVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}
