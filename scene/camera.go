// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// Camera is a free-flying perspective camera.
//
// Orientation is a quaternion; the view matrix is rebuilt lazily by Update
// after any move or rotation.
type Camera struct {
	position mgl32.Vec3
	rotation mgl32.Quat

	aspect float32
	fovY   float32
	nearZ  float32
	farZ   float32

	view  mgl32.Mat4
	proj  mgl32.Mat4
	dirty bool
}

// NewCamera returns a camera at the origin looking down +Z.
func NewCamera(aspect, fovY, nearZ, farZ float32) *Camera {
	c := &Camera{
		rotation: mgl32.QuatIdent(),
		aspect:   aspect,
		fovY:     fovY,
		nearZ:    nearZ,
		farZ:     farZ,
		dirty:    true,
	}
	c.proj = PerspectiveFovLH(fovY, aspect, nearZ, farZ)
	c.Update()
	return c
}

// DefaultCamera returns a camera with a 70 degree vertical field of view.
func DefaultCamera(aspect float32) *Camera {
	return NewCamera(aspect, mgl32.DegToRad(70), 0.01, 10000)
}

// Update rebuilds the view matrix if the camera moved.
func (c *Camera) Update() {
	if !c.dirty {
		return
	}
	c.view = LookToLH(c.position, c.Forward(), mgl32.Vec3{0, 1, 0})
	c.dirty = false
}

// Dirty reports whether Update has pending work.
func (c *Camera) Dirty() bool { return c.dirty }

// Position returns the camera position.
func (c *Camera) Position() mgl32.Vec3 { return c.position }

// SetPosition moves the camera to (x, y, z).
func (c *Camera) SetPosition(x, y, z float32) {
	c.position = mgl32.Vec3{x, y, z}
	c.dirty = true
}

// Forward is the direction the camera looks along.
func (c *Camera) Forward() mgl32.Vec3 { return c.rotation.Rotate(mgl32.Vec3{0, 0, 1}) }

// Right is the camera's local X axis, taken from the current view matrix.
func (c *Camera) Right() mgl32.Vec3 { return c.view.Row(0).Vec3() }

// Move translates the camera by scalar along axis.
func (c *Camera) Move(axis mgl32.Vec3, scalar float32) {
	c.position = c.position.Add(axis.Mul(scalar))
	c.dirty = true
}

// MoveForward moves along the view direction.
func (c *Camera) MoveForward(scalar float32) { c.Move(c.Forward(), scalar) }

// MoveRight strafes along the camera's X axis.
func (c *Camera) MoveRight(scalar float32) { c.Move(c.Right(), scalar) }

// Rotate turns the camera by radians around the unit axis.
func (c *Camera) Rotate(axis mgl32.Vec3, radians float32) {
	c.rotation = mgl32.QuatRotate(radians, axis).Mul(c.rotation).Normalize()
	c.dirty = true
}

// RotateLocalX pitches the camera around its own X axis.
func (c *Camera) RotateLocalX(radians float32) { c.Rotate(c.Right(), radians) }

// RotateWorldY yaws the camera around the world Y axis.
func (c *Camera) RotateWorldY(radians float32) { c.Rotate(mgl32.Vec3{0, 1, 0}, radians) }

// SetAspectRatio rebuilds the projection for a new viewport shape.
func (c *Camera) SetAspectRatio(aspect float32) {
	c.aspect = aspect
	c.proj = PerspectiveFovLH(c.fovY, aspect, c.nearZ, c.farZ)
}

// AspectRatio returns the projection aspect ratio.
func (c *Camera) AspectRatio() float32 { return c.aspect }

// NearZ returns the near plane distance.
func (c *Camera) NearZ() float32 { return c.nearZ }

// FarZ returns the far plane distance.
func (c *Camera) FarZ() float32 { return c.farZ }

// View returns the view matrix as of the last Update.
func (c *Camera) View() mgl32.Mat4 { return c.view }

// Projection returns the projection matrix.
func (c *Camera) Projection() mgl32.Mat4 { return c.proj }

// ViewProjection returns the view transform followed by the projection.
func (c *Camera) ViewProjection() mgl32.Mat4 { return c.proj.Mul4(c.view) }

// Frustum returns the world-space view frustum as of the last Update.
func (c *Camera) Frustum() Frustum { return FrustumFromMatrix(c.ViewProjection()) }
