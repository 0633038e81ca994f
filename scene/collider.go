// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape enumerates the collider variants.
type Shape int

const (
	// ShapeBox is an axis-aligned box.
	ShapeBox Shape = iota
	// ShapeSphere is a sphere.
	ShapeSphere
	// ShapeOrientedBox is a box with an arbitrary orientation.
	ShapeOrientedBox
	// ShapeFrustum is a view frustum.
	ShapeFrustum
)

// String returns the string representation of Shape.
func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "Box"
	case ShapeSphere:
		return "Sphere"
	case ShapeOrientedBox:
		return "OrientedBox"
	case ShapeFrustum:
		return "Frustum"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Collider is a bounding volume. Shape selects which fields are meaningful:
//
//	ShapeBox          Center, Extents
//	ShapeSphere       Center, Radius
//	ShapeOrientedBox  Center, Extents, Orientation
//	ShapeFrustum      Frustum
type Collider struct {
	Shape       Shape
	Center      mgl32.Vec3
	Extents     mgl32.Vec3
	Radius      float32
	Orientation mgl32.Quat
	Frustum     Frustum
}

// Box returns an axis-aligned box collider.
func Box(center, extents mgl32.Vec3) Collider {
	return Collider{Shape: ShapeBox, Center: center, Extents: extents}
}

// BoxFromPoints returns the smallest axis-aligned box around points.
func BoxFromPoints(points ...mgl32.Vec3) Collider {
	if len(points) == 0 {
		return Box(mgl32.Vec3{}, mgl32.Vec3{})
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo, hi = minVec(lo, p), maxVec(hi, p)
	}
	return Box(lo.Add(hi).Mul(0.5), hi.Sub(lo).Mul(0.5))
}

// Sphere returns a sphere collider.
func Sphere(center mgl32.Vec3, radius float32) Collider {
	return Collider{Shape: ShapeSphere, Center: center, Radius: radius}
}

// OrientedBox returns an oriented box collider.
func OrientedBox(center, extents mgl32.Vec3, orientation mgl32.Quat) Collider {
	return Collider{Shape: ShapeOrientedBox, Center: center, Extents: extents, Orientation: orientation.Normalize()}
}

// FrustumCollider wraps a frustum as a collider.
func FrustumCollider(f Frustum) Collider {
	return Collider{Shape: ShapeFrustum, Frustum: f}
}

// corners returns the eight corners of a box or oriented box.
func (c Collider) corners() [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := range out {
		local := c.Extents
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				local[axis] = -local[axis]
			}
		}
		if c.Shape == ShapeOrientedBox {
			local = c.Orientation.Rotate(local)
		}
		out[i] = c.Center.Add(local)
	}
	return out
}

// points returns the points spanning a convex shape.
func (c Collider) points() []mgl32.Vec3 {
	switch c.Shape {
	case ShapeFrustum:
		return c.Frustum.Corners[:]
	default:
		cs := c.corners()
		return cs[:]
	}
}

// BoundingBox returns the axis-aligned box around c.
func (c Collider) BoundingBox() Collider {
	switch c.Shape {
	case ShapeBox:
		return c
	case ShapeSphere:
		return Box(c.Center, mgl32.Vec3{c.Radius, c.Radius, c.Radius})
	default:
		return BoxFromPoints(c.points()...)
	}
}

// Transform returns c moved by the affine transform m. Boxes stay
// axis-aligned and grow to enclose the transformed box.
func (c Collider) Transform(m mgl32.Mat4) Collider {
	switch c.Shape {
	case ShapeSphere:
		scale := max(m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len())
		return Sphere(mgl32.TransformCoordinate(c.Center, m), c.Radius*scale)
	case ShapeFrustum:
		f := c.Frustum
		for i := range f.Corners {
			f.Corners[i] = mgl32.TransformCoordinate(f.Corners[i], m)
		}
		return FrustumCollider(frustumFromCorners(f.Corners))
	default:
		cs := c.corners()
		for i := range cs {
			cs[i] = mgl32.TransformCoordinate(cs[i], m)
		}
		return BoxFromPoints(cs[:]...)
	}
}

// Intersects reports whether a and b overlap. Tests involving frustums and
// oriented boxes are conservative: they may report an overlap for shapes
// that only nearly touch, never the reverse.
func Intersects(a, b Collider) bool {
	if a.Shape > b.Shape {
		a, b = b, a
	}
	switch a.Shape {
	case ShapeBox:
		switch b.Shape {
		case ShapeBox:
			return boxBox(a, b)
		case ShapeSphere:
			return boxSphere(a, b)
		case ShapeOrientedBox:
			return boxBox(a, b.BoundingBox())
		case ShapeFrustum:
			return b.Frustum.intersectsBox(a.Center, a.Extents, mgl32.QuatIdent())
		}
	case ShapeSphere:
		switch b.Shape {
		case ShapeSphere:
			d := a.Center.Sub(b.Center)
			r := a.Radius + b.Radius
			return d.LenSqr() <= r*r
		case ShapeOrientedBox:
			local := b.Orientation.Conjugate().Rotate(a.Center.Sub(b.Center))
			return boxSphere(Box(mgl32.Vec3{}, b.Extents), Sphere(local, a.Radius))
		case ShapeFrustum:
			return b.Frustum.intersectsSphere(a.Center, a.Radius)
		}
	case ShapeOrientedBox:
		switch b.Shape {
		case ShapeOrientedBox:
			return boxBox(a.BoundingBox(), b.BoundingBox())
		case ShapeFrustum:
			return b.Frustum.intersectsBox(a.Center, a.Extents, a.Orientation)
		}
	case ShapeFrustum:
		return !a.Frustum.separates(b.Frustum.Corners[:]) &&
			!b.Frustum.separates(a.Frustum.Corners[:])
	}
	return false
}

func boxBox(a, b Collider) bool {
	d := absVec(a.Center.Sub(b.Center))
	e := a.Extents.Add(b.Extents)
	return d[0] <= e[0] && d[1] <= e[1] && d[2] <= e[2]
}

func boxSphere(box, s Collider) bool {
	lo := box.Center.Sub(box.Extents)
	hi := box.Center.Add(box.Extents)
	closest := minVec(maxVec(s.Center, lo), hi)
	return s.Center.Sub(closest).LenSqr() <= s.Radius*s.Radius
}

// Plane is the set of points p with Normal.Dot(p) + D = 0. Points with a
// positive distance are on the inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance of p to the plane.
func (p Plane) Distance(v mgl32.Vec3) float32 { return p.Normal.Dot(v) + p.D }

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// Frustum is a convex view volume bounded by six inward-facing planes.
type Frustum struct {
	// Planes are left, right, bottom, top, near, far.
	Planes [6]Plane

	// Corners are the eight corner points, near plane first.
	Corners [8]mgl32.Vec3
}

// FrustumFromMatrix extracts the frustum of a view-projection matrix with
// clip-space depth in [0, 1].
func FrustumFromMatrix(m mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	f := Frustum{Planes: [6]Plane{
		normalizePlane(r3.Add(r0)),
		normalizePlane(r3.Sub(r0)),
		normalizePlane(r3.Add(r1)),
		normalizePlane(r3.Sub(r1)),
		normalizePlane(r2),
		normalizePlane(r3.Sub(r2)),
	}}

	if m.Det() != 0 {
		inv := m.Inv()
		i := 0
		for _, z := range []float32{0, 1} {
			for _, y := range []float32{-1, 1} {
				for _, x := range []float32{-1, 1} {
					f.Corners[i] = mgl32.TransformCoordinate(mgl32.Vec3{x, y, z}, inv)
					i++
				}
			}
		}
	}
	return f
}

// frustumFromCorners rebuilds the planes from corners laid out as
// FrustumFromMatrix produces them.
func frustumFromCorners(c [8]mgl32.Vec3) Frustum {
	plane := func(a, b, d, inside mgl32.Vec3) Plane {
		n := normalize(b.Sub(a).Cross(d.Sub(a)))
		p := Plane{Normal: n, D: -n.Dot(a)}
		if p.Distance(inside) < 0 {
			p = Plane{Normal: n.Mul(-1), D: -p.D}
		}
		return p
	}
	var center mgl32.Vec3
	for _, p := range c {
		center = center.Add(p)
	}
	center = center.Mul(1.0 / 8)

	// Corner index bits: 1 = +x, 2 = +y, 4 = far.
	return Frustum{
		Planes: [6]Plane{
			plane(c[0], c[2], c[4], center),
			plane(c[1], c[3], c[5], center),
			plane(c[0], c[1], c[4], center),
			plane(c[2], c[3], c[6], center),
			plane(c[0], c[1], c[2], center),
			plane(c[4], c[5], c[6], center),
		},
		Corners: c,
	}
}

// Contains reports whether p is inside the frustum.
func (f Frustum) Contains(p mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// Intersects reports whether c overlaps the frustum.
func (f Frustum) Intersects(c Collider) bool {
	return Intersects(FrustumCollider(f), c)
}

func (f Frustum) intersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, pl := range f.Planes {
		if pl.Distance(center) < -radius {
			return false
		}
	}
	return true
}

// intersectsBox tests a box whose local axes are rotated by orientation.
func (f Frustum) intersectsBox(center, extents mgl32.Vec3, orientation mgl32.Quat) bool {
	ax := orientation.Rotate(mgl32.Vec3{1, 0, 0})
	ay := orientation.Rotate(mgl32.Vec3{0, 1, 0})
	az := orientation.Rotate(mgl32.Vec3{0, 0, 1})
	for _, pl := range f.Planes {
		r := extents[0]*math32.Abs(pl.Normal.Dot(ax)) +
			extents[1]*math32.Abs(pl.Normal.Dot(ay)) +
			extents[2]*math32.Abs(pl.Normal.Dot(az))
		if pl.Distance(center) < -r {
			return false
		}
	}
	return true
}

// separates reports whether one of f's planes has every point outside.
func (f Frustum) separates(points []mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		outside := true
		for _, p := range points {
			if pl.Distance(p) >= 0 {
				outside = false
				break
			}
		}
		if outside {
			return true
		}
	}
	return false
}
