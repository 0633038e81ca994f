// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"testing"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func near(a, b float32) bool { return math32.Abs(a-b) < eps }

func nearVec(a, b mgl32.Vec3) bool { return a.ApproxEqualThreshold(b, eps) }

func v3(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }

func TestLookToLH(t *testing.T) {
	view := LookToLH(v3(1, 2, 3), v3(0, 0, 1), v3(0, 1, 0))
	if p := mgl32.TransformCoordinate(v3(1, 2, 8), view); !nearVec(p, v3(0, 0, 5)) {
		t.Errorf("point ahead in view space = %v, want (0,0,5)", p)
	}
	if p := mgl32.TransformCoordinate(v3(2, 2, 3), view); !nearVec(p, v3(1, 0, 0)) {
		t.Errorf("point to the right in view space = %v, want (1,0,0)", p)
	}
}

func TestOrthographicDepthRange(t *testing.T) {
	proj := OrthographicLH(10, 10, 5, 15)
	if z := mgl32.TransformCoordinate(v3(0, 0, 5), proj)[2]; !near(z, 0) {
		t.Errorf("near plane depth = %v, want 0", z)
	}
	if z := mgl32.TransformCoordinate(v3(0, 0, 15), proj)[2]; !near(z, 1) {
		t.Errorf("far plane depth = %v, want 1", z)
	}
	if x := mgl32.TransformCoordinate(v3(5, 0, 10), proj)[0]; !near(x, 1) {
		t.Errorf("right edge x = %v, want 1", x)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := PerspectiveFovLH(mgl32.DegToRad(90), 1, 1, 100)
	if z := mgl32.TransformCoordinate(v3(0, 0, 1), proj)[2]; !near(z, 0) {
		t.Errorf("near plane depth = %v, want 0", z)
	}
	if z := mgl32.TransformCoordinate(v3(0, 0, 100), proj)[2]; !near(z, 1) {
		t.Errorf("far plane depth = %v, want 1", z)
	}
}

func TestCameraMovement(t *testing.T) {
	c := DefaultCamera(1)
	if !nearVec(c.Forward(), v3(0, 0, 1)) {
		t.Fatalf("initial forward = %v", c.Forward())
	}

	c.MoveForward(5)
	if !c.Dirty() {
		t.Error("camera not dirty after move")
	}
	c.Update()
	if !nearVec(c.Position(), v3(0, 0, 5)) {
		t.Errorf("position after MoveForward = %v", c.Position())
	}

	c.MoveRight(2)
	c.Update()
	if !nearVec(c.Position(), v3(2, 0, 5)) {
		t.Errorf("position after MoveRight = %v", c.Position())
	}

	c.RotateWorldY(math32.Pi / 2)
	c.Update()
	if !nearVec(c.Forward(), v3(1, 0, 0)) {
		t.Errorf("forward after 90 degree yaw = %v, want +X", c.Forward())
	}

	c.SetPosition(0, 0, 0)
	c.Update()
	if p := mgl32.TransformCoordinate(v3(3, 0, 0), c.View()); !near(p[2], 3) {
		t.Errorf("view-space depth of a point ahead = %v, want 3", p[2])
	}
}

func TestCameraPitch(t *testing.T) {
	c := DefaultCamera(1)
	c.RotateLocalX(-math32.Pi / 4)
	c.Update()
	if f := c.Forward(); f.Y() <= 0 {
		t.Errorf("forward after pitching up = %v, want positive Y", f)
	}
}

func TestFrustumContains(t *testing.T) {
	c := NewCamera(1, mgl32.DegToRad(90), 1, 100)
	f := c.Frustum()

	tests := []struct {
		name string
		p    mgl32.Vec3
		want bool
	}{
		{"ahead", v3(0, 0, 10), true},
		{"behind", v3(0, 0, -10), false},
		{"before near plane", v3(0, 0, 0.5), false},
		{"beyond far plane", v3(0, 0, 150), false},
		{"left of view", v3(-20, 0, 10), false},
		{"inside edge", v3(9, 0, 10), true},
	}
	for _, tt := range tests {
		if got := f.Contains(tt.p); got != tt.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}
}

func TestFrustumCorners(t *testing.T) {
	c := NewCamera(1, mgl32.DegToRad(90), 1, 100)
	f := c.Frustum()
	if d := f.Corners[0].Sub(v3(-1, -1, 1)).Len(); d > 1e-3 {
		t.Errorf("near bottom-left corner = %v, want (-1,-1,1)", f.Corners[0])
	}
	if far := f.Corners[7].Sub(v3(100, 100, 100)).Len(); far > 0.05 {
		t.Errorf("far top-right corner = %v, want (100,100,100)", f.Corners[7])
	}
}

func TestIntersects(t *testing.T) {
	f := FrustumCollider(NewCamera(1, mgl32.DegToRad(90), 1, 100).Frustum())
	rot45 := mgl32.QuatRotate(math32.Pi/4, v3(0, 0, 1))

	tests := []struct {
		name string
		a, b Collider
		want bool
	}{
		{"box box overlap", Box(v3(0, 0, 0), v3(1, 1, 1)), Box(v3(1.5, 0, 0), v3(1, 1, 1)), true},
		{"box box apart", Box(v3(0, 0, 0), v3(1, 1, 1)), Box(v3(3, 0, 0), v3(1, 1, 1)), false},
		{"sphere sphere touch", Sphere(v3(0, 0, 0), 1), Sphere(v3(2, 0, 0), 1), true},
		{"sphere sphere apart", Sphere(v3(0, 0, 0), 1), Sphere(v3(2.1, 0, 0), 1), false},
		{"box sphere corner miss", Box(v3(0, 0, 0), v3(1, 1, 1)), Sphere(v3(2, 2, 0), 1), false},
		{"sphere box order", Sphere(v3(1.5, 0, 0), 1), Box(v3(0, 0, 0), v3(1, 1, 1)), true},
		{"sphere oriented box hit", Sphere(v3(1.6, 0, 0), 0.3), OrientedBox(v3(0, 0, 0), v3(1, 1, 1), rot45), true},
		{"sphere oriented box miss", Sphere(v3(1.6, 1.6, 0), 0.3), OrientedBox(v3(0, 0, 0), v3(1, 1, 1), rot45), false},
		{"frustum box inside", f, Box(v3(0, 0, 10), v3(1, 1, 1)), true},
		{"frustum box behind", f, Box(v3(0, 0, -10), v3(1, 1, 1)), false},
		{"frustum sphere straddling near", f, Sphere(v3(0, 0, 0), 1.5), true},
		{"frustum oriented box far", f, OrientedBox(v3(0, 0, 500), v3(1, 1, 1), rot45), false},
		{"frustum frustum self", f, f, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersects(tt.a, tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			if got := Intersects(tt.b, tt.a); got != tt.want {
				t.Errorf("Intersects (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColliderTransform(t *testing.T) {
	b := Box(v3(0, 0, 0), v3(1, 1, 1)).Transform(mgl32.Translate3D(5, 0, 0).Mul4(mgl32.Scale3D(1, 1, 1)))
	if !nearVec(b.Center, v3(5, 0, 0)) || !nearVec(b.Extents, v3(1, 1, 1)) {
		t.Errorf("translated box = %+v", b)
	}

	r := Box(v3(0, 0, 0), v3(1, 1, 1)).Transform(mgl32.HomogRotate3D(math32.Pi/4, v3(0, 0, 1)))
	if want := math32.Sqrt(2); !near(r.Extents[0], want) || !near(r.Extents[2], 1) {
		t.Errorf("rotated box extents = %v, want (%v, %v, 1)", r.Extents, want, want)
	}

	s := Sphere(v3(1, 0, 0), 1).Transform(mgl32.Scale3D(3, 3, 3))
	if !nearVec(s.Center, v3(3, 0, 0)) || !near(s.Radius, 3) {
		t.Errorf("scaled sphere = %+v", s)
	}

	if ob := OrientedBox(v3(0, 0, 0), v3(1, 2, 3), mgl32.QuatIdent()).BoundingBox(); !nearVec(ob.Extents, v3(1, 2, 3)) {
		t.Errorf("BoundingBox() = %+v", ob)
	}
}

func TestRenderItemCull(t *testing.T) {
	c := NewCamera(1, mgl32.DegToRad(90), 1, 100)
	item := &RenderItem{
		Name:   "cube",
		Bounds: Box(v3(0, 0, 0), v3(0.5, 0.5, 0.5)),
		Instances: []Instance{
			{World: mgl32.Translate3D(0, 0, 10), MaterialIndex: 1},
			{World: mgl32.Translate3D(0, 0, -10), MaterialIndex: 2},
			{World: mgl32.Translate3D(0, 3, 20), MaterialIndex: 3},
			{World: mgl32.Translate3D(0, 0, 500), MaterialIndex: 4},
		},
	}

	visible := item.Cull(c.Frustum(), nil)
	if len(visible) != 2 {
		t.Fatalf("visible = %d instances, want 2", len(visible))
	}
	if visible[0].MaterialIndex != 1 || visible[1].MaterialIndex != 3 {
		t.Errorf("visible materials = %d, %d", visible[0].MaterialIndex, visible[1].MaterialIndex)
	}
	if visible[0].World[14] != 10 {
		t.Errorf("instance world z translation = %v, want 10", visible[0].World[14])
	}
}

func TestPassData(t *testing.T) {
	s := &Scene{
		Camera:         DefaultCamera(2),
		AmbientLight:   [4]float32{0.1, 0.1, 0.1, 1},
		LightDirection: v3(0, -1, 0),
		LightIntensity: 2,
	}
	mp := s.MainPass(800, 400, 1.5, 0.016)
	if mp.RenderTargetSize != [2]float32{800, 400} || mp.InvRenderTargetSize[0] != 1.0/800 {
		t.Errorf("target size = %v / %v", mp.RenderTargetSize, mp.InvRenderTargetSize)
	}
	if mp.TotalTime != 1.5 || mp.LightIntensity != 2 || mp.FarZ != 10000 {
		t.Errorf("main pass = %+v", mp)
	}

	shadow := s.ShadowPass(1024, 1.5, 0.016)
	if shadow.EyePosition[1] <= 0 {
		t.Errorf("shadow eye = %v, want above the scene", shadow.EyePosition)
	}
	if shadow.RenderTargetSize != [2]float32{1024, 1024} {
		t.Errorf("shadow size = %v", shadow.RenderTargetSize)
	}
}

func TestPayloadLayout(t *testing.T) {
	if got := unsafe.Sizeof(InstanceData{}); got != 80 {
		t.Errorf("sizeof(InstanceData) = %d, want 80", got)
	}
	if got := unsafe.Sizeof(MaterialData{}); got != 32 {
		t.Errorf("sizeof(MaterialData) = %d, want 32", got)
	}
	if got := unsafe.Sizeof(PassData{}); got%16 != 0 {
		t.Errorf("sizeof(PassData) = %d, not a multiple of 16", got)
	}
}

func TestSceneLookup(t *testing.T) {
	s := &Scene{Items: []*RenderItem{{Name: "a"}, {Name: "b", Instances: make([]Instance, 3)}}}
	if s.Item("b") == nil || s.Item("c") != nil {
		t.Error("Item lookup")
	}
	if got := s.InstanceCapacity(); got[0] != 1 || got[1] != 3 {
		t.Errorf("InstanceCapacity() = %v", got)
	}
}
