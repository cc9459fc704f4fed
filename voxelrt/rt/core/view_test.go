package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3Near(t *testing.T, expected, actual mgl32.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, expected[i], actual[i], delta, "component %d of %v vs %v", i, actual, expected)
	}
}

func TestPerspectiveReverseZDepth(t *testing.T) {
	proj := PerspectiveReverseZ(mgl32.DegToRad(90), 1, 0.1)

	depthAt := func(z float32) float32 {
		cs := proj.Mul4x1(mgl32.Vec4{0, 0, z, 1})
		return cs[2] / cs[3]
	}
	assert.InDelta(t, 1.0, depthAt(-0.1), 1e-6)
	assert.InDelta(t, 0.5, depthAt(-0.2), 1e-6)
	assert.Less(t, depthAt(-1e6), float32(1e-6))
}

func TestViewRayCenterPixel(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	vc := NewViewConstants(view, PerspectiveReverseZ(mgl32.DegToRad(60), 1, 0.1))

	ctx := ViewRayFromUVAndDepth(mgl32.Vec2{0.5, 0.5}, 0.5, &vc)

	assertVec3Near(t, mgl32.Vec3{0, 0, -0.1}, ctx.RayOriginWS(), 1e-5)
	assertVec3Near(t, mgl32.Vec3{0, 0, -0.2}, ctx.RayHitWS(), 1e-5)
	assertVec3Near(t, mgl32.Vec3{0, 0, -1}, ctx.RayDirWS().Normalize(), 1e-5)
	assertVec3Near(t, mgl32.Vec3{0, 0, 0.5}, ctx.RayHitCS(), 1e-6)
}

func TestViewRayTopLeftCorner(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	vc := NewViewConstants(view, PerspectiveReverseZ(mgl32.DegToRad(90), 1, 0.1))

	dir := ViewRayFromUV(mgl32.Vec2{0, 0}, &vc).RayDirVS()
	// 90 degree fov: the corner ray leaves at 45 degrees on both axes
	assert.InDelta(t, -1, dir[0]/-dir[2], 1e-5)
	assert.InDelta(t, 1, dir[1]/-dir[2], 1e-5)
}

func TestViewRayRoundTrip(t *testing.T) {
	cam := NewCameraState()
	cam.Position = mgl32.Vec3{1, 2, 3}
	cam.Yaw = 0.3
	cam.Pitch = -0.2
	vc := cam.ViewConstants(16.0 / 9.0)

	assertVec3Near(t, cam.Position, vc.EyePositionWS(), 1e-4)

	target := cam.Position.Add(cam.GetForward().Mul(7)).Add(cam.GetRight().Mul(1.5))
	cs := vc.ViewToClip.Mul4(vc.WorldToView).Mul4x1(target.Vec4(1))
	uv := mgl32.Vec2{(cs[0]/cs[3] + 1) / 2, 1 - (cs[1]/cs[3]+1)/2}
	depth := vc.DepthOf(target)
	require.Greater(t, depth, float32(0))

	ctx := ViewRayFromUVAndDepth(uv, depth, &vc)
	assertVec3Near(t, target, ctx.RayHitWS(), 1e-3)

	// the unnormalized direction still points at the hit
	toHit := ctx.RayHitWS().Sub(vc.EyePositionWS()).Normalize()
	assertVec3Near(t, toHit, ctx.RayDirWS().Normalize(), 1e-4)
}

func TestPixelSpreadAngle(t *testing.T) {
	cam := NewCameraState()
	cam.Fov = mgl32.DegToRad(90)
	assert.InDelta(t, 2.0/100.0, cam.PixelSpreadAngle(100), 1e-4)
}

func TestSunSampleDirection(t *testing.T) {
	sun := NewSunLight(mgl32.Vec3{0, 0, 2}, mgl32.DegToRad(10), mgl32.Vec3{1, 1, 1})
	assertVec3Near(t, mgl32.Vec3{0, 0, 1}, sun.Direction, 1e-6)

	cosMax := float32(0.99619) // cos(5 degrees)
	for _, u := range []mgl32.Vec2{{0, 0}, {0.5, 0.25}, {0.999, 0.9}, {1, 0.5}} {
		d := sun.SampleDirection(u)
		assert.InDelta(t, 1, d.Len(), 1e-5)
		assert.GreaterOrEqual(t, d.Dot(sun.Direction), cosMax-1e-5)
	}

	point := NewSunLight(mgl32.Vec3{1, 0, 0}, 0, mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, point.SampleDirection(mgl32.Vec2{0.3, 0.7}))
}
