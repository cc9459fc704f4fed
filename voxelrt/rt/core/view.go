package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ViewConstants holds the four camera matrices a frame is rendered with.
type ViewConstants struct {
	ViewToClip  mgl32.Mat4
	ClipToView  mgl32.Mat4
	ViewToWorld mgl32.Mat4
	WorldToView mgl32.Mat4
}

func NewViewConstants(view, proj mgl32.Mat4) ViewConstants {
	return ViewConstants{
		ViewToClip:  proj,
		ClipToView:  proj.Inv(),
		ViewToWorld: view.Inv(),
		WorldToView: view,
	}
}

// PerspectiveReverseZ is an infinite perspective projection that maps the
// near plane to depth 1 and infinity to depth 0. fovy is in radians.
func PerspectiveReverseZ(fovy, aspect, near float32) mgl32.Mat4 {
	f := 1 / math32.Tan(fovy*0.5)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, 0, -1,
		0, 0, near, 0,
	}
}

// EyePositionWS is the camera origin in world space.
func (vc *ViewConstants) EyePositionWS() mgl32.Vec3 {
	return vc.ViewToWorld.Col(3).Vec3()
}

// DepthOf projects a world position and returns its clip-space depth.
func (vc *ViewConstants) DepthOf(posWS mgl32.Vec3) float32 {
	cs := vc.ViewToClip.Mul4(vc.WorldToView).Mul4x1(posWS.Vec4(1))
	return cs[2] / cs[3]
}

// UVToClip maps a normalized screen coordinate (0,0 top-left) to clip xy.
func UVToClip(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{uv[0]*2 - 1, (1-uv[1])*2 - 1}
}

// ViewRayContext is the per-pixel camera ray in clip, view and world space.
// Origins and hits are homogeneous points, directions have w = 0.
type ViewRayContext struct {
	rayDirCS    mgl32.Vec4
	rayDirVS    mgl32.Vec4
	rayDirWS    mgl32.Vec4
	rayOriginCS mgl32.Vec4
	rayOriginVS mgl32.Vec4
	rayOriginWS mgl32.Vec4
	rayHitCS    mgl32.Vec4
	rayHitVS    mgl32.Vec4
	rayHitWS    mgl32.Vec4
}

func ViewRayFromUV(uv mgl32.Vec2, vc *ViewConstants) ViewRayContext {
	return ViewRayFromUVAndDepth(uv, 0, vc)
}

// ViewRayFromUVAndDepth additionally resolves the hit position stored at depth.
func ViewRayFromUVAndDepth(uv mgl32.Vec2, depth float32, vc *ViewConstants) ViewRayContext {
	cs := UVToClip(uv)

	var ctx ViewRayContext
	ctx.rayDirCS = mgl32.Vec4{cs[0], cs[1], 0, 1}
	ctx.rayDirVS = vc.ClipToView.Mul4x1(ctx.rayDirCS)
	ctx.rayDirWS = vc.ViewToWorld.Mul4x1(ctx.rayDirVS)

	ctx.rayOriginCS = mgl32.Vec4{cs[0], cs[1], 1, 1}
	ctx.rayOriginVS = vc.ClipToView.Mul4x1(ctx.rayOriginCS)
	ctx.rayOriginWS = vc.ViewToWorld.Mul4x1(ctx.rayOriginVS)

	ctx.rayHitCS = mgl32.Vec4{cs[0], cs[1], depth, 1}
	ctx.rayHitVS = vc.ClipToView.Mul4x1(ctx.rayHitCS)
	ctx.rayHitWS = vc.ViewToWorld.Mul4x1(ctx.rayHitVS)
	return ctx
}

func (c ViewRayContext) RayDirCS() mgl32.Vec3 { return c.rayDirCS.Vec3() }
func (c ViewRayContext) RayDirVS() mgl32.Vec3 { return c.rayDirVS.Vec3() }
func (c ViewRayContext) RayDirWS() mgl32.Vec3 { return c.rayDirWS.Vec3() }

func (c ViewRayContext) RayOriginCS() mgl32.Vec3 { return divideW(c.rayOriginCS) }
func (c ViewRayContext) RayOriginVS() mgl32.Vec3 { return divideW(c.rayOriginVS) }
func (c ViewRayContext) RayOriginWS() mgl32.Vec3 { return divideW(c.rayOriginWS) }

func (c ViewRayContext) RayHitCS() mgl32.Vec3 { return divideW(c.rayHitCS) }
func (c ViewRayContext) RayHitVS() mgl32.Vec3 { return divideW(c.rayHitVS) }
func (c ViewRayContext) RayHitWS() mgl32.Vec3 { return divideW(c.rayHitWS) }

func divideW(v mgl32.Vec4) mgl32.Vec3 {
	return v.Vec3().Mul(1 / v[3])
}
