package kernel

import (
	"sync"

	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/csgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// fakeTracer hits every bounce ray at a fixed distance with a fixed surface.
type fakeTracer struct {
	hit      bool
	hitT     float32
	surface  gbuffer.Record
	occluded bool

	mu   sync.Mutex
	rays []geom.Ray
}

func (f *fakeTracer) TraceNearestSurface(ray geom.Ray, cone geom.RayCone) core.PathVertex {
	f.mu.Lock()
	f.rays = append(f.rays, ray)
	f.mu.Unlock()
	if !f.hit || f.hitT > ray.TMax {
		return core.PathVertex{RayT: ray.TMax, GBuffer: gbuffer.Pack(gbuffer.CreateZero())}
	}
	return core.PathVertex{
		IsHit:     true,
		RayT:      f.hitT,
		Position:  ray.At(f.hitT),
		GBuffer:   gbuffer.Pack(f.surface),
		ConeWidth: cone.Propagate(f.hitT).Width,
	}
}

func (f *fakeTracer) TraceOcclusion(geom.Ray) bool {
	return f.occluded
}

// fakeCache tells its three lookups apart by their parameters.
type fakeCache struct {
	cell       float32
	cv         mgl32.Vec3 // directional, default offset
	far        mgl32.Vec3 // directional, zero offset
	irradiance mgl32.Vec3

	mu           sync.Mutex
	offsetScales []float32
	farPositions []mgl32.Vec3
}

func (f *fakeCache) Lookup(pos, normal mgl32.Vec3, p csgi.LookupParams) mgl32.Vec3 {
	if _, ok := p.Direction(); ok {
		if p.MaxNormalOffsetScale() == 0 {
			f.mu.Lock()
			f.farPositions = append(f.farPositions, pos)
			f.mu.Unlock()
			return f.far
		}
		return f.cv
	}
	f.mu.Lock()
	f.offsetScales = append(f.offsetScales, p.MaxNormalOffsetScale())
	f.mu.Unlock()
	return f.irradiance
}

func (f *fakeCache) CellSize() float32 {
	return f.cell
}

type constSampler float32

func (c constSampler) Sample(px, py, sampleIndex, dim uint32) float32 {
	return float32(c)
}

type uniformEnv mgl32.Vec3

func (u uniformEnv) Radiance(mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3(u)
}

// newFrame builds a frame whose camera sits below the origin looking up at a
// surface facing down, so every bounce ray heads towards -Z.
func newFrame(width, height int, depth float32, albedo mgl32.Vec3) *Context {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	vc := core.NewViewConstants(view, core.PerspectiveReverseZ(mgl32.DegToRad(60), float32(width)/float32(height), 0.1))

	frame := &Context{
		Frame: FrameConstants{
			View:             vc,
			FrameIndex:       3,
			Sun:              core.NewSunLight(mgl32.Vec3{0, 0, 1}, 0, mgl32.Vec3{1, 1, 1}),
			PixelSpreadAngle: 0.01,
		},
		Depth:   NewImage[float32](width, height),
		GBuffer: NewImage[gbuffer.Packed](width, height),
		Tracer:  &fakeTracer{},
		Cache:   &fakeCache{cell: 1},
		Env:     uniformEnv{},
		Noise:   constSampler(0.3),
	}
	surface := gbuffer.Pack(gbuffer.Record{Albedo: albedo, Normal: mgl32.Vec3{0, 0, -1}, Roughness: 1})
	for i := range frame.Depth.Pix {
		frame.Depth.Pix[i] = depth
		frame.GBuffer.Pix[i] = surface
	}
	return frame
}

func litFloor() gbuffer.Record {
	return gbuffer.Record{
		Albedo:    mgl32.Vec3{1, 1, 1},
		Normal:    mgl32.Vec3{0, 0, 1},
		Roughness: 1,
	}
}
