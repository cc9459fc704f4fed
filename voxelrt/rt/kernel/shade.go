package kernel

import (
	"github.com/gekko3d/rtdgi/voxelrt/rt/brdf"
	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/csgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sampler dimensions used per pixel.
const (
	dimBounceU = iota
	dimBounceV
	dimSunU
	dimSunV
)

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func pixelUV(px, py, width, height int) mgl32.Vec2 {
	return mgl32.Vec2{
		(float32(px) + 0.5) / float32(width),
		(float32(py) + 0.5) / float32(height),
	}
}

func (k *Kernel) sampleIndex(frame *Context) uint32 {
	if k.opts.UseTemporalJitter {
		return frame.Frame.FrameIndex
	}
	return 0
}

// sunDirection jitters the sun inside its disc when soft shadows are on.
func (k *Kernel) sunDirection(px, py int, frame *Context) mgl32.Vec3 {
	sun := frame.Frame.Sun
	if !k.opts.SunSoftShadows {
		return sun.Direction
	}
	idx := k.sampleIndex(frame)
	u := mgl32.Vec2{
		frame.Noise.Sample(uint32(px), uint32(py), idx, dimSunU),
		frame.Noise.Sample(uint32(px), uint32(py), idx, dimSunV),
	}
	return sun.SampleDirection(u)
}

// Shade runs the estimator for one pixel and writes its outputs.
func (k *Kernel) Shade(px, py int, frame *Context, out *Output) {
	opts := &k.opts

	depth := frame.Depth.At(px, py)
	if depth == 0 {
		out.Radiance.Set(px, py, mgl32.Vec4{0, 0, 0, opts.SkyDistance})
		return
	}

	view := &frame.Frame.View
	uv := pixelUV(px, py, frame.Depth.Width, frame.Depth.Height)
	viewRay := core.ViewRayFromUVAndDepth(uv, depth, view)
	primaryPos := viewRay.RayHitWS()
	eyeDir := viewRay.RayDirWS().Normalize()

	rec := frame.GBuffer.At(px, py).Unpack()
	normal := rec.Normal
	basis := brdf.NewBasis(normal)
	wo := brdf.FoldIntoHemisphere(basis.ToLocal(eyeDir.Mul(-1)))

	idx := k.sampleIndex(frame)
	u := mgl32.Vec2{
		frame.Noise.Sample(uint32(px), uint32(py), idx, dimBounceU),
		frame.Noise.Sample(uint32(px), uint32(py), idx, dimBounceV),
	}
	sample := brdf.Diffuse{Albedo: mgl32.Vec3{1, 1, 1}}.Sample(wo, u)
	if !sample.IsValid() {
		out.Radiance.Set(px, py, mgl32.Vec4{})
		return
	}
	rayDir := basis.ToWorld(sample.Wi).Normalize()

	var controlVariate mgl32.Vec3
	if opts.UseControlVariate && frame.Cache != nil {
		controlVariate = frame.Cache.Lookup(primaryPos, normal,
			csgi.DefaultLookupParams().WithDirectionalRadiance(rayDir))
	}
	pdf := mgl32.Clamp(sample.Pdf, opts.PdfClampMin, opts.PdfClampMax)
	out.Rays.Set(px, py, rayDir.Vec4(pdf))

	shortRays := opts.UseShortRays && frame.Cache != nil
	tMax := opts.SkyDistance
	if shortRays {
		tMax = frame.Cache.CellSize() * opts.ShortRayCells
	}

	origin := primaryPos.Add(normal.Mul(opts.NormalBias))
	ray := geom.NewRay(origin, rayDir, 0, tMax)
	cone := geom.RayCone{
		Width:       frame.Frame.PixelSpreadAngle * primaryPos.Sub(view.EyePositionWS()).Len(),
		SpreadAngle: frame.Frame.PixelSpreadAngle,
	}
	pv := frame.Tracer.TraceNearestSurface(ray, cone)

	if !pv.IsHit {
		var far mgl32.Vec3
		if shortRays {
			// just short of the truncated end, without a normal offset
			cell := frame.Cache.CellSize()
			farPos := ray.At(math32.Max(0, tMax-cell))
			far = frame.Cache.Lookup(farPos, rayDir, csgi.DefaultLookupParams().
				WithDirectionalRadiance(rayDir).
				WithMaxNormalOffsetScale(0))
		} else {
			far = frame.Env.Radiance(rayDir)
		}
		out.Radiance.Set(px, py, far.Sub(controlVariate).Vec4(1))
		return
	}

	radiance := k.shadeHit(px, py, frame, ray, pv, normal)
	out.Radiance.Set(px, py, radiance.Sub(controlVariate).Vec4(1))
}

// shadeHit returns emitted, sun-lit and cache-lit radiance leaving the hit
// back along the bounce ray.
func (k *Kernel) shadeHit(px, py int, frame *Context, ray geom.Ray, pv core.PathVertex, primaryNormal mgl32.Vec3) mgl32.Vec3 {
	opts := &k.opts

	hit := pv.GBuffer.Unpack()
	hit.Roughness = lerp(hit.Roughness, 1, opts.HitRoughnessBias)
	hitBasis := brdf.NewBasis(hit.Normal)
	wo := brdf.FoldIntoHemisphere(hitBasis.ToLocal(ray.Direction.Mul(-1)))
	layered := brdf.NewLayered(hit, wo[2])

	radiance := hit.Emissive

	sun := frame.Frame.Sun
	sunDir := k.sunDirection(px, py, frame)
	wi := hitBasis.ToLocal(sunDir)
	if wi[2] > 0 {
		shadowRay := geom.NewRay(pv.Position.Add(hit.Normal.Mul(opts.NormalBias)), sunDir, 0, opts.SkyDistance)
		if !frame.Tracer.TraceOcclusion(shadowRay) {
			lit := layered.Evaluate(wo, wi).Mul(wi[2])
			radiance = radiance.Add(mulVec3(lit, sun.Color))
		}
	}

	if opts.UseVoxelIndirect && frame.Cache != nil {
		params := csgi.DefaultLookupParams()
		cell := frame.Cache.CellSize()
		if pv.RayT < cell {
			params = params.WithMaxNormalOffsetScale(k.nearHitOffsetScale(pv.RayT, cell, ray.Direction, hit.Normal, primaryNormal))
		}
		irradiance := frame.Cache.Lookup(pv.Position, hit.Normal, params)
		radiance = radiance.Add(mulVec3(irradiance, layered.Diffuse.Albedo))
	}

	return radiance
}

// nearHitOffsetScale caps the cache normal offset for hits closer than a
// cell. Facing surfaces keep the minimum offset, corners get the maximum.
func (k *Kernel) nearHitOffsetScale(hitT, cell float32, rayDir, hitNormal, primaryNormal mgl32.Vec3) float32 {
	agreement := math32.Max(0, hitNormal.Dot(primaryNormal))
	blend := lerp(k.opts.NearHitMinOffset, k.opts.NearHitMaxOffset,
		math32.Pow(1-mgl32.Clamp(agreement, 0, 1), k.opts.NearHitBlendExponent))
	return (hitT / cell) * math32.Abs(rayDir.Dot(hitNormal)) * blend
}
