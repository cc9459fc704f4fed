package core

import (
	"github.com/gekko3d/rtdgi/voxelrt/rt/bvh"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// PathVertex is the result of a nearest-surface query. GBuffer is the zero
// record when IsHit is false.
type PathVertex struct {
	IsHit     bool
	RayT      float32
	Position  mgl32.Vec3
	GBuffer   gbuffer.Packed
	ConeWidth float32
}

type surfaceHit struct {
	t        float32
	normal   mgl32.Vec3
	material Material
}

// TraceNearestSurface finds the closest hit among all scene leaves.
func (s *Scene) TraceNearestSurface(ray geom.Ray, cone geom.RayCone) PathVertex {
	return traceNearest(s.tlas, s.leaves, ray, cone)
}

// TracePrimary is TraceNearestSurface restricted to frustum-visible leaves.
func (s *Scene) TracePrimary(ray geom.Ray, cone geom.RayCone) PathVertex {
	return traceNearest(s.primary, s.primaryLeaves, ray, cone)
}

// TraceOcclusion reports whether anything blocks the ray inside its range.
func (s *Scene) TraceOcclusion(ray geom.Ray) bool {
	occluded := false
	s.tlas.Traverse(ray.Origin, ray.Direction, ray.TMin, ray.TMax, func(idx int32, tMax float32) (float32, bool) {
		if _, ok := intersectLeaf(s.leaves[idx], ray, tMax); ok {
			occluded = true
			return tMax, true
		}
		return tMax, false
	})
	return occluded
}

func traceNearest(tree *bvh.Tree, leaves []leaf, ray geom.Ray, cone geom.RayCone) PathVertex {
	var best surfaceHit
	found := false
	tree.Traverse(ray.Origin, ray.Direction, ray.TMin, ray.TMax, func(idx int32, tMax float32) (float32, bool) {
		if hit, ok := intersectLeaf(leaves[idx], ray, tMax); ok {
			best = hit
			found = true
			return hit.t, false
		}
		return tMax, false
	})

	if !found {
		return PathVertex{
			RayT:    ray.TMax,
			GBuffer: gbuffer.Pack(gbuffer.CreateZero()),
		}
	}
	return PathVertex{
		IsHit:     true,
		RayT:      best.t,
		Position:  ray.At(best.t),
		GBuffer:   gbuffer.Pack(best.material.Record(best.normal)),
		ConeWidth: cone.Propagate(best.t).Width,
	}
}

// intersectLeaf tests one leaf against [ray.TMin, tMax].
func intersectLeaf(l leaf, ray geom.Ray, tMax float32) (surfaceHit, bool) {
	if l.sphere != nil {
		if !ray.Sees(l.sphere.Mask) {
			return surfaceHit{}, false
		}
		r := ray
		r.TMax = tMax
		hit, ok := geom.IntersectSphere(r, l.sphere.Center, l.sphere.Radius)
		if !ok {
			return surfaceHit{}, false
		}
		return surfaceHit{t: hit.T, normal: hit.Normal, material: l.sphere.Material}, true
	}

	obj := l.object
	if !ray.Sees(obj.Mask) {
		return surfaceHit{}, false
	}

	local := obj.Transform.toObject(ray)
	tNear, tFar, ok := bvh.SlabInterval(obj.LocalAABB[0], obj.LocalAABB[1], local.origin, local.invDir, ray.TMin, tMax)
	if !ok {
		return surfaceHit{}, false
	}
	mh, ok := obj.XBrickMap.RayMarch(local.origin, local.dir, tNear, tFar)
	if !ok || !ray.InRange(mh.T) || mh.T > tMax {
		return surfaceHit{}, false
	}

	n := local.normalToWorld(mh.Normal)
	return surfaceHit{t: mh.T, normal: n, material: obj.MaterialFor(mh.Value)}, true
}
