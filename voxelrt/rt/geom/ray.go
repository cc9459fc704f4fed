package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaskAll makes a ray visible to every instance mask.
const MaskAll uint32 = 0xFF

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	TMin      float32
	TMax      float32
	Mask      uint32
}

func NewRay(origin, dir mgl32.Vec3, tMin, tMax float32) Ray {
	return Ray{
		Origin:    origin,
		Direction: dir,
		TMin:      tMin,
		TMax:      tMax,
		Mask:      MaskAll,
	}
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// InRange reports whether t lies inside [TMin, TMax]. NaN is never in range.
func (r Ray) InRange(t float32) bool {
	return t >= r.TMin && t <= r.TMax
}

// Sees reports whether an instance carrying mask is not culled for this ray.
func (r Ray) Sees(mask uint32) bool {
	return r.Mask&mask != 0
}

// Accepts combines the range test with the instance mask test.
func (r Ray) Accepts(t float32, mask uint32) bool {
	return r.InRange(t) && r.Sees(mask)
}

// RayCone tracks the footprint of a ray for texture filtering at the hit.
type RayCone struct {
	Width       float32
	SpreadAngle float32
}

func (c RayCone) Propagate(t float32) RayCone {
	return RayCone{
		Width:       c.Width + c.SpreadAngle*t,
		SpreadAngle: c.SpreadAngle,
	}
}
