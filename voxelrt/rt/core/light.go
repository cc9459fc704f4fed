package core

import (
	"github.com/gekko3d/rtdgi/voxelrt/rt/brdf"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SunLight is a directional light subtending a small cone.
type SunLight struct {
	Direction   mgl32.Vec3 // unit, pointing towards the sun
	AngularSize float32    // full cone angle, radians
	Color       mgl32.Vec3 // radiance
}

func NewSunLight(towards mgl32.Vec3, angularSize float32, color mgl32.Vec3) SunLight {
	return SunLight{
		Direction:   towards.Normalize(),
		AngularSize: angularSize,
		Color:       color,
	}
}

// SampleDirection maps u uniformly onto the sun's cone of directions.
func (s SunLight) SampleDirection(u mgl32.Vec2) mgl32.Vec3 {
	if s.AngularSize <= 0 {
		return s.Direction
	}
	cosMax := math32.Cos(s.AngularSize * 0.5)
	cosTheta := 1 - u[0]*(1-cosMax)
	sinTheta := math32.Sqrt(math32.Max(0, 1-cosTheta*cosTheta))
	sinPhi, cosPhi := math32.Sincos(2 * math32.Pi * u[1])

	local := mgl32.Vec3{cosPhi * sinTheta, sinPhi * sinTheta, cosTheta}
	return brdf.NewBasis(s.Direction).ToWorld(local)
}
