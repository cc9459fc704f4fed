package core

import (
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"

	"github.com/go-gl/mathgl/mgl32"
)

type Material struct {
	BaseColor [4]uint8   // RGBA, linear
	Emissive  mgl32.Vec3 // radiance
	Roughness float32
	Metalness float32
}

func NewMaterial(baseColor [4]uint8, emissive mgl32.Vec3) Material {
	return Material{
		BaseColor: baseColor,
		Emissive:  emissive,
		Roughness: 1.0,
		Metalness: 0.0,
	}
}

// Helper for default white
func DefaultMaterial() Material {
	return NewMaterial([4]uint8{255, 255, 255, 255}, mgl32.Vec3{})
}

func (m Material) Albedo() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(m.BaseColor[0]) / 255,
		float32(m.BaseColor[1]) / 255,
		float32(m.BaseColor[2]) / 255,
	}
}

// Record describes the material at a surface point with the given normal.
func (m Material) Record(normal mgl32.Vec3) gbuffer.Record {
	return gbuffer.Record{
		Albedo:    m.Albedo(),
		Normal:    normal,
		Roughness: mgl32.Clamp(m.Roughness, 0, 1),
		Metalness: mgl32.Clamp(m.Metalness, 0, 1),
		Emissive:  m.Emissive,
	}
}
