package core

import (
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a voxel object in the world. Dirty is set by whoever
// edits it and cleared when the scene refreshes the world bounds.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3 // world size of one voxel
	Dirty    bool
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Dirty:    true,
	}
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T), conjugate inverts a unit quat
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// objectRay maps a world ray into voxel space. The direction is not
// renormalised, so a parameter t names the same point in both spaces.
type objectRay struct {
	origin mgl32.Vec3
	dir    mgl32.Vec3
	invDir mgl32.Vec3
	w2o    mgl32.Mat4
}

func (t *Transform) toObject(ray geom.Ray) objectRay {
	w2o := t.WorldToObject()
	dir := w2o.Mul4x1(ray.Direction.Vec4(0)).Vec3()
	return objectRay{
		origin: w2o.Mul4x1(ray.Origin.Vec4(1)).Vec3(),
		dir:    dir,
		invDir: mgl32.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]},
		w2o:    w2o,
	}
}

// normalToWorld applies the inverse transpose.
func (r objectRay) normalToWorld(n mgl32.Vec3) mgl32.Vec3 {
	return r.w2o.Transpose().Mul4x1(n.Vec4(0)).Vec3().Normalize()
}
