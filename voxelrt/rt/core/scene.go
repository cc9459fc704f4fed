package core

import (
	"github.com/gekko3d/rtdgi/voxelrt/rt/bvh"
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"
	"github.com/gekko3d/rtdgi/voxelrt/rt/volume"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type VoxelObject struct {
	Transform     *Transform
	XBrickMap     *volume.XBrickMap
	MaterialTable []Material // indexed by voxel value
	WorldAABB     *[2]mgl32.Vec3 // Min, Max
	LocalAABB     [2]mgl32.Vec3
	Mask          uint32
}

func NewVoxelObject() *VoxelObject {
	return &VoxelObject{
		Transform: NewTransform(),
		XBrickMap: volume.NewXBrickMap(),
		Mask:      geom.MaskAll,
	}
}

// MaterialFor resolves a voxel value through the material table.
func (obj *VoxelObject) MaterialFor(value uint8) Material {
	if int(value) < len(obj.MaterialTable) {
		return obj.MaterialTable[value]
	}
	return DefaultMaterial()
}

func (obj *VoxelObject) UpdateWorldAABB() bool {
	if !obj.XBrickMap.AABBDirty && !obj.Transform.Dirty && obj.WorldAABB != nil {
		return false
	}

	minB, maxB := obj.XBrickMap.ComputeAABB()
	if len(obj.XBrickMap.Sectors) == 0 {
		obj.WorldAABB = nil
		obj.Transform.Dirty = false
		return true
	}
	obj.LocalAABB = [2]mgl32.Vec3{minB, maxB}

	// conservative: transform all eight corners
	corners := [8]mgl32.Vec3{
		{minB.X(), minB.Y(), minB.Z()},
		{maxB.X(), minB.Y(), minB.Z()},
		{minB.X(), maxB.Y(), minB.Z()},
		{maxB.X(), maxB.Y(), minB.Z()},
		{minB.X(), minB.Y(), maxB.Z()},
		{maxB.X(), minB.Y(), maxB.Z()},
		{minB.X(), maxB.Y(), maxB.Z()},
		{maxB.X(), maxB.Y(), maxB.Z()},
	}

	o2w := obj.Transform.ObjectToWorld()

	inf := math32.Inf(1)
	wMin := mgl32.Vec3{inf, inf, inf}
	wMax := mgl32.Vec3{-inf, -inf, -inf}

	for _, c := range corners {
		wc := o2w.Mul4x1(c.Vec4(1.0)).Vec3()
		for a := 0; a < 3; a++ {
			wMin[a] = math32.Min(wMin[a], wc[a])
			wMax[a] = math32.Max(wMax[a], wc[a])
		}
	}

	obj.WorldAABB = &[2]mgl32.Vec3{wMin, wMax}
	obj.Transform.Dirty = false
	return true
}

// SphereObject is an analytic sphere traced through the same TLAS as voxels.
type SphereObject struct {
	Center   mgl32.Vec3
	Radius   float32
	Material Material
	Mask     uint32
}

func NewSphereObject(center mgl32.Vec3, radius float32, mat Material) *SphereObject {
	return &SphereObject{Center: center, Radius: radius, Material: mat, Mask: geom.MaskAll}
}

// leaf is what a TLAS leaf index resolves to. Exactly one field is set.
type leaf struct {
	object *VoxelObject
	sphere *SphereObject
}

type Scene struct {
	Objects        []*VoxelObject
	Spheres        []*SphereObject
	VisibleObjects []*VoxelObject
	VisibleSpheres []*SphereObject
	Sun            SunLight

	tlas          *bvh.Tree
	leaves        []leaf
	primary       *bvh.Tree
	primaryLeaves []leaf
	dirty         bool
}

func NewScene() *Scene {
	return &Scene{
		Objects: []*VoxelObject{},
		Sun:     NewSunLight(mgl32.Vec3{0.3, 0.2, 1}, mgl32.DegToRad(0.53), mgl32.Vec3{3, 3, 3}),
		tlas:    &bvh.Tree{},
		primary: &bvh.Tree{},
	}
}

func (s *Scene) AddObject(obj *VoxelObject) {
	s.Objects = append(s.Objects, obj)
	s.dirty = true
}

func (s *Scene) RemoveObject(obj *VoxelObject) {
	for i, o := range s.Objects {
		if o == obj {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			s.dirty = true
			return
		}
	}
}

func (s *Scene) AddSphere(sp *SphereObject) {
	s.Spheres = append(s.Spheres, sp)
	s.dirty = true
}

// TLAS is the acceleration structure over every object, valid after Commit.
func (s *Scene) TLAS() *bvh.Tree {
	return s.tlas
}

// PrimaryTLAS only holds the leaves that passed frustum culling.
func (s *Scene) PrimaryTLAS() *bvh.Tree {
	return s.primary
}

// Commit refreshes bounds, culls against planes and rebuilds both TLASes.
// The scene must not be traced while Commit runs.
func (s *Scene) Commit(planes [6]mgl32.Vec4) {
	anyChanged := s.dirty
	for _, obj := range s.Objects {
		if obj.UpdateWorldAABB() {
			anyChanged = true
		}
	}

	// Culling: Populate VisibleObjects
	s.VisibleObjects = s.VisibleObjects[:0] // Clear but keep capacity
	for _, obj := range s.Objects {
		if obj.WorldAABB != nil && AABBInFrustum(*obj.WorldAABB, planes) {
			s.VisibleObjects = append(s.VisibleObjects, obj)
		}
	}
	s.VisibleSpheres = s.VisibleSpheres[:0]
	for _, sp := range s.Spheres {
		if AABBInFrustum(geom.SphereAABB(sp.Center, sp.Radius), planes) {
			s.VisibleSpheres = append(s.VisibleSpheres, sp)
		}
	}

	s.primary, s.primaryLeaves = buildTLAS(s.VisibleObjects, s.VisibleSpheres)

	if !anyChanged && len(s.tlas.Nodes) > 0 {
		return
	}

	all := make([]*VoxelObject, 0, len(s.Objects))
	for _, obj := range s.Objects {
		if obj.WorldAABB != nil {
			all = append(all, obj)
		}
	}
	s.tlas, s.leaves = buildTLAS(all, s.Spheres)
	s.dirty = false
}

func buildTLAS(objects []*VoxelObject, spheres []*SphereObject) (*bvh.Tree, []leaf) {
	leaves := make([]leaf, 0, len(objects)+len(spheres))
	aabbs := make([][2]mgl32.Vec3, 0, len(objects)+len(spheres))
	for _, obj := range objects {
		leaves = append(leaves, leaf{object: obj})
		aabbs = append(aabbs, *obj.WorldAABB)
	}
	for _, sp := range spheres {
		leaves = append(leaves, leaf{sphere: sp})
		aabbs = append(aabbs, geom.SphereAABB(sp.Center, sp.Radius))
	}

	builder := &bvh.TLASBuilder{}
	return builder.Build(aabbs), leaves
}

// AABBInFrustum checks if an AABB is visible within the frustum defined by 6 planes.
// Planes are expected to be in Ax+By+Cz+D=0 form, with the normal pointing INSIDE.
func AABBInFrustum(aabb [2]mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for i := 0; i < 6; i++ {
		plane := planes[i]
		// positive vertex: the corner furthest along the plane normal
		var p mgl32.Vec3
		for a := 0; a < 3; a++ {
			if plane[a] > 0 {
				p[a] = aabb[1][a]
			} else {
				p[a] = aabb[0][a]
			}
		}

		dist := plane.Vec3().Dot(p) + plane[3]
		if dist < 0 {
			return false
		}
	}
	return true
}
