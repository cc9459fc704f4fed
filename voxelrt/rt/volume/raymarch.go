package volume

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const maxMarchIterations = 10000

// MarchHit describes the first occupied voxel along a ray. T is measured in
// units of the (not necessarily normalized) ray direction.
type MarchHit struct {
	T      float32
	Voxel  [3]int
	Normal mgl32.Vec3
	Value  uint8
}

func safeComponent(v float32) float32 {
	if math32.Abs(v) < 1e-7 {
		if v >= 0 {
			return 1e-7
		}
		return -1e-7
	}
	return v
}

// RayMarch skips empty sectors, bricks and micro cells, then tests voxels.
func (x *XBrickMap) RayMarch(rayOrigin, rayDir mgl32.Vec3, tMin, tMax float32) (MarchHit, bool) {
	invDir := mgl32.Vec3{
		1 / safeComponent(rayDir[0]),
		1 / safeComponent(rayDir[1]),
		1 / safeComponent(rayDir[2]),
	}
	// march step bias scales with the direction so it stays in voxel units
	dirLen := rayDir.Len()
	if !(dirLen > 0) {
		return MarchHit{}, false
	}

	t := tMin
	for i := 0; t < tMax && i < maxMarchIterations; i++ {
		bias := float32(0.001)
		if t*dirLen > 100 {
			bias = 0.005
		}
		p := rayOrigin.Add(rayDir.Mul(t + bias/dirLen))

		fl := [3]int{int(math32.Floor(p[0])), int(math32.Floor(p[1])), int(math32.Floor(p[2]))}
		sKey, b, v := locate(fl[0], fl[1], fl[2])

		sector, ok := x.Sectors[sKey]
		if !ok {
			t += x.stepToNext(p, rayDir, invDir, SectorSize)
			continue
		}
		brick := sector.GetBrick(b[0], b[1], b[2])
		if brick == nil {
			t += x.stepToNext(p, rayDir, invDir, BrickSize)
			continue
		}
		if brick.OccupancyMask64&(1<<microIndex(v[0], v[1], v[2])) == 0 {
			t += x.stepToNext(p, rayDir, invDir, MicroSize)
			continue
		}

		val := brick.Payload[v[0]][v[1]][v[2]]
		if val == 0 {
			t += x.stepToNext(p, rayDir, invDir, 1)
			continue
		}

		center := mgl32.Vec3{float32(fl[0]) + 0.5, float32(fl[1]) + 0.5, float32(fl[2]) + 0.5}
		return MarchHit{
			T:      t,
			Voxel:  fl,
			Normal: faceNormal(rayOrigin.Add(rayDir.Mul(t)).Sub(center)),
			Value:  val,
		}, true
	}

	return MarchHit{}, false
}

// faceNormal picks the dominant axis of a point relative to a voxel center.
func faceNormal(local mgl32.Vec3) mgl32.Vec3 {
	abs := mgl32.Vec3{math32.Abs(local[0]), math32.Abs(local[1]), math32.Abs(local[2])}
	axis := 0
	if abs[1] > abs[axis] {
		axis = 1
	}
	if abs[2] > abs[axis] {
		axis = 2
	}
	var n mgl32.Vec3
	n[axis] = math32.Copysign(1, local[axis])
	return n
}

// stepToNext returns the ray parameter increment that crosses the next
// boundary of a grid with the given cell size.
func (x *XBrickMap) stepToNext(p, dir, invDir mgl32.Vec3, size float32) float32 {
	res := float32(1e10)
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			continue
		}
		var dist float32
		if dir[i] > 0 {
			dist = (math32.Floor(p[i]/size+1e-6)+1)*size - p[i]
		} else {
			dist = math32.Floor(p[i]/size-1e-6)*size - p[i]
		}
		if tv := dist * invDir[i]; tv > 1e-6 && tv < res {
			res = tv
		}
	}
	if res < 1e10 {
		res += 1e-4
	}
	return math32.Max(res, 1e-3)
}
