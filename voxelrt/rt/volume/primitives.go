package volume

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func floorBounds(lo, hi mgl32.Vec3) ([3]int, [3]int) {
	return [3]int{int(math32.Floor(lo[0])), int(math32.Floor(lo[1])), int(math32.Floor(lo[2]))},
		[3]int{int(math32.Ceil(hi[0])), int(math32.Ceil(hi[1])), int(math32.Ceil(hi[2]))}
}

// Sphere fills every voxel whose center lies within radius of center.
func Sphere(xbm *XBrickMap, center mgl32.Vec3, radius float32, paletteIdx uint8) {
	r := mgl32.Vec3{radius, radius, radius}
	lo, hi := floorBounds(center.Sub(r), center.Add(r))
	r2 := radius * radius

	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				d := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}.Sub(center)
				if d.LenSqr() <= r2 {
					xbm.SetVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}

// Cube fills the voxels in [floor(minB), floor(maxB)] inclusive.
func Cube(xbm *XBrickMap, minB, maxB mgl32.Vec3, paletteIdx uint8) {
	for x := int(math32.Floor(minB[0])); x <= int(math32.Floor(maxB[0])); x++ {
		for y := int(math32.Floor(minB[1])); y <= int(math32.Floor(maxB[1])); y++ {
			for z := int(math32.Floor(minB[2])); z <= int(math32.Floor(maxB[2])); z++ {
				xbm.SetVoxel(x, y, z, paletteIdx)
			}
		}
	}
}

// Cone fills a cone with its base circle at base and apex at tip.
func Cone(xbm *XBrickMap, base, tip mgl32.Vec3, radius float32, paletteIdx uint8) {
	axisVec := tip.Sub(base)
	height := axisVec.Len()
	if height < 1e-5 {
		return
	}
	axis := axisVec.Mul(1 / height)

	ext := math32.Max(radius, height)
	center := base.Add(tip).Mul(0.5)
	e := mgl32.Vec3{ext, ext, ext}
	lo, hi := floorBounds(center.Sub(e), center.Add(e))

	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				v := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}.Sub(base)
				along := v.Dot(axis)
				if along < 0 || along > height {
					continue
				}
				rAt := radius * (1 - along/height)
				if v.LenSqr()-along*along <= rAt*rAt {
					xbm.SetVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}
