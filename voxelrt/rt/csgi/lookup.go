package csgi

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Lookup returns the radiance arriving from p's direction, or the
// cosine-weighted average radiance over the hemisphere around normal when no
// direction is set. The result is finite and non-negative for any input.
// Points outside every cascade get Config.BoundaryRadiance.
func (v *Volume) Lookup(pos, normal mgl32.Vec3, p LookupParams) mgl32.Vec3 {
	offsetDir := normal
	if bent, ok := p.BentNormal(); ok {
		offsetDir = bent
	}
	offsetScale := v.cfg.NormalOffsetCells * mgl32.Clamp(p.MaxNormalOffsetScale(), 0, 1)
	if offsetScale != offsetScale {
		offsetScale = 0
	}

	for i := range v.cascades {
		c := &v.cascades[i]
		q := pos.Add(offsetDir.Mul(offsetScale * c.cellSize))
		faces, ok := c.sample(q, p.Trilinear())
		if !ok {
			continue
		}
		return sanitize(resolve(faces, offsetDir, p))
	}
	return sanitize(v.cfg.BoundaryRadiance)
}

// sample fetches the face values at q. Trilinear filtering needs the
// half-cell border, so the usable region shrinks by half a cell per side.
func (c *cascade) sample(q mgl32.Vec3, trilinear bool) (faceValues, bool) {
	g := q.Sub(c.origin).Mul(1 / c.cellSize)

	if !trilinear {
		var cell [3]int
		for a := 0; a < 3; a++ {
			if !(g[a] >= 0 && g[a] < Resolution) {
				return faceValues{}, false
			}
			cell[a] = int(g[a])
		}
		return c.radiance(cell), true
	}

	var base [3]int
	var frac mgl32.Vec3
	for a := 0; a < 3; a++ {
		x := g[a] - 0.5
		if !(x >= 0 && x <= Resolution-1) {
			return faceValues{}, false
		}
		fl := math32.Floor(x)
		base[a] = int(fl)
		if base[a] == Resolution-1 {
			base[a]--
		}
		frac[a] = x - float32(base[a])
	}

	var out faceValues
	for corner := 0; corner < 8; corner++ {
		w := float32(1)
		var cell [3]int
		for a := 0; a < 3; a++ {
			if corner&(1<<a) != 0 {
				cell[a] = base[a] + 1
				w *= frac[a]
			} else {
				cell[a] = base[a]
				w *= 1 - frac[a]
			}
		}
		if w == 0 {
			continue
		}
		vals := c.radiance(cell)
		for f := range out {
			out[f] = out[f].Add(vals[f].Mul(w))
		}
	}
	return out, true
}

func resolve(faces faceValues, normal mgl32.Vec3, p LookupParams) mgl32.Vec3 {
	if dir, ok := p.Direction(); ok {
		l2 := dir.LenSqr()
		if l2 > 0 {
			// squared components of a unit vector sum to one
			var out mgl32.Vec3
			for a := 0; a < 3; a++ {
				w := dir[a] * dir[a] / l2
				f := Face(2 * a)
				if dir[a] < 0 {
					f++
				}
				out = out.Add(faces[f].Mul(w))
			}
			return out
		}
	}

	var out mgl32.Vec3
	var total float32
	for f := Face(0); f < FaceCount; f++ {
		w := math32.Max(0, normal.Dot(f.Dir()))
		if w > 0 {
			out = out.Add(faces[f].Mul(w))
			total += w
		}
	}
	if total > 0 {
		return out.Mul(1 / total)
	}
	for f := range faces {
		out = out.Add(faces[f])
	}
	return out.Mul(1.0 / float32(FaceCount))
}

func sanitize(v mgl32.Vec3) mgl32.Vec3 {
	for a := 0; a < 3; a++ {
		if !(v[a] >= 0) || math32.IsInf(v[a], 1) {
			v[a] = 0
		}
	}
	return v
}
