package gbuffer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	rgb9e5ExpBias      = 15
	rgb9e5MantissaBits = 9
	rgb9e5MaxExp       = 31
	rgb9e5MantissaMax  = 1 << rgb9e5MantissaBits

	// (511/512) * 2^16
	rgb9e5MaxValue = float32(65408)
)

func clampRGB9E5(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	return math32.Min(v, rgb9e5MaxValue)
}

// packRGB9E5 stores three non-negative floats with a shared 5-bit exponent.
func packRGB9E5(c mgl32.Vec3) uint32 {
	r, g, b := clampRGB9E5(c[0]), clampRGB9E5(c[1]), clampRGB9E5(c[2])
	maxc := math32.Max(r, math32.Max(g, b))
	if maxc == 0 {
		return 0
	}

	exp := int(math32.Max(-rgb9e5ExpBias-1, math32.Floor(math32.Log2(maxc)))) + 1 + rgb9e5ExpBias
	denom := math32.Exp2(float32(exp - rgb9e5ExpBias - rgb9e5MantissaBits))
	if uint32(math32.Floor(maxc/denom+0.5)) == rgb9e5MantissaMax {
		denom *= 2
		exp++
	}
	if exp > rgb9e5MaxExp {
		exp = rgb9e5MaxExp
	}

	rm := uint32(math32.Floor(r/denom + 0.5))
	gm := uint32(math32.Floor(g/denom + 0.5))
	bm := uint32(math32.Floor(b/denom + 0.5))
	return rm | gm<<9 | bm<<18 | uint32(exp)<<27
}

func unpackRGB9E5(v uint32) mgl32.Vec3 {
	exp := int(v >> 27)
	scale := math32.Exp2(float32(exp - rgb9e5ExpBias - rgb9e5MantissaBits))
	return mgl32.Vec3{
		float32(v&0x1ff) * scale,
		float32((v>>9)&0x1ff) * scale,
		float32((v>>18)&0x1ff) * scale,
	}
}
