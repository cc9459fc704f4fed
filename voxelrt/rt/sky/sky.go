// Package sky provides the far-field radiance seen by rays that leave the
// scene. Directions are world space with Z up.
package sky

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Environment interface {
	Radiance(dir mgl32.Vec3) mgl32.Vec3
}

// Uniform returns the same radiance in every direction.
type Uniform struct {
	Color mgl32.Vec3
}

func (u Uniform) Radiance(mgl32.Vec3) mgl32.Vec3 {
	return u.Color
}

// Gradient blends from Horizon at z = 0 to Zenith straight up. Directions
// below the horizon see Ground.
type Gradient struct {
	Zenith  mgl32.Vec3
	Horizon mgl32.Vec3
	Ground  mgl32.Vec3
}

func (g Gradient) Radiance(dir mgl32.Vec3) mgl32.Vec3 {
	l := dir.Len()
	if !(l > 0) {
		return g.Horizon
	}
	z := dir[2] / l
	if z < 0 {
		return g.Ground
	}
	return g.Horizon.Mul(1 - z).Add(g.Zenith.Mul(z))
}
