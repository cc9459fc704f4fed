package brdf

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Basis is an orthonormal frame whose Z axis is the surface normal.
type Basis struct {
	T mgl32.Vec3
	B mgl32.Vec3
	N mgl32.Vec3
}

// NewBasis builds a branchless frame around a unit normal (Duff et al. 2017).
func NewBasis(n mgl32.Vec3) Basis {
	sign := math32.Copysign(1, n[2])
	a := -1 / (sign + n[2])
	b := n[0] * n[1] * a
	return Basis{
		T: mgl32.Vec3{1 + sign*n[0]*n[0]*a, sign * b, -sign * n[0]},
		B: mgl32.Vec3{b, sign + n[1]*n[1]*a, -n[1]},
		N: n,
	}
}

func (b Basis) ToLocal(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.Dot(b.T), v.Dot(b.B), v.Dot(b.N)}
}

func (b Basis) ToWorld(v mgl32.Vec3) mgl32.Vec3 {
	return b.T.Mul(v[0]).Add(b.B.Mul(v[1])).Add(b.N.Mul(v[2]))
}

// FoldIntoHemisphere pulls a below-horizon outgoing direction back above the
// surface by compressing its negative z, keeping shading continuous for
// normal-mapped surfaces that face away from the viewer.
func FoldIntoHemisphere(wo mgl32.Vec3) mgl32.Vec3 {
	if wo[2] < 0 {
		wo[2] *= -0.25
		wo = wo.Normalize()
	}
	return wo
}
