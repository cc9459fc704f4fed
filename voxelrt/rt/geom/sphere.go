package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SolveQuadratic returns the real roots of a*t^2 + b*t + c ordered t0 <= t1.
// The root with the larger magnitude is computed first so that the other one
// comes from c/q without cancellation.
func SolveQuadratic(a, b, c float32) (t0, t1 float32, ok bool) {
	discr := b*b - 4*a*c
	if discr < 0 {
		return 0, 0, false
	}
	if discr == 0 {
		x := -0.5 * b / a
		return x, x, true
	}

	var q float32
	if b > 0 {
		q = -0.5 * (b + math32.Sqrt(discr))
	} else {
		q = -0.5 * (b - math32.Sqrt(discr))
	}
	t0, t1 = q/a, c/q
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0, t1, true
}

const onSurfaceEpsilon = 1e-5

type SphereHit struct {
	T      float32
	TFar   float32
	Normal mgl32.Vec3
}

// IntersectSphere returns the entering hit of ray with the sphere, or the
// exiting one when the ray starts inside. A zero direction never hits.
func IntersectSphere(ray Ray, center mgl32.Vec3, radius float32) (SphereHit, bool) {
	l := ray.Origin.Sub(center)
	a := ray.Direction.Dot(ray.Direction)
	b := 2 * ray.Direction.Dot(l)
	r2 := radius * radius
	c := l.Dot(l) - r2
	// origins within rounding of the surface are on it
	if math32.Abs(c) <= onSurfaceEpsilon*r2 {
		c = 0
	}

	t0, t1, ok := SolveQuadratic(a, b, c)
	if !ok {
		return SphereHit{}, false
	}

	t := t0
	if t < ray.TMin {
		t = t1
	}
	if !ray.InRange(t) {
		return SphereHit{}, false
	}

	p := ray.At(t)
	return SphereHit{
		T:      t,
		TFar:   t1,
		Normal: p.Sub(center).Normalize(),
	}, true
}

// SphereAABB returns the bounds of a sphere as a [min, max] pair.
func SphereAABB(center mgl32.Vec3, radius float32) [2]mgl32.Vec3 {
	r := mgl32.Vec3{radius, radius, radius}
	return [2]mgl32.Vec3{center.Sub(r), center.Add(r)}
}
