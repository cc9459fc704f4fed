package geom

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveQuadraticRoots(t *testing.T) {
	cases := []struct {
		name    string
		a, b, c float32
	}{
		{"unit", 1, -3, 2},
		{"negative b", 2, -10, 3},
		{"positive b", 1, 5, 6},
		{"large b", 1, 1e4, 1},
		{"negative a", -1, 2, 3},
		{"tiny c", 1, -2, 1e-6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t0, t1, ok := SolveQuadratic(tc.a, tc.b, tc.c)
			require.True(t, ok)
			assert.LessOrEqual(t, t0, t1)

			for _, x := range []float32{t0, t1} {
				residual := tc.a*x*x + tc.b*x + tc.c
				scale := math32.Max(1, math32.Abs(tc.b*x))
				assert.InDelta(t, 0, residual/scale, 1e-4, "root %f", x)
			}
		})
	}
}

func TestSolveQuadraticNoRealRoots(t *testing.T) {
	_, _, ok := SolveQuadratic(1, 0, 1)
	assert.False(t, ok)
}

func TestSolveQuadraticDoubleRoot(t *testing.T) {
	t0, t1, ok := SolveQuadratic(1, -4, 4)
	require.True(t, ok)
	assert.Equal(t, float32(2), t0)
	assert.Equal(t, float32(2), t1)
}

func TestIntersectSphereFromOutside(t *testing.T) {
	ray := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, 0, 100)
	hit, ok := IntersectSphere(ray, mgl32.Vec3{}, 1)
	require.True(t, ok)

	assert.InDelta(t, 4, hit.T, 1e-5)
	assert.InDelta(t, 6, hit.TFar, 1e-5)
	assert.True(t, hit.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5), "normal %v", hit.Normal)
}

func TestIntersectSphereFromInside(t *testing.T) {
	ray := NewRay(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, 0, 100)
	hit, ok := IntersectSphere(ray, mgl32.Vec3{}, 2)
	require.True(t, ok)

	assert.InDelta(t, 2, hit.T, 1e-5)
	assert.True(t, hit.Normal.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5))
}

func TestIntersectSphereOriginOnSurface(t *testing.T) {
	dirs := []mgl32.Vec3{
		{-1, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		mgl32.Vec3{-1, 1, 0}.Normalize(),
	}

	for _, d := range dirs {
		ray := NewRay(mgl32.Vec3{1, 0, 0}, d, 0, 100)
		hit, ok := IntersectSphere(ray, mgl32.Vec3{}, 1)
		if !ok {
			t.Errorf("expected a hit for direction %v", d)
			continue
		}
		if math32.Abs(hit.T) > 1e-5 {
			t.Errorf("direction %v: expected t≈0, got %f", d, hit.T)
		}
	}
}

func TestIntersectSphereFromGeneralSurfacePoints(t *testing.T) {
	center := mgl32.Vec3{1, -2, 3}
	const radius = 2.5
	const steps = 24

	misses := 0
	for i := 0; i < steps; i++ {
		theta := math32.Pi * (float32(i) + 0.5) / steps
		for j := 0; j < 15; j++ {
			phi := 2 * math32.Pi * float32(j) / 15
			n := mgl32.Vec3{
				math32.Sin(theta) * math32.Cos(phi),
				math32.Sin(theta) * math32.Sin(phi),
				math32.Cos(theta),
			}
			origin := center.Add(n.Mul(radius))

			for _, d := range []mgl32.Vec3{n, n.Mul(-1)} {
				hit, ok := IntersectSphere(NewRay(origin, d, 0, 100), center, radius)
				if !ok {
					misses++
					continue
				}
				assert.InDelta(t, 0, hit.T, 1e-4, "origin %v dir %v", origin, d)
			}
		}
	}
	assert.Zero(t, misses, "rays leaving a surface point must report the point itself")
}

func TestIntersectSphereRespectsRange(t *testing.T) {
	ray := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, 0, 3)
	_, ok := IntersectSphere(ray, mgl32.Vec3{}, 1)
	assert.False(t, ok, "hit beyond TMax must be rejected")

	behind := NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}, 0, 100)
	_, ok = IntersectSphere(behind, mgl32.Vec3{}, 1)
	assert.False(t, ok, "sphere behind the origin must be rejected")
}

func TestIntersectSphereZeroDirection(t *testing.T) {
	ray := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{}, 0, 100)
	_, ok := IntersectSphere(ray, mgl32.Vec3{}, 1)
	assert.False(t, ok)
}

func TestRayMaskAndCone(t *testing.T) {
	ray := NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 0, 10)
	ray.Mask = 0x01

	assert.True(t, ray.Accepts(5, 0x03))
	assert.False(t, ray.Accepts(5, 0x02))
	assert.False(t, ray.Accepts(11, 0x01))
	assert.False(t, ray.InRange(math32.NaN()))

	cone := RayCone{Width: 0.5, SpreadAngle: 0.1}.Propagate(10)
	assert.InDelta(t, 1.5, cone.Width, 1e-6)
}
