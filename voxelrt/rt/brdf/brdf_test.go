package brdf

import (
	"math/rand/v2"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestBasisIsOrthonormal(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	normals := []mgl32.Vec3{{0, 0, 1}, {0, 0, -1}, {1, 0, 0}, {0, -1, 0}}
	for i := 0; i < 200; i++ {
		n := mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		if n.Len() > 1e-3 {
			normals = append(normals, n.Normalize())
		}
	}

	for _, n := range normals {
		b := NewBasis(n)
		assert.InDelta(t, 1, b.T.Len(), 1e-4)
		assert.InDelta(t, 1, b.B.Len(), 1e-4)
		assert.InDelta(t, 0, b.T.Dot(b.B), 1e-4)
		assert.InDelta(t, 0, b.T.Dot(n), 1e-4)
		assert.InDelta(t, 0, b.B.Dot(n), 1e-4)

		v := mgl32.Vec3{0.3, -0.5, 0.8}
		back := b.ToWorld(b.ToLocal(v))
		assert.True(t, back.ApproxEqualThreshold(v, 1e-4), "normal %v: %v -> %v", n, v, back)
		assert.InDelta(t, 1, b.ToLocal(n)[2], 1e-5)
	}
}

func TestDiffuseSample(t *testing.T) {
	d := Diffuse{Albedo: mgl32.Vec3{1, 1, 1}}
	wo := mgl32.Vec3{0, 0, 1}

	for i := 0; i < 64; i++ {
		for j := 0; j < 64; j++ {
			u := mgl32.Vec2{(float32(i) + 0.5) / 64, (float32(j) + 0.5) / 64}
			s := d.Sample(wo, u)
			if !s.IsValid() {
				t.Fatalf("sample for u=%v should be valid", u)
			}
			if math32.Abs(s.Wi.Len()-1) > 1e-4 {
				t.Fatalf("direction %v is not unit", s.Wi)
			}
			if math32.Abs(s.Pdf-s.Wi[2]/math32.Pi) > 1e-5 {
				t.Fatalf("pdf %f does not match cos/pi for %v", s.Pdf, s.Wi)
			}
		}
	}

	assert.False(t, Sample{Wi: mgl32.Vec3{0, 0, -1}, Pdf: 0}.IsValid())
	assert.False(t, Sample{Wi: mgl32.Vec3{0, 0, 1}, Pdf: math32.NaN()}.IsValid())
}

func directionalAlbedo(eval func(wo, wi mgl32.Vec3) mgl32.Vec3, wo mgl32.Vec3) mgl32.Vec3 {
	d := Diffuse{}
	var sum mgl32.Vec3
	const n = 64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := d.Sample(wo, mgl32.Vec2{(float32(i) + 0.5) / n, (float32(j) + 0.5) / n})
			f := eval(wo, s.Wi)
			sum = sum.Add(f.Mul(s.Wi[2] / s.Pdf))
		}
	}
	return sum.Mul(1.0 / (n * n))
}

func TestLambertConservesAlbedo(t *testing.T) {
	d := Diffuse{Albedo: mgl32.Vec3{0.5, 0.25, 1}}
	got := directionalAlbedo(d.Evaluate, mgl32.Vec3{0, 0, 1})
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec3{0.5, 0.25, 1}, 1e-3), "got %v", got)
}

func TestLayeredIsEnergyBounded(t *testing.T) {
	for _, rough := range []float32{0.6, 1} {
		for _, metal := range []float32{0, 1} {
			for _, cos := range []float32{1, 0.5} {
				wo := mgl32.Vec3{math32.Sqrt(1 - cos*cos), 0, cos}
				rec := gbuffer.Record{Albedo: mgl32.Vec3{1, 1, 1}, Roughness: rough, Metalness: metal}
				a := directionalAlbedo(NewLayered(rec, wo[2]).Evaluate, wo)
				for c := 0; c < 3; c++ {
					if a[c] < 0 || a[c] > 1.05 {
						t.Errorf("rough %.1f metal %.0f cos %.1f: albedo %v out of range", rough, metal, cos, a)
					}
				}
			}
		}
	}
}

func TestLayeredRoughDielectricIsNearLambert(t *testing.T) {
	rec := gbuffer.Record{Albedo: mgl32.Vec3{1, 1, 1}, Roughness: 1}
	l := NewLayered(rec, 1)
	v := l.Evaluate(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 1})

	assert.InDelta(t, 1/math32.Pi, v[0], 0.05/math32.Pi)
	assert.Equal(t, mgl32.Vec3{}, l.Evaluate(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, -1}))
}

func TestFoldIntoHemisphere(t *testing.T) {
	up := mgl32.Vec3{0.6, 0, 0.8}
	assert.Equal(t, up, FoldIntoHemisphere(up))

	folded := FoldIntoHemisphere(mgl32.Vec3{0.6, 0, -0.8})
	assert.Greater(t, folded[2], float32(0))
	assert.InDelta(t, 1, folded.Len(), 1e-5)
	assert.InDelta(t, 0.2/0.6, folded[2]/folded[0], 1e-4)
}
