package brdf

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"
	"github.com/go-gl/mathgl/mgl32"
)

const minAlpha = 1e-3

// Sample is a local-space direction drawn from a lobe.
type Sample struct {
	Wi  mgl32.Vec3
	Pdf float32
}

func (s Sample) IsValid() bool {
	return s.Pdf > 0 && s.Wi[2] > 0
}

type Diffuse struct {
	Albedo mgl32.Vec3
}

// Sample draws a cosine-weighted direction; pdf = cos(theta)/pi.
func (d Diffuse) Sample(wo mgl32.Vec3, u mgl32.Vec2) Sample {
	phi := 2 * math32.Pi * u[0]
	sinPhi, cosPhi := math32.Sincos(phi)
	r := math32.Sqrt(u[1])
	z := math32.Sqrt(math32.Max(0, 1-u[1]))

	return Sample{
		Wi:  mgl32.Vec3{r * cosPhi, r * sinPhi, z},
		Pdf: z / math32.Pi,
	}
}

func (d Diffuse) Evaluate(wo, wi mgl32.Vec3) mgl32.Vec3 {
	if wi[2] <= 0 {
		return mgl32.Vec3{}
	}
	return d.Albedo.Mul(1 / math32.Pi)
}

// Specular is a GGX microfacet lobe with Smith shadowing and Schlick Fresnel.
type Specular struct {
	Roughness float32
	F0        mgl32.Vec3
}

func (s Specular) alpha() float32 {
	return math32.Max(s.Roughness*s.Roughness, minAlpha)
}

func (s Specular) Evaluate(wo, wi mgl32.Vec3) mgl32.Vec3 {
	if wo[2] <= 0 || wi[2] <= 0 {
		return mgl32.Vec3{}
	}
	h := wo.Add(wi).Normalize()
	a2 := s.alpha() * s.alpha()

	d := ggxD(h[2], a2)
	g := smithG1(wo[2], a2) * smithG1(wi[2], a2)
	f := FresnelSchlick(math32.Max(0, wo.Dot(h)), s.F0)

	return f.Mul(d * g / (4 * wo[2] * wi[2]))
}

func ggxD(cosH, a2 float32) float32 {
	denom := cosH*cosH*(a2-1) + 1
	return a2 / (math32.Pi * denom * denom)
}

func smithG1(cos, a2 float32) float32 {
	return 2 * cos / (cos + math32.Sqrt(a2+(1-a2)*cos*cos))
}

func FresnelSchlick(cos float32, f0 mgl32.Vec3) mgl32.Vec3 {
	k := math32.Pow(1-mgl32.Clamp(cos, 0, 1), 5)
	return f0.Add(mgl32.Vec3{1, 1, 1}.Sub(f0).Mul(k))
}

// FresnelSchlickRoughness damps the grazing peak on rough surfaces.
func FresnelSchlickRoughness(cos float32, f0 mgl32.Vec3, roughness float32) mgl32.Vec3 {
	k := math32.Pow(1-mgl32.Clamp(cos, 0, 1), 5)
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		out[i] = f0[i] + (math32.Max(1-roughness, f0[i])-f0[i])*k
	}
	return out
}

// Layered is a specular coat over a diffuse base. The base is attenuated by
// the energy the coat reflects at the viewing angle.
type Layered struct {
	Diffuse      Diffuse
	Specular     Specular
	DiffuseScale mgl32.Vec3
}

// NewLayered derives both lobes from a surface record. woZ is the cosine
// between the outgoing direction and the normal.
func NewLayered(rec gbuffer.Record, woZ float32) Layered {
	metal := mgl32.Clamp(rec.Metalness, 0, 1)
	dielectric := mgl32.Vec3{0.04, 0.04, 0.04}
	f0 := dielectric.Mul(1 - metal).Add(rec.Albedo.Mul(metal))
	fr := FresnelSchlickRoughness(math32.Max(0, woZ), f0, rec.Roughness)

	return Layered{
		Diffuse:      Diffuse{Albedo: rec.Albedo.Mul(1 - metal)},
		Specular:     Specular{Roughness: rec.Roughness, F0: f0},
		DiffuseScale: mgl32.Vec3{1, 1, 1}.Sub(fr),
	}
}

// Evaluate returns reflectance without the cosine term.
func (l Layered) Evaluate(wo, wi mgl32.Vec3) mgl32.Vec3 {
	spec := l.Specular.Evaluate(wo, wi)
	diff := l.Diffuse.Evaluate(wo, wi)
	return spec.Add(mgl32.Vec3{
		diff[0] * l.DiffuseScale[0],
		diff[1] * l.DiffuseScale[1],
		diff[2] * l.DiffuseScale[2],
	})
}
