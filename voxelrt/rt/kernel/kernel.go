// Package kernel is the per-pixel diffuse GI estimator. Each pixel traces one
// cosine-distributed bounce ray, shades the hit with sun light and the voxel
// radiance cache, and writes the result minus a voxel control variate.
package kernel

import (
	"runtime"

	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/csgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/go-gl/mathgl/mgl32"
)

type Tracer interface {
	TraceNearestSurface(ray geom.Ray, cone geom.RayCone) core.PathVertex
	TraceOcclusion(ray geom.Ray) bool
}

// PrimaryTracer traces camera rays, usually against a frustum-culled set.
type PrimaryTracer interface {
	TracePrimary(ray geom.Ray, cone geom.RayCone) core.PathVertex
}

type RadianceCache interface {
	Lookup(pos, normal mgl32.Vec3, p csgi.LookupParams) mgl32.Vec3
	CellSize() float32
}

type Environment interface {
	Radiance(dir mgl32.Vec3) mgl32.Vec3
}

type Sampler interface {
	Sample(px, py, sampleIndex, dim uint32) float32
}

// Options are resolved once per dispatch.
type Options struct {
	UseControlVariate bool
	UseShortRays      bool
	ShortRayCells     float32 // bounce length in finest cache cells
	UseTemporalJitter bool
	UseVoxelIndirect  bool
	SunSoftShadows    bool

	// HitRoughnessBias moves the hit roughness towards 1.
	HitRoughnessBias float32

	// Near-hit lookup offset, blended by normal agreement.
	NearHitMinOffset     float32
	NearHitMaxOffset     float32
	NearHitBlendExponent float32

	PdfClampMin float32
	PdfClampMax float32
	SkyDistance float32
	NormalBias  float32

	Workers  int
	TileSize int
}

func DefaultOptions() Options {
	return Options{
		UseControlVariate:    true,
		UseShortRays:         true,
		ShortRayCells:        4,
		UseTemporalJitter:    true,
		UseVoxelIndirect:     true,
		SunSoftShadows:       true,
		HitRoughnessBias:     0.5,
		NearHitMinOffset:     0.15,
		NearHitMaxOffset:     1,
		NearHitBlendExponent: 1,
		PdfClampMin:          1e-5,
		PdfClampMax:          1e5,
		SkyDistance:          1e4,
		NormalBias:           1e-2,
		Workers:              runtime.NumCPU(),
		TileSize:             16,
	}
}

type Kernel struct {
	opts Options
}

func New(opts Options) *Kernel {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.TileSize <= 0 {
		opts.TileSize = 16
	}
	if !(opts.SkyDistance > 0) {
		opts.SkyDistance = 1e4
	}
	return &Kernel{opts: opts}
}

func (k *Kernel) Options() Options {
	return k.opts
}
