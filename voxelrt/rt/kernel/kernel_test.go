package kernel

import (
	"context"
	"testing"

	"github.com/gekko3d/rtdgi/voxelrt/rt/bluenoise"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainOptions() Options {
	opts := DefaultOptions()
	opts.UseControlVariate = false
	opts.UseShortRays = false
	opts.UseVoxelIndirect = false
	opts.SunSoftShadows = false
	opts.Workers = 4
	opts.TileSize = 5
	return opts
}

func TestBackgroundWritesSkySentinel(t *testing.T) {
	k := New(DefaultOptions())
	frame := newFrame(4, 4, 0, mgl32.Vec3{1, 1, 1})
	// nothing past the depth test may be touched
	frame.Tracer = nil
	frame.Cache = nil
	frame.Noise = nil
	out := NewOutput(4, 4)

	k.Shade(1, 2, frame, out)

	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1e4}, out.Radiance.At(1, 2))
	assert.Equal(t, mgl32.Vec4{}, out.Rays.At(1, 2))
}

func TestInvalidSampleWritesZero(t *testing.T) {
	k := New(DefaultOptions())
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	frame.Noise = constSampler(1) // cos(theta) = 0
	out := NewOutput(4, 4)
	out.Radiance.Set(0, 0, mgl32.Vec4{9, 9, 9, 9})

	k.Shade(0, 0, frame, out)

	assert.Equal(t, mgl32.Vec4{}, out.Radiance.At(0, 0))
	assert.Equal(t, mgl32.Vec4{}, out.Rays.At(0, 0))
}

func TestZeroAlbedoMissIsFarFieldMinusControlVariate(t *testing.T) {
	k := New(DefaultOptions())
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{})
	frame.Cache = &fakeCache{
		cell:       1,
		cv:         mgl32.Vec3{0.5, 0.25, 0.125},
		far:        mgl32.Vec3{2, 3, 4},
		irradiance: mgl32.Vec3{7, 7, 7},
	}
	out := NewOutput(4, 4)

	k.Shade(2, 1, frame, out)

	assert.Equal(t, mgl32.Vec4{1.5, 2.75, 3.875, 1}, out.Radiance.At(2, 1))

	ray := out.Rays.At(2, 1)
	dir := ray.Vec3()
	assert.InDelta(t, 1, dir.Len(), 1e-5)
	assert.Less(t, dir[2], float32(0), "bounce leaves the downward-facing surface")
	assert.InDelta(t, -dir[2]/math32.Pi, ray[3], 1e-4)
}

func TestMissWithoutShortRaysUsesEnvironment(t *testing.T) {
	opts := DefaultOptions()
	opts.UseShortRays = false
	k := New(opts)
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{})
	frame.Cache = &fakeCache{cell: 1, cv: mgl32.Vec3{0.5, 0.5, 0.5}, far: mgl32.Vec3{100, 100, 100}}
	frame.Env = uniformEnv{1, 2, 3}
	out := NewOutput(4, 4)

	k.Shade(0, 3, frame, out)

	assert.Equal(t, mgl32.Vec4{0.5, 1.5, 2.5, 1}, out.Radiance.At(0, 3))
}

func TestShortRayTruncatesAtCacheCells(t *testing.T) {
	opts := DefaultOptions()
	opts.UseVoxelIndirect = false
	k := New(opts)
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	cache := &fakeCache{cell: 0.5, far: mgl32.Vec3{2, 3, 4}}
	frame.Cache = cache
	surface := litFloor()
	surface.Emissive = mgl32.Vec3{0, 2, 0}
	// past CellSize * ShortRayCells = 2
	tracer := &fakeTracer{hit: true, hitT: 2.5, surface: surface, occluded: true}
	frame.Tracer = tracer
	out := NewOutput(4, 4)

	k.Shade(1, 2, frame, out)

	require.Len(t, tracer.rays, 1)
	ray := tracer.rays[0]
	assert.InDelta(t, 2, ray.TMax, 1e-6)
	assert.Equal(t, mgl32.Vec4{2, 3, 4, 1}, out.Radiance.At(1, 2), "a hit beyond the short ray is a miss")

	// the far field is read one cell short of the truncated end
	require.Len(t, cache.farPositions, 1)
	assert.True(t, cache.farPositions[0].ApproxEqualThreshold(ray.At(1.5), 1e-5),
		"got %v, want %v", cache.farPositions[0], ray.At(1.5))

	tracer.hitT = 1.5
	k.Shade(1, 2, frame, out)
	got := out.Radiance.At(1, 2)
	assert.InDelta(t, 0, got[0], 1e-6)
	assert.InDelta(t, 2, got[1], 0.02)
	assert.Len(t, cache.farPositions, 1, "hits inside the short ray skip the far field")
}

func TestShortRayShorterThanCellReadsAtOrigin(t *testing.T) {
	opts := DefaultOptions()
	opts.ShortRayCells = 0.5
	k := New(opts)
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	cache := &fakeCache{cell: 1}
	frame.Cache = cache
	tracer := &fakeTracer{}
	frame.Tracer = tracer
	out := NewOutput(4, 4)

	k.Shade(0, 0, frame, out)

	require.Len(t, tracer.rays, 1)
	assert.InDelta(t, 0.5, tracer.rays[0].TMax, 1e-6)
	require.Len(t, cache.farPositions, 1)
	assert.Equal(t, tracer.rays[0].Origin, cache.farPositions[0])
}

func TestHitRoughnessBias(t *testing.T) {
	shade := func(roughness, bias float32) mgl32.Vec4 {
		opts := plainOptions()
		opts.HitRoughnessBias = bias
		k := New(opts)
		frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
		surface := litFloor()
		surface.Roughness = roughness
		frame.Tracer = &fakeTracer{hit: true, hitT: 2, surface: surface}
		out := NewOutput(4, 4)
		k.Shade(2, 2, frame, out)
		return out.Radiance.At(2, 2)
	}

	rough := shade(1, 0)
	assert.NotEqual(t, rough, shade(0.2, 0), "roughness changes the sun term")

	biased := shade(0.2, 1)
	for c := 0; c < 4; c++ {
		assert.InDelta(t, rough[c], biased[c], 1e-4, "full bias shades the hit as fully rough")
	}
}

func TestBackFacingPrimaryStaysFinite(t *testing.T) {
	k := New(plainOptions())
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	// the camera sits below the surface, so the view vector is behind the normal
	away := gbuffer.Pack(gbuffer.Record{Albedo: mgl32.Vec3{1, 1, 1}, Normal: mgl32.Vec3{0, 0, 1}, Roughness: 1})
	for i := range frame.GBuffer.Pix {
		frame.GBuffer.Pix[i] = away
	}
	frame.Tracer = &fakeTracer{hit: true, hitT: 2, surface: litFloor()}
	out := NewOutput(4, 4)

	k.Shade(1, 1, frame, out)

	ray := out.Rays.At(1, 1)
	assert.Greater(t, ray[2], float32(0), "bounce leaves through the stored normal")
	assert.Greater(t, ray[3], float32(0))

	got := out.Radiance.At(1, 1)
	for c := 0; c < 4; c++ {
		require.False(t, math32.IsNaN(got[c]) || math32.IsInf(got[c], 0), "radiance %v", got)
	}
	assert.Greater(t, got[0], float32(0))
	assert.Equal(t, float32(1), got[3])
}

func TestOccludedSunContributesNothing(t *testing.T) {
	k := New(plainOptions())
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	tracer := &fakeTracer{hit: true, hitT: 2, surface: litFloor(), occluded: true}
	frame.Tracer = tracer
	frame.Frame.Sun.Color = mgl32.Vec3{1000, 1000, 1000}
	out := NewOutput(4, 4)

	k.Shade(1, 1, frame, out)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, out.Radiance.At(1, 1))

	tracer.occluded = false
	k.Shade(1, 1, frame, out)
	assert.Greater(t, out.Radiance.At(1, 1)[0], float32(100))
}

func TestEmissiveAlwaysAdded(t *testing.T) {
	k := New(plainOptions())
	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	surface := litFloor()
	surface.Emissive = mgl32.Vec3{0, 2, 0}
	frame.Tracer = &fakeTracer{hit: true, hitT: 2, surface: surface, occluded: true}
	out := NewOutput(4, 4)

	k.Shade(3, 0, frame, out)
	got := out.Radiance.At(3, 0)
	assert.InDelta(t, 0, got[0], 1e-6)
	assert.InDelta(t, 2, got[1], 0.02)
}

func TestDirectLightMatchesLambert(t *testing.T) {
	// unit albedo, fully rough floor facing the sun with radiance pi:
	// the expected bounce radiance is albedo * L / pi = 1
	k := New(plainOptions())
	frame := newFrame(32, 32, 0.5, mgl32.Vec3{1, 1, 1})
	frame.Tracer = &fakeTracer{hit: true, hitT: 2, surface: litFloor()}
	frame.Frame.Sun.Color = mgl32.Vec3{math32.Pi, math32.Pi, math32.Pi}
	frame.Noise = bluenoise.Generate(7)
	out := NewOutput(32, 32)

	require.NoError(t, k.Dispatch(context.Background(), frame, out))

	var sum float64
	for _, v := range out.Radiance.Pix {
		sum += float64(v[0])
		assert.Equal(t, float32(1), v[3])
	}
	mean := sum / float64(len(out.Radiance.Pix))
	assert.InDelta(t, 1.0, mean, 0.1)
}

func TestIndirectUsesNearHitCap(t *testing.T) {
	opts := plainOptions()
	opts.UseVoxelIndirect = true
	k := New(opts)

	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	cache := &fakeCache{cell: 1, irradiance: mgl32.Vec3{0.5, 0.5, 0.5}}
	frame.Cache = cache
	frame.Tracer = &fakeTracer{hit: true, hitT: 3, surface: litFloor(), occluded: true}
	out := NewOutput(4, 4)

	k.Shade(0, 0, frame, out)
	assert.InDelta(t, 0.5, out.Radiance.At(0, 0)[0], 0.01, "irradiance times unit albedo")

	frame.Tracer = &fakeTracer{hit: true, hitT: 0.5, surface: litFloor(), occluded: true}
	k.Shade(0, 0, frame, out)

	require.Len(t, cache.offsetScales, 2)
	assert.Equal(t, float32(1), cache.offsetScales[0])
	assert.Less(t, cache.offsetScales[1], float32(0.5))
}

func TestNearHitOffsetScaleExtremes(t *testing.T) {
	k := New(DefaultOptions())
	down := mgl32.Vec3{0, 0, -1}
	up := mgl32.Vec3{0, 0, 1}

	// parallel surfaces keep the minimum offset
	assert.InDelta(t, 0.5*0.15, k.nearHitOffsetScale(0.5, 1, down, up, up), 1e-6)
	// a perpendicular wall gets the full offset
	assert.InDelta(t, 0.5, k.nearHitOffsetScale(0.5, 1, down, up, mgl32.Vec3{1, 0, 0}), 1e-6)
	// grazing rays are capped to nothing
	assert.InDelta(t, 0, k.nearHitOffsetScale(0.5, 1, mgl32.Vec3{1, 0, 0}, up, up), 1e-6)
}

func TestDispatchMatchesShade(t *testing.T) {
	k := New(plainOptions())
	frame := newFrame(17, 13, 0.5, mgl32.Vec3{0.5, 0.5, 0.5})
	frame.Tracer = &fakeTracer{hit: true, hitT: 2, surface: litFloor()}
	frame.Noise = bluenoise.Generate(1)
	frame.Depth.Set(3, 4, 0)

	parallel := NewOutput(17, 13)
	require.NoError(t, k.Dispatch(context.Background(), frame, parallel))

	serial := NewOutput(17, 13)
	for y := 0; y < 13; y++ {
		for x := 0; x < 17; x++ {
			k.Shade(x, y, frame, serial)
		}
	}
	assert.Equal(t, serial.Radiance.Pix, parallel.Radiance.Pix)
	assert.Equal(t, serial.Rays.Pix, parallel.Rays.Pix)
	assert.Equal(t, float32(1e4), parallel.Radiance.At(3, 4)[3])
}

func TestDispatchCancelled(t *testing.T) {
	k := New(plainOptions())
	frame := newFrame(8, 8, 0.5, mgl32.Vec3{1, 1, 1})
	out := NewOutput(8, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := k.Dispatch(ctx, frame, out)

	assert.ErrorIs(t, err, context.Canceled)
	for _, v := range out.Radiance.Pix {
		assert.Equal(t, mgl32.Vec4{}, v)
	}
}

func TestDispatchValidatesContext(t *testing.T) {
	k := New(DefaultOptions())

	frame := newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	frame.Tracer = nil
	err := k.Dispatch(context.Background(), frame, NewOutput(4, 4))
	assert.ErrorIs(t, err, ErrInvalidContext)
	assert.ErrorContains(t, err, "tracer")

	frame = newFrame(4, 4, 0.5, mgl32.Vec3{1, 1, 1})
	frame.Cache = nil
	assert.ErrorIs(t, k.Dispatch(context.Background(), frame, NewOutput(4, 4)), ErrInvalidContext)
	assert.NoError(t, New(plainOptions()).Dispatch(context.Background(), frame, NewOutput(4, 4)))

	err = k.Dispatch(context.Background(), newFrame(4, 4, 0.5, mgl32.Vec3{}), NewOutput(4, 5))
	assert.ErrorIs(t, err, ErrInvalidContext)
}
