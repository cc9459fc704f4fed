package kernel

import (
	"context"
	"fmt"

	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"
	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// GBufferPass is the output of RasterGBuffer.
type GBufferPass struct {
	Depth   *Image[float32]
	GBuffer *Image[gbuffer.Packed]
}

// RasterGBuffer traces one camera ray per pixel and stores reverse-Z depth
// and the packed surface. Misses keep depth 0.
func (k *Kernel) RasterGBuffer(ctx context.Context, tracer PrimaryTracer, view *core.ViewConstants, spreadAngle float32, width, height int) (*GBufferPass, error) {
	if tracer == nil || view == nil {
		return nil, fmt.Errorf("kernel: raster gbuffer %s: %w", "tracer", ErrInvalidContext)
	}
	pass := &GBufferPass{
		Depth:   NewImage[float32](width, height),
		GBuffer: NewImage[gbuffer.Packed](width, height),
	}
	zero := gbuffer.Pack(gbuffer.CreateZero())

	err := forEachTile(ctx, width, height, k.opts.TileSize, k.opts.Workers, func(x, y int) {
		viewRay := core.ViewRayFromUV(pixelUV(x, y, width, height), view)
		origin := viewRay.RayOriginWS()
		ray := geom.NewRay(origin, viewRay.RayDirWS().Normalize(), 0, k.opts.SkyDistance)
		cone := geom.RayCone{
			Width:       spreadAngle * origin.Sub(view.EyePositionWS()).Len(),
			SpreadAngle: spreadAngle,
		}

		pv := tracer.TracePrimary(ray, cone)
		if !pv.IsHit {
			pass.GBuffer.Set(x, y, zero)
			return
		}
		pass.Depth.Set(x, y, mgl32.Clamp(view.DepthOf(pv.Position), 0, 1))
		pass.GBuffer.Set(x, y, pv.GBuffer)
	})
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// TraceSunShadowMask writes 1 where the sun reaches the primary surface and
// 0 where it is blocked or behind the surface. Sky pixels are lit.
func (k *Kernel) TraceSunShadowMask(ctx context.Context, frame *Context) (*Image[float32], error) {
	if frame == nil || frame.Depth == nil || frame.GBuffer == nil || frame.Tracer == nil ||
		(k.opts.SunSoftShadows && frame.Noise == nil) {
		return nil, fmt.Errorf("kernel: shadow mask %s: %w", "context", ErrInvalidContext)
	}
	width, height := frame.Depth.Width, frame.Depth.Height
	mask := NewImage[float32](width, height)

	err := forEachTile(ctx, width, height, k.opts.TileSize, k.opts.Workers, func(x, y int) {
		depth := frame.Depth.At(x, y)
		if depth == 0 {
			mask.Set(x, y, 1)
			return
		}

		normal := frame.GBuffer.At(x, y).Unpack().Normal
		sunDir := k.sunDirection(x, y, frame)
		if normal.Dot(sunDir) <= 0 {
			return
		}

		pos := core.ViewRayFromUVAndDepth(pixelUV(x, y, width, height), depth, &frame.Frame.View).RayHitWS()
		ray := geom.NewRay(pos.Add(normal.Mul(k.opts.NormalBias)), sunDir, 0, k.opts.SkyDistance)
		if !frame.Tracer.TraceOcclusion(ray) {
			mask.Set(x, y, 1)
		}
	})
	if err != nil {
		return nil, err
	}
	return mask, nil
}
