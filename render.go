package rtdgi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/rtdgi/voxelrt/rt/bluenoise"
	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/csgi"
	"github.com/gekko3d/rtdgi/voxelrt/rt/kernel"

	"github.com/google/uuid"
)

var ErrInvalidSize = errors.New("rtdgi: invalid frame size")

const defaultCullDistance = 1000

type FrameStats struct {
	Pixels           int
	BackgroundPixels int
	ShadowedPixels   int
	Rays             int
	Baked            bool
	Elapsed          time.Duration
}

// FrameResult is everything one RenderFrame call produced.
type FrameResult struct {
	ID         string
	FrameIndex uint32
	GBuffer    *kernel.GBufferPass
	ShadowMask *kernel.Image[float32]
	Output     *kernel.Output
	Stats      FrameStats
}

type frameResources struct {
	scene *core.Scene
	noise *bluenoise.Tables
	sky   *Sky
	cache *VoxelCache
	k     *kernel.Kernel
	clock *FrameClock
}

func (app *App) frameResources() (frameResources, error) {
	var (
		r   frameResources
		err error
	)
	if r.scene, err = mustHave[core.Scene](app, "scene"); err != nil {
		return r, err
	}
	if r.noise, err = mustHave[bluenoise.Tables](app, "noise"); err != nil {
		return r, err
	}
	if r.sky, err = mustHave[Sky](app, "sky"); err != nil {
		return r, err
	}
	if r.cache, err = mustHave[VoxelCache](app, "voxel cache"); err != nil {
		return r, err
	}
	if r.k, err = mustHave[kernel.Kernel](app, "kernel"); err != nil {
		return r, err
	}
	if r.clock, err = mustHave[FrameClock](app, "frame clock"); err != nil {
		return r, err
	}
	return r, nil
}

// RenderFrame commits the scene, keeps the voxel cache centred on the
// camera, then runs the gbuffer, sun shadow and diffuse passes. The frame
// clock advances only when every pass succeeds.
func (app *App) RenderFrame(ctx context.Context, camera *core.CameraState, width, height int) (*FrameResult, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rtdgi: render %dx%d: %w", width, height, ErrInvalidSize)
	}
	if camera == nil {
		return nil, fmt.Errorf("rtdgi: resource %s: %w", "camera", ErrMissingResource)
	}
	r, err := app.frameResources()
	if err != nil {
		return nil, err
	}

	log := app.Logger()
	prof := app.profiler
	start := time.Now()
	res := &FrameResult{
		ID:         uuid.NewString(),
		FrameIndex: r.clock.Index,
	}
	log.Debugf("frame %d (%s): %dx%d", res.FrameIndex, res.ID, width, height)

	cullDistance := float32(defaultCullDistance)
	if s, ok := Resource[Settings](app); ok && s.CullDistance > 0 {
		cullDistance = s.CullDistance
	}
	aspect := float32(width) / float32(height)

	prof.BeginScope("commit")
	r.scene.Commit(camera.CullingPlanes(aspect, cullDistance))
	prof.EndScope("commit")

	// a moved cascade has dropped its bricks and stays unbaked until a bake
	// completes
	if r.cache.Volume.Recenter(camera.Position) {
		r.cache.baked = false
	}
	if r.cache.Bake && !r.cache.baked {
		err := prof.Time("bake", func() error {
			return r.cache.Volume.Bake(ctx, r.scene, r.sky.Environment, csgi.BakeOptions{
				RayCells: r.cache.BakeRayCells,
				Workers:  r.cache.Workers,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("rtdgi: bake: %w", err)
		}
		r.cache.baked = true
		res.Stats.Baked = true
	}

	view := camera.ViewConstants(aspect)
	spread := camera.PixelSpreadAngle(height)

	err = prof.Time("gbuffer", func() error {
		var err error
		res.GBuffer, err = r.k.RasterGBuffer(ctx, r.scene, &view, spread, width, height)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rtdgi: gbuffer: %w", err)
	}

	frame := &kernel.Context{
		Frame: kernel.FrameConstants{
			View:             view,
			FrameIndex:       res.FrameIndex,
			Sun:              r.scene.Sun,
			PixelSpreadAngle: spread,
		},
		Depth:   res.GBuffer.Depth,
		GBuffer: res.GBuffer.GBuffer,
		Tracer:  r.scene,
		Cache:   r.cache.Volume,
		Env:     r.sky.Environment,
		Noise:   r.noise,
	}

	err = prof.Time("shadow", func() error {
		var err error
		res.ShadowMask, err = r.k.TraceSunShadowMask(ctx, frame)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rtdgi: shadow mask: %w", err)
	}

	res.Output = kernel.NewOutput(width, height)
	err = prof.Time("diffuse", func() error {
		return r.k.Dispatch(ctx, frame, res.Output)
	})
	if err != nil {
		return nil, fmt.Errorf("rtdgi: diffuse: %w", err)
	}

	res.Stats = collectStats(res, res.Stats.Baked)
	res.Stats.Elapsed = time.Since(start)

	prof.SetCount("pixels", res.Stats.Pixels)
	prof.SetCount("background", res.Stats.BackgroundPixels)
	prof.SetCount("shadowed", res.Stats.ShadowedPixels)
	prof.AddCount("rays", res.Stats.Rays)
	if log.DebugEnabled() {
		log.Debugf("frame %d profile:\n%s", res.FrameIndex, prof.String())
	}
	prof.Reset()

	r.clock.Tick()
	log.Infof("frame %d done in %s: %d rays over %d pixels", res.FrameIndex, res.Stats.Elapsed, res.Stats.Rays, res.Stats.Pixels)
	return res, nil
}

func collectStats(res *FrameResult, baked bool) FrameStats {
	stats := FrameStats{Baked: baked}
	depth := res.GBuffer.Depth
	stats.Pixels = len(depth.Pix)
	for i, d := range depth.Pix {
		if d == 0 {
			stats.BackgroundPixels++
			continue
		}
		if res.ShadowMask.Pix[i] == 0 {
			stats.ShadowedPixels++
		}
		if res.Output.Rays.Pix[i].W() > 0 {
			stats.Rays++
		}
	}
	return stats
}
