package kernel

import (
	"errors"
	"fmt"

	"github.com/gekko3d/rtdgi/voxelrt/rt/core"
	"github.com/gekko3d/rtdgi/voxelrt/rt/gbuffer"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidContext = errors.New("kernel: invalid context")

type FrameConstants struct {
	View             core.ViewConstants
	FrameIndex       uint32
	Sun              core.SunLight
	PixelSpreadAngle float32
}

// Context carries everything a dispatch reads. Nothing in it may change
// while a dispatch runs.
type Context struct {
	Frame   FrameConstants
	Depth   *Image[float32] // reverse-Z, 0 is sky
	GBuffer *Image[gbuffer.Packed]
	Tracer  Tracer
	Cache   RadianceCache
	Env     Environment
	Noise   Sampler
}

// Output holds radiance (rgb, 1 or the sky distance) and the sampled
// bounce (world direction, clamped pdf).
type Output struct {
	Radiance *Image[mgl32.Vec4]
	Rays     *Image[mgl32.Vec4]
}

func NewOutput(width, height int) *Output {
	return &Output{
		Radiance: NewImage[mgl32.Vec4](width, height),
		Rays:     NewImage[mgl32.Vec4](width, height),
	}
}

func (k *Kernel) usesCache() bool {
	return k.opts.UseControlVariate || k.opts.UseShortRays || k.opts.UseVoxelIndirect
}

func (k *Kernel) validate(frame *Context, out *Output) error {
	missing := ""
	switch {
	case frame == nil:
		missing = "context"
	case frame.Depth == nil:
		missing = "depth"
	case frame.GBuffer == nil:
		missing = "gbuffer"
	case frame.Tracer == nil:
		missing = "tracer"
	case frame.Noise == nil:
		missing = "noise"
	case frame.Env == nil:
		missing = "environment"
	case frame.Cache == nil && k.usesCache():
		missing = "radiance cache"
	case out == nil || out.Radiance == nil || out.Rays == nil:
		missing = "output"
	}
	if missing != "" {
		return fmt.Errorf("kernel: validate %s: %w", missing, ErrInvalidContext)
	}

	w, h := frame.Depth.Width, frame.Depth.Height
	if frame.GBuffer.Width != w || frame.GBuffer.Height != h ||
		out.Radiance.Width != w || out.Radiance.Height != h ||
		out.Rays.Width != w || out.Rays.Height != h {
		return fmt.Errorf("kernel: validate %dx%d: %w", w, h, ErrInvalidContext)
	}
	return nil
}
