package csgi

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LookupParams describes one Lookup request. It is a value: the With
// methods return modified copies and never touch the receiver.
type LookupParams struct {
	bentNormal           mgl32.Vec3
	hasBentNormal        bool
	direction            mgl32.Vec3
	hasDirection         bool
	maxNormalOffsetScale float32
	noTrilinear          bool
}

func DefaultLookupParams() LookupParams {
	return LookupParams{maxNormalOffsetScale: 1}
}

// WithBentNormal offsets and weights the lookup by n instead of the normal.
func (p LookupParams) WithBentNormal(n mgl32.Vec3) LookupParams {
	p.bentNormal = n
	p.hasBentNormal = true
	return p
}

// WithDirectionalRadiance switches the lookup to radiance arriving from dir.
func (p LookupParams) WithDirectionalRadiance(dir mgl32.Vec3) LookupParams {
	p.direction = dir
	p.hasDirection = true
	return p
}

func (p LookupParams) WithMaxNormalOffsetScale(scale float32) LookupParams {
	p.maxNormalOffsetScale = scale
	return p
}

func (p LookupParams) WithoutTrilinear() LookupParams {
	p.noTrilinear = true
	return p
}

func (p LookupParams) BentNormal() (mgl32.Vec3, bool) {
	return p.bentNormal, p.hasBentNormal
}

func (p LookupParams) Direction() (mgl32.Vec3, bool) {
	return p.direction, p.hasDirection
}

func (p LookupParams) MaxNormalOffsetScale() float32 {
	return p.maxNormalOffsetScale
}

func (p LookupParams) Trilinear() bool {
	return !p.noTrilinear
}
