// Package csgi is a cascaded sparse voxel radiance cache. Each cascade is a
// 32^3 grid of cells centred on the camera, stored as up to 4^3 bricks of
// 8^3 cells in the same packed layout as volume.Sector. Every cell keeps six
// radiance values, one per axis direction, for a direct and an indirect
// layer.
package csgi

import (
	"math/bits"

	"github.com/gekko3d/rtdgi/voxelrt/rt/volume"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Face names the axis direction a stored radiance value arrives from.
type Face int

const (
	PosX Face = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
	FaceCount
)

var faceDirs = [FaceCount]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

func (f Face) Dir() mgl32.Vec3 {
	return faceDirs[f]
}

type Layer int

const (
	Direct Layer = iota
	Indirect
	layerCount
)

const (
	Resolution   = volume.SectorSize
	brickCells   = volume.BrickSize * volume.BrickSize * volume.BrickSize
	bricksPerRow = volume.SectorBricks
)

type Config struct {
	Cascades          int
	BaseCellSize      float32 // world size of a cell in cascade 0
	NormalOffsetCells float32 // lookup offset along the normal, in cells
	BoundaryRadiance  mgl32.Vec3
}

func DefaultConfig() Config {
	return Config{
		Cascades:          4,
		BaseCellSize:      1,
		NormalOffsetCells: 1,
	}
}

type faceValues [FaceCount]mgl32.Vec3

type brick struct {
	cells [brickCells][layerCount]faceValues
}

type cascade struct {
	origin   mgl32.Vec3 // min corner
	cellSize float32
	mask     uint64
	bricks   []*brick
	fill     [layerCount]faceValues // value of cells in unallocated bricks
}

func (c *cascade) packedIndex(flatIdx int) int {
	return bits.OnesCount64(c.mask & ((uint64(1) << flatIdx) - 1))
}

func splitCell(cell [3]int) (flatIdx, local int) {
	b := [3]int{cell[0] / volume.BrickSize, cell[1] / volume.BrickSize, cell[2] / volume.BrickSize}
	l := [3]int{cell[0] % volume.BrickSize, cell[1] % volume.BrickSize, cell[2] % volume.BrickSize}
	return b[0] + b[1]*bricksPerRow + b[2]*bricksPerRow*bricksPerRow,
		l[0] + l[1]*volume.BrickSize + l[2]*volume.BrickSize*volume.BrickSize
}

func (c *cascade) getOrCreate(flatIdx int) *brick {
	packedIdx := c.packedIndex(flatIdx)
	if c.mask&(1<<flatIdx) != 0 {
		return c.bricks[packedIdx]
	}
	b := &brick{}
	for i := range b.cells {
		b.cells[i] = c.fill
	}
	c.bricks = append(c.bricks, nil)
	copy(c.bricks[packedIdx+1:], c.bricks[packedIdx:])
	c.bricks[packedIdx] = b
	c.mask |= 1 << flatIdx
	return b
}

// radiance sums both layers of one cell.
func (c *cascade) radiance(cell [3]int) faceValues {
	flatIdx, local := splitCell(cell)
	src := &c.fill
	if c.mask&(1<<flatIdx) != 0 {
		src = &c.bricks[c.packedIndex(flatIdx)].cells[local]
	}
	var out faceValues
	for f := range out {
		out[f] = src[Direct][f].Add(src[Indirect][f])
	}
	return out
}

func (c *cascade) reset() {
	c.mask = 0
	c.bricks = c.bricks[:0]
}

// Volume is the whole cascade stack. It is read-only while Lookup runs.
type Volume struct {
	cfg      Config
	cascades []cascade
}

func New(cfg Config) *Volume {
	if cfg.Cascades <= 0 {
		cfg.Cascades = DefaultConfig().Cascades
	}
	if !(cfg.BaseCellSize > 0) {
		cfg.BaseCellSize = DefaultConfig().BaseCellSize
	}
	v := &Volume{cfg: cfg, cascades: make([]cascade, cfg.Cascades)}
	for i := range v.cascades {
		v.cascades[i].cellSize = cfg.BaseCellSize * float32(uint(1)<<i)
	}
	v.Recenter(mgl32.Vec3{})
	return v
}

func (v *Volume) Config() Config {
	return v.cfg
}

// CellSize is the cell size of the finest cascade.
func (v *Volume) CellSize() float32 {
	return v.cfg.BaseCellSize
}

func (v *Volume) CascadeCount() int {
	return len(v.cascades)
}

func (v *Volume) CascadeCellSize(i int) float32 {
	return v.cascades[i].cellSize
}

func (v *Volume) CascadeBounds(i int) (mgl32.Vec3, mgl32.Vec3) {
	c := &v.cascades[i]
	ext := c.cellSize * Resolution
	return c.origin, c.origin.Add(mgl32.Vec3{ext, ext, ext})
}

// CellCenter is the world position of a cell centre in cascade i.
func (v *Volume) CellCenter(i int, cell [3]int) mgl32.Vec3 {
	c := &v.cascades[i]
	return c.origin.Add(mgl32.Vec3{
		(float32(cell[0]) + 0.5) * c.cellSize,
		(float32(cell[1]) + 0.5) * c.cellSize,
		(float32(cell[2]) + 0.5) * c.cellSize,
	})
}

// Recenter snaps every cascade around center. Cascades whose origin moves
// lose their stored bricks and fall back to their fill value. The result
// reports whether any cascade moved.
func (v *Volume) Recenter(center mgl32.Vec3) bool {
	moved := false
	for i := range v.cascades {
		c := &v.cascades[i]
		var origin mgl32.Vec3
		for a := 0; a < 3; a++ {
			origin[a] = (math32.Floor(center[a]/c.cellSize) - Resolution/2) * c.cellSize
		}
		if origin != c.origin {
			c.origin = origin
			c.reset()
			moved = true
		}
	}
	return moved
}

func inGrid(cell [3]int) bool {
	for a := 0; a < 3; a++ {
		if cell[a] < 0 || cell[a] >= Resolution {
			return false
		}
	}
	return true
}

// Set stores the radiance arriving from face at one cell. Out of range cells
// are ignored.
func (v *Volume) Set(layer Layer, cascadeIdx int, cell [3]int, face Face, radiance mgl32.Vec3) {
	if cascadeIdx < 0 || cascadeIdx >= len(v.cascades) || !inGrid(cell) {
		return
	}
	c := &v.cascades[cascadeIdx]
	flatIdx, local := splitCell(cell)
	c.getOrCreate(flatIdx).cells[local][layer][face] = radiance
}

// Get returns the stored value of one layer, face and cell.
func (v *Volume) Get(layer Layer, cascadeIdx int, cell [3]int, face Face) mgl32.Vec3 {
	if cascadeIdx < 0 || cascadeIdx >= len(v.cascades) || !inGrid(cell) {
		return mgl32.Vec3{}
	}
	c := &v.cascades[cascadeIdx]
	flatIdx, local := splitCell(cell)
	if c.mask&(1<<flatIdx) == 0 {
		return c.fill[layer][face]
	}
	return c.bricks[c.packedIndex(flatIdx)].cells[local][layer][face]
}

// FillUniform sets every cell of a layer, allocated or not, to radiance.
func (v *Volume) FillUniform(layer Layer, radiance mgl32.Vec3) {
	for i := range v.cascades {
		c := &v.cascades[i]
		for f := range c.fill[layer] {
			c.fill[layer][f] = radiance
		}
		for _, b := range c.bricks {
			for j := range b.cells {
				b.cells[j][layer] = c.fill[layer]
			}
		}
	}
}

// FillFunc evaluates fn for every cell centre and face of every cascade.
func (v *Volume) FillFunc(layer Layer, fn func(center mgl32.Vec3, face Face) mgl32.Vec3) {
	for i := range v.cascades {
		forEachCell(func(cell [3]int) {
			p := v.CellCenter(i, cell)
			for f := Face(0); f < FaceCount; f++ {
				v.Set(layer, i, cell, f, fn(p, f))
			}
		})
	}
}

func forEachCell(fn func(cell [3]int)) {
	for z := 0; z < Resolution; z++ {
		for y := 0; y < Resolution; y++ {
			for x := 0; x < Resolution; x++ {
				fn([3]int{x, y, z})
			}
		}
	}
}
