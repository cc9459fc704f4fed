package volume

import (
	"math/bits"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	BrickSize    = 8
	MicroSize    = 2
	SectorBricks = 4
	SectorSize   = SectorBricks * BrickSize // 32

	BrickFlagSolid = 1
)

// Brick holds 8^3 palette indices. OccupancyMask64 has one bit per 2^3
// micro cell. A solid brick keeps its single value in SolidValue.
type Brick struct {
	OccupancyMask64 uint64
	Payload         [BrickSize][BrickSize][BrickSize]uint8
	Flags           uint32
	SolidValue      uint8
}

func NewBrick() *Brick {
	return &Brick{}
}

func microIndex(bx, by, bz int) int {
	return bx/MicroSize + (by/MicroSize)*4 + (bz/MicroSize)*16
}

func (b *Brick) SetVoxel(bx, by, bz int, val uint8) {
	b.Payload[bx][by][bz] = val
	bitIdx := microIndex(bx, by, bz)

	if val != 0 {
		b.OccupancyMask64 |= 1 << bitIdx
		return
	}

	sx, sy, sz := bx&^(MicroSize-1), by&^(MicroSize-1), bz&^(MicroSize-1)
	for x := 0; x < MicroSize; x++ {
		for y := 0; y < MicroSize; y++ {
			for z := 0; z < MicroSize; z++ {
				if b.Payload[sx+x][sy+y][sz+z] != 0 {
					return
				}
			}
		}
	}
	b.OccupancyMask64 &^= 1 << bitIdx
}

func (b *Brick) Expand(val uint8) {
	b.Flags &^= BrickFlagSolid
	b.OccupancyMask64 = ^uint64(0)
	for x := 0; x < BrickSize; x++ {
		for y := 0; y < BrickSize; y++ {
			for z := 0; z < BrickSize; z++ {
				b.Payload[x][y][z] = val
			}
		}
	}
}

func (b *Brick) TryCompress() bool {
	if b.IsEmpty() {
		return false
	}
	first := b.Payload[0][0][0]
	if first == 0 {
		return false
	}
	for x := 0; x < BrickSize; x++ {
		for y := 0; y < BrickSize; y++ {
			for z := 0; z < BrickSize; z++ {
				if b.Payload[x][y][z] != first {
					return false
				}
			}
		}
	}
	b.Flags |= BrickFlagSolid
	b.SolidValue = first
	return true
}

func (b *Brick) IsEmpty() bool {
	return b.OccupancyMask64 == 0
}

func (b *Brick) IsSolid() bool {
	return b.Flags&BrickFlagSolid != 0
}

// Sector stores up to 4^3 bricks packed in mask order.
type Sector struct {
	Coords       [3]int
	BrickMask64  uint64
	PackedBricks []*Brick
}

func NewSector(sx, sy, sz int) *Sector {
	return &Sector{
		Coords: [3]int{sx, sy, sz},
	}
}

func (s *Sector) GetPackedIndex(flatIdx int) int {
	maskBelow := (uint64(1) << flatIdx) - 1
	return bits.OnesCount64(s.BrickMask64 & maskBelow)
}

func (s *Sector) GetBrick(bx, by, bz int) *Brick {
	flatIdx := bx + by*4 + bz*16
	if s.BrickMask64&(1<<flatIdx) == 0 {
		return nil
	}
	return s.PackedBricks[s.GetPackedIndex(flatIdx)]
}

func (s *Sector) GetOrCreateBrick(bx, by, bz int) (*Brick, bool) {
	flatIdx := bx + by*4 + bz*16
	packedIdx := s.GetPackedIndex(flatIdx)
	if s.BrickMask64&(1<<flatIdx) != 0 {
		return s.PackedBricks[packedIdx], false
	}

	brick := NewBrick()
	s.PackedBricks = append(s.PackedBricks, nil)
	copy(s.PackedBricks[packedIdx+1:], s.PackedBricks[packedIdx:])
	s.PackedBricks[packedIdx] = brick
	s.BrickMask64 |= 1 << flatIdx
	return brick, true
}

func (s *Sector) RemoveBrickIfEmpty(bx, by, bz int) {
	flatIdx := bx + by*4 + bz*16
	if s.BrickMask64&(1<<flatIdx) == 0 {
		return
	}
	packedIdx := s.GetPackedIndex(flatIdx)
	if s.PackedBricks[packedIdx].IsEmpty() {
		s.PackedBricks = append(s.PackedBricks[:packedIdx], s.PackedBricks[packedIdx+1:]...)
		s.BrickMask64 &^= 1 << flatIdx
	}
}

func (s *Sector) IsEmpty() bool {
	return s.BrickMask64 == 0
}

// XBrickMap is a sparse sector -> brick -> micro cell voxel store in object
// space, one unit per voxel.
type XBrickMap struct {
	Sectors      map[[3]int]*Sector
	DirtySectors map[[3]int]bool
	DirtyBricks  map[[6]int]bool

	AABBDirty      bool
	StructureDirty bool
	CachedMin      mgl32.Vec3
	CachedMax      mgl32.Vec3
}

func NewXBrickMap() *XBrickMap {
	return &XBrickMap{
		Sectors:        make(map[[3]int]*Sector),
		DirtySectors:   make(map[[3]int]bool),
		DirtyBricks:    make(map[[6]int]bool),
		AABBDirty:      true,
		StructureDirty: true,
	}
}

func (x *XBrickMap) ClearDirty() {
	clear(x.DirtySectors)
	clear(x.DirtyBricks)
	x.StructureDirty = false
}

func floorDiv(v, d int) (int, int) {
	q, r := v/d, v%d
	if r < 0 {
		r += d
		q--
	}
	return q, r
}

// locate splits a global voxel coordinate into sector key, brick and voxel
// coordinates.
func locate(gx, gy, gz int) (sKey [3]int, b [3]int, v [3]int) {
	var local [3]int
	sKey[0], local[0] = floorDiv(gx, SectorSize)
	sKey[1], local[1] = floorDiv(gy, SectorSize)
	sKey[2], local[2] = floorDiv(gz, SectorSize)
	for i := 0; i < 3; i++ {
		b[i], v[i] = local[i]/BrickSize, local[i]%BrickSize
	}
	return sKey, b, v
}

func (x *XBrickMap) markDirty(sKey [3]int, b [3]int) {
	x.DirtySectors[sKey] = true
	x.DirtyBricks[[6]int{sKey[0], sKey[1], sKey[2], b[0], b[1], b[2]}] = true
	x.AABBDirty = true
}

func (x *XBrickMap) SetVoxel(gx, gy, gz int, val uint8) {
	sKey, b, v := locate(gx, gy, gz)

	if val == 0 {
		sector, ok := x.Sectors[sKey]
		if !ok {
			return
		}
		brick := sector.GetBrick(b[0], b[1], b[2])
		if brick == nil {
			return
		}
		if brick.IsSolid() {
			brick.Expand(brick.SolidValue)
		}
		brick.SetVoxel(v[0], v[1], v[2], 0)
		x.markDirty(sKey, b)

		sector.RemoveBrickIfEmpty(b[0], b[1], b[2])
		if sector.IsEmpty() {
			delete(x.Sectors, sKey)
			x.StructureDirty = true
		} else if brick.IsEmpty() {
			x.StructureDirty = true
		}
		return
	}

	sector, ok := x.Sectors[sKey]
	if !ok {
		sector = NewSector(sKey[0], sKey[1], sKey[2])
		x.Sectors[sKey] = sector
		x.StructureDirty = true
	}

	brick, isNew := sector.GetOrCreateBrick(b[0], b[1], b[2])
	if isNew {
		x.StructureDirty = true
	} else if brick.IsSolid() {
		if brick.SolidValue == val {
			return
		}
		brick.Expand(brick.SolidValue)
	}

	brick.SetVoxel(v[0], v[1], v[2], val)
	x.markDirty(sKey, b)
	brick.TryCompress()
}

// GetVoxel returns (found, value) for a voxel at global coordinates
func (x *XBrickMap) GetVoxel(gx, gy, gz int) (bool, uint8) {
	sKey, b, v := locate(gx, gy, gz)

	sector, ok := x.Sectors[sKey]
	if !ok {
		return false, 0
	}
	brick := sector.GetBrick(b[0], b[1], b[2])
	if brick == nil {
		return false, 0
	}
	val := brick.Payload[v[0]][v[1]][v[2]]
	return val != 0, val
}

func (x *XBrickMap) ComputeAABB() (mgl32.Vec3, mgl32.Vec3) {
	if !x.AABBDirty {
		return x.CachedMin, x.CachedMax
	}

	const big = float32(1e20)
	minB := mgl32.Vec3{big, big, big}
	maxB := mgl32.Vec3{-big, -big, -big}
	found := false

	grow := func(lo, hi mgl32.Vec3) {
		for a := 0; a < 3; a++ {
			minB[a] = math32.Min(minB[a], lo[a])
			maxB[a] = math32.Max(maxB[a], hi[a])
		}
		found = true
	}

	for sKey, sector := range x.Sectors {
		origin := mgl32.Vec3{float32(sKey[0] * SectorSize), float32(sKey[1] * SectorSize), float32(sKey[2] * SectorSize)}

		for i := 0; i < 64; i++ {
			if sector.BrickMask64&(1<<i) == 0 {
				continue
			}
			bx, by, bz := i%4, (i/4)%4, i/16
			brick := sector.GetBrick(bx, by, bz)
			if brick == nil || brick.IsEmpty() {
				continue
			}
			bo := origin.Add(mgl32.Vec3{float32(bx * BrickSize), float32(by * BrickSize), float32(bz * BrickSize)})

			if brick.IsSolid() {
				grow(bo, bo.Add(mgl32.Vec3{BrickSize, BrickSize, BrickSize}))
				continue
			}

			for m := 0; m < 64; m++ {
				if brick.OccupancyMask64&(1<<m) == 0 {
					continue
				}
				mx, my, mz := (m%4)*MicroSize, ((m/4)%4)*MicroSize, (m/16)*MicroSize
				for vx := mx; vx < mx+MicroSize; vx++ {
					for vy := my; vy < my+MicroSize; vy++ {
						for vz := mz; vz < mz+MicroSize; vz++ {
							if brick.Payload[vx][vy][vz] == 0 {
								continue
							}
							lo := bo.Add(mgl32.Vec3{float32(vx), float32(vy), float32(vz)})
							grow(lo, lo.Add(mgl32.Vec3{1, 1, 1}))
						}
					}
				}
			}
		}
	}

	if !found {
		x.CachedMin = mgl32.Vec3{}
		x.CachedMax = mgl32.Vec3{}
	} else {
		x.CachedMin = minB
		x.CachedMax = maxB
	}
	x.AABBDirty = false
	return x.CachedMin, x.CachedMax
}

func (x *XBrickMap) GetVoxelCount() int {
	count := 0
	for _, sector := range x.Sectors {
		for _, brick := range sector.PackedBricks {
			if brick.IsSolid() {
				count += BrickSize * BrickSize * BrickSize
				continue
			}
			for vx := 0; vx < BrickSize; vx++ {
				for vy := 0; vy < BrickSize; vy++ {
					for vz := 0; vz < BrickSize; vz++ {
						if brick.Payload[vx][vy][vz] != 0 {
							count++
						}
					}
				}
			}
		}
	}
	return count
}
