package bluenoise

import (
	"math/rand/v2"
)

const (
	TileSize     = 128
	TableSize    = 256
	ScrambleDims = 8

	valueBits  = 23
	valueScale = float32(1.0 / (1 << valueBits))

	tilePixels = TileSize * TileSize
)

// Second Sobol dimension, m_k for k = 1..8.
var sobolDim1 = [8]uint32{1, 3, 5, 15, 17, 51, 85, 255}

// Tables hold the ranking, scrambling and base sequence lookups for one
// 128x128 tile and 256 samples per pixel.
type Tables struct {
	// Ranking[dim + pixel*TableSize]
	Ranking []uint8
	// Scrambling[dim%ScrambleDims + pixel*ScrambleDims]
	Scrambling []uint32
	// Sobol[dim + index*TableSize]
	Sobol []uint32
}

func newTables() *Tables {
	return &Tables{
		Ranking:    make([]uint8, TableSize*tilePixels),
		Scrambling: make([]uint32, ScrambleDims*tilePixels),
		Sobol:      make([]uint32, TableSize*TableSize),
	}
}

// Sample returns a value in [0, 1). Pixel coordinates wrap at the tile size,
// sample index and dimension wrap at the table size.
func (t *Tables) Sample(px, py, sampleIndex, dim uint32) float32 {
	px %= TileSize
	py %= TileSize
	sampleIndex %= TableSize
	dim %= TableSize

	pixel := px + py*TileSize
	ranked := sampleIndex ^ uint32(t.Ranking[dim+pixel*TableSize])

	v := t.Sobol[dim+ranked*TableSize]
	v ^= t.Scrambling[dim%ScrambleDims+pixel*ScrambleDims]

	return (float32(v) + 0.5) * valueScale
}

func (t *Tables) Sample2D(px, py, sampleIndex uint32) (float32, float32) {
	return t.Sample(px, py, sampleIndex, 0), t.Sample(px, py, sampleIndex, 1)
}

// Generate builds a deterministic table set from seed. Dimension pairs share
// a ranking so that consecutive dims keep their joint stratification.
func Generate(seed uint64) *Tables {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := newTables()

	var dirs [2][8]uint32
	for k := 0; k < 8; k++ {
		dirs[0][k] = 1 << (valueBits - 1 - k)
		dirs[1][k] = sobolDim1[k] << (valueBits - 1 - k)
	}

	shifts := make([]uint32, TableSize)
	for d := 2; d < TableSize; d++ {
		shifts[d] = rng.Uint32() & (1<<valueBits - 1)
	}

	for idx := uint32(0); idx < TableSize; idx++ {
		for d := 0; d < TableSize; d++ {
			t.Sobol[uint32(d)+idx*TableSize] = sobolValue(idx, dirs[d&1]) ^ shifts[d]
		}
	}

	for p := 0; p < tilePixels; p++ {
		for d := 0; d < TableSize; d += 2 {
			r := uint8(rng.UintN(TableSize))
			t.Ranking[d+p*TableSize] = r
			t.Ranking[d+1+p*TableSize] = r
		}
		for d := 0; d < ScrambleDims; d++ {
			t.Scrambling[d+p*ScrambleDims] = rng.Uint32() & (1<<valueBits - 1)
		}
	}

	return t
}

func sobolValue(i uint32, dirs [8]uint32) uint32 {
	var v uint32
	for k := 0; i != 0; k++ {
		if i&1 != 0 {
			v ^= dirs[k]
		}
		i >>= 1
	}
	return v
}
