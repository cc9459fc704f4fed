package bluenoise

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTables = Generate(7)

func TestSampleIsPure(t *testing.T) {
	for i := uint32(0); i < 500; i++ {
		px, py, idx, dim := i*7, i*13, i, i%5
		a := testTables.Sample(px, py, idx, dim)
		b := testTables.Sample(px, py, idx, dim)
		if a != b {
			t.Fatalf("sample(%d,%d,%d,%d) not deterministic: %v vs %v", px, py, idx, dim, a, b)
		}
	}

	again := Generate(7)
	assert.Equal(t, testTables.Sample(3, 4, 5, 6), again.Sample(3, 4, 5, 6))
}

func TestSampleRange(t *testing.T) {
	for py := uint32(0); py < 16; py++ {
		for px := uint32(0); px < 16; px++ {
			for dim := uint32(0); dim < 12; dim++ {
				v := testTables.Sample(px, py, px*py, dim)
				if v <= 0 || v >= 1 {
					t.Fatalf("sample out of (0,1): %v", v)
				}
			}
		}
	}
}

func TestSampleWraps(t *testing.T) {
	assert.Equal(t, testTables.Sample(1, 2, 3, 4), testTables.Sample(1+TileSize, 2+2*TileSize, 3+TableSize, 4+TableSize))
}

func TestSample2DPointSet(t *testing.T) {
	seen := make(map[[2]float32]bool)
	var sumX, sumY float64
	count := 0

	for p := uint32(0); p < 40; p++ {
		px, py := (p*37)%TileSize, (p*91)%TileSize
		for idx := uint32(0); idx < 250; idx++ {
			x, y := testTables.Sample2D(px, py, idx)
			key := [2]float32{x, y}
			if seen[key] {
				t.Fatalf("coincident point %v at pixel (%d,%d) index %d", key, px, py, idx)
			}
			seen[key] = true
			sumX += float64(x)
			sumY += float64(y)
			count++
		}
	}

	require.Equal(t, 10000, count)
	assert.InDelta(t, 0.5, sumX/float64(count), 0.02)
	assert.InDelta(t, 0.5, sumY/float64(count), 0.02)
}

func TestPixelStratification(t *testing.T) {
	// all 256 samples of one pixel cover every 1/256 stratum of dimension 0 once
	var strata [TableSize]int
	for idx := uint32(0); idx < TableSize; idx++ {
		v := testTables.Sample(5, 9, idx, 0)
		strata[int(v*TableSize)]++
	}
	for i, n := range strata {
		if n != 1 {
			t.Fatalf("stratum %d holds %d samples", i, n)
		}
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := testTables.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, testTables.Sample(11, 12, 13, 14), loaded.Sample(11, 12, 13, 14))
	assert.Equal(t, testTables.Sobol, loaded.Sobol)
}

func TestLoadRejectsMismatchedSizes(t *testing.T) {
	var buf bytes.Buffer
	h := header{Magic: magic, TileSize: 64, TableSize: TableSize, ScrambleDims: ScrambleDims}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))

	_, err := Load(&buf)
	assert.ErrorIs(t, err, ErrTableSize)

	_, err = Load(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}
