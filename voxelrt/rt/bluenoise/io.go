package bluenoise

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrTableSize = errors.New("bluenoise: table size mismatch")

var magic = [4]byte{'R', 'T', 'B', 'N'}

type header struct {
	Magic        [4]byte
	TileSize     uint32
	TableSize    uint32
	ScrambleDims uint32
}

// WriteTo serialises the tables in little-endian order.
func (t *Tables) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	h := header{Magic: magic, TileSize: TileSize, TableSize: TableSize, ScrambleDims: ScrambleDims}

	for _, part := range []any{h, t.Ranking, t.Scrambling, t.Sobol} {
		if err := binary.Write(cw, binary.LittleEndian, part); err != nil {
			return cw.n, fmt.Errorf("bluenoise: write: %w", err)
		}
	}
	return cw.n, nil
}

// Load reads tables written by WriteTo.
func Load(r io.Reader) (*Tables, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("bluenoise: read header: %w", err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("bluenoise: bad magic %q", h.Magic[:])
	}
	if h.TileSize != TileSize || h.TableSize != TableSize || h.ScrambleDims != ScrambleDims {
		return nil, fmt.Errorf("%w: tile %d table %d scramble %d", ErrTableSize, h.TileSize, h.TableSize, h.ScrambleDims)
	}

	t := newTables()
	if err := binary.Read(r, binary.LittleEndian, t.Ranking); err != nil {
		return nil, fmt.Errorf("bluenoise: read ranking: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, t.Scrambling); err != nil {
		return nil, fmt.Errorf("bluenoise: read scrambling: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, t.Sobol); err != nil {
		return nil, fmt.Errorf("bluenoise: read sobol: %w", err)
	}
	return t, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
