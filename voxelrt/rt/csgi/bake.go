package csgi

import (
	"context"
	"sync"

	"github.com/gekko3d/rtdgi/voxelrt/rt/geom"

	"github.com/go-gl/mathgl/mgl32"
)

type Occluder interface {
	TraceOcclusion(ray geom.Ray) bool
}

type Environment interface {
	Radiance(dir mgl32.Vec3) mgl32.Vec3
}

// BakeOptions controls Bake. RayCells is the occlusion ray length in cells of
// the cascade being baked.
type BakeOptions struct {
	RayCells float32
	Workers  int
}

// Bake fills the Direct layer with sky visibility: every face stores the
// environment radiance from its direction when a short ray from the cell
// centre escapes, and zero otherwise. Slices of the grid are spread over
// Workers goroutines; cancelling ctx stops handing out new slices.
func (v *Volume) Bake(ctx context.Context, occ Occluder, env Environment, opts BakeOptions) error {
	if opts.RayCells <= 0 {
		opts.RayCells = 4
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	var sky faceValues
	for f := Face(0); f < FaceCount; f++ {
		sky[f] = env.Radiance(f.Dir())
	}

	for i := range v.cascades {
		c := &v.cascades[i]
		// allocate every brick up front so workers only write disjoint cells
		for b := 0; b < bricksPerRow*bricksPerRow*bricksPerRow; b++ {
			c.getOrCreate(b)
		}

		slices := make(chan int, Resolution)
		var wg sync.WaitGroup
		for w := 0; w < opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for z := range slices {
					v.bakeSlice(i, z, occ, sky, opts.RayCells*c.cellSize)
				}
			}()
		}

	feed:
		for z := 0; z < Resolution; z++ {
			select {
			case <-ctx.Done():
				break feed
			case slices <- z:
			}
		}
		close(slices)
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (v *Volume) bakeSlice(cascadeIdx, z int, occ Occluder, sky faceValues, rayLength float32) {
	c := &v.cascades[cascadeIdx]
	for y := 0; y < Resolution; y++ {
		for x := 0; x < Resolution; x++ {
			cell := [3]int{x, y, z}
			center := v.CellCenter(cascadeIdx, cell)
			flatIdx, local := splitCell(cell)
			dst := &c.bricks[c.packedIndex(flatIdx)].cells[local][Direct]
			for f := Face(0); f < FaceCount; f++ {
				ray := geom.NewRay(center, f.Dir(), 0, rayLength)
				if occ.TraceOcclusion(ray) {
					dst[f] = mgl32.Vec3{}
				} else {
					dst[f] = sky[f]
				}
			}
		}
	}
}
