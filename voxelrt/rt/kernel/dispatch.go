package kernel

import (
	"context"
	"sync"
)

// tile is a half-open pixel rectangle.
type tile struct {
	x0, y0, x1, y1 int
}

// forEachTile runs fn for every pixel, tiles spread over workers. Tiles
// still queued when ctx is cancelled are skipped; running ones finish.
func forEachTile(ctx context.Context, width, height, tileSize, workers int, fn func(x, y int)) error {
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	tasks := make(chan tile, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			tasks <- tile{
				x0: tx * tileSize,
				y0: ty * tileSize,
				x1: min((tx+1)*tileSize, width),
				y1: min((ty+1)*tileSize, height),
			}
		}
	}
	close(tasks)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				if ctx.Err() != nil {
					continue
				}
				for y := t.y0; y < t.y1; y++ {
					for x := t.x0; x < t.x1; x++ {
						fn(x, y)
					}
				}
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}

// Dispatch shades every pixel of frame into out.
func (k *Kernel) Dispatch(ctx context.Context, frame *Context, out *Output) error {
	if err := k.validate(frame, out); err != nil {
		return err
	}
	return forEachTile(ctx, frame.Depth.Width, frame.Depth.Height, k.opts.TileSize, k.opts.Workers, func(x, y int) {
		k.Shade(x, y, frame, out)
	})
}
