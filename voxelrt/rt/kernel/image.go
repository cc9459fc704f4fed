package kernel

// Image is a row-major 2D buffer.
type Image[T any] struct {
	Width  int
	Height int
	Pix    []T
}

func NewImage[T any](width, height int) *Image[T] {
	return &Image[T]{
		Width:  width,
		Height: height,
		Pix:    make([]T, width*height),
	}
}

func (im *Image[T]) At(x, y int) T {
	return im.Pix[y*im.Width+x]
}

func (im *Image[T]) Set(x, y int, v T) {
	im.Pix[y*im.Width+x] = v
}
