package sky

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/chewxy/math32"
	_ "github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

var ErrEmptyImage = errors.New("sky: empty image")

// EquirectMap is a latitude-longitude environment in linear radiance. Row 0
// is straight up, the centre column looks down +X.
type EquirectMap struct {
	Width     int
	Height    int
	Pixels    []mgl32.Vec3
	Intensity float32
}

// LoadEquirect decodes a PNG or TGA file. A positive width resamples the map
// to width x width/2 first.
func LoadEquirect(path string, width int) (*EquirectMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sky: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("sky: decode %s: %w", path, err)
	}
	env, err := NewEquirect(img, width)
	if err != nil {
		return nil, fmt.Errorf("sky: load %s: %w", path, err)
	}
	return env, nil
}

// NewEquirect converts an sRGB image into a linear map.
func NewEquirect(img image.Image, width int) (*EquirectMap, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	if width > 0 && width != b.Dx() {
		height := max(1, width/2)
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
		b = dst.Bounds()
	}

	env := &EquirectMap{
		Width:     b.Dx(),
		Height:    b.Dy(),
		Pixels:    make([]mgl32.Vec3, b.Dx()*b.Dy()),
		Intensity: 1,
	}
	for y := 0; y < env.Height; y++ {
		for x := 0; x < env.Width; x++ {
			r, g, bl, _ := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
			env.Pixels[y*env.Width+x] = mgl32.Vec3{
				srgbToLinear(float32(r) / 65535),
				srgbToLinear(float32(g) / 65535),
				srgbToLinear(float32(bl) / 65535),
			}
		}
	}
	return env, nil
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}

// DirToUV maps a direction to texture coordinates in [0,1).
func DirToUV(dir mgl32.Vec3) mgl32.Vec2 {
	d := dir.Normalize()
	u := 0.5 + math32.Atan2(d[1], d[0])/(2*math32.Pi)
	v := 0.5 - math32.Asin(mgl32.Clamp(d[2], -1, 1))/math32.Pi
	return mgl32.Vec2{u, v}
}

func (e *EquirectMap) texel(x, y int) mgl32.Vec3 {
	x %= e.Width
	if x < 0 {
		x += e.Width
	}
	y = min(max(y, 0), e.Height-1)
	return e.Pixels[y*e.Width+x]
}

// Radiance samples the map bilinearly, wrapping horizontally.
func (e *EquirectMap) Radiance(dir mgl32.Vec3) mgl32.Vec3 {
	if !(dir.LenSqr() > 0) {
		return mgl32.Vec3{}
	}
	uv := DirToUV(dir)
	fx := uv[0]*float32(e.Width) - 0.5
	fy := uv[1]*float32(e.Height) - 0.5
	if fx != fx || fy != fy {
		return mgl32.Vec3{}
	}

	x0f, tx := math32.Modf(fx)
	y0f, ty := math32.Modf(fy)
	x0, y0 := int(x0f), int(y0f)
	if tx < 0 {
		tx++
		x0--
	}
	if ty < 0 {
		ty++
		y0--
	}

	c00 := e.texel(x0, y0)
	c10 := e.texel(x0+1, y0)
	c01 := e.texel(x0, y0+1)
	c11 := e.texel(x0+1, y0+1)

	top := c00.Mul(1 - tx).Add(c10.Mul(tx))
	bottom := c01.Mul(1 - tx).Add(c11.Mul(tx))
	return top.Mul(1 - ty).Add(bottom.Mul(ty)).Mul(e.Intensity)
}
