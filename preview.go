package rtdgi

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/gekko3d/rtdgi/voxelrt/rt/kernel"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

func linearToSRGB(c float32) uint8 {
	c = mgl32.Clamp(c, 0, 1)
	if !(c >= 0) {
		c = 0
	}
	if c <= 0.0031308 {
		c *= 12.92
	} else {
		c = 1.055*math32.Pow(c, 1/2.4) - 0.055
	}
	return uint8(c*255 + 0.5)
}

// ToneMap maps radiance through exposure and Reinhard into 8-bit sRGB.
// Negative and non-finite values map to black.
func ToneMap(src *kernel.Image[mgl32.Vec4], exposure float32) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			px := src.At(x, y)
			var rgb [3]uint8
			for c := 0; c < 3; c++ {
				v := math32.Max(0, px[c]*exposure)
				if math32.IsInf(v, 1) {
					v = 1
				} else {
					v = v / (1 + v)
				}
				rgb[c] = linearToSRGB(v)
			}
			dst.SetNRGBA(x, y, color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
	return dst
}

// RayPreview shows each sampled bounce direction as a color. Pixels with
// no sample stay black.
func RayPreview(rays *kernel.Image[mgl32.Vec4]) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, rays.Width, rays.Height))
	for y := 0; y < rays.Height; y++ {
		for x := 0; x < rays.Width; x++ {
			r := rays.At(x, y)
			if !(r.W() > 0) {
				dst.SetNRGBA(x, y, color.NRGBA{A: 255})
				continue
			}
			d := r.Vec3().Mul(0.5).Add(mgl32.Vec3{0.5, 0.5, 0.5})
			dst.SetNRGBA(x, y, color.NRGBA{
				R: uint8(mgl32.Clamp(d[0], 0, 1) * 255),
				G: uint8(mgl32.Clamp(d[1], 0, 1) * 255),
				B: uint8(mgl32.Clamp(d[2], 0, 1) * 255),
				A: 255,
			})
		}
	}
	return dst
}

// Resize scales img to width, keeping the aspect ratio.
func Resize(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || width == b.Dx() {
		return img
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func WriteWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rtdgi: create %s: %w", path, err)
	}
	return encodeWebP(f, path, img)
}

// encodeWebP encodes img into w and closes it. A failed close is reported.
func encodeWebP(w io.WriteCloser, path string, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		w.Close()
		return fmt.Errorf("rtdgi: encode %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("rtdgi: close %s: %w", path, err)
	}
	return nil
}
