// Package postprocess reduces and arranges rendered frames.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample reduces a square frame to targetSize with premultiplied-alpha
// CatmullRom filtering, so transparent edges do not pick up dark halos.
func Downsample(img *image.NRGBA, targetSize int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= targetSize && b.Dy() <= targetSize {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si, di := img.PixOffset(x, y), premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			for k := 0; k < 3; k++ {
				premul.Pix[di+k] = uint8(float64(img.Pix[si+k])*a + 0.5)
			}
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	result := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := float64(dst.Pix[i+3])
		if a > 1 {
			inv := 255.0 / a
			for k := 0; k < 3; k++ {
				result.Pix[i+k] = clamp8(float64(dst.Pix[i+k]) * inv)
			}
		}
		result.Pix[i+3] = dst.Pix[i+3]
	}
	return result
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
