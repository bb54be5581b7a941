package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
)

// LoadTexture reads a texture file and returns an NRGBA image. OZJ and OZT
// are JPEG and TGA behind a fixed-size header.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ozj":
		if len(raw) <= 24 {
			return nil, fmt.Errorf("texture: OZJ too short: %s", path)
		}
		raw, ext = raw[24:], ".jpg"
	case ".ozt":
		if len(raw) <= 4 {
			return nil, fmt.Errorf("texture: OZT too short: %s", path)
		}
		raw, ext = raw[4:], ".tga"
	}
	return Decode(raw, ext)
}

// Decode decodes data in the format named by ext. TGA has no magic number,
// so the format is never sniffed.
func Decode(data []byte, ext string) (*image.NRGBA, error) {
	r := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(ext) {
	case ".tga":
		img, err = tga.Decode(r)
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	default:
		return nil, fmt.Errorf("texture: unknown extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", ext, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
