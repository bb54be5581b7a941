package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func solid(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDownsampleKeepsSolidColor(t *testing.T) {
	src := solid(32, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	dst := Downsample(src, 8)
	if b := dst.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("expected 8x8, got %v", b)
	}
	got := dst.NRGBAAt(4, 4)
	want := color.NRGBA{200, 100, 50, 255}
	for k, pair := range [][2]uint8{{got.R, want.R}, {got.G, want.G}, {got.B, want.B}, {got.A, want.A}} {
		if d := int(pair[0]) - int(pair[1]); d < -1 || d > 1 {
			t.Fatalf("channel %d: expected the solid color to survive, got %v", k, got)
		}
	}
}

func TestDownsampleNoHalo(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	dst := Downsample(src, 8)
	for x := 0; x < 8; x++ {
		c := dst.NRGBAAt(x, 4)
		if c.A > 16 && c.R < 240 {
			t.Fatalf("pixel %d darkened at the alpha edge: %v", x, c)
		}
	}
}

func TestDownsampleSmallIsUnchanged(t *testing.T) {
	src := solid(4, color.NRGBA{A: 255})
	if Downsample(src, 8) != src {
		t.Fatal("expected frames at or under the target to pass through")
	}
}

func TestStrip(t *testing.T) {
	red := solid(4, color.NRGBA{R: 255, A: 255})
	blue := solid(6, color.NRGBA{B: 255, A: 255})
	bg := color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	s := Strip([]*image.NRGBA{red, blue}, 2, bg)
	if b := s.Bounds(); b.Dx() != 12 || b.Dy() != 6 {
		t.Fatalf("expected 12x6, got %v", b)
	}
	if s.NRGBAAt(0, 0) != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("expected the first frame at the left, got %v", s.NRGBAAt(0, 0))
	}
	if s.NRGBAAt(4, 0) != bg || s.NRGBAAt(0, 5) != bg {
		t.Fatal("expected the gap and the short frame's tail to show the background")
	}
	if s.NRGBAAt(11, 5) != (color.NRGBA{B: 255, A: 255}) {
		t.Fatalf("expected the second frame at the right, got %v", s.NRGBAAt(11, 5))
	}
}
