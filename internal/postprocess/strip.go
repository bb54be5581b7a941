package postprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Strip places frames left to right on one canvas, separated by gap pixels
// of bg. Frames are top-aligned; the canvas is as tall as the tallest.
func Strip(frames []*image.NRGBA, gap int, bg color.NRGBA) *image.NRGBA {
	w, h := 0, 0
	for i, f := range frames {
		if i > 0 {
			w += gap
		}
		w += f.Bounds().Dx()
		h = max(h, f.Bounds().Dy())
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	if bg.A > 0 {
		draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	}

	x := 0
	for _, f := range frames {
		b := f.Bounds()
		draw.Draw(canvas, image.Rect(x, 0, x+b.Dx(), b.Dy()), f, b.Min, draw.Over)
		x += b.Dx() + gap
	}
	return canvas
}
