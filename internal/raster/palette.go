package raster

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DepthColor maps a leaf depth onto a blue (coarse) to red (deepest) ramp.
func DepthColor(depth, maxDepth int) color.NRGBA {
	t := 0.0
	if maxDepth > 0 {
		t = math.Min(float64(depth)/float64(maxDepth), 1)
	}
	r, g, b := colorful.Hsv(240*(1-t), 0.70, 0.95).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// MaterialColor gives every material id a distinct, stable hue.
func MaterialColor(id int) color.NRGBA {
	const golden = 0.618033988749895
	h := math.Mod(float64(id)*golden, 1) * 360
	r, g, b := colorful.Hsv(h, 0.35, 0.80).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
