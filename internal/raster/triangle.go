package raster

import (
	"image"
	"image/color"
	"math"
)

// screenVertex is a projected vertex: pixel position, view depth and
// texture coordinate.
type screenVertex struct {
	x, y, z float64
	u, v    float64
}

// surface describes how a triangle is colored.
type surface struct {
	tex   *image.NRGBA // nil: flat base color
	base  color.NRGBA
	shade float64
}

// rasterizeTriangle fills one triangle with z-buffering. Lighting is flat:
// shade is computed once per face by the caller.
//
// This is the hot path and does not allocate.
func rasterizeTriangle(fb *FrameBuffer, a, b, c screenVertex, s *surface, lc *LightConfig) {
	minX := max(int(math.Min(math.Min(a.x, b.x), c.x)), 0)
	maxX := min(int(math.Max(math.Max(a.x, b.x), c.x))+1, fb.Width-1)
	minY := max(int(math.Min(math.Min(a.y, b.y), c.y)), 0)
	maxY := min(int(math.Max(math.Max(a.y, b.y), c.y))+1, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup; either winding works since det carries the sign.
	det := (b.y-c.y)*(a.x-c.x) + (c.x-b.x)*(a.y-c.y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12, dx21 := b.y-c.y, c.x-b.x
	dy20, dx02 := c.y-a.y, a.x-c.x

	// Flat surfaces light once.
	fr, fg, fbl := lc.Apply(s.base.R, s.shade), lc.Apply(s.base.G, s.shade), lc.Apply(s.base.B, s.shade)

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - c.y
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - c.x
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.z + w1*b.z + w2*c.z
			i := row + sx
			if z <= fb.ZBuf[i] {
				continue
			}

			if s.tex == nil {
				fb.ZBuf[i] = z
				fb.set(i, fr, fg, fbl, 255)
				continue
			}
			u := w0*a.u + w1*b.u + w2*c.u
			v := w0*a.v + w1*b.v + w2*c.v
			tr, tg, tb, ta := SampleTexture(s.tex, u, v)
			// Skip transparent texels
			if ta < 8 {
				continue
			}
			fb.ZBuf[i] = z
			fb.set(i, lc.Apply(tr, s.shade), lc.Apply(tg, s.shade), lc.Apply(tb, s.shade), ta)
		}
	}
}

// drawEdge draws a one pixel line that passes the depth test with a small
// bias, so edges of visible faces win over their own fill.
func drawEdge(fb *FrameBuffer, a, b screenVertex, col color.NRGBA, bias float64) {
	steps := int(math.Ceil(math.Max(math.Abs(b.x-a.x), math.Abs(b.y-a.y))))
	if steps == 0 {
		steps = 1
	}
	for k := 0; k <= steps; k++ {
		t := float64(k) / float64(steps)
		x := int(a.x + (b.x-a.x)*t + 0.5)
		y := int(a.y + (b.y-a.y)*t + 0.5)
		if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
			continue
		}
		i := y*fb.Width + x
		z := a.z + (b.z-a.z)*t
		if z+bias < fb.ZBuf[i] {
			continue
		}
		fb.set(i, col.R, col.G, col.B, col.A)
	}
}
