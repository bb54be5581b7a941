// Package metric holds the refinement metrics used by the command-line tools.
package metric

import (
	"math"

	"lodmesh/internal/mathutil"
	"lodmesh/internal/subdiv"
)

// Depth drives every base triangle towards a fixed tree depth.
type Depth struct {
	Target int
}

func (d Depth) EvaluateTriangle(v *subdiv.TriangleView) subdiv.Action {
	return towards(v.Depth(), d.Target)
}

// Script assigns a target depth per base triangle. Bases without an entry
// stay at depth 0.
type Script map[int]int

func (s Script) EvaluateTriangle(v *subdiv.TriangleView) subdiv.Action {
	return towards(v.Depth(), s[v.BaseIndex()])
}

func towards(depth, target int) subdiv.Action {
	switch {
	case depth < target:
		return subdiv.Subdivide
	case depth > target:
		return subdiv.Consolidate
	default:
		return subdiv.Sustain
	}
}

// EdgeLength refines until the longest edge of a leaf projects to no more
// than the manager's pixel tolerance as seen from Eye.
type EdgeLength struct {
	Eye mathutil.Vec3
	// FocalPixels converts a subtended angle in radians to pixels, i.e. the
	// viewport height over 2*tan(fov/2).
	FocalPixels float64
	// Near clamps the viewing distance so leaves at the eye do not explode.
	Near float64
}

// NewEdgeLength returns a metric for a viewport of the given height and
// vertical field of view in degrees.
func NewEdgeLength(eye mathutil.Vec3, height int, fovDeg float64) *EdgeLength {
	e := &EdgeLength{Eye: eye, Near: 1e-3}
	e.SetViewport(height, fovDeg)
	return e
}

// SetViewport updates FocalPixels after a resize or zoom.
func (e *EdgeLength) SetViewport(height int, fovDeg float64) {
	half := fovDeg * math.Pi / 360
	e.FocalPixels = float64(height) / (2 * math.Tan(half))
}

// Projected returns the screen size in pixels of an edge of length l whose
// midpoint is at distance dist.
func (e *EdgeLength) Projected(l, dist float64) float64 {
	return l * e.FocalPixels / math.Max(dist, e.Near)
}

func (e *EdgeLength) EvaluateTriangle(v *subdiv.TriangleView) subdiv.Action {
	// Edge length is fixed for a leaf, only the eye moves between frames.
	l, ok := v.ErrorTerm()
	if !ok {
		c := v.Corners()
		l = math.Max(c[0].Dist(c[1]), math.Max(c[1].Dist(c[2]), c[2].Dist(c[0])))
		v.SetErrorTerm(l)
	}

	px := e.Projected(l, v.Centroid().Dist(e.Eye))
	tol := v.PixelTolerance()
	switch {
	case px > tol:
		return subdiv.Subdivide
	case 4*px < tol:
		// The parent's edges are twice as long; leave a band so a leaf
		// that just split does not merge on the next frame.
		return subdiv.Consolidate
	default:
		return subdiv.Sustain
	}
}
