package subdiv

import (
	"lodmesh/internal/mathutil"
	"lodmesh/internal/tqt"
)

// Metric decides what happens to a leaf. It must be deterministic for fixed
// inputs and must not change the tree; it may cache a value through
// SetErrorTerm.
type Metric interface {
	EvaluateTriangle(v *TriangleView) Action
}

// MetricFunc adapts a function to Metric.
type MetricFunc func(v *TriangleView) Action

func (f MetricFunc) EvaluateTriangle(v *TriangleView) Action { return f(v) }

// TriangleView is the read-only face of a leaf handed to the metric. It is
// only valid for the duration of the call.
type TriangleView struct {
	m *Manager
	t *Triangle
}

func (v *TriangleView) Depth() int           { return v.t.Depth() }
func (v *TriangleView) BaseIndex() int       { return int(v.t.base) }
func (v *TriangleView) Address() tqt.Address { return v.t.addr }
func (v *TriangleView) MaxDepth() int        { return v.m.props.maxComputeDepth }

// MeshIndex returns the input face the leaf was refined from.
func (v *TriangleView) MeshIndex() int { return v.m.bases[v.t.base].meshIndex }

// Material returns the material id of the input face.
func (v *TriangleView) Material() int { return v.m.bases[v.t.base].material }

// PixelTolerance returns the manager's error threshold.
func (v *TriangleView) PixelTolerance() float64 { return v.m.props.pixelTolerance }

// Corners returns the corner positions in counter-clockwise order.
func (v *TriangleView) Corners() [3]mathutil.Vec3 {
	var out [3]mathutil.Vec3
	for i, c := range ring(v.t.orient) {
		out[i] = v.m.vertex(v.t, c).Position
	}
	return out
}

// Normals returns the corner normals in the order of Corners.
func (v *TriangleView) Normals() [3]mathutil.Vec3 {
	var out [3]mathutil.Vec3
	for i, c := range ring(v.t.orient) {
		out[i] = v.m.vertex(v.t, c).Normal
	}
	return out
}

// Centroid returns the mean of the corners.
func (v *TriangleView) Centroid() mathutil.Vec3 {
	c := v.Corners()
	return c[0].Add(c[1]).Add(c[2]).Scale(1.0 / 3)
}

// ErrorTerm returns the cached error; ok is false until one is set.
func (v *TriangleView) ErrorTerm() (e float64, ok bool) {
	return v.t.errTerm, v.t.errTerm >= 0
}

// SetErrorTerm caches a non-negative error on the leaf.
func (v *TriangleView) SetErrorTerm(e float64) {
	v.t.errTerm = max(e, 0)
}
