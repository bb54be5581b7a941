package subdiv

import "lodmesh/internal/scheme"

// MaxBaseTriangles is the largest base mesh InitMesh accepts.
const MaxBaseTriangles = 1 << 16

// Options size the pools and the output mesh. Zero fields take the values
// from DefaultOptions.
type Options struct {
	// TrianglePercent and VertexPercent size the initial pools as a
	// percentage of what a uniform split to MaxComputeDepth would need.
	TrianglePercent float64
	VertexPercent   float64
	// TriangleCap and VertexCap bound the computed (non-base) units.
	TriangleCap    int
	VertexCap      int
	TriangleGrowBy int
	VertexGrowBy   int
	// OutputGrowBy is the step, in faces, the output buffers grow by.
	// OutputCap bounds the face count; vertices are bounded at three times
	// that.
	OutputGrowBy int
	OutputCap    int
	// EvalBudget bounds metric calls per pass. Zero evaluates every leaf.
	EvalBudget int
	Hooks      Hooks
}

// DefaultOptions returns the sizing used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		TrianglePercent: 25,
		VertexPercent:   25,
		TriangleCap:     1 << 22,
		VertexCap:       1 << 21,
		TriangleGrowBy:  4096,
		VertexGrowBy:    2048,
		OutputGrowBy:    4096,
		OutputCap:       1 << 23,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TrianglePercent <= 0 {
		o.TrianglePercent = d.TrianglePercent
	}
	if o.VertexPercent <= 0 {
		o.VertexPercent = d.VertexPercent
	}
	if o.TriangleCap <= 0 {
		o.TriangleCap = d.TriangleCap
	}
	if o.VertexCap <= 0 {
		o.VertexCap = d.VertexCap
	}
	if o.TriangleGrowBy <= 0 {
		o.TriangleGrowBy = d.TriangleGrowBy
	}
	if o.VertexGrowBy <= 0 {
		o.VertexGrowBy = d.VertexGrowBy
	}
	if o.OutputGrowBy <= 0 {
		o.OutputGrowBy = d.OutputGrowBy
	}
	if o.OutputCap <= 0 {
		o.OutputCap = d.OutputCap
	}
	return o
}

// Hooks are called from inside UpdateMesh. They must not call back into the
// Manager.
type Hooks struct {
	OnPass func(PassStats)
}

// PassStats describes the last pipeline pass.
type PassStats struct {
	Evaluated       int
	Subdivided      int
	Forced          int
	Consolidated    int
	Shared          int // midpoints reused from a neighbour
	CrackSides      int
	CrackTriangles  int
	CrackSubdivided int
	Retries         int
	Layouts         [scheme.NumLayouts]int

	Depth         int
	Faces         int
	Vertices      int
	LiveTriangles int
	LiveVertices  int
}
