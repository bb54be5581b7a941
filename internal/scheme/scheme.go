// Package scheme evaluates the modified butterfly mask that places a new
// vertex on an edge being split.
//
// Slot naming, looking at the edge P1->P2 from the triangle that owns Q1:
//
//	      R0   Q1   R1
//	        \ /  \ /
//	  S1 -- P1 ---- P2 -- S2
//	        / \  / \
//	      R2   Q2   R3
//
// R0 and R1 are the far wings beside Q1 (across the edges Q1-P1 and Q1-P2),
// R2 and R3 the ones beside Q2. S1 and S2 continue a boundary edge past its
// endpoints and are only gathered when Q2 is missing.
package scheme

import (
	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

// Layout is the mask family chosen for one edge.
type Layout uint8

const (
	General             Layout = iota // full 8-point neighbourhood
	Boundary                          // 4-point curve along a boundary
	BoundaryCorner                    // boundary with a synthesized support
	NearBoundaryReflect               // 8-point with reflected far wings
	NearBoundaryAverage               // too little context, plain midpoint
	NumLayouts
)

func (l Layout) String() string {
	switch l {
	case General:
		return "general"
	case Boundary:
		return "boundary"
	case BoundaryCorner:
		return "corner"
	case NearBoundaryReflect:
		return "near-reflect"
	case NearBoundaryAverage:
		return "near-average"
	default:
		return "unknown"
	}
}

// Neighborhood is the gathered context of one edge. Nil slots are missing.
type Neighborhood struct {
	P1, P2 *basemesh.Vertex
	Q1, Q2 *basemesh.Vertex
	R      [4]*basemesh.Vertex
	S      [2]*basemesh.Vertex

	// Seam holds the continuity flags of the edge itself.
	Seam basemesh.Continuity
}

// missingWings counts the nil far wings.
func (n *Neighborhood) missingWings() int {
	c := 0
	for _, r := range n.R {
		if r == nil {
			c++
		}
	}
	return c
}

// Select picks the layout from the populated slots.
func Select(n *Neighborhood) Layout {
	if n.Q2 == nil || n.Q1 == nil {
		if n.S[0] != nil && n.S[1] != nil {
			return Boundary
		}
		return BoundaryCorner
	}
	switch n.missingWings() {
	case 0:
		return General
	case 1, 2:
		return NearBoundaryReflect
	default:
		return NearBoundaryAverage
	}
}

// Scheme evaluates masks for one surface tension setting.
type Scheme struct {
	Tension float64
}

// New returns a scheme with tension clamped to [0, 1].
func New(tension float64) Scheme {
	return Scheme{Tension: min(max(tension, 0), 1)}
}

// Weight returns the butterfly smoothing weight w. Tension 0 gives the
// classic 1/16, tension 1 collapses the mask to linear interpolation.
func (s Scheme) Weight() float64 {
	return (1 - s.Tension) / 16
}

// Evaluate computes the new edge vertex and reports the layout used.
func (s Scheme) Evaluate(n *Neighborhood) (basemesh.Vertex, Layout) {
	layout := Select(n)
	return basemesh.Vertex{
		Position: s.Position(n, layout),
		Normal:   s.Normal(n, layout),
		TexCoord: TexCoord(n),
	}, layout
}

type attr func(*basemesh.Vertex) mathutil.Vec3

func position(v *basemesh.Vertex) mathutil.Vec3 { return v.Position }
func normal(v *basemesh.Vertex) mathutil.Vec3   { return v.Normal }

// Position evaluates the position mask for layout.
func (s Scheme) Position(n *Neighborhood, layout Layout) mathutil.Vec3 {
	switch layout {
	case General:
		return s.butterfly(n, position, n.R)
	case NearBoundaryReflect:
		return s.butterfly(n, position, reflectWings(n))
	case Boundary, BoundaryCorner:
		return fourPoint(n, position)
	default:
		return mathutil.Mid(n.P1.Position, n.P2.Position)
	}
}

// Normal evaluates the normal mask. The result is not renormalized.
func (s Scheme) Normal(n *Neighborhood, layout Layout) mathutil.Vec3 {
	if n.Seam&basemesh.DiscontinuousNormal != 0 {
		return mathutil.Mid(n.P1.Normal, n.P2.Normal)
	}
	switch layout {
	case General:
		return s.butterfly(n, normal, n.R)
	case Boundary, BoundaryCorner:
		return fourPoint(n, normal)
	default:
		return mathutil.Mid(n.P1.Normal, n.P2.Normal)
	}
}

// TexCoord is always the endpoint average; smoothing across a UV layout
// distorts seams.
func TexCoord(n *Neighborhood) mathutil.Vec2 {
	return mathutil.Mid2(n.P1.TexCoord, n.P2.TexCoord)
}

// butterfly sums in a fixed pairing so both triangles on an edge arrive at
// bitwise identical results.
func (s Scheme) butterfly(n *Neighborhood, get attr, r [4]*basemesh.Vertex) mathutil.Vec3 {
	w := s.Weight()
	p := get(n.P1).Add(get(n.P2)).Scale(0.5)
	q := get(n.Q1).Add(get(n.Q2)).Scale(2 * w)
	far := get(r[0]).Add(get(r[1])).Add(get(r[2]).Add(get(r[3]))).Scale(w)
	return p.Add(q).Sub(far)
}

func fourPoint(n *Neighborhood, get attr) mathutil.Vec3 {
	p1, p2 := get(n.P1), get(n.P2)
	var s1, s2 mathutil.Vec3
	if n.S[0] != nil {
		s1 = get(n.S[0])
	} else {
		s1 = mathutil.ReflectPoint(p2, p1)
	}
	if n.S[1] != nil {
		s2 = get(n.S[1])
	} else {
		s2 = mathutil.ReflectPoint(p1, p2)
	}
	return p1.Add(p2).Scale(9.0 / 16).Sub(s1.Add(s2).Scale(1.0 / 16))
}

// reflectWings fills missing far wings by mirroring the triangle that would
// have produced them across its shared edge: the wing beside Q across the
// edge Q-P becomes P + Q - P', P' being the other endpoint.
func reflectWings(n *Neighborhood) [4]*basemesh.Vertex {
	r := n.R
	synth := func(p, q, other *basemesh.Vertex) *basemesh.Vertex {
		return &basemesh.Vertex{Position: p.Position.Add(q.Position).Sub(other.Position)}
	}
	if r[0] == nil {
		r[0] = synth(n.P1, n.Q1, n.P2)
	}
	if r[1] == nil {
		r[1] = synth(n.P2, n.Q1, n.P1)
	}
	if r[2] == nil {
		r[2] = synth(n.P1, n.Q2, n.P2)
	}
	if r[3] == nil {
		r[3] = synth(n.P2, n.Q2, n.P1)
	}
	return r
}
