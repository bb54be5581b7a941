package subdiv

import (
	"lodmesh/internal/basemesh"
	"lodmesh/internal/tqt"
)

// Action is what the metric asks of a leaf.
type Action uint8

const (
	Sustain Action = iota
	Subdivide
	Consolidate
)

func (a Action) String() string {
	switch a {
	case Sustain:
		return "sustain"
	case Subdivide:
		return "subdivide"
	case Consolidate:
		return "consolidate"
	default:
		return "unknown"
	}
}

// Locality tells where a neighbour was found.
type Locality uint8

const (
	Local     Locality = iota // same base triangle
	Distal                    // adjacent base triangle
	Undefined                 // true mesh boundary
)

func (l Locality) String() string {
	switch l {
	case Local:
		return "local"
	case Distal:
		return "distal"
	default:
		return "undefined"
	}
}

// Orientation is the shape of a node. Center children flip it.
type Orientation uint8

const (
	Up Orientation = iota
	Down
)

func (o Orientation) flip() Orientation { return o ^ 1 }

// edgeEnds returns the corners at the start and end of edge d in
// counter-clockwise order. Up winds Right, Left, Base; Down winds the other
// way round.
func edgeEnds(o Orientation, d tqt.Direction) (start, end tqt.Direction) {
	switch d {
	case tqt.Base:
		start, end = tqt.Right, tqt.Left
	case tqt.Right:
		start, end = tqt.Left, tqt.Base
	default:
		start, end = tqt.Base, tqt.Right
	}
	if o == Down {
		start, end = end, start
	}
	return start, end
}

// ring returns the corners in counter-clockwise order.
func ring(o Orientation) [3]tqt.Direction {
	if o == Up {
		return [3]tqt.Direction{tqt.Right, tqt.Left, tqt.Base}
	}
	return [3]tqt.Direction{tqt.Right, tqt.Base, tqt.Left}
}

// Vertex is a pooled vertex. renderIndex is valid only while renderPass
// matches the manager's current gather pass.
type Vertex struct {
	basemesh.Vertex
	renderIndex uint32
	renderPass  uint32
}

// graphEdgeDir maps face edge i (vertices i, i+1) to the direction of the
// corner opposite it, given V[Right]=f0, V[Left]=f1, V[Base]=f2.
var graphEdgeDir = [3]tqt.Direction{tqt.Base, tqt.Right, tqt.Left}
