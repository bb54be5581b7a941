// Package basemesh holds the coarse input mesh and its neighbour graph.
package basemesh

import (
	"errors"
	"fmt"

	"lodmesh/internal/mathutil"
)

// Vertex carries the interpolated attributes of one mesh vertex.
type Vertex struct {
	Position mathutil.Vec3
	Normal   mathutil.Vec3
	TexCoord mathutil.Vec2
}

// Mesh is an indexed triangle list. Faces wind counter-clockwise.
type Mesh struct {
	Vertices  []Vertex
	Faces     [][3]int
	Materials []int    // per face, optional
	Textures  []string // texture path per material id, optional
}

// TexturePath returns the texture of a material, or "" when none is known.
func (m *Mesh) TexturePath(material int) string {
	if material < 0 || material >= len(m.Textures) {
		return ""
	}
	return m.Textures[material]
}

// Continuity flags what does not interpolate smoothly across an edge.
type Continuity uint8

const (
	DiscontinuousPosition Continuity = 1 << iota
	DiscontinuousNormal
	DiscontinuousTexCoord
	DiscontinuousMaterial
)

// Continuous is the zero value: every attribute is shared across the edge.
const Continuous Continuity = 0

// Blocks reports whether the flags stop attribute sharing across the edge.
// A material change alone keeps geometry shared.
func (c Continuity) Blocks() bool {
	return c&(DiscontinuousPosition|DiscontinuousNormal|DiscontinuousTexCoord) != 0
}

func (c Continuity) String() string {
	if c == Continuous {
		return "continuous"
	}
	s := ""
	for _, f := range []struct {
		flag Continuity
		name string
	}{
		{DiscontinuousPosition, "pos"},
		{DiscontinuousNormal, "normal"},
		{DiscontinuousTexCoord, "uv"},
		{DiscontinuousMaterial, "material"},
	} {
		if c&f.flag != 0 {
			if s != "" {
				s += "|"
			}
			s += f.name
		}
	}
	return s
}

// NoNeighbor marks a true mesh boundary in Graph.Neighbors.
const NoNeighbor = -1

// Graph is the per-face adjacency the engine consumes. Edge i of a face runs
// from vertex i to vertex i+1.
type Graph struct {
	Neighbors [][3]int
	// NeighborEdge gives, for each edge, the edge index of the neighbour
	// that shares it. When nil it is derived from Neighbors.
	NeighborEdge [][3]int8
	Continuity   [][3]Continuity
}

var ErrInconsistent = errors.New("basemesh: inconsistent graph")

// Validate checks that g describes m: sizes match, indices are in range and
// every neighbour link is reciprocated.
func (g *Graph) Validate(m *Mesh) error {
	n := len(m.Faces)
	if len(g.Neighbors) != n {
		return fmt.Errorf("%w: %d neighbour rows for %d faces", ErrInconsistent, len(g.Neighbors), n)
	}
	if g.Continuity != nil && len(g.Continuity) != n {
		return fmt.Errorf("%w: %d continuity rows for %d faces", ErrInconsistent, len(g.Continuity), n)
	}
	if g.NeighborEdge != nil && len(g.NeighborEdge) != n {
		return fmt.Errorf("%w: %d neighbour-edge rows for %d faces", ErrInconsistent, len(g.NeighborEdge), n)
	}
	for f, face := range m.Faces {
		for _, v := range face {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("%w: face %d references vertex %d", ErrInconsistent, f, v)
			}
		}
		for e := 0; e < 3; e++ {
			nb := g.Neighbors[f][e]
			if nb == NoNeighbor {
				continue
			}
			if nb < 0 || nb >= n {
				return fmt.Errorf("%w: face %d edge %d names face %d", ErrInconsistent, f, e, nb)
			}
			back, ok := g.SharedEdge(f, e)
			if !ok || g.Neighbors[nb][back] != f {
				return fmt.Errorf("%w: face %d edge %d is not reciprocated by face %d", ErrInconsistent, f, e, nb)
			}
		}
	}
	return nil
}

// SharedEdge returns the edge index by which face f's neighbour across edge
// e points back at f.
func (g *Graph) SharedEdge(f, e int) (int, bool) {
	nb := g.Neighbors[f][e]
	if nb == NoNeighbor {
		return 0, false
	}
	if g.NeighborEdge != nil {
		back := int(g.NeighborEdge[f][e])
		return back, back >= 0 && back < 3
	}
	for back := 0; back < 3; back++ {
		if g.Neighbors[nb][back] == f {
			return back, true
		}
	}
	return 0, false
}

// EdgeContinuity returns the flags of face f's edge e.
func (g *Graph) EdgeContinuity(f, e int) Continuity {
	if g.Continuity == nil {
		return Continuous
	}
	return g.Continuity[f][e]
}
