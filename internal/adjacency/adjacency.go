// Package adjacency derives the face neighbour graph the refinement engine
// consumes from a plain indexed mesh.
package adjacency

import (
	"fmt"
	"math"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

// Options controls how vertices are matched.
type Options struct {
	// Weld is the grid size used to merge nearby positions. Zero welds only
	// bit-identical positions.
	Weld float64
	// AttribEpsilon is the largest per-component difference at which two
	// normals or texture coordinates still count as equal.
	AttribEpsilon float64
}

// Report counts what Build found.
type Report struct {
	Interior    int // edges shared by exactly two faces
	Boundary    int // edges with no partner
	NonManifold int // edges left open because more than two faces meet there
	Flipped     int // edges left open because the partner winds the same way
	Degenerate  int // faces with a collapsed edge
	Seams       int // interior edges carrying any discontinuity flag
}

func (r Report) String() string {
	return fmt.Sprintf("%d interior, %d boundary, %d non-manifold, %d flipped, %d degenerate, %d seams",
		r.Interior, r.Boundary, r.NonManifold, r.Flipped, r.Degenerate, r.Seams)
}

type halfEdge struct {
	face int
	edge int
}

// Build matches every directed edge with its reverse. Edges that cannot be
// paired unambiguously are left as boundaries.
func Build(m *basemesh.Mesh, opts Options) (*basemesh.Graph, Report, error) {
	var rep Report
	n := len(m.Faces)
	if m.Materials != nil && len(m.Materials) != n {
		return nil, rep, fmt.Errorf("adjacency: %d materials for %d faces", len(m.Materials), n)
	}

	ids, err := weld(m, opts.Weld)
	if err != nil {
		return nil, rep, err
	}

	g := &basemesh.Graph{
		Neighbors:    make([][3]int, n),
		NeighborEdge: make([][3]int8, n),
		Continuity:   make([][3]basemesh.Continuity, n),
	}
	edges := make(map[[2]int][]halfEdge, 3*n)
	for f, face := range m.Faces {
		g.Neighbors[f] = [3]int{basemesh.NoNeighbor, basemesh.NoNeighbor, basemesh.NoNeighbor}
		g.NeighborEdge[f] = [3]int8{-1, -1, -1}
		a, b, c := ids[face[0]], ids[face[1]], ids[face[2]]
		if a == b || b == c || c == a {
			rep.Degenerate++
			continue
		}
		for e := 0; e < 3; e++ {
			k := [2]int{ids[face[e]], ids[face[(e+1)%3]]}
			edges[k] = append(edges[k], halfEdge{f, e})
		}
	}

	for k, fwd := range edges {
		rev := edges[[2]int{k[1], k[0]}]
		switch {
		case len(fwd) > 1 || len(rev) > 1:
			if len(rev) == 0 {
				rep.Flipped += len(fwd)
			} else {
				rep.NonManifold += len(fwd)
			}
		case len(rev) == 0:
			rep.Boundary++
		default:
			a, b := fwd[0], rev[0]
			g.Neighbors[a.face][a.edge] = b.face
			g.NeighborEdge[a.face][a.edge] = int8(b.edge)
			g.Continuity[a.face][a.edge] = continuity(m, a, b, opts.AttribEpsilon)
			if k[0] < k[1] {
				rep.Interior++
				if g.Continuity[a.face][a.edge] != basemesh.Continuous {
					rep.Seams++
				}
			}
		}
	}
	return g, rep, nil
}

// weld maps every vertex to the id of its position cell.
func weld(m *basemesh.Mesh, grid float64) ([]int, error) {
	ids := make([]int, len(m.Vertices))
	cells := make(map[[3]float64]int, len(m.Vertices))
	for i, v := range m.Vertices {
		p := v.Position
		for k := range p {
			if math.IsNaN(p[k]) || math.IsInf(p[k], 0) {
				return nil, fmt.Errorf("adjacency: vertex %d has a non-finite position", i)
			}
		}
		if grid > 0 {
			p = mathutil.Vec3{math.Round(p[0] / grid), math.Round(p[1] / grid), math.Round(p[2] / grid)}
		}
		id, ok := cells[p]
		if !ok {
			id = len(cells)
			cells[p] = id
		}
		ids[i] = id
	}
	for f, face := range m.Faces {
		for _, v := range face {
			if v < 0 || v >= len(m.Vertices) {
				return nil, fmt.Errorf("adjacency: face %d references vertex %d", f, v)
			}
		}
	}
	return ids, nil
}

// continuity compares the attributes both faces give the shared edge's ends.
// a runs the edge one way and b the other, so a's start meets b's end.
func continuity(m *basemesh.Mesh, a, b halfEdge, eps float64) basemesh.Continuity {
	fa, fb := m.Faces[a.face], m.Faces[b.face]
	pairs := [2][2]int{
		{fa[a.edge], fb[(b.edge+1)%3]},
		{fa[(a.edge+1)%3], fb[b.edge]},
	}

	var c basemesh.Continuity
	for _, p := range pairs {
		if p[0] == p[1] {
			continue
		}
		u, v := m.Vertices[p[0]], m.Vertices[p[1]]
		if u.Position != v.Position {
			c |= basemesh.DiscontinuousPosition
		}
		if !near(u.Normal[:], v.Normal[:], eps) {
			c |= basemesh.DiscontinuousNormal
		}
		if !near(u.TexCoord[:], v.TexCoord[:], eps) {
			c |= basemesh.DiscontinuousTexCoord
		}
	}
	if m.Materials != nil && m.Materials[a.face] != m.Materials[b.face] {
		c |= basemesh.DiscontinuousMaterial
	}
	return c
}

func near(a, b []float64, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
