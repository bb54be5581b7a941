package adjacency

import (
	"testing"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

func vert(x, y, u, v float64) basemesh.Vertex {
	return basemesh.Vertex{
		Position: mathutil.Vec3{x, y, 0},
		Normal:   mathutil.Vec3{0, 0, 1},
		TexCoord: mathutil.Vec2{u, v},
	}
}

func quad() *basemesh.Mesh {
	return &basemesh.Mesh{
		Vertices: []basemesh.Vertex{vert(0, 0, 0, 0), vert(1, 0, 1, 0), vert(1, 1, 1, 1), vert(0, 1, 0, 1)},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestBuildQuad(t *testing.T) {
	m := quad()
	g, rep, err := Build(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if want := [3]int{-1, -1, 1}; g.Neighbors[0] != want {
		t.Fatalf("face 0: expected neighbours %v, got %v", want, g.Neighbors[0])
	}
	if want := [3]int{0, -1, -1}; g.Neighbors[1] != want {
		t.Fatalf("face 1: expected neighbours %v, got %v", want, g.Neighbors[1])
	}
	if g.NeighborEdge[0][2] != 0 || g.NeighborEdge[1][0] != 2 {
		t.Fatalf("unexpected shared edges %v %v", g.NeighborEdge[0], g.NeighborEdge[1])
	}
	if g.Continuity[0][2] != basemesh.Continuous {
		t.Fatalf("expected a continuous diagonal, got %v", g.Continuity[0][2])
	}
	if rep.Interior != 1 || rep.Boundary != 4 || rep.Seams != 0 {
		t.Fatalf("unexpected report: %v", rep)
	}
	if err := g.Validate(m); err != nil {
		t.Fatal(err)
	}
}

func TestBuildTexCoordSeam(t *testing.T) {
	m := quad()
	// Face 1 gets its own copies of the diagonal with shifted UVs.
	m.Vertices = append(m.Vertices, vert(0, 0, 2, 0), vert(1, 1, 3, 1))
	m.Faces[1] = [3]int{4, 5, 3}

	g, rep, err := Build(m, Options{AttribEpsilon: 1e-6})
	if err != nil {
		t.Fatal(err)
	}
	if g.Neighbors[0][2] != 1 {
		t.Fatalf("expected welded diagonal to stay shared, got %v", g.Neighbors[0])
	}
	for _, c := range []basemesh.Continuity{g.Continuity[0][2], g.Continuity[1][0]} {
		if c != basemesh.DiscontinuousTexCoord {
			t.Fatalf("expected uv seam on both sides, got %v", c)
		}
	}
	if rep.Seams != 1 {
		t.Fatalf("expected 1 seam, got %d", rep.Seams)
	}
}

func TestBuildMaterialSeam(t *testing.T) {
	m := quad()
	m.Materials = []int{0, 3}
	g, _, err := Build(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	c := g.Continuity[0][2]
	if c != basemesh.DiscontinuousMaterial || c.Blocks() {
		t.Fatalf("expected a non-blocking material seam, got %v", c)
	}
}

func TestBuildWeldsNearbyPositions(t *testing.T) {
	m := quad()
	m.Vertices = append(m.Vertices, vert(1+1e-9, 1, 1, 1))
	m.Faces[1] = [3]int{0, 4, 3}

	g, _, err := Build(m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Neighbors[0][2] != basemesh.NoNeighbor {
		t.Fatal("expected exact welding to keep the gap open")
	}

	g, _, err = Build(m, Options{Weld: 1e-6, AttribEpsilon: 1e-6})
	if err != nil {
		t.Fatal(err)
	}
	if g.Neighbors[0][2] != 1 {
		t.Fatalf("expected grid welding to close the gap, got %v", g.Neighbors[0])
	}
	if g.Continuity[0][2] != basemesh.DiscontinuousPosition {
		t.Fatalf("expected a position seam, got %v", g.Continuity[0][2])
	}
}

func TestBuildLeavesAmbiguousEdgesOpen(t *testing.T) {
	m := quad()
	m.Vertices = append(m.Vertices, vert(0.5, 0.5, 0, 0))
	// A fin on the diagonal makes it non-manifold.
	fin := &basemesh.Mesh{Vertices: m.Vertices, Faces: append(m.Faces, [3]int{2, 0, 4})}
	g, rep, err := Build(fin, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Neighbors[0][2] != basemesh.NoNeighbor || g.Neighbors[1][0] != basemesh.NoNeighbor {
		t.Fatalf("expected non-manifold diagonal to stay open, got %v %v", g.Neighbors[0], g.Neighbors[1])
	}
	if rep.NonManifold != 3 {
		t.Fatalf("expected three non-manifold half edges, got %d", rep.NonManifold)
	}
	if err := g.Validate(fin); err != nil {
		t.Fatal(err)
	}

	// Face 1 flipped: both faces run the diagonal from 0 to 2.
	flipped := quad()
	flipped.Faces[1] = [3]int{0, 3, 2}
	g, rep, err = Build(flipped, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Neighbors[0][2] != basemesh.NoNeighbor {
		t.Fatalf("expected flipped neighbour to stay open, got %v", g.Neighbors[0])
	}
	if rep.Flipped != 2 || rep.Boundary != 4 {
		t.Fatalf("unexpected report: %v", rep)
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	m := quad()
	m.Faces = append(m.Faces, [3]int{0, 1, 9})
	if _, _, err := Build(m, Options{}); err == nil {
		t.Fatal("expected an out-of-range vertex to fail")
	}

	m = quad()
	m.Materials = []int{1}
	if _, _, err := Build(m, Options{}); err == nil {
		t.Fatal("expected a short material list to fail")
	}
}
