package subdiv

import (
	"testing"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
)

func vert(x, y float64) basemesh.Vertex {
	return basemesh.Vertex{
		Position: mathutil.Vec3{x, y, 0},
		Normal:   mathutil.Vec3{0, 0, 1},
		TexCoord: mathutil.Vec2{x, y},
	}
}

// single is one counter-clockwise triangle with no neighbours.
func single() (*basemesh.Mesh, *basemesh.Graph) {
	mesh := &basemesh.Mesh{
		Vertices: []basemesh.Vertex{vert(0, 0), vert(4, 0), vert(2, 3)},
		Faces:    [][3]int{{0, 1, 2}},
	}
	graph := &basemesh.Graph{Neighbors: [][3]int{{-1, -1, -1}}}
	return mesh, graph
}

// quad is the unit square split along the diagonal (0,0)-(1,1). Face 0 is
// the lower-right triangle; its edge 2 is face 1's edge 0.
func quad() (*basemesh.Mesh, *basemesh.Graph) {
	mesh := &basemesh.Mesh{
		Vertices: []basemesh.Vertex{vert(0, 0), vert(1, 0), vert(1, 1), vert(0, 1)},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
	graph := &basemesh.Graph{Neighbors: [][3]int{{-1, -1, 1}, {0, -1, -1}}}
	return mesh, graph
}

func newManager(t *testing.T, opts Options, mesh *basemesh.Mesh, graph *basemesh.Graph, setup func(*Manager)) *Manager {
	t.Helper()
	m := NewManager(opts)
	if setup != nil {
		setup(m)
	}
	if err := m.InitMesh(mesh, graph); err != nil {
		t.Fatalf("InitMesh: %v", err)
	}
	return m
}

func uniform(depth int) func(*Manager) {
	return func(m *Manager) {
		m.SetAdaptive(false)
		m.SetMaxComputeDepth(depth)
	}
}

func update(t *testing.T, m *Manager) (*OutputMesh, bool) {
	t.Helper()
	out, changed, err := m.UpdateMesh()
	if err != nil {
		t.Fatalf("UpdateMesh: %v", err)
	}
	return out, changed
}

func root(m *Manager, base int) *Triangle {
	return m.tris.Get(m.bases[base].root)
}

// assertCounterClockwise checks that every face of a mesh lying in the z=0
// plane has positive area.
func assertCounterClockwise(t *testing.T, out *OutputMesh) {
	t.Helper()
	for i, f := range out.Faces {
		a, b, c := out.Vertices[f[0]].Position, out.Vertices[f[1]].Position, out.Vertices[f[2]].Position
		area := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
		if area <= 0 {
			t.Fatalf("face %d %v winds clockwise or is degenerate (area %v)", i, f, area)
		}
	}
}

// assertCovers checks that the faces tile the given area exactly.
func assertCovers(t *testing.T, out *OutputMesh, want float64) {
	t.Helper()
	total := 0.0
	for _, f := range out.Faces {
		a, b, c := out.Vertices[f[0]].Position, out.Vertices[f[1]].Position, out.Vertices[f[2]].Position
		total += float64((b[0]-a[0])*(c[1]-a[1])-(b[1]-a[1])*(c[0]-a[0])) / 2
	}
	if d := total - want; d > 1e-4 || d < -1e-4 {
		t.Fatalf("expected faces to cover area %v, got %v", want, total)
	}
}

// assertWatertight checks that every directed edge is used once and that
// all but boundary of them are matched by the reverse edge of another face.
func assertWatertight(t *testing.T, out *OutputMesh, boundary int) {
	t.Helper()
	edges := make(map[[2]uint32]bool)
	for i, f := range out.Faces {
		for k := 0; k < 3; k++ {
			e := [2]uint32{f[k], f[(k+1)%3]}
			if edges[e] {
				t.Fatalf("face %d repeats directed edge %v", i, e)
			}
			edges[e] = true
		}
	}
	open := 0
	for e := range edges {
		if !edges[[2]uint32{e[1], e[0]}] {
			open++
		}
	}
	if open != boundary {
		t.Fatalf("expected %d boundary edges, got %d", boundary, open)
	}
}

// scripted returns a metric that asks fn for every leaf.
func scripted(fn func(base, depth int) Action) Metric {
	return MetricFunc(func(v *TriangleView) Action {
		return fn(v.BaseIndex(), v.Depth())
	})
}
