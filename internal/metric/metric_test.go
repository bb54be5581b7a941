package metric

import (
	"testing"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
	"lodmesh/internal/subdiv"
)

func vert(x, y float64) basemesh.Vertex {
	return basemesh.Vertex{
		Position: mathutil.Vec3{x, y, 0},
		Normal:   mathutil.Vec3{0, 0, 1},
		TexCoord: mathutil.Vec2{x, y},
	}
}

func load(t *testing.T, mt subdiv.Metric, maxDepth int, mesh *basemesh.Mesh, graph *basemesh.Graph) *subdiv.Manager {
	t.Helper()
	m := subdiv.NewManager(subdiv.DefaultOptions())
	if err := m.SetMetric(mt); err != nil {
		t.Fatal(err)
	}
	if err := m.SetMaxComputeDepth(maxDepth); err != nil {
		t.Fatal(err)
	}
	if err := m.InitMesh(mesh, graph); err != nil {
		t.Fatal(err)
	}
	return m
}

func settle(t *testing.T, m *subdiv.Manager) *subdiv.OutputMesh {
	t.Helper()
	for i := 0; i < 10; i++ {
		if _, _, err := m.UpdateMesh(); err != nil {
			t.Fatal(err)
		}
	}
	return m.Output()
}

func single() (*basemesh.Mesh, *basemesh.Graph) {
	return &basemesh.Mesh{
			Vertices: []basemesh.Vertex{vert(0, 0), vert(4, 0), vert(2, 3)},
			Faces:    [][3]int{{0, 1, 2}},
		},
		&basemesh.Graph{Neighbors: [][3]int{{-1, -1, -1}}}
}

func TestDepthTarget(t *testing.T) {
	d := &Depth{Target: 2}
	mesh, graph := single()
	m := load(t, d, 4, mesh, graph)

	if got := len(settle(t, m).Faces); got != 16 {
		t.Fatalf("expected 16 faces at depth 2, got %d", got)
	}

	d.Target = 1
	out, changed, err := m.UpdateMesh()
	if err != nil {
		t.Fatal(err)
	}
	if !changed || len(out.Faces) != 4 {
		t.Fatalf("expected one pass to step back to 4 faces, got %d (changed=%v)", len(out.Faces), changed)
	}
}

func TestDepthIsClampedByManager(t *testing.T) {
	mesh, graph := single()
	m := load(t, Depth{Target: 9}, 2, mesh, graph)
	if got := m.CurrentDepth(); got != 0 {
		t.Fatalf("expected depth 0 before the first pass, got %d", got)
	}
	settle(t, m)
	if got := m.CurrentDepth(); got != 2 {
		t.Fatalf("expected depth clamped at 2, got %d", got)
	}
}

func TestScriptPerBase(t *testing.T) {
	mesh := &basemesh.Mesh{
		Vertices: []basemesh.Vertex{vert(0, 0), vert(1, 0), vert(1, 1), vert(0, 1)},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
	graph := &basemesh.Graph{Neighbors: [][3]int{{-1, -1, 1}, {0, -1, -1}}}
	m := load(t, Script{0: 2}, 4, mesh, graph)

	out := settle(t, m)
	// 16 leaves on the scripted side, 4 forced leaves on the other, plus
	// two fill triangles in each forced leaf along the diagonal.
	if got := len(out.Faces); got != 22 {
		t.Fatalf("expected 22 faces, got %d", got)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestEdgeLengthFollowsEye(t *testing.T) {
	e := &EdgeLength{Eye: mathutil.Vec3{2, 1, 10}, FocalPixels: 100, Near: 1e-3}
	mesh, graph := single()
	m := load(t, e, 3, mesh, graph)

	if got := len(settle(t, m).Faces); got != 64 {
		t.Fatalf("expected full refinement to depth 3 near the surface, got %d faces", got)
	}

	e.Eye = mathutil.Vec3{2, 1, 1e6}
	if got := len(settle(t, m).Faces); got != 1 {
		t.Fatalf("expected the far eye to collapse back to the base face, got %d faces", got)
	}
}

func TestEdgeLengthProjection(t *testing.T) {
	e := &EdgeLength{FocalPixels: 1, Near: 1}
	for _, tc := range []struct {
		l, dist float64
		want    float64
	}{
		{l: 2, dist: 4, want: 0.5},
		{l: 2, dist: 0.5, want: 2}, // clamped to Near
	} {
		if got := e.Projected(tc.l, tc.dist); got != tc.want {
			t.Fatalf("Projected(%v, %v): expected %v, got %v", tc.l, tc.dist, tc.want, got)
		}
	}

	n := NewEdgeLength(mathutil.Vec3{}, 600, 90)
	if d := n.FocalPixels - 300; d > 1e-9 || d < -1e-9 {
		t.Fatalf("expected 300 focal pixels for 600px at 90 degrees, got %v", n.FocalPixels)
	}
}
