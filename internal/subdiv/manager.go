// Package subdiv is the adaptive level-of-detail engine. A Manager owns one
// quadtree per base-mesh face and, once per UpdateMesh call, evaluates the
// metric on the leaves, splits or merges them, stitches the seams between
// leaves of different depth and writes the result into a flat output mesh.
//
// Adjacent leaves never differ by more than one level. A Manager is not safe
// for concurrent use.
package subdiv

import (
	"errors"
	"fmt"
	"math"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/pool"
	"lodmesh/internal/scheme"
	"lodmesh/internal/tqt"
)

// maxGatherRetries bounds how often crack fill and gather are rerun after
// the output buffers grow.
const maxGatherRetries = 3

// Manager drives refinement of one base mesh.
type Manager struct {
	opts   Options
	props  properties
	metric Metric
	scheme scheme.Scheme

	tris  *pool.Pool[Triangle]
	verts *pool.Pool[Vertex]

	bases     []BaseTriangle
	baseVerts []pool.Handle

	out        OutputMesh
	outVertCap int
	outFaceCap int
	outValid   bool

	// dirty is set by any change that invalidates the output mesh.
	dirty bool
	busy  bool

	depth        int // deepest emitted leaf
	uniformDepth int
	cursor       int // base the rate-limited evaluation resumes at
	crackPass    uint32
	renderPass   uint32

	view  TriangleView
	stats PassStats
}

// NewManager returns a manager with default properties and no mesh.
func NewManager(opts Options) *Manager {
	m := &Manager{
		opts:  opts.withDefaults(),
		props: defaultProperties(),
	}
	m.scheme = scheme.New(m.props.tension)
	m.view.m = m
	return m
}

// InitMesh builds one base triangle per face of mesh and links them with
// graph. Any previous mesh is dropped.
func (m *Manager) InitMesh(mesh *basemesh.Mesh, graph *basemesh.Graph) error {
	if m.busy {
		return ErrReentrant
	}
	if mesh == nil || graph == nil || len(mesh.Faces) == 0 {
		return ErrNilMesh
	}
	if len(mesh.Faces) > MaxBaseTriangles {
		return fmt.Errorf("%w: %d faces, limit %d", ErrUnsupported, len(mesh.Faces), MaxBaseTriangles)
	}
	if err := graph.Validate(mesh); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	faces, nverts := len(mesh.Faces), len(mesh.Vertices)
	initTris, initVerts := m.initialPoolSizes(faces, nverts)
	m.tris = pool.New[Triangle](faces+initTris, m.opts.TriangleGrowBy, faces+m.opts.TriangleCap)
	m.verts = pool.New[Vertex](nverts+initVerts, m.opts.VertexGrowBy, nverts+m.opts.VertexCap)

	m.baseVerts = make([]pool.Handle, nverts)
	for i, v := range mesh.Vertices {
		h, pv, err := m.verts.Allocate()
		if err != nil {
			return fmt.Errorf("subdiv: base vertex %d: %w", i, err)
		}
		pv.Vertex = v
		m.baseVerts[i] = h
	}

	m.bases = make([]BaseTriangle, faces)
	for f, face := range mesh.Faces {
		h, t, err := m.tris.Allocate()
		if err != nil {
			return fmt.Errorf("subdiv: base triangle %d: %w", f, err)
		}
		t.reset(h, int32(f), tqt.Address{}, Up)
		t.verts[tqt.Right] = m.baseVerts[face[0]]
		t.verts[tqt.Left] = m.baseVerts[face[1]]
		t.verts[tqt.Base] = m.baseVerts[face[2]]

		b := &m.bases[f]
		b.root = h
		b.meshIndex = f
		if f < len(mesh.Materials) {
			b.material = mesh.Materials[f]
		}
		for e := 0; e < 3; e++ {
			d := graphEdgeDir[e]
			b.neighbors[d] = -1
			b.continuity[d] = graph.EdgeContinuity(f, e)
			nb := graph.Neighbors[f][e]
			if nb == basemesh.NoNeighbor || nb == f {
				continue
			}
			back, ok := graph.SharedEdge(f, e)
			if !ok {
				continue
			}
			b.neighbors[d] = int32(nb)
			b.neighborEdge[d] = graphEdgeDir[back]
			// Flags are symmetric even if the graph lists them on one side.
			b.continuity[d] |= graph.EdgeContinuity(nb, back)
		}
	}

	m.outFaceCap = max(m.opts.OutputGrowBy, 4*faces)
	m.outVertCap = 3 * m.outFaceCap
	m.out = OutputMesh{}
	m.outValid = false
	m.dirty = true
	m.depth, m.uniformDepth, m.cursor = 0, 0, 0
	m.stats = PassStats{}

	subdivLogger.Printf("init: %d faces, %d vertices, pools %d/%d triangles, %d/%d vertices",
		faces, nverts, m.tris.Capacity(), m.tris.Limit(), m.verts.Capacity(), m.verts.Limit())
	return nil
}

// initialPoolSizes returns the starting pool sizes for computed units.
func (m *Manager) initialPoolSizes(faces, verts int) (int, int) {
	d := float64(min(m.props.maxComputeDepth, 12))
	leaves := float64(faces) * math.Pow(4, d)
	nodes := (4*leaves - float64(faces)) / 3
	midpoints := leaves/2 + float64(verts)

	t := int(nodes * m.opts.TrianglePercent / 100)
	v := int(midpoints * m.opts.VertexPercent / 100)
	return min(t, m.opts.TriangleCap), min(v, m.opts.VertexCap)
}

// UpdateMesh runs one pipeline pass and returns the output mesh. changed is
// false when nothing moved and the previous output still stands. A pool
// running out of room stops further splits for the pass; the mesh is still
// gathered and returned together with the error.
func (m *Manager) UpdateMesh() (*OutputMesh, bool, error) {
	if m.busy {
		return nil, false, ErrReentrant
	}
	if m.bases == nil {
		return nil, false, ErrNilMesh
	}
	if m.props.adaptive && m.metric == nil {
		return nil, false, ErrNilMetric
	}
	m.busy = true
	defer func() { m.busy = false }()

	changed, err := m.runPass()
	return &m.out, changed, err
}

// runPass is UpdateMesh without the guard; ResetAll drives it directly.
func (m *Manager) runPass() (bool, error) {
	m.stats = PassStats{}

	var structErr error
	if m.props.adaptive {
		m.evaluate()
		m.consolidatePass()
		structErr = m.subdividePass()
	} else {
		structErr = m.uniformStep()
	}
	if structErr != nil && !errors.Is(structErr, pool.ErrExhausted) {
		return false, structErr
	}

	if !m.dirty && m.outValid {
		return false, structErr
	}

	if err := m.crackAndGather(); err != nil {
		m.outValid = false
		return true, err
	}
	m.dirty = false
	m.outValid = true

	m.stats.Depth = m.depth
	m.stats.LiveTriangles = m.tris.Live()
	m.stats.LiveVertices = m.verts.Live()
	if m.opts.Hooks.OnPass != nil {
		m.opts.Hooks.OnPass(m.stats)
	}
	subdivLogger.Printf("pass: depth %d, %d faces, %d vertices, +%d/-%d nodes, %d forced, %d crack triangles",
		m.depth, m.stats.Faces, m.stats.Vertices, m.stats.Subdivided, m.stats.Consolidated,
		m.stats.Forced, m.stats.CrackTriangles)
	return true, structErr
}

// crackAndGather stitches cracks and fills the output mesh, growing the
// output buffers and retrying when they are too small.
func (m *Manager) crackAndGather() error {
	for attempt := 0; ; attempt++ {
		if m.props.crackFilling {
			if err := m.detectCracks(); err != nil {
				return err
			}
		}
		needVerts, needFaces, ok := m.gatherRenderData()
		if ok {
			return nil
		}
		if attempt >= maxGatherRetries || !m.growOutput(needVerts, needFaces) {
			return fmt.Errorf("%w: need %d faces, %d vertices, cap %d faces",
				ErrOutputOverflow, needFaces, needVerts, m.opts.OutputCap)
		}
		m.stats.Retries++
	}
}

// growOutput raises the output capacity in OutputGrowBy steps until it
// holds the given counts. It reports false if that would pass OutputCap.
func (m *Manager) growOutput(verts, faces int) bool {
	step := m.opts.OutputGrowBy
	for m.outFaceCap < faces || m.outVertCap < verts {
		if m.outFaceCap+step > m.opts.OutputCap {
			return false
		}
		m.outFaceCap += step
		m.outVertCap = 3 * m.outFaceCap
	}
	subdivLogger.Printf("output grown to %d faces", m.outFaceCap)
	return true
}

// evaluate runs the metric over leaves breadth first, spending at most
// EvalBudget calls and resuming where the last pass stopped.
func (m *Manager) evaluate() {
	budget := m.opts.EvalBudget
	n := len(m.bases)
	calls := 0
	for i := 0; i < n; i++ {
		bi := (m.cursor + i) % n
		b := &m.bases[bi]
		if b.head >= len(b.deque) {
			b.deque, b.head = append(b.deque[:0], b.root), 0
		}
		for b.head < len(b.deque) {
			if budget > 0 && calls >= budget {
				m.cursor = bi
				m.stats.Evaluated = calls
				return
			}
			t := m.tris.Get(b.deque[b.head])
			b.head++
			if t == nil {
				continue
			}
			if !t.IsLeaf() {
				b.deque = append(b.deque, t.children[:]...)
				continue
			}
			m.view.t = t
			a := m.metric.EvaluateTriangle(&m.view)
			if a == Subdivide && t.Depth() >= m.props.maxComputeDepth {
				a = Sustain
			}
			t.action = a
			calls++
		}
	}
	m.cursor = 0
	m.stats.Evaluated = calls
}

// subdividePass splits every leaf the metric marked.
func (m *Manager) subdividePass() error {
	var marked []*Triangle
	_ = m.eachLeaf(tqt.MaxDepth+1, func(t *Triangle) error {
		if t.action == Subdivide {
			marked = append(marked, t)
		}
		return nil
	})
	for _, t := range marked {
		if err := m.subdivide(t, 0); err != nil {
			return err
		}
	}
	return nil
}

// uniformStep moves every leaf one level towards MaxComputeDepth.
func (m *Manager) uniformStep() error {
	target := m.props.maxComputeDepth
	switch {
	case m.uniformDepth < target:
		next := m.uniformDepth + 1
		var level []*Triangle
		_ = m.eachLeaf(tqt.MaxDepth+1, func(t *Triangle) error {
			if t.Depth() < next {
				level = append(level, t)
			}
			return nil
		})
		for _, t := range level {
			if err := m.subdivide(t, 0); err != nil {
				return err
			}
		}
		m.uniformDepth = next
	case m.uniformDepth > target:
		m.uniformDepth--
		m.consolidateLevel(m.uniformDepth)
	}
	return nil
}

// ConsolidateLevel collapses every subtree below level and returns the
// number of nodes released.
func (m *Manager) ConsolidateLevel(level int) (int, error) {
	if m.busy {
		return 0, ErrReentrant
	}
	if m.bases == nil {
		return 0, ErrNilMesh
	}
	level = max(level, 0)
	n := m.consolidateLevel(level)
	m.uniformDepth = min(m.uniformDepth, level)
	return n, nil
}

// ResetAll releases every computed triangle and vertex and drives passes
// until the mesh is refined again to the current settings. In adaptive mode
// without a metric it only releases.
func (m *Manager) ResetAll() error {
	if m.busy {
		return ErrReentrant
	}
	if m.bases == nil {
		return ErrNilMesh
	}
	m.busy = true
	defer func() { m.busy = false }()

	m.consolidateLevel(0)
	for i := range m.bases {
		b := &m.bases[i]
		b.deque, b.head = b.deque[:0], 0
		if t := m.tris.Get(b.root); t != nil {
			t.action = Sustain
			t.errTerm = -1
		}
	}
	m.uniformDepth, m.cursor = 0, 0
	m.dirty, m.outValid = true, false

	if m.props.adaptive && m.metric == nil {
		return nil
	}
	for i := 0; i <= m.props.maxComputeDepth+1; i++ {
		changed, err := m.runPass()
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}
	return nil
}

// SetVertexData overwrites base vertices starting at first and rebuilds the
// refinement from them.
func (m *Manager) SetVertexData(first int, vs []basemesh.Vertex) error {
	if m.bases == nil {
		return ErrNilMesh
	}
	if first < 0 || first+len(vs) > len(m.baseVerts) {
		return fmt.Errorf("subdiv: vertex range [%d,%d) out of %d", first, first+len(vs), len(m.baseVerts))
	}
	for i, v := range vs {
		m.verts.Get(m.baseVerts[first+i]).Vertex = v
	}
	return m.ResetAll()
}

// Validate checks that no two neighbouring leaves differ by more than one
// level.
func (m *Manager) Validate() error {
	if m.bases == nil {
		return ErrNilMesh
	}
	return m.eachLeaf(tqt.MaxDepth+1, func(t *Triangle) error {
		for _, d := range tqt.Directions {
			nb := m.neighbor(t, d)
			if nb.node != nil && nb.node.Depth() < t.Depth()-1 {
				return fmt.Errorf("%w: base %d %v at depth %d beside depth %d across %v",
					ErrDepthInvariant, t.base, t.addr, t.Depth(), nb.node.Depth(), d)
			}
		}
		return nil
	})
}

// Output returns the mesh produced by the last pass.
func (m *Manager) Output() *OutputMesh { return &m.out }

// Stats returns the counters of the last pass.
func (m *Manager) Stats() PassStats { return m.stats }

// CurrentDepth returns the deepest leaf in the output (adaptive mode) or the
// level reached so far (uniform mode).
func (m *Manager) CurrentDepth() int {
	if m.props.adaptive {
		return m.depth
	}
	return m.uniformDepth
}

// BaseTriangles returns the number of base triangles.
func (m *Manager) BaseTriangles() int { return len(m.bases) }

// Base returns base triangle i.
func (m *Manager) Base(i int) *BaseTriangle { return &m.bases[i] }

// LiveTriangles and LiveVertices report pool occupancy, base units included.
func (m *Manager) LiveTriangles() int {
	if m.tris == nil {
		return 0
	}
	return m.tris.Live()
}

func (m *Manager) LiveVertices() int {
	if m.verts == nil {
		return 0
	}
	return m.verts.Live()
}
