package subdiv

import (
	"lodmesh/internal/basemesh"
	"lodmesh/internal/pool"
	"lodmesh/internal/tqt"
)

// OutputVertex is one render vertex.
type OutputVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// OutputMesh is the flat mesh produced by a pass. Faces wind
// counter-clockwise. It is owned by the Manager and overwritten by the next
// pass that changes it.
type OutputMesh struct {
	Vertices []OutputVertex
	Faces    [][3]uint32
	// FaceDepth and FaceSource give, per face, the tree depth and the input
	// face it was refined from.
	FaceDepth  []uint8
	FaceSource []int32
}

func (o *OutputMesh) reset() {
	o.Vertices = o.Vertices[:0]
	o.Faces = o.Faces[:0]
	o.FaceDepth = o.FaceDepth[:0]
	o.FaceSource = o.FaceSource[:0]
}

// renderRef is either a pooled vertex or a temporary one built for a seam.
type renderRef struct {
	handle pool.Handle
	temp   *basemesh.Vertex
}

// gatherer fills an OutputMesh up to the current capacity and keeps
// counting past it, so one failed attempt tells how much room is needed.
type gatherer struct {
	m        *Manager
	out      *OutputMesh
	maxVerts int
	maxFaces int
	verts    int
	faces    int
}

func (g *gatherer) overflowed() bool {
	return g.verts > g.maxVerts || g.faces > g.maxFaces
}

func toOutput(v *basemesh.Vertex) OutputVertex {
	return OutputVertex{
		Position: v.Position.Float32(),
		Normal:   v.Normal.Float32(),
		TexCoord: v.TexCoord.Float32(),
	}
}

func (g *gatherer) vertex(r renderRef) uint32 {
	if r.temp != nil {
		return g.push(r.temp)
	}
	v := g.m.verts.Get(r.handle)
	if v.renderPass == g.m.renderPass {
		return v.renderIndex
	}
	v.renderPass = g.m.renderPass
	v.renderIndex = g.push(&v.Vertex)
	return v.renderIndex
}

func (g *gatherer) push(v *basemesh.Vertex) uint32 {
	i := uint32(g.verts)
	g.verts++
	if g.verts <= g.maxVerts {
		g.out.Vertices = append(g.out.Vertices, toOutput(v))
	}
	return i
}

func (g *gatherer) face(a, b, c uint32, t *Triangle) {
	g.faces++
	if g.faces > g.maxFaces || g.verts > g.maxVerts {
		return
	}
	g.out.Faces = append(g.out.Faces, [3]uint32{a, b, c})
	g.out.FaceDepth = append(g.out.FaceDepth, uint8(t.Depth()))
	g.out.FaceSource = append(g.out.FaceSource, int32(g.m.bases[t.base].meshIndex))
}

// leaf emits t, or its crack-fill triangles when a finer neighbour split
// one of its edges.
func (g *gatherer) leaf(t *Triangle) {
	if g.m.props.crackFilling && t.crack.pass == g.m.crackPass && t.crack.sides != 0 {
		refs, mid := g.m.crackPolygon(t)
		idx := make([]uint32, len(refs))
		for i, r := range refs {
			idx[i] = g.vertex(r)
		}
		for _, tri := range fillPattern(mid) {
			g.face(idx[tri[0]], idx[tri[1]], idx[tri[2]], t)
			g.m.stats.CrackTriangles++
		}
		return
	}

	var idx [3]uint32
	for i, corner := range ring(t.orient) {
		idx[i] = g.vertex(renderRef{handle: t.verts[corner]})
	}
	g.face(idx[0], idx[1], idx[2], t)
}

// gatherRenderData writes every effective leaf into the output mesh. It
// reports the room needed when the current capacity is too small.
func (m *Manager) gatherRenderData() (needVerts, needFaces int, ok bool) {
	m.renderPass++
	if m.renderPass == 0 {
		// Stamps wrapped; clear them so stale indices cannot match.
		m.verts.Each(func(_ pool.Handle, v *Vertex) bool {
			v.renderPass = 0
			return true
		})
		m.renderPass = 1
	}
	m.out.reset()
	m.stats.CrackTriangles = 0
	g := &gatherer{m: m, out: &m.out, maxVerts: m.outVertCap, maxFaces: m.outFaceCap}

	depth := 0
	_ = m.eachLeaf(m.renderLimit(), func(t *Triangle) error {
		depth = max(depth, t.Depth())
		g.leaf(t)
		return nil
	})
	m.depth = depth

	m.stats.Vertices, m.stats.Faces = g.verts, g.faces
	if g.overflowed() {
		m.out.reset()
		return g.verts, g.faces, false
	}
	return g.verts, g.faces, true
}

// renderLimit is the deepest level emitted.
func (m *Manager) renderLimit() int {
	return min(m.props.maxRenderDepth, tqt.MaxDepth)
}
