package subdiv

import (
	"fmt"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/tqt"
)

// fanGuard bounds the walk around a vertex when looking for boundary
// supports. Valences above it are treated as corners.
const fanGuard = 64

// neighbor is the result of a neighbour lookup.
type neighbor struct {
	node *Triangle
	edge tqt.Direction // node's name for the shared edge
	loc  Locality
	seam basemesh.Continuity // set only when the edge lies on a base edge
}

// locate descends from a base root along addr as far as the tree goes.
func (m *Manager) locate(base int, addr tqt.Address) *Triangle {
	t := m.tris.Get(m.bases[base].root)
	for level := 1; level <= addr.Len() && !t.IsLeaf(); level++ {
		t = m.tris.Get(t.children[addr.Label(level)])
	}
	return t
}

// neighbor returns the deepest node, no deeper than t, across edge d.
func (m *Manager) neighbor(t *Triangle, d tqt.Direction) neighbor {
	addr, faulted := t.addr.LocalNeighbor(d)
	if !faulted {
		return neighbor{node: m.locate(int(t.base), addr), edge: d.Opposite(), loc: Local}
	}
	b := &m.bases[t.base]
	nb, edge, ok := b.Neighbor(d)
	if !ok {
		return neighbor{loc: Undefined, seam: b.continuity[d]}
	}
	return neighbor{
		node: m.locate(nb, t.addr.DistalNeighbor(d, edge)),
		edge: edge,
		loc:  Distal,
		seam: b.continuity[d],
	}
}

// subdivNeighbor returns the same-depth neighbour across d, forcing a
// shallower one to split first.
func (m *Manager) subdivNeighbor(t *Triangle, d tqt.Direction, guard int) (neighbor, error) {
	nb := m.neighbor(t, d)
	if nb.node == nil || nb.node.Depth() >= t.Depth() {
		return nb, nil
	}
	if nb.node.Depth() < t.Depth()-1 {
		return nb, fmt.Errorf("%w: %v at depth %d, neighbour at %d",
			ErrDepthInvariant, t.addr, t.Depth(), nb.node.Depth())
	}

	subdivLogger.Printf("forcing base %d %v to split for %v", nb.node.base, nb.node.addr, t.addr)
	m.stats.Forced++
	if err := m.subdivide(nb.node, guard+1); err != nil {
		return nb, err
	}
	nb = m.neighbor(t, d)
	if nb.node.Depth() != t.Depth() {
		return nb, fmt.Errorf("%w: %v across %v", ErrInfiniteLoop, t.addr, d)
	}
	return nb, nil
}

func (m *Manager) vertex(t *Triangle, corner tqt.Direction) *basemesh.Vertex {
	if v := m.verts.Get(t.verts[corner]); v != nil {
		return &v.Vertex
	}
	return nil
}

// wing returns the corner of the same-depth triangle across x's edge f, or
// nil if there is none.
func (m *Manager) wing(x *Triangle, f tqt.Direction) *basemesh.Vertex {
	nb := m.neighbor(x, f)
	if nb.node == nil || nb.node.Depth() != x.Depth() || nb.seam.Blocks() {
		return nil
	}
	return m.vertex(nb.node, nb.edge)
}

// support walks the fan around corner c of t, starting across edge e, to the
// next boundary edge and returns that edge's far end. It returns nil at a
// corner, when the walk meets a coarser triangle, or when it closes back on
// the edge being split from the far side of a seam.
func (m *Manager) support(t *Triangle, c, e tqt.Direction, closing neighbor) *basemesh.Vertex {
	cur := t
	for i := 0; i < fanGuard; i++ {
		nb := m.neighbor(cur, e)
		if nb.node == nil || nb.seam.Blocks() {
			if i == 0 {
				return nil
			}
			if cur == closing.node && e == closing.edge {
				return nil
			}
			return m.vertex(cur, tqt.Third(c, e))
		}
		if nb.node.Depth() != cur.Depth() {
			return nil
		}

		// The shared edge runs the other way round in the neighbour.
		s, _ := edgeEnds(cur.orient, e)
		ns, ne := edgeEnds(nb.node.orient, nb.edge)
		nc := ns
		if c == s {
			nc = ne
		}
		cur, c, e = nb.node, nc, tqt.Third(nc, nb.edge)
	}
	return nil
}
