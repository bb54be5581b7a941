package subdiv

import (
	"fmt"

	"lodmesh/internal/pool"
	"lodmesh/internal/scheme"
	"lodmesh/internal/tqt"
)

// InfiniteLoop bounds the chain of forced subdivisions one split may set off.
const InfiniteLoop = 64

// neighborhood gathers the butterfly context of t's edge d. across is the
// neighbour on that edge.
func (m *Manager) neighborhood(t *Triangle, d tqt.Direction, across neighbor) scheme.Neighborhood {
	start, end := edgeEnds(t.orient, d)
	n := scheme.Neighborhood{
		P1:   m.vertex(t, start),
		P2:   m.vertex(t, end),
		Q1:   m.vertex(t, d),
		Seam: across.seam,
	}
	n.R[0] = m.wing(t, end)
	n.R[1] = m.wing(t, start)

	if nb := across.node; nb != nil && nb.Depth() == t.Depth() && !across.seam.Blocks() {
		ns, ne := edgeEnds(nb.orient, across.edge)
		n.Q2 = m.vertex(nb, across.edge)
		n.R[2] = m.wing(nb, ns)
		n.R[3] = m.wing(nb, ne)
		return n
	}

	n.S[0] = m.support(t, start, end, across)
	n.S[1] = m.support(t, end, start, across)
	return n
}

// subdivide splits leaf t into four children, forcing coarser neighbours to
// split first. guard counts how deep in a forced chain this call sits. On
// failure t is left a leaf.
func (m *Manager) subdivide(t *Triangle, guard int) error {
	if !t.IsLeaf() || t.Depth() >= m.props.maxComputeDepth || t.Depth() >= tqt.MaxDepth {
		return nil
	}
	if guard > InfiniteLoop {
		return fmt.Errorf("%w: base %d %v", ErrInfiniteLoop, t.base, t.addr)
	}

	for _, d := range tqt.Directions {
		if _, err := m.subdivNeighbor(t, d, guard); err != nil {
			return err
		}
	}
	var across [3]neighbor
	for _, d := range tqt.Directions {
		across[d] = m.neighbor(t, d)
	}

	var mids [3]pool.Handle
	releaseMids := func() {
		for _, h := range mids {
			m.verts.Deallocate(h)
		}
	}
	for _, d := range tqt.Directions {
		nb := across[d]
		if nb.node != nil && nb.node.Depth() == t.Depth() && !nb.node.IsLeaf() && !nb.seam.Blocks() {
			h := nb.node.mid[nb.edge]
			if m.verts.IncRef(h) {
				mids[d] = h
				m.stats.Shared++
				continue
			}
		}

		hood := m.neighborhood(t, d, nb)
		v, layout := m.scheme.Evaluate(&hood)
		h, pv, err := m.verts.Allocate()
		if err != nil {
			releaseMids()
			return fmt.Errorf("subdiv: midpoint of base %d %v: %w", t.base, t.addr, err)
		}
		pv.Vertex = v
		mids[d] = h
		m.stats.Layouts[layout]++
	}

	var kids [4]pool.Handle
	for _, l := range tqt.Labels {
		h, c, err := m.tris.Allocate()
		if err != nil {
			for _, k := range kids {
				m.tris.Deallocate(k)
			}
			releaseMids()
			return fmt.Errorf("subdiv: children of base %d %v: %w", t.base, t.addr, err)
		}
		kids[l] = h

		o := t.orient
		if l == tqt.LabelCenter {
			o = o.flip()
		}
		c.reset(h, t.base, t.addr.Child(l), o)
		c.parent = t.self
		if corner, ok := l.Corner(); ok {
			c.verts[corner] = t.verts[corner]
			for _, j := range tqt.Directions {
				if j != corner {
					c.verts[j] = mids[tqt.Third(corner, j)]
				}
			}
		} else {
			for _, j := range tqt.Directions {
				c.verts[j] = mids[j.Opposite()]
			}
		}
	}

	t.children = kids
	t.mid = mids
	t.action = Sustain
	m.stats.Subdivided++
	m.dirty = true
	return nil
}
