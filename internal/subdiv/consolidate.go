package subdiv

import (
	"lodmesh/internal/pool"
	"lodmesh/internal/tqt"
)

// walk visits the tree under root in pre-order. fn reports whether to
// descend into the node's children.
func (m *Manager) walk(root *Triangle, fn func(*Triangle) (bool, error)) error {
	stack := []*Triangle{root}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		descend, err := fn(t)
		if err != nil {
			return err
		}
		if !descend || t.IsLeaf() {
			continue
		}
		for i := len(t.children) - 1; i >= 0; i-- {
			stack = append(stack, m.tris.Get(t.children[i]))
		}
	}
	return nil
}

// eachLeaf calls fn for every node that is a leaf or sits at limit.
func (m *Manager) eachLeaf(limit int, fn func(*Triangle) error) error {
	for i := range m.bases {
		err := m.walk(m.tris.Get(m.bases[i].root), func(t *Triangle) (bool, error) {
			if t.IsLeaf() || t.Depth() >= limit {
				return false, fn(t)
			}
			return true, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// collapse releases t's four leaf children and its midpoint references.
func (m *Manager) collapse(t *Triangle) {
	for i, h := range t.children {
		m.tris.Deallocate(h)
		t.children[i] = pool.Handle{}
	}
	for i, h := range t.mid {
		m.verts.Deallocate(h)
		t.mid[i] = pool.Handle{}
	}
	t.action = Sustain
	t.errTerm = -1
	m.dirty = true
}

// releaseSubtree collapses everything below t, deepest first, and returns
// the number of nodes collapsed.
func (m *Manager) releaseSubtree(t *Triangle) int {
	type frame struct {
		node     *Triangle
		expanded bool
	}
	n := 0
	stack := []frame{{node: t}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		if f.node.IsLeaf() {
			stack = stack[:top]
			continue
		}
		if !f.expanded {
			stack[top].expanded = true
			for _, h := range f.node.children {
				if c := m.tris.Get(h); c != nil && !c.IsLeaf() {
					stack = append(stack, frame{node: c})
				}
			}
			continue
		}
		stack = stack[:top]
		m.collapse(f.node)
		n++
	}
	return n
}

// neighborsAllow reports whether collapsing t keeps every neighbour within
// one level: the neighbour's children along the shared edge must be leaves.
func (m *Manager) neighborsAllow(t *Triangle) bool {
	for _, d := range tqt.Directions {
		nb := m.neighbor(t, d)
		if nb.node == nil || nb.node.Depth() < t.Depth() || nb.node.IsLeaf() {
			continue
		}
		for _, l := range tqt.Labels {
			if !l.Touches(nb.edge) {
				continue
			}
			if c := m.tris.Get(nb.node.children[l]); c != nil && !c.IsLeaf() {
				return false
			}
		}
	}
	return true
}

// canConsolidate reports whether all four children are leaves the metric
// asked to merge and the merge keeps the tree restricted.
func (m *Manager) canConsolidate(t *Triangle) bool {
	if t.IsLeaf() {
		return false
	}
	for _, h := range t.children {
		c := m.tris.Get(h)
		if c == nil || !c.IsLeaf() || c.action != Consolidate {
			return false
		}
	}
	return m.neighborsAllow(t)
}

// consolidatePass merges every family of leaves that asked for it. A node
// merged in this pass is a Sustain leaf, so merges climb one level per pass.
func (m *Manager) consolidatePass() int {
	n := 0
	for i := range m.bases {
		_ = m.walk(m.tris.Get(m.bases[i].root), func(t *Triangle) (bool, error) {
			if m.canConsolidate(t) {
				m.collapse(t)
				n++
				return false, nil
			}
			return true, nil
		})
	}
	m.stats.Consolidated += n
	return n
}

// consolidateLevel collapses every subtree below level.
func (m *Manager) consolidateLevel(level int) int {
	n := 0
	for i := range m.bases {
		_ = m.walk(m.tris.Get(m.bases[i].root), func(t *Triangle) (bool, error) {
			if t.Depth() < level {
				return true, nil
			}
			n += m.releaseSubtree(t)
			return false, nil
		})
	}
	if n > 0 {
		subdivLogger.Printf("collapsed %d nodes below level %d", n, level)
	}
	m.stats.Consolidated += n
	return n
}
