package subdiv

import (
	"errors"
	"fmt"

	"lodmesh/internal/basemesh"
	"lodmesh/internal/mathutil"
	"lodmesh/internal/pool"
	"lodmesh/internal/tqt"
)

// maxCrackVisits is two finer neighbours on each of three sides.
const maxCrackVisits = 6

func (m *Manager) crackState(t *Triangle) *crackState {
	if t.crack.pass != m.crackPass {
		t.crack = crackState{pass: m.crackPass}
	}
	return &t.crack
}

// addCrackFillData records that a finer neighbour splits t's edge side at v.
// It reports whether this is the first crack recorded on t this pass.
func (m *Manager) addCrackFillData(t *Triangle, side tqt.Direction, v pool.Handle, c basemesh.Continuity) (bool, error) {
	cs := m.crackState(t)
	if cs.visits >= maxCrackVisits {
		return false, fmt.Errorf("%w: base %d %v visited more than %d times",
			ErrDepthInvariant, t.base, t.addr, maxCrackVisits)
	}
	first := cs.visits == 0
	cs.visits++
	if cs.cracked(side) {
		return first, nil
	}
	cs.sides |= 1 << side
	cs.n++
	cs.vert[side] = v
	cs.discontinuous[side] = c.Blocks()
	return first, nil
}

// detectCracks finds every effective leaf whose neighbour is one level finer
// and records the crack on it. Leaves cracked on all three sides are split,
// since every midpoint they need already exists.
func (m *Manager) detectCracks() error {
	m.crackPass++
	limit := m.renderLimit()

	var coarse []*Triangle
	err := m.eachLeaf(limit, func(f *Triangle) error {
		if f.Depth() == 0 {
			return nil
		}
		parent := m.tris.Get(f.parent)
		for _, d := range tqt.Directions {
			nb := m.neighbor(f, d)
			if nb.node == nil || nb.node.Depth() >= f.Depth() {
				continue
			}
			if nb.node.Depth() < f.Depth()-1 {
				return fmt.Errorf("%w: base %d %v at depth %d beside depth %d",
					ErrDepthInvariant, f.base, f.addr, f.Depth(), nb.node.Depth())
			}
			first, err := m.addCrackFillData(nb.node, nb.edge, parent.mid[d], nb.seam)
			if err != nil {
				return err
			}
			if first {
				coarse = append(coarse, nb.node)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, t := range coarse {
		cs := m.crackState(t)
		m.stats.CrackSides += int(cs.n)
		if cs.n < 3 {
			continue
		}
		if err := m.subdivide(t, 0); err != nil && !errors.Is(err, pool.ErrExhausted) {
			return err
		}
		if !t.IsLeaf() {
			m.stats.CrackSubdivided++
			m.stats.CrackSides -= 3
			cs.sides, cs.n = 0, 0
		}
	}
	return nil
}

// fillPattern triangulates a convex polygon given in counter-clockwise
// order, where mid marks the edge midpoints inserted between the corners.
// One midpoint gives 2 triangles, two give 3 and three give 4.
func fillPattern(mid []bool) [][3]int {
	n := len(mid)
	at := func(i int) int { return i % n }

	if n == 6 {
		// Cut the three corners, keep the center.
		var out [][3]int
		var mids [3]int
		k := 0
		for i := 0; i < n; i++ {
			if !mid[i] {
				out = append(out, [3]int{at(i + n - 1), i, at(i + 1)})
			} else {
				mids[k] = i
				k++
			}
		}
		return append(out, mids)
	}

	// Fan from the midpoint that precedes a corner followed by another
	// midpoint, or from the only midpoint.
	fan := -1
	for i := 0; i < n; i++ {
		if mid[i] && (n == 4 || mid[at(i+2)]) {
			fan = i
			break
		}
	}
	if fan < 0 {
		return nil
	}
	out := make([][3]int, 0, n-2)
	for k := 1; k < n-1; k++ {
		out = append(out, [3]int{fan, at(fan + k), at(fan + k + 1)})
	}
	return out
}

// crackPolygon lists t's corners and crack midpoints counter-clockwise.
// Midpoints on a seam become temporary vertices that keep the finer side's
// position but average t's own attributes along the edge.
func (m *Manager) crackPolygon(t *Triangle) (verts []renderRef, mid []bool) {
	cs := &t.crack
	r := ring(t.orient)
	for i, corner := range r {
		verts = append(verts, renderRef{handle: t.verts[corner]})
		mid = append(mid, false)

		edge := tqt.Third(corner, r[(i+1)%3])
		if !cs.cracked(edge) {
			continue
		}
		ref := renderRef{handle: cs.vert[edge]}
		if cs.discontinuous[edge] {
			start, end := edgeEnds(t.orient, edge)
			a, b := m.vertex(t, start), m.vertex(t, end)
			if v := m.verts.Get(cs.vert[edge]); v != nil && a != nil && b != nil {
				ref = renderRef{temp: &basemesh.Vertex{
					Position: v.Position,
					Normal:   mathutil.Mid(a.Normal, b.Normal),
					TexCoord: mathutil.Mid2(a.TexCoord, b.TexCoord),
				}}
			}
		}
		verts = append(verts, ref)
		mid = append(mid, true)
	}
	return verts, mid
}
