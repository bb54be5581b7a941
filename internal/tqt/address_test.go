package tqt

import (
	"fmt"
	"testing"
)

type point [2]int64

type lattice struct {
	v [3]point // indexed by Direction
}

type edgeKey [2]point

type edgeRef struct {
	addr Address
	dir  Direction
}

func midpoint(a, b point) point {
	return point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

func (t lattice) child(l Label) lattice {
	var c lattice
	if corner, ok := l.Corner(); ok {
		c.v[corner] = t.v[corner]
		for _, j := range Directions {
			if j != corner {
				c.v[j] = midpoint(t.v[corner], t.v[j])
			}
		}
		return c
	}
	for _, d := range Directions {
		a, b := d.Opposite().Others()
		c.v[d] = midpoint(t.v[a], t.v[b])
	}
	return c
}

func (t lattice) edge(d Direction) edgeKey {
	a, b := d.Others()
	p, q := t.v[a], t.v[b]
	if q[0] < p[0] || (q[0] == p[0] && q[1] < p[1]) {
		p, q = q, p
	}
	return edgeKey{p, q}
}

// enumerate returns every triangle at exactly the given depth.
func enumerate(root lattice, depth int) map[Address]lattice {
	level := map[Address]lattice{{}: root}
	for i := 0; i < depth; i++ {
		next := make(map[Address]lattice, len(level)*4)
		for a, t := range level {
			for _, l := range Labels {
				next[a.PushLabel(l)] = t.child(l)
			}
		}
		level = next
	}
	return level
}

func edgeIndex(tris map[Address]lattice) map[edgeKey][]edgeRef {
	idx := make(map[edgeKey][]edgeRef)
	for a, t := range tris {
		for _, d := range Directions {
			k := t.edge(d)
			idx[k] = append(idx[k], edgeRef{addr: a, dir: d})
		}
	}
	return idx
}

func unitRoot(depth int) lattice {
	s := int64(1) << (depth + 1)
	var t lattice
	t.v[Right] = point{0, 0}
	t.v[Left] = point{2 * s, 0}
	t.v[Base] = point{s, s}
	return t
}

func TestPushPopLabel(t *testing.T) {
	var a Address
	path := []Label{LabelLeft, LabelCenter, LabelRight, LabelBase}
	for _, l := range path {
		a = a.PushLabel(l)
	}
	if a.Len() != len(path) {
		t.Fatalf("expected length %d, got %d", len(path), a.Len())
	}
	for i, l := range path {
		if got := a.Label(i + 1); got != l {
			t.Fatalf("level %d: expected label %02b, got %02b", i+1, l, got)
		}
	}
	for i := len(path) - 1; i >= 0; i-- {
		var l Label
		a, l = a.PopLabel()
		if l != path[i] {
			t.Fatalf("pop %d: expected %02b, got %02b", i, path[i], l)
		}
	}
	if a != (Address{}) {
		t.Fatalf("expected root address after popping everything, got %v", a)
	}
}

func TestAddressString(t *testing.T) {
	a := Address{}.PushLabel(LabelLeft).PushLabel(LabelCenter)
	if got := a.String(); got != "11.10" {
		t.Fatalf("expected 11.10, got %s", got)
	}
	if got := (Address{}).String(); got != "root" {
		t.Fatalf("expected root, got %s", got)
	}
}

func TestLocalNeighborMatchesGeometry(t *testing.T) {
	for depth := 0; depth <= 5; depth++ {
		tris := enumerate(unitRoot(depth), depth)
		idx := edgeIndex(tris)

		for a, tri := range tris {
			for _, d := range Directions {
				var want *edgeRef
				for _, ref := range idx[tri.edge(d)] {
					if ref.addr != a {
						r := ref
						want = &r
					}
				}

				got, faulted := a.LocalNeighbor(d)
				if want == nil {
					if !faulted {
						t.Fatalf("depth %d %v %v: expected fault, got %v", depth, a, d, got)
					}
					continue
				}
				if faulted {
					t.Fatalf("depth %d %v %v: unexpected fault, want %v", depth, a, d, want.addr)
				}
				if got != want.addr {
					t.Fatalf("depth %d %v %v: expected %v, got %v", depth, a, d, want.addr, got)
				}
				if want.dir != d.Opposite() {
					t.Fatalf("depth %d %v %v: neighbour shares its %v edge, expected %v",
						depth, a, d, want.dir, d.Opposite())
				}
			}
		}
	}
}

func TestLocalNeighborRoundTrip(t *testing.T) {
	for depth := 1; depth <= 6; depth++ {
		for bits := uint64(0); bits < 1<<(2*depth); bits++ {
			a := MakeAddress(bits, depth)
			for _, d := range Directions {
				n, faulted := a.LocalNeighbor(d)
				if faulted {
					continue
				}
				back, faulted := n.LocalNeighbor(d.Opposite())
				if faulted {
					t.Fatalf("%v via %v: return trip faulted", a, d)
				}
				if back != a {
					t.Fatalf("%v via %v: expected round trip, got %v", a, d, back)
				}
			}
		}
	}
}

func TestLocalNeighborFaultsOnlyOnBoundary(t *testing.T) {
	boundary := map[Direction][2]Label{
		Left:  {LabelBase, LabelRight},
		Base:  {LabelRight, LabelLeft},
		Right: {LabelLeft, LabelBase},
	}
	for depth := 0; depth <= 5; depth++ {
		for bits := uint64(0); bits < 1<<(2*depth); bits++ {
			a := MakeAddress(bits, depth)
			for _, d := range Directions {
				all := true
				for level := 1; level <= depth; level++ {
					l := a.Label(level)
					if l != boundary[d][0] && l != boundary[d][1] {
						all = false
					}
				}
				if _, faulted := a.LocalNeighbor(d); faulted != all {
					t.Fatalf("%v via %v: expected faulted=%v, got %v", a, d, all, faulted)
				}
			}
		}
	}
}

func TestLocalNeighborAtMaxDepth(t *testing.T) {
	var a Address
	for i := 0; i < MaxDepth; i++ {
		a = a.PushLabel(LabelLeft)
	}
	if _, faulted := a.LocalNeighbor(Right); !faulted {
		t.Fatal("expected all-left path to fault crossing right")
	}
	n, faulted := a.LocalNeighbor(Left)
	if faulted {
		t.Fatal("expected all-left path to stay local crossing left")
	}
	if n.Last() != LabelCenter {
		t.Fatalf("expected deepest label center, got %02b", n.Last())
	}
}

// edgeEnds returns the corners at the start and end of edge d when walking an
// upright triangle counter-clockwise through Right, Left, Base.
func edgeEnds(d Direction) (Direction, Direction) {
	switch d {
	case Base:
		return Right, Left
	case Right:
		return Left, Base
	default:
		return Base, Right
	}
}

func TestDistalNeighborMatchesGeometry(t *testing.T) {
	for _, local := range Directions {
		for _, distal := range Directions {
			for depth := 0; depth <= 4; depth++ {
				t.Run(fmt.Sprintf("%v-%v-%d", local, distal, depth), func(t *testing.T) {
					s := int64(1) << (depth + 2)
					p, q := point{0, 0}, point{4 * s, 0}

					var a, b lattice
					as, ae := edgeEnds(local)
					a.v[as], a.v[ae], a.v[local] = p, q, point{2 * s, 3 * s}
					bs, be := edgeEnds(distal)
					b.v[bs], b.v[be], b.v[distal] = q, p, point{2 * s, -3 * s}

					aTris := enumerate(a, depth)
					bIdx := edgeIndex(enumerate(b, depth))

					checked := 0
					for addr, tri := range aTris {
						if _, faulted := addr.LocalNeighbor(local); !faulted {
							continue
						}
						refs := bIdx[tri.edge(local)]
						if len(refs) != 1 {
							t.Fatalf("%v: expected exactly one triangle across, got %d", addr, len(refs))
						}
						if refs[0].dir != distal {
							t.Fatalf("%v: neighbour shares its %v edge, expected %v", addr, refs[0].dir, distal)
						}
						got := addr.DistalNeighbor(local, distal)
						if got != refs[0].addr {
							t.Fatalf("%v: expected %v, got %v", addr, refs[0].addr, got)
						}
						checked++
					}
					if want := 1 << depth; checked != want {
						t.Fatalf("expected %d boundary triangles, checked %d", want, checked)
					}
				})
			}
		}
	}
}

func TestDirectionHelpers(t *testing.T) {
	if Left.Opposite() != Right || Base.Opposite() != Base || Right.Opposite() != Left {
		t.Fatal("unexpected opposite table")
	}
	if Third(Left, Right) != Base || Third(Base, Left) != Right || Third(Right, Base) != Left {
		t.Fatal("unexpected third direction")
	}
	for _, d := range Directions {
		l := CornerLabel(d)
		c, ok := l.Corner()
		if !ok || c != d {
			t.Fatalf("corner label %02b does not map back to %v", l, d)
		}
		if l.Touches(d) {
			t.Fatalf("corner child at %v must not touch edge %v", d, d)
		}
	}
	if LabelCenter.Touches(Base) {
		t.Fatal("center child must not touch the parent's edges")
	}
}
