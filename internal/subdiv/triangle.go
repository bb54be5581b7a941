package subdiv

import (
	"lodmesh/internal/basemesh"
	"lodmesh/internal/pool"
	"lodmesh/internal/tqt"
)

// Triangle is one quadtree node. Vertices are named by the corner opposite
// each edge, so verts[tqt.Left] is the corner across the Left edge.
type Triangle struct {
	verts    [3]pool.Handle
	children [4]pool.Handle // by tqt.Label
	// mid holds this node's reference on each edge midpoint while it is
	// subdivided. Children only borrow them.
	mid    [3]pool.Handle
	parent pool.Handle
	self   pool.Handle
	base   int32
	addr   tqt.Address
	orient Orientation
	action Action

	errTerm float64
	crack   crackState
}

// crackState is rebuilt every pass; it is stale unless pass matches.
type crackState struct {
	pass   uint32
	visits uint8 // finer neighbours seen, at most two per side
	sides  uint8 // bit per tqt.Direction
	n      uint8
	vert   [3]pool.Handle // by tqt.Direction
	// discontinuous marks sides that run along a seam.
	discontinuous [3]bool
}

func (c *crackState) cracked(d tqt.Direction) bool { return c.sides&(1<<d) != 0 }

func (t *Triangle) Depth() int { return t.addr.Len() }

// IsLeaf reports whether the node has no children.
func (t *Triangle) IsLeaf() bool { return !t.children[tqt.LabelCenter].Valid() }

func (t *Triangle) Action() Action { return t.action }

func (t *Triangle) Address() tqt.Address { return t.addr }

// reset prepares a freshly allocated node.
func (t *Triangle) reset(self pool.Handle, base int32, addr tqt.Address, o Orientation) {
	*t = Triangle{self: self, base: base, addr: addr, orient: o, errTerm: -1}
}

// BaseTriangle is the root of one quadtree plus its links to the adjacent
// base triangles.
type BaseTriangle struct {
	root         pool.Handle
	neighbors    [3]int32 // by tqt.Direction, -1 at a mesh boundary
	neighborEdge [3]tqt.Direction
	continuity   [3]basemesh.Continuity
	meshIndex    int
	material     int

	// deque is the breadth-first evaluation frontier carried across passes.
	deque []pool.Handle
	head  int
}

// Neighbor returns the base triangle across edge d and the edge it shares.
func (b *BaseTriangle) Neighbor(d tqt.Direction) (int, tqt.Direction, bool) {
	n := b.neighbors[d]
	if n < 0 {
		return -1, 0, false
	}
	return int(n), b.neighborEdge[d], true
}

// Continuity returns the flags of edge d.
func (b *BaseTriangle) Continuity(d tqt.Direction) basemesh.Continuity {
	return b.continuity[d]
}

// MeshIndex returns the input face this base triangle was built from.
func (b *BaseTriangle) MeshIndex() int { return b.meshIndex }
