// Package tqt implements triangular-quadtree addressing.
//
// A triangle is split into four children: three corner children that keep
// the parent's orientation and a center child with the opposite orientation.
// Edges and corners share names: the corner named Left is the vertex opposite
// the Left edge. Orientations are mirror images of each other, so the edge a
// triangle sees as Left is seen as Right by the neighbour across it, and the
// Base edge is Base on both sides.
package tqt

// Direction names an edge of a triangle, and the corner opposite that edge.
type Direction uint8

const (
	Left Direction = iota
	Base
	Right
)

// Directions lists every direction in index order.
var Directions = [3]Direction{Left, Base, Right}

var opposite = [3]Direction{Right, Base, Left}

// Opposite returns the name the neighbouring triangle uses for the edge
// shared across d.
func (d Direction) Opposite() Direction {
	return opposite[d]
}

// Third returns the direction that is neither a nor b. a and b must differ.
func Third(a, b Direction) Direction {
	return 3 - a - b
}

// Others returns the two directions other than d, in index order.
func (d Direction) Others() (Direction, Direction) {
	switch d {
	case Left:
		return Base, Right
	case Base:
		return Left, Right
	default:
		return Left, Base
	}
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Base:
		return "base"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Label is a 2-bit quadrant label.
type Label uint8

const (
	LabelRight  Label = 0b00 // corner child at the Right corner
	LabelBase   Label = 0b01 // corner child at the Base corner (apex)
	LabelCenter Label = 0b10 // center child, inverted
	LabelLeft   Label = 0b11 // corner child at the Left corner
)

// Labels lists the four quadrants in label order.
var Labels = [4]Label{LabelRight, LabelBase, LabelCenter, LabelLeft}

var cornerLabel = [3]Label{LabelLeft, LabelBase, LabelRight}

// CornerLabel returns the label of the corner child sitting at corner d.
func CornerLabel(d Direction) Label {
	return cornerLabel[d]
}

// Corner returns the corner a corner child sits at. ok is false for the
// center child.
func (l Label) Corner() (d Direction, ok bool) {
	switch l {
	case LabelLeft:
		return Left, true
	case LabelBase:
		return Base, true
	case LabelRight:
		return Right, true
	default:
		return 0, false
	}
}

// Touches reports whether the child labelled l lies along its parent's edge d.
func (l Label) Touches(d Direction) bool {
	c, ok := l.Corner()
	return ok && c != d
}
