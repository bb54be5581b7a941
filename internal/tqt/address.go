package tqt

import "fmt"

// MaxDepth is the deepest level an Address can encode. Two spare pairs stay
// free above it so carries and borrows can run out of range.
const MaxDepth = 30

const (
	loPlane uint64 = 0x5555555555555555 // low bit of every pair
	hiPlane uint64 = 0xAAAAAAAAAAAAAAAA // high bit of every pair
)

// Address is the path from a base triangle down to one of its descendants,
// two bits per level with the shallowest level in the most significant
// pair. The zero value addresses the base triangle itself.
type Address struct {
	bits   uint64
	length uint8
}

// MakeAddress builds an address from raw bits. Bits above 2*length are
// dropped.
func MakeAddress(bits uint64, length int) Address {
	a := Address{bits: bits, length: uint8(length)}
	a.bits &= a.span()
	return a
}

// Bits returns the packed labels.
func (a Address) Bits() uint64 { return a.bits }

// Len returns the tree depth the address points at.
func (a Address) Len() int { return int(a.length) }

func (a Address) span() uint64 {
	return 1<<(2*uint(a.length)) - 1
}

// PushLabel appends one quadrant label below the current depth.
func (a Address) PushLabel(l Label) Address {
	return Address{bits: a.bits<<2 | uint64(l&3), length: a.length + 1}
}

// Child is PushLabel under the name used by tree walks.
func (a Address) Child(l Label) Address { return a.PushLabel(l) }

// PopLabel removes the deepest label.
func (a Address) PopLabel() (Address, Label) {
	if a.length == 0 {
		return a, 0
	}
	return Address{bits: a.bits >> 2, length: a.length - 1}, Label(a.bits & 3)
}

// Label returns the label chosen at level (1 = child of the base triangle).
func (a Address) Label(level int) Label {
	return Label(a.bits >> (2 * uint(int(a.length)-level)) & 3)
}

// Last returns the deepest label.
func (a Address) Last() Label {
	return Label(a.bits & 3)
}

// IsBoundary reports whether the addressed triangle lies along the base
// triangle's edge d, i.e. whether LocalNeighbor(d) faults.
func (a Address) IsBoundary(d Direction) bool {
	_, faulted := a.LocalNeighbor(d)
	return faulted
}

// LocalNeighbor returns the address of the same-depth triangle across edge d
// inside the same base triangle.
//
// With the label assignment of this package the three edges reduce to plain
// integer arithmetic on the bit planes: crossing Right increments the low
// plane, crossing Left decrements the high plane, crossing Base flips the
// deepest pair whose bits differ. Every pair from the deepest level up to
// the one that stops the carry changes; shallower pairs are untouched.
//
// faulted is true when the carry leaves the address, meaning the neighbour
// belongs to the adjacent base triangle. The returned address is then the
// edge-mirrored path and only DistalNeighbor gives it meaning.
func (a Address) LocalNeighbor(d Direction) (Address, bool) {
	span := a.span()
	var out uint64

	switch d {
	case Right:
		// Force the high plane to ones so the carry runs through it.
		t := a.bits&loPlane | hiPlane
		inc := t + 1
		aff := (t^inc)<<1 | 1
		out = a.bits&^aff | (inc&loPlane&aff)<<1 | (a.bits&hiPlane&aff)>>1
	case Left:
		// The low plane is zeroed so the borrow runs through it.
		t := a.bits & hiPlane
		dec := t - 2
		aff := (t ^ dec) | 1
		out = a.bits&^aff | (dec&hiPlane&aff)>>1 | (a.bits&loPlane&aff)<<1
	case Base:
		mixed := (a.bits ^ a.bits>>1) & loPlane & span
		if mixed == 0 {
			return a, true
		}
		low := mixed & -mixed
		out = a.bits ^ (low | low<<1)
	default:
		panic(fmt.Sprintf("tqt: invalid direction %d", d))
	}

	return Address{bits: out & span, length: a.length}, out&^span != 0
}

// DistalNeighbor maps an address that faulted across its base triangle's
// edge local into the frame of the adjacent base triangle, which shares that
// edge as its own edge distal. Both triangles wind the same way, so they walk
// the shared edge in opposite directions: the position along the edge is read
// out of the labels, reversed, and written back as labels of edge distal.
func (a Address) DistalNeighbor(local, distal Direction) Address {
	lo := loPlane & a.span()

	// pos holds one bit per level in the low plane: 1 where the neighbour
	// sits on the second half of its own edge.
	var pos uint64
	switch local {
	case Base:
		pos = ^a.bits & lo
	case Right:
		pos = a.bits >> 1 & lo
	case Left:
		pos = a.bits & lo
	}

	var out uint64
	switch distal {
	case Base:
		out = pos | pos<<1
	case Right:
		out = (^pos&lo)<<1 | lo
	case Left:
		out = ^pos & lo
	}
	return Address{bits: out, length: a.length}
}

// Parent returns the address one level up.
func (a Address) Parent() Address {
	p, _ := a.PopLabel()
	return p
}

func (a Address) String() string {
	if a.length == 0 {
		return "root"
	}
	buf := make([]byte, 0, 3*int(a.length))
	for level := 1; level <= int(a.length); level++ {
		if level > 1 {
			buf = append(buf, '.')
		}
		l := a.Label(level)
		buf = append(buf, '0'+byte(l>>1), '0'+byte(l&1))
	}
	return string(buf)
}
