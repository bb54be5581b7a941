// Package pool provides a generation-counted slot arena.
//
// Units live in fixed-size chunks, so a *T handed out by Get stays valid for
// as long as the unit is allocated. Handles carry the generation of the slot
// they were issued for; once the slot is freed or the pool is reset, the old
// handle resolves to nil instead of aliasing the next occupant.
package pool

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned by Allocate when the pool is at its hard limit.
var ErrExhausted = errors.New("pool: exhausted")

// Handle identifies one allocation. The zero Handle is the nil handle.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was ever issued (it may still be stale).
func (h Handle) Valid() bool { return h.gen != 0 }

// Index returns the slot index, stable for the lifetime of the allocation.
func (h Handle) Index() int { return int(h.index) }

func (h Handle) String() string {
	if !h.Valid() {
		return "nil"
	}
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

type slot[T any] struct {
	value T
	gen   uint32
	refs  uint32
	live  bool
}

// Stats counts pool activity since construction or the last Reset.
type Stats struct {
	Allocs int
	Frees  int
	Grows  int
	Peak   int
}

// Pool is a slot arena of T. It is not safe for concurrent use.
type Pool[T any] struct {
	chunks [][]slot[T]
	growBy int
	limit  int

	free  []uint32
	next  uint32 // slots below next have been handed out at least once
	live  int
	stats Stats
}

// New creates a pool with room for initial units that grows by growBy units
// at a time and never holds more than limit units. limit <= 0 means no cap.
func New[T any](initial, growBy, limit int) *Pool[T] {
	if growBy <= 0 {
		growBy = 256
	}
	p := &Pool[T]{growBy: growBy, limit: limit}
	if initial > 0 {
		p.grow(initial)
	}
	return p
}

// Capacity returns the number of slots currently backed by storage.
func (p *Pool[T]) Capacity() int {
	n := 0
	for _, c := range p.chunks {
		n += len(c)
	}
	return n
}

// Live returns the number of allocated units.
func (p *Pool[T]) Live() int { return p.live }

// Limit returns the hard cap (0 when unbounded).
func (p *Pool[T]) Limit() int { return max(p.limit, 0) }

// Stats returns the activity counters.
func (p *Pool[T]) Stats() Stats { return p.stats }

func (p *Pool[T]) grow(n int) bool {
	capacity := p.Capacity()
	if p.limit > 0 {
		n = min(n, p.limit-capacity)
	}
	if n <= 0 {
		return false
	}
	p.chunks = append(p.chunks, make([]slot[T], n))
	p.stats.Grows++
	return true
}

func (p *Pool[T]) slot(index uint32) *slot[T] {
	i := int(index)
	for _, c := range p.chunks {
		if i < len(c) {
			return &c[i]
		}
		i -= len(c)
	}
	return nil
}

// Allocate returns a zeroed unit with a reference count of 1.
func (p *Pool[T]) Allocate() (Handle, *T, error) {
	var index uint32
	switch {
	case len(p.free) > 0:
		index = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	case int(p.next) < p.Capacity() || p.grow(p.growBy):
		index = p.next
		p.next++
	default:
		return Handle{}, nil, fmt.Errorf("%w: %d units live", ErrExhausted, p.live)
	}

	s := p.slot(index)
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.refs = 1
	s.live = true

	p.live++
	p.stats.Allocs++
	p.stats.Peak = max(p.stats.Peak, p.live)
	return Handle{index: index, gen: s.gen}, &s.value, nil
}

func (p *Pool[T]) lookup(h Handle) *slot[T] {
	if !h.Valid() || h.index >= p.next {
		return nil
	}
	s := p.slot(h.index)
	if s == nil || !s.live || s.gen != h.gen {
		return nil
	}
	return s
}

// Get returns the unit h refers to, or nil if h is nil or stale.
func (p *Pool[T]) Get(h Handle) *T {
	if s := p.lookup(h); s != nil {
		return &s.value
	}
	return nil
}

// IncRef adds a reference to h. It reports false for stale handles.
func (p *Pool[T]) IncRef(h Handle) bool {
	s := p.lookup(h)
	if s == nil {
		return false
	}
	s.refs++
	return true
}

// RefCount returns the number of references held on h, 0 if stale.
func (p *Pool[T]) RefCount(h Handle) int {
	if s := p.lookup(h); s != nil {
		return int(s.refs)
	}
	return 0
}

// Deallocate drops one reference and frees the unit when none remain. It
// reports whether the unit was freed.
func (p *Pool[T]) Deallocate(h Handle) bool {
	s := p.lookup(h)
	if s == nil {
		return false
	}
	if s.refs > 1 {
		s.refs--
		return false
	}
	var zero T
	s.value = zero
	s.refs = 0
	s.live = false
	p.free = append(p.free, h.index)
	p.live--
	p.stats.Frees++
	return true
}

// Each calls fn for every live unit in slot order until fn returns false.
func (p *Pool[T]) Each(fn func(Handle, *T) bool) {
	index := uint32(0)
	for _, c := range p.chunks {
		for i := range c {
			if index >= p.next {
				return
			}
			s := &c[i]
			if s.live && !fn(Handle{index: index, gen: s.gen}, &s.value) {
				return
			}
			index++
		}
	}
}

// Reset frees every unit. Storage is kept; outstanding handles go stale.
func (p *Pool[T]) Reset() {
	var zero T
	index := uint32(0)
	for _, c := range p.chunks {
		for i := range c {
			if index >= p.next {
				break
			}
			c[i].value = zero
			c[i].refs = 0
			c[i].live = false
			index++
		}
	}
	p.free = p.free[:0]
	for i := int(p.next) - 1; i >= 0; i-- {
		p.free = append(p.free, uint32(i))
	}
	p.live = 0
	p.stats = Stats{}
}
