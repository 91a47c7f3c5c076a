package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	// Bits is a growable bitset of small non-negative ints.
	// The zero value is an empty set.
	Bits struct {
		b []uint64
	}
)

func (s *Bits) Set(i int) {
	i, j := ij(i)

	s.grow(i)

	s.b[i] |= 1 << j
}

func (s *Bits) Clear(i int) {
	i, j := ij(i)

	if i >= len(s.b) {
		return
	}

	s.b[i] &^= 1 << j
}

func (s Bits) IsSet(i int) bool {
	i, j := ij(i)

	if i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

// Or adds all of x to s and reports whether s changed.
func (s *Bits) Or(x Bits) (changed bool) {
	s.grow(len(x.b) - 1)

	for i, x := range x.b {
		n := s.b[i] | x
		changed = changed || n != s.b[i]
		s.b[i] = n
	}

	return changed
}

func (s *Bits) AndNot(x Bits) {
	for i, x := range x.b {
		if i == len(s.b) {
			break
		}

		s.b[i] &^= x
	}
}

// Contains reports whether x is a subset of s.
func (s Bits) Contains(x Bits) bool {
	for i, x := range x.b {
		var w uint64
		if i < len(s.b) {
			w = s.b[i]
		}

		if x&^w != 0 {
			return false
		}
	}

	return true
}

func (s Bits) Equal(x Bits) bool {
	return s.Contains(x) && x.Contains(s)
}

func (s Bits) Copy() Bits {
	return Bits{b: append([]uint64(nil), s.b...)}
}

func (s Bits) Size() (r int) {
	for _, c := range s.b {
		r += bits.OnesCount64(c)
	}

	return r
}

func (s Bits) Range(f func(i int) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(i*64 + j) {
				return
			}
		}
	}
}

func (s Bits) Slice() (r []int) {
	s.Range(func(i int) bool {
		r = append(r, i)
		return true
	})

	return r
}

func (s Bits) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)

		return true
	})

	b = e.AppendBreak(b)

	return b
}

func ij(pos int) (i int, j int) {
	return pos / 64, pos % 64
}

func (s *Bits) grow(i int) {
	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
