package set

type (
	// Index interns keys into dense ids usable with Bits.
	Index[K comparable] struct {
		ids  map[K]int
		keys []K
	}
)

func NewIndex[K comparable]() *Index[K] {
	return &Index[K]{ids: make(map[K]int)}
}

// ID returns the id of k, assigning the next one if k is new.
func (x *Index[K]) ID(k K) int {
	if id, ok := x.ids[k]; ok {
		return id
	}

	id := len(x.keys)
	x.ids[k] = id
	x.keys = append(x.keys, k)

	return id
}

func (x *Index[K]) Lookup(k K) (int, bool) {
	id, ok := x.ids[k]
	return id, ok
}

func (x *Index[K]) Key(id int) K { return x.keys[id] }

func (x *Index[K]) Len() int { return len(x.keys) }

// Keys returns the keys of s in id order.
func (x *Index[K]) Keys(s Bits) (r []K) {
	s.Range(func(id int) bool {
		r = append(r, x.keys[id])
		return true
	})

	return r
}
