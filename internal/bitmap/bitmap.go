// Package bitmap provides a dense bitset over non-negative integer
// offsets. Key generation uses it to track which offsets of an integer
// key range have already been handed out while drawing without
// replacement; for ranges up to tens of millions of values it is far
// cheaper than a map.
package bitmap

// Bitmap is a fixed-capacity bitset backed by uint64 words.
type Bitmap struct {
	words []uint64
}

// New allocates a bitmap for offsets in [0, n).
//
// If n <= 0, no backing storage is allocated and the bitmap behaves as an
// empty set.
func New(n int) *Bitmap {
	if n <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{words: make([]uint64, (n+63)/64)}
}

// Add marks off as present. Negative and out-of-capacity offsets are
// ignored.
func (b *Bitmap) Add(off int) {
	if off < 0 {
		return
	}
	word := off / 64
	if word >= len(b.words) {
		return
	}
	b.words[word] |= 1 << uint(off%64)
}

// Has reports whether off was added. Negative and out-of-capacity
// offsets report false.
func (b *Bitmap) Has(off int) bool {
	if off < 0 {
		return false
	}
	word := off / 64
	if word >= len(b.words) {
		return false
	}
	return b.words[word]&(1<<uint(off%64)) != 0
}
