package btree

import (
	"math"

	"github.com/kelsonpham/bptreeidx/internal/alias/bx"
)

// Ordered is the set of key representations a tree can be instantiated
// over. STRING is named in the on-disk attr_type enum but never gets an
// Ops instance — spec §9 treats it as an unimplemented future extension.
type Ordered interface {
	~int64 | ~float64
}

// KeyOps is the "small capability set" spec §9 recommends in place of
// template-style genericity: compare, encode, decode, sentinel and
// on-disk size for one key representation. A Tree[K] is fully generic
// over the rest of the descent/split skeleton once it holds a KeyOps[K].
type KeyOps[K Ordered] struct {
	// Size is the fixed on-disk width of one encoded key, in bytes.
	Size int
	// Sentinel is the out-of-band value marking an unused slot. No valid
	// indexed key may equal it (spec §3).
	Sentinel K
	Compare  func(a, b K) int
	EncodeTo func(buf []byte, k K)
	Decode   func(buf []byte) K
}

// Int64Ops realizes KeyOps for AttrInt: little-endian two's complement,
// sentinel -1.
var Int64Ops = KeyOps[int64]{
	Size:     8,
	Sentinel: -1,
	Compare: func(a, b int64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	},
	EncodeTo: func(buf []byte, k int64) { bx.PutU64(buf, uint64(k)) },
	Decode:   func(buf []byte) int64 { return int64(bx.U64(buf)) },
}

// Float64Ops realizes KeyOps for AttrDouble: IEEE-754 double stored as its
// little-endian bit pattern, sentinel -1.0. Indexing a literal -1.0 is
// therefore unsupported, the same documented limitation as the integer
// variant (spec §6).
var Float64Ops = KeyOps[float64]{
	Size:     8,
	Sentinel: -1,
	Compare: func(a, b float64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	},
	EncodeTo: func(buf []byte, k float64) { bx.PutU64(buf, math.Float64bits(k)) },
	Decode:   func(buf []byte) float64 { return math.Float64frombits(bx.U64(buf)) },
}
