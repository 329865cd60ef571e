package btree

import "github.com/kelsonpham/bptreeidx/internal/storage"

// Fixed field widths making up the two node headers (page.go documents the
// exact byte offsets). Capacities are derived from these so a page of
// either kind always satisfies header_size + cap*slot_size <= PAGE_SIZE
// (spec §6).
const (
	leafHeaderSize = 8 // nodeKind(1) + pad(1) + occupancy(2) + rightSibling(4)
	ridSize        = 6 // pageID(4) + slot(2)

	nonLeafHeaderSize = 8 // nodeKind(1) + pad(1) + level(2) + occupancy(2) + pad(2)
	childSize         = 4 // page_id
)

// Physical slot arrays are sized one entry larger than the enforced
// capacity LeafCap/NonLeafCap report. The insert algorithm (spec §4.3)
// writes the new entry into a full node and only then splits it, so the
// node must be able to hold capacity+1 entries for the instant between
// "inserted" and "split". LeafCap/NonLeafCap are the capacity invariant
// (I8) checks against; the backing page always has one extra physical
// slot to absorb that transient overflow.
const overflowSlack = 1

// LeafCap returns the enforced (post-split) capacity of a leaf node whose
// key is keySize bytes wide. The physical page reserves room for one more
// slot than this.
func LeafCap(keySize int) int {
	raw := (storage.PageSize - leafHeaderSize) / (keySize + ridSize)
	return raw - overflowSlack
}

// NonLeafCap returns the enforced (post-split) capacity of a non-leaf
// node's key array, reserving room for the classic "n keys, n+1 children"
// layout plus one physical overflow slot.
func NonLeafCap(keySize int) int {
	raw := (storage.PageSize - nonLeafHeaderSize - childSize) / (keySize + childSize)
	return raw - overflowSlack
}
