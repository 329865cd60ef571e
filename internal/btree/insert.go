package btree

import "github.com/kelsonpham/bptreeidx/internal/heap"

// splitInfo is what a recursive insert hands back to its caller when the
// node it wrote to had to split: the promoted separator and the new right
// sibling's page id, to be installed in the parent (spec §4.3 step 3).
type splitInfo[K Ordered] struct {
	separator K
	newPageID uint32
}

// Insert implements spec §4.3's insert(key, rid): the pair becomes
// reachable by any scan whose range covers key, and every structural
// invariant holds afterward. Indexing the sentinel value is a documented
// precondition violation (spec §3), not a runtime error, so it panics
// rather than returning an error.
func (t *Tree[K]) Insert(key K, rid heap.RecordID) error {
	if t.ops.Compare(key, t.ops.Sentinel) == 0 {
		panic("btree: cannot index the sentinel key value")
	}

	root, err := t.rootPageNo()
	if err != nil {
		return err
	}
	if root == 0 {
		return t.insertFirstEntry(key, rid)
	}

	split, err := t.insertRec(root, key, rid)
	if err != nil {
		return err
	}
	if split != nil {
		return t.growRoot(root, split.separator, split.newPageID)
	}
	return nil
}

// insertFirstEntry handles the root_page_no == 0 case: allocate a leaf,
// install it as root, insert the first entry at slot 0.
func (t *Tree[K]) insertFirstEntry(key K, rid heap.RecordID) error {
	h, err := AcquireNew(t.bp)
	if err != nil {
		return err
	}
	leaf := AsLeaf(h.Buf(), t.ops)
	leaf.InitEmpty()
	leaf.InsertAt(0, key, rid.PageID, rid.Slot)
	h.MarkDirty()
	pageID := h.PageID()
	if err := h.Release(); err != nil {
		return err
	}
	return t.setRootPageNo(pageID)
}

// insertRec descends to the leaf owning key, inserts there, and splits any
// over-full node on the way back up, propagating the separator to the
// caller. At most one frame per level is pinned at a time (spec §5).
func (t *Tree[K]) insertRec(pageID uint32, key K, rid heap.RecordID) (*splitInfo[K], error) {
	h, err := Acquire(t.bp, pageID)
	if err != nil {
		return nil, err
	}

	if h.Buf()[0] == nodeKindLeaf {
		leaf := AsLeaf(h.Buf(), t.ops)
		at := leafInsertPos(leaf, t.ops, key)
		leaf.InsertAt(at, key, rid.PageID, rid.Slot)
		h.MarkDirty()

		var result *splitInfo[K]
		if leaf.Occupancy() > leaf.Cap() {
			sep, newID, serr := splitLeaf(t.bp, t.ops, h)
			if serr != nil {
				_ = h.Release()
				return nil, serr
			}
			result = &splitInfo[K]{separator: sep, newPageID: newID}
		}
		if err := h.Release(); err != nil {
			return nil, err
		}
		return result, nil
	}

	n := AsNonLeaf(h.Buf(), t.ops)
	idx := nonLeafChildIndex(n, t.ops, key)
	child := n.Child(idx)

	childSplit, err := t.insertRec(child, key, rid)
	if err != nil {
		_ = h.Release()
		return nil, err
	}
	if childSplit == nil {
		if err := h.Release(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	n.InsertSeparator(idx, childSplit.separator, childSplit.newPageID)
	h.MarkDirty()

	var result *splitInfo[K]
	if n.Occupancy() > n.Cap() {
		sep, newID, serr := splitNonLeaf(t.bp, t.ops, h)
		if serr != nil {
			_ = h.Release()
			return nil, serr
		}
		result = &splitInfo[K]{separator: sep, newPageID: newID}
	}
	if err := h.Release(); err != nil {
		return nil, err
	}
	return result, nil
}

// growRoot installs a fresh non-leaf root over the old root and its new
// sibling when the old root itself split (spec §4.3 "Tree growth").
func (t *Tree[K]) growRoot(oldRoot uint32, separator K, newPageID uint32) error {
	oh, err := Acquire(t.bp, oldRoot)
	if err != nil {
		return err
	}
	var newLevel int
	if oh.Buf()[0] == nodeKindLeaf {
		newLevel = 1
	} else {
		newLevel = AsNonLeaf(oh.Buf(), t.ops).Level() + 1
	}
	if err := oh.Release(); err != nil {
		return err
	}

	rh, err := AcquireNew(t.bp)
	if err != nil {
		return err
	}
	root := AsNonLeaf(rh.Buf(), t.ops)
	root.InitEmpty(newLevel)
	root.SetFirstChild(oldRoot)
	root.InsertSeparator(0, separator, newPageID)
	rh.MarkDirty()
	newRootID := rh.PageID()
	if err := rh.Release(); err != nil {
		return err
	}

	return t.setRootPageNo(newRootID)
}

// leafInsertPos scans from the high end, as spec §4.3 prescribes, to find
// the slot the new key lands in; duplicates accumulate to the right of any
// existing equal keys.
func leafInsertPos[K Ordered](l LeafView[K], ops KeyOps[K], key K) int {
	i := l.Occupancy()
	for i > 0 && ops.Compare(l.Key(i-1), key) > 0 {
		i--
	}
	return i
}

// nonLeafChildIndex implements spec §4.3 step 1: the smallest index i such
// that key < key_array[i], or the last child if no such index exists.
func nonLeafChildIndex[K Ordered](n NonLeafView[K], ops KeyOps[K], key K) int {
	occ := n.Occupancy()
	for i := 0; i < occ; i++ {
		if ops.Compare(key, n.Key(i)) < 0 {
			return i
		}
	}
	return occ
}
