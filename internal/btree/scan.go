package btree

import "github.com/kelsonpham/bptreeidx/internal/heap"

// StartScan implements spec §4.5's start_scan contract: locates the leaf
// containing the first key >= low (or where such a key would be), pins
// it, and leaves the cursor Active. Calling StartScan while already Active
// first releases the current pinned page (spec §4.5).
func (t *Tree[K]) StartScan(low K, lowOp Op, high K, highOp Op) error {
	if !isLowOp(lowOp) || !isHighOp(highOp) {
		return ErrBadOpcodes
	}
	if t.ops.Compare(low, high) > 0 {
		return ErrBadScanRange
	}

	if t.scanExecuting && t.scanPage != nil {
		if err := t.scanPage.Release(); err != nil {
			return err
		}
	}
	t.scanExecuting = false
	t.scanPage = nil
	t.nextEntry = 0
	t.lowVal, t.lowOp, t.highVal, t.highOp = low, lowOp, high, highOp

	root, err := t.rootPageNo()
	if err != nil {
		return err
	}
	if root == 0 {
		t.scanExecuting = true
		return nil
	}

	pageID := root
	for {
		h, err := Acquire(t.bp, pageID)
		if err != nil {
			return err
		}
		if h.Buf()[0] == nodeKindLeaf {
			entry := leafFirstEntryAtOrAfter(AsLeaf(h.Buf(), t.ops), t.ops, low)
			t.scanExecuting = true
			t.scanPage = h
			t.nextEntry = entry
			return nil
		}
		n := AsNonLeaf(h.Buf(), t.ops)
		idx := descentChildIndex(n, t.ops, low)
		child := n.Child(idx)
		if err := h.Release(); err != nil {
			return err
		}
		pageID = child
	}
}

// ScanNext implements spec §4.5's scan_next contract and its numbered
// iteration rule over the current leaf and its right_sibling chain.
func (t *Tree[K]) ScanNext() (heap.RecordID, error) {
	if !t.scanExecuting {
		return heap.RecordID{}, ErrScanNotInitialized
	}

	for {
		if t.scanPage == nil {
			return heap.RecordID{}, ErrIndexScanCompleted
		}
		leaf := AsLeaf(t.scanPage.Buf(), t.ops)

		if t.nextEntry >= leaf.Occupancy() {
			right := leaf.RightSibling()
			if err := t.scanPage.Release(); err != nil {
				t.scanPage = nil
				return heap.RecordID{}, err
			}
			if right == 0 {
				t.scanPage = nil
				return heap.RecordID{}, ErrIndexScanCompleted
			}
			h, err := Acquire(t.bp, right)
			if err != nil {
				t.scanPage = nil
				return heap.RecordID{}, err
			}
			t.scanPage = h
			t.nextEntry = 0
			continue
		}

		k := leaf.Key(t.nextEntry)
		cmpHigh := t.ops.Compare(k, t.highVal)
		if cmpHigh > 0 || (cmpHigh == 0 && t.highOp == LT) {
			return heap.RecordID{}, ErrIndexScanCompleted
		}

		cmpLow := t.ops.Compare(k, t.lowVal)
		if cmpLow < 0 || (cmpLow == 0 && t.lowOp == GT) {
			t.nextEntry++
			continue
		}

		pageID, slot := leaf.RID(t.nextEntry)
		t.nextEntry++
		return heap.RecordID{PageID: pageID, Slot: slot}, nil
	}
}

// EndScan implements spec §4.5's end_scan contract.
func (t *Tree[K]) EndScan() error {
	if !t.scanExecuting {
		return ErrScanNotInitialized
	}
	var err error
	if t.scanPage != nil {
		err = t.scanPage.Release()
		t.scanPage = nil
	}
	t.scanExecuting = false
	t.nextEntry = 0
	return err
}

// descentChildIndex implements spec §4.5's descent rule: the smallest
// index i with low <= key_array[i] (ignoring sentinels past occupancy),
// or the last occupied child if no such index exists.
func descentChildIndex[K Ordered](n NonLeafView[K], ops KeyOps[K], low K) int {
	occ := n.Occupancy()
	for i := 0; i < occ; i++ {
		if ops.Compare(low, n.Key(i)) <= 0 {
			return i
		}
	}
	return occ
}

// leafFirstEntryAtOrAfter finds the first occupied slot whose key is >=
// low, or occupancy (the sentinel boundary) if none qualifies.
func leafFirstEntryAtOrAfter[K Ordered](l LeafView[K], ops KeyOps[K], low K) int {
	occ := l.Occupancy()
	for i := 0; i < occ; i++ {
		if ops.Compare(l.Key(i), low) >= 0 {
			return i
		}
	}
	return occ
}
