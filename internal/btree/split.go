package btree

import "github.com/kelsonpham/bptreeidx/internal/bufferpool"

// splitLeaf implements spec §4.4's split_leaf: allocate a fresh leaf R,
// move the upper half of L's (temporarily over-full) entries to R, copy
// R's first key as the separator (leaves preserve every key, so the
// promoted key is a copy, not a remove), and relink the sibling chain so
// the old-leftmost -> new-right -> old-right chain holds (spec §9).
// lh must already be pinned and its contents already written by the
// caller's insert; splitLeaf marks it dirty again and releases only the
// new page it allocates.
func splitLeaf[K Ordered](bp bufferpool.Manager, ops KeyOps[K], lh *PageHandle) (separator K, newPageID uint32, err error) {
	l := AsLeaf(lh.Buf(), ops)
	total := l.Occupancy()
	mid := total / 2

	rh, err := AcquireNew(bp)
	if err != nil {
		return ops.Sentinel, 0, err
	}
	defer func() {
		if rerr := rh.Release(); err == nil {
			err = rerr
		}
	}()

	r := AsLeaf(rh.Buf(), ops)
	r.InitEmpty()
	for i := mid; i < total; i++ {
		k := l.Key(i)
		pid, slot := l.RID(i)
		r.SetKey(i-mid, k)
		r.setRID(i-mid, pid, slot)
		l.SetKey(i, ops.Sentinel)
		l.setRID(i, 0, 0)
	}
	r.setOccupancy(total - mid)
	l.setOccupancy(mid)

	r.SetRightSibling(l.RightSibling())
	l.SetRightSibling(rh.PageID())

	lh.MarkDirty()
	rh.MarkDirty()

	separator = r.Key(0)
	newPageID = rh.PageID()
	return separator, newPageID, nil
}

// splitNonLeaf implements spec §4.4's split_nonleaf: allocate a fresh
// non-leaf R at the same level, *lift* (not copy) the middle key as the
// separator — removed from both N and R, per spec §9's correctness note —
// and move the upper half of N's keys and children to R.
func splitNonLeaf[K Ordered](bp bufferpool.Manager, ops KeyOps[K], nh *PageHandle) (separator K, newPageID uint32, err error) {
	n := AsNonLeaf(nh.Buf(), ops)
	total := n.Occupancy()
	mid := total / 2
	separator = n.Key(mid)

	rh, err := AcquireNew(bp)
	if err != nil {
		return ops.Sentinel, 0, err
	}
	defer func() {
		if rerr := rh.Release(); err == nil {
			err = rerr
		}
	}()

	r := AsNonLeaf(rh.Buf(), ops)
	r.InitEmpty(n.Level())

	for i := mid + 1; i < total; i++ {
		r.SetKey(i-mid-1, n.Key(i))
		n.SetKey(i, ops.Sentinel)
	}
	for i := mid + 1; i <= total; i++ {
		r.setChild(i-mid-1, n.Child(i))
		n.setChild(i, 0)
	}
	n.SetKey(mid, ops.Sentinel)
	n.setOccupancy(mid)
	r.setOccupancy(total - mid - 1)

	nh.MarkDirty()
	rh.MarkDirty()

	newPageID = rh.PageID()
	return separator, newPageID, nil
}
