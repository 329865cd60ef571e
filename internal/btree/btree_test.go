package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/heap"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

// newTestTree builds a fresh integer-keyed tree backed by a temp-dir paged
// file, returning the tree and its pool so tests can assert pin balance.
func newTestTree(t *testing.T, base string) (*Tree[int64], *bufferpool.GlobalPool) {
	t.Helper()

	dir := t.TempDir()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)

	tr := newTree[int64](gp.View(fs), Int64Ops)
	require.NoError(t, tr.formatMeta("rel", 0, AttrInt))
	return tr, gp
}

func ridFor(k int64) heap.RecordID {
	return heap.RecordID{PageID: uint32(k / 100), Slot: uint16(k % 100)}
}

func scanAll(t *testing.T, tr *Tree[int64], low int64, lowOp Op, high int64, highOp Op) []heap.RecordID {
	t.Helper()
	require.NoError(t, tr.StartScan(low, lowOp, high, highOp))
	defer func() { require.NoError(t, tr.EndScan()) }()

	var out []heap.RecordID
	for {
		rid, err := tr.ScanNext()
		if err == ErrIndexScanCompleted {
			break
		}
		require.NoError(t, err)
		out = append(out, rid)
	}
	return out
}

// Scenario 1: integer build + range (spec §8).
func TestTree_BuildAndRangeScan(t *testing.T) {
	tr, gp := newTestTree(t, "scn1")

	const n = 5000
	for k := int64(1); k <= n; k++ {
		require.NoError(t, tr.Insert(k, ridFor(k)))
	}

	rids := scanAll(t, tr, 100, GTE, 200, LTE)
	require.Len(t, rids, 101)
	for i, rid := range rids {
		require.Equal(t, ridFor(int64(100+i)), rid)
	}
	require.Zero(t, gp.TotalPinned())
}

// Scenario 2: operator corners (spec §8).
func TestTree_OperatorCorners(t *testing.T) {
	tr, gp := newTestTree(t, "scn2")

	for k := int64(1); k <= 5000; k++ {
		require.NoError(t, tr.Insert(k, ridFor(k)))
	}

	rids := scanAll(t, tr, 100, GT, 200, LT)
	require.Len(t, rids, 99)
	for i, rid := range rids {
		require.Equal(t, ridFor(int64(101+i)), rid)
	}
	require.Zero(t, gp.TotalPinned())
}

// Scenario 3: cascading splits grow the tree past height 2, every
// invariant from I2-I5 holds.
func TestTree_CascadingSplitsGrowHeight(t *testing.T) {
	tr, gp := newTestTree(t, "scn3")

	const n = 60000
	for k := int64(0); k < n; k++ {
		require.NoError(t, tr.Insert(k, ridFor(k)))
	}

	root, err := tr.rootPageNo()
	require.NoError(t, err)
	require.NotZero(t, root)

	h, err := Acquire(tr.bp, root)
	require.NoError(t, err)
	require.Equal(t, uint8(nodeKindNonLeaf), h.Buf()[0])
	level := AsNonLeaf(h.Buf(), Int64Ops).Level()
	require.NoError(t, h.Release())
	require.GreaterOrEqual(t, level, 2)

	checkNonLeafInvariants(t, tr, root)
	checkLeafChainInvariants(t, tr, root)

	rids := scanAll(t, tr, 0, GTE, n-1, LTE)
	require.Len(t, rids, n)
	require.Zero(t, gp.TotalPinned())
}

// Scenario 4: descending insert still yields ascending scan order.
func TestTree_DescendingInsertAscendingScan(t *testing.T) {
	tr, gp := newTestTree(t, "scn4")

	const n = 3000
	for k := int64(n - 1); k >= 0; k-- {
		require.NoError(t, tr.Insert(k, ridFor(k)))
	}

	rids := scanAll(t, tr, 0, GTE, n-1, LTE)
	require.Len(t, rids, n)
	for i, rid := range rids {
		require.Equal(t, ridFor(int64(i)), rid)
	}
	require.Zero(t, gp.TotalPinned())
}

// Scenario 5: duplicate keys accumulate as adjacent slots, all reachable.
func TestTree_DuplicateKeys(t *testing.T) {
	tr, gp := newTestTree(t, "scn5")

	a := heap.RecordID{PageID: 1, Slot: 0}
	b := heap.RecordID{PageID: 1, Slot: 1}
	c := heap.RecordID{PageID: 1, Slot: 2}
	require.NoError(t, tr.Insert(42, a))
	require.NoError(t, tr.Insert(42, b))
	require.NoError(t, tr.Insert(42, c))

	rids := scanAll(t, tr, 42, GTE, 42, LTE)
	require.ElementsMatch(t, []heap.RecordID{a, b, c}, rids)
	require.Zero(t, gp.TotalPinned())
}

// Scenario 6: error shapes.
func TestTree_ErrorShapes(t *testing.T) {
	tr, _ := newTestTree(t, "scn6")
	require.NoError(t, tr.Insert(1, ridFor(1)))

	require.ErrorIs(t, tr.StartScan(10, GTE, 5, LTE), ErrBadScanRange)
	require.ErrorIs(t, tr.StartScan(10, LT, 20, LTE), ErrBadOpcodes)

	fresh, _ := newTestTree(t, "scn6b")
	_, err := fresh.ScanNext()
	require.ErrorIs(t, err, ErrScanNotInitialized)
	require.ErrorIs(t, fresh.EndScan(), ErrScanNotInitialized)
}

// Empty index: first scan_next signals IndexScanCompleted immediately.
func TestTree_EmptyIndexScanCompletesImmediately(t *testing.T) {
	tr, gp := newTestTree(t, "empty")

	require.NoError(t, tr.StartScan(int64(0), GTE, int64(100), LTE))
	_, err := tr.ScanNext()
	require.ErrorIs(t, err, ErrIndexScanCompleted)
	require.NoError(t, tr.EndScan())
	require.Zero(t, gp.TotalPinned())
}

// Inserts that exactly fill a leaf without overflowing must not split.
func TestTree_ExactFillDoesNotSplit(t *testing.T) {
	tr, _ := newTestTree(t, "exactfill")

	cap := LeafCap(Int64Ops.Size)
	for k := int64(0); k < int64(cap); k++ {
		require.NoError(t, tr.Insert(k, ridFor(k)))
	}

	root, err := tr.rootPageNo()
	require.NoError(t, err)
	h, err := Acquire(tr.bp, root)
	require.NoError(t, err)
	require.Equal(t, uint8(nodeKindLeaf), h.Buf()[0])
	leaf := AsLeaf(h.Buf(), Int64Ops)
	require.Equal(t, cap, leaf.Occupancy())
	require.Zero(t, leaf.RightSibling())
	require.NoError(t, h.Release())
}

// Round-trip: successive start_scan/end_scan cycles over an unchanging
// index emit identical sequences.
func TestTree_RepeatedScansAreIdempotent(t *testing.T) {
	tr, _ := newTestTree(t, "idempotent")
	for k := int64(0); k < 1000; k++ {
		require.NoError(t, tr.Insert(k, ridFor(k)))
	}

	first := scanAll(t, tr, 10, GTE, 900, LTE)
	second := scanAll(t, tr, 10, GTE, 900, LTE)
	require.Equal(t, first, second)
}

func checkNonLeafInvariants(t *testing.T, tr *Tree[int64], pageID uint32) {
	t.Helper()
	h, err := Acquire(tr.bp, pageID)
	require.NoError(t, err)
	defer func() { require.NoError(t, h.Release()) }()

	if h.Buf()[0] == nodeKindLeaf {
		leaf := AsLeaf(h.Buf(), Int64Ops)
		occ := leaf.Occupancy()
		for i := 1; i < occ; i++ {
			require.LessOrEqual(t, leaf.Key(i-1), leaf.Key(i))
		}
		return
	}

	n := AsNonLeaf(h.Buf(), Int64Ops)
	occ := n.Occupancy()
	nonZeroChildren := 0
	for i := 0; i <= occ; i++ {
		if n.Child(i) != 0 {
			nonZeroChildren++
		}
	}
	require.Equal(t, occ+1, nonZeroChildren)
	for i := 1; i < occ; i++ {
		require.LessOrEqual(t, n.Key(i-1), n.Key(i))
	}
	for i := 0; i <= occ; i++ {
		checkNonLeafInvariants(t, tr, n.Child(i))
	}
}

// checkLeafChainInvariants walks from the leftmost leaf via right_sibling
// and asserts ascending, duplicate-free-of-gaps ordering (spec I3).
func checkLeafChainInvariants(t *testing.T, tr *Tree[int64], root uint32) {
	t.Helper()

	pageID := root
	for {
		h, err := Acquire(tr.bp, pageID)
		require.NoError(t, err)
		if h.Buf()[0] == nodeKindLeaf {
			require.NoError(t, h.Release())
			break
		}
		n := AsNonLeaf(h.Buf(), Int64Ops)
		child := n.Child(0)
		require.NoError(t, h.Release())
		pageID = child
	}

	var prevKey int64
	havePrev := false
	visited := 0
	for pageID != 0 {
		h, err := Acquire(tr.bp, pageID)
		require.NoError(t, err)
		leaf := AsLeaf(h.Buf(), Int64Ops)
		for i := 0; i < leaf.Occupancy(); i++ {
			k := leaf.Key(i)
			if havePrev {
				require.LessOrEqual(t, prevKey, k)
			}
			prevKey = k
			havePrev = true
		}
		next := leaf.RightSibling()
		require.NoError(t, h.Release())
		pageID = next
		visited++
		require.Less(t, visited, 1_000_000, "leaf chain looks cyclic")
	}
}
