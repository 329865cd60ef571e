package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

func newTestBP(t *testing.T, base string) bufferpool.Manager {
	t.Helper()
	dir := t.TempDir()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	return gp.View(fs)
}

// splitLeaf copies its separator: the promoted key stays present in the
// right leaf (B+-tree leaves keep every key), unlike the non-leaf case.
func TestSplitLeaf_SeparatorIsCopyNotRemove(t *testing.T) {
	bp := newTestBP(t, "split_leaf")

	lh, err := AcquireNew(bp)
	require.NoError(t, err)
	leaf := AsLeaf(lh.Buf(), Int64Ops)
	leaf.InitEmpty()

	cap := leaf.Cap()
	for i := 0; i <= cap; i++ { // fill to cap+1 (transient overflow)
		leaf.InsertAt(i, int64(i), uint32(i), 0)
	}
	lh.MarkDirty()

	sep, newID, err := splitLeaf(bp, Int64Ops, lh)
	require.NoError(t, err)
	require.NoError(t, lh.Release())

	rh, err := Acquire(bp, newID)
	require.NoError(t, err)
	defer func() { require.NoError(t, rh.Release()) }()
	right := AsLeaf(rh.Buf(), Int64Ops)

	require.Equal(t, sep, right.Key(0), "leaf split must copy separator as right's first key")

	lh2, err := Acquire(bp, 1)
	require.NoError(t, err)
	defer func() { require.NoError(t, lh2.Release()) }()
	left := AsLeaf(lh2.Buf(), Int64Ops)
	require.Equal(t, right.RightSibling(), uint32(0))
	require.Equal(t, newID, left.RightSibling())
	require.Less(t, left.Key(left.Occupancy()-1), sep)
}

// splitNonLeaf lifts its separator: it must not appear in either half
// afterward, per the REDESIGN FLAGS correction.
func TestSplitNonLeaf_SeparatorIsLiftedNotCopied(t *testing.T) {
	bp := newTestBP(t, "split_nonleaf")

	nh, err := AcquireNew(bp)
	require.NoError(t, err)
	n := AsNonLeaf(nh.Buf(), Int64Ops)
	n.InitEmpty(1)
	n.SetFirstChild(1000)

	cap := n.Cap()
	for i := 0; i <= cap; i++ { // fill to cap+1 keys (transient overflow)
		n.InsertSeparator(i, int64(i), uint32(2000+i))
	}
	nh.MarkDirty()

	sep, newID, err := splitNonLeaf(bp, Int64Ops, nh)
	require.NoError(t, err)
	require.NoError(t, nh.Release())

	lh, err := Acquire(bp, 1)
	require.NoError(t, err)
	defer func() { require.NoError(t, lh.Release()) }()
	left := AsNonLeaf(lh.Buf(), Int64Ops)

	rh, err := Acquire(bp, newID)
	require.NoError(t, err)
	defer func() { require.NoError(t, rh.Release()) }()
	right := AsNonLeaf(rh.Buf(), Int64Ops)

	for i := 0; i < left.Occupancy(); i++ {
		require.NotEqual(t, sep, left.Key(i), "separator must not remain in left half")
	}
	for i := 0; i < right.Occupancy(); i++ {
		require.NotEqual(t, sep, right.Key(i), "separator must not remain in right half")
	}
	require.Equal(t, left.Occupancy()+right.Occupancy()+1, cap+1)
}
