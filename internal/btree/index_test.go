package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/heap"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

func buildRelation(t *testing.T, dir, base string, recordSize int, keyOffset int, keys []int64) {
	t.Helper()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	rel, err := heap.OpenRelation(fs, gp.View(fs), recordSize)
	require.NoError(t, err)

	for _, k := range keys {
		rec := make([]byte, recordSize)
		rec[keyOffset] = byte(k)
		rec[keyOffset+1] = byte(k >> 8)
		rec[keyOffset+2] = byte(k >> 16)
		rec[keyOffset+3] = byte(k >> 24)
		rec[keyOffset+4] = byte(k >> 32)
		rec[keyOffset+5] = byte(k >> 40)
		rec[keyOffset+6] = byte(k >> 48)
		rec[keyOffset+7] = byte(k >> 56)
		_, err := rel.Insert(rec)
		require.NoError(t, err)
	}
	require.NoError(t, rel.Close())
}

func openRelationForRead(t *testing.T, dir, base string, recordSize int) *heap.Relation {
	t.Helper()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	rel, err := heap.OpenRelation(fs, gp.View(fs), recordSize)
	require.NoError(t, err)
	return rel
}

func TestIndex_BuildFromRelationAndScan(t *testing.T) {
	dir := t.TempDir()
	const recordSize = 16
	keys := make([]int64, 0, 500)
	for k := int64(0); k < 500; k++ {
		keys = append(keys, k)
	}
	buildRelation(t, dir, "orders", recordSize, 0, keys)
	rel := openRelationForRead(t, dir, "orders", recordSize)

	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	idx, err := OpenOrCreateIndex(dir, "orders", 0, AttrInt, gp, rel)
	require.NoError(t, err)
	require.Equal(t, "orders.0", idx.IndexName())

	require.NoError(t, idx.StartScan(encodeInt64(0), GTE, encodeInt64(499), LTE))
	n := 0
	for {
		_, err := idx.ScanNext()
		if err == ErrIndexScanCompleted {
			break
		}
		require.NoError(t, err)
		n++
	}
	require.NoError(t, idx.EndScan())
	require.Equal(t, 500, n)
	require.NoError(t, idx.Close())
}

func TestIndex_ReopenValidatesMetaAndRejectsMismatch(t *testing.T) {
	dir := t.TempDir()
	buildRelation(t, dir, "users", 8, 0, []int64{1, 2, 3})
	rel := openRelationForRead(t, dir, "users", 8)

	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	idx, err := OpenOrCreateIndex(dir, "users", 0, AttrInt, gp, rel)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	gp2 := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	reopened, err := OpenOrCreateIndex(dir, "users", 0, AttrInt, gp2, nil)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())

	gp3 := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	_, err = OpenOrCreateIndex(dir, "users", 0, AttrDouble, gp3, nil)
	require.ErrorIs(t, err, ErrBadIndexInfo)
}

func TestIndex_InsertEntryAfterOpen(t *testing.T) {
	dir := t.TempDir()
	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)
	idx, err := OpenOrCreateIndex(dir, "widgets", 4, AttrInt, gp, nil)
	require.NoError(t, err)

	for k := int64(0); k < 200; k++ {
		require.NoError(t, idx.InsertEntry(encodeInt64(k), heap.RecordID{PageID: 1, Slot: uint16(k)}))
	}

	require.NoError(t, idx.StartScan(encodeInt64(0), GTE, encodeInt64(199), LTE))
	count := 0
	for {
		_, err := idx.ScanNext()
		if err == ErrIndexScanCompleted {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.NoError(t, idx.EndScan())
	require.Equal(t, 200, count)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())
}

func encodeInt64(k int64) []byte {
	buf := make([]byte, 8)
	Int64Ops.EncodeTo(buf, k)
	return buf
}
