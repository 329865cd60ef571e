package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

func newTestRelation(t *testing.T, base string, recordSize int) (*Relation, storage.LocalFileSet, *bufferpool.GlobalPool) {
	t.Helper()

	dir := t.TempDir()
	fs := storage.LocalFileSet{Dir: dir, Base: base}
	gp := bufferpool.NewGlobalPool(bufferpool.DefaultCapacity)

	rel, err := OpenRelation(fs, gp.View(fs), recordSize)
	require.NoError(t, err)
	return rel, fs, gp
}

func TestRelation_InsertAndScan(t *testing.T) {
	const recordSize = 16
	rel, _, gp := newTestRelation(t, "rel_basic", recordSize)

	const n = 600 // spans several pages
	ids := make([]RecordID, 0, n)
	for i := 0; i < n; i++ {
		rec := make([]byte, recordSize)
		rec[0] = byte(i)
		rec[1] = byte(i >> 8)
		id, err := rel.Insert(rec)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, gp.FlushAll())

	sc, err := rel.Scan()
	require.NoError(t, err)

	seen := 0
	for {
		id, rec, err := sc.Next()
		if err == ErrEndOfRelation {
			break
		}
		require.NoError(t, err)
		require.Equal(t, ids[seen], id)
		require.Equal(t, byte(seen), rec[0])
		seen++
	}
	require.Equal(t, n, seen)
}

func TestRelation_GetById(t *testing.T) {
	rel, _, _ := newTestRelation(t, "rel_get", 8)

	id, err := rel.Insert([]byte("abcdefgh"))
	require.NoError(t, err)

	got, err := rel.Get(id)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdefgh"), got)

	_, err = rel.Get(RecordID{PageID: id.PageID, Slot: id.Slot + 1})
	require.ErrorIs(t, err, ErrRecordOutOfRange)
}

func TestRelation_ClosedIsIdempotentAndRejectsOps(t *testing.T) {
	rel, _, _ := newTestRelation(t, "rel_close", 8)

	require.NoError(t, rel.Close())
	require.NoError(t, rel.Close())

	_, err := rel.Insert([]byte("12345678"))
	require.ErrorIs(t, err, ErrRelationClosed)
}
