package btree

import (
	"log/slog"

	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/heap"
)

// metaPageID is always 1: an index's paged file allocates its meta page
// first, before any node page, so AllocPage's first call (page id 0 is
// reserved for "no page") always lands on 1. Re-derived from this constant
// rather than cached per spec §9's redesign note about root_page_no.
const metaPageID = 1

// Tree is the generic B+-tree core (spec §3/§4) parameterized over key
// type K. Index (index.go) picks Int64Ops or Float64Ops at runtime based
// on the meta page's attr_type and wraps the resulting Tree[K] behind a
// non-generic interface.
type Tree[K Ordered] struct {
	bp  bufferpool.Manager
	ops KeyOps[K]

	// Scan cursor state (spec §4.5). Single active scan at a time, as the
	// concurrency model mandates (spec §5).
	scanExecuting bool
	scanPage      *PageHandle
	nextEntry     int
	lowVal        K
	highVal       K
	lowOp         Op
	highOp        Op
}

func newTree[K Ordered](bp bufferpool.Manager, ops KeyOps[K]) *Tree[K] {
	return &Tree[K]{bp: bp, ops: ops}
}

// formatMeta writes a brand-new meta page at metaPageID. Called exactly
// once, when the index file has no pages yet.
func (t *Tree[K]) formatMeta(relationName string, attrByteOffset int32, attrType AttrType) error {
	h, err := AcquireNew(t.bp)
	if err != nil {
		return err
	}
	defer h.Release()
	if h.PageID() != metaPageID {
		panic("btree: meta page did not land on page 1 of a fresh index file")
	}
	m := AsMeta(h.Buf())
	m.SetRelationName(relationName)
	m.SetAttrByteOffset(attrByteOffset)
	m.SetAttrType(attrType)
	m.SetRootPageNo(0)
	h.MarkDirty()
	return nil
}

// readMeta pins the meta page, hands it to fn, and always releases
// (clean — meta mutation goes through mutateMeta).
func (t *Tree[K]) readMeta(fn func(MetaView)) error {
	h, err := Acquire(t.bp, metaPageID)
	if err != nil {
		return err
	}
	defer h.Release()
	fn(AsMeta(h.Buf()))
	return nil
}

// mutateMeta pins the meta page, lets fn mutate it, and marks it dirty.
func (t *Tree[K]) mutateMeta(fn func(MetaView)) error {
	h, err := Acquire(t.bp, metaPageID)
	if err != nil {
		return err
	}
	defer h.Release()
	fn(AsMeta(h.Buf()))
	h.MarkDirty()
	return nil
}

// rootPageNo re-derives the current root from the meta page on every
// call, never trusting a cached field (spec §9).
func (t *Tree[K]) rootPageNo() (uint32, error) {
	var root uint32
	err := t.readMeta(func(m MetaView) { root = m.RootPageNo() })
	return root, err
}

func (t *Tree[K]) setRootPageNo(pageID uint32) error {
	return t.mutateMeta(func(m MetaView) { m.SetRootPageNo(pageID) })
}

// buildFromRelation bulk-inserts every (key, rid) tuple from a relation
// scan, continuing until ErrEndOfRelation (spec §4.6, §7: "continues until
// EndOfFile").
func (t *Tree[K]) buildFromRelation(rel *heap.Relation, attrByteOffset int32) error {
	sc, err := rel.Scan()
	if err != nil {
		return err
	}
	n := 0
	for {
		rid, rec, err := sc.Next()
		if err == heap.ErrEndOfRelation {
			break
		}
		if err != nil {
			return err
		}
		key := t.ops.Decode(rec[attrByteOffset : int(attrByteOffset)+t.ops.Size])
		if err := t.Insert(key, rid); err != nil {
			return err
		}
		n++
	}
	slog.Debug("btree.buildFromRelation", "inserted", n)
	return nil
}
