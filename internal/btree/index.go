package btree

import (
	"fmt"
	"sync/atomic"

	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/heap"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

// indexCore is the byte-level surface an Index drives, realized once per
// key type by treeAdapter[K]. This is the "tagged variant" spec §9
// recommends in place of template-style genericity: AttrType picks which
// concrete Tree[K] backs an Index at open time.
type indexCore interface {
	InsertBytes(keyBytes []byte, rid heap.RecordID) error
	StartScanBytes(lowBytes []byte, lowOp Op, highBytes []byte, highOp Op) error
	ScanNext() (heap.RecordID, error)
	EndScan() error
	build(rel *heap.Relation, attrByteOffset int32) error
}

type treeAdapter[K Ordered] struct{ t *Tree[K] }

func (a treeAdapter[K]) InsertBytes(keyBytes []byte, rid heap.RecordID) error {
	return a.t.Insert(a.t.ops.Decode(keyBytes), rid)
}

func (a treeAdapter[K]) StartScanBytes(lowBytes []byte, lowOp Op, highBytes []byte, highOp Op) error {
	return a.t.StartScan(a.t.ops.Decode(lowBytes), lowOp, a.t.ops.Decode(highBytes), highOp)
}

func (a treeAdapter[K]) ScanNext() (heap.RecordID, error) { return a.t.ScanNext() }

func (a treeAdapter[K]) EndScan() error { return a.t.EndScan() }

func (a treeAdapter[K]) build(rel *heap.Relation, attrByteOffset int32) error {
	return a.t.buildFromRelation(rel, attrByteOffset)
}

// openOrFormat formats a brand-new meta page, or validates an existing
// one against the caller's constructor arguments (spec §4.6: "mismatch
// signals BadIndexInfo").
func (t *Tree[K]) openOrFormat(exists bool, relationName string, attrByteOffset int32, attrType AttrType) error {
	if !exists {
		return t.formatMeta(relationName, attrByteOffset, attrType)
	}
	var mismatch bool
	if err := t.readMeta(func(m MetaView) {
		if m.AttrByteOffset() != attrByteOffset || m.AttrType() != attrType {
			mismatch = true
		}
	}); err != nil {
		return err
	}
	if mismatch {
		return ErrBadIndexInfo
	}
	return nil
}

// Index is the index lifecycle (spec §4.6): open-or-create, bulk build,
// flush-and-close. It presents the programmatic surface of spec §6 —
// InsertEntry/StartScan/ScanNext/EndScan/Close — over whichever key type
// AttrType selects.
type Index struct {
	core           indexCore
	bp             bufferpool.Manager
	fs             storage.LocalFileSet
	relationName   string
	attrByteOffset int32
	attrType       AttrType
	closed         atomic.Bool
}

// indexFileName derives "<relation>.<offset>" per spec §4.6.
func indexFileName(relationName string, attrByteOffset int32) string {
	return fmt.Sprintf("%s.%d", relationName, attrByteOffset)
}

// IndexFileName exports indexFileName for callers (cmd/ixbuild) that need
// to report the derived file name without holding an Index.
func IndexFileName(relationName string, attrByteOffset int32) string {
	return indexFileName(relationName, attrByteOffset)
}

// OpenOrCreateIndex constructs an index over relationName's attrByteOffset
// attribute, opening it if its paged file already exists or creating it
// and bulk-inserting from rel otherwise. rel may be nil when opening an
// index that is known to already exist.
func OpenOrCreateIndex(
	dataDir string,
	relationName string,
	attrByteOffset int32,
	attrType AttrType,
	gp *bufferpool.GlobalPool,
	rel *heap.Relation,
) (*Index, error) {
	if attrType != AttrInt && attrType != AttrDouble {
		return nil, fmt.Errorf("btree: attr_type %d has no realized key ops (spec §9: string keys are unimplemented)", attrType)
	}

	base := indexFileName(relationName, attrByteOffset)
	fs := storage.LocalFileSet{Dir: dataDir, Base: base}
	bp := gp.View(fs)

	exists, err := storage.ExistsLocal(fs)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		bp:             bp,
		fs:             fs,
		relationName:   relationName,
		attrByteOffset: attrByteOffset,
		attrType:       attrType,
	}

	switch attrType {
	case AttrInt:
		t := newTree(bp, Int64Ops)
		if err := t.openOrFormat(exists, relationName, attrByteOffset, attrType); err != nil {
			return nil, err
		}
		idx.core = treeAdapter[int64]{t: t}
	case AttrDouble:
		t := newTree(bp, Float64Ops)
		if err := t.openOrFormat(exists, relationName, attrByteOffset, attrType); err != nil {
			return nil, err
		}
		idx.core = treeAdapter[float64]{t: t}
	}

	if !exists && rel != nil {
		if err := idx.core.build(rel, attrByteOffset); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// IndexName returns the derived "<relation>.<offset>" file name (the
// out_index_name constructor output of spec §6).
func (idx *Index) IndexName() string { return idx.fs.Base }

func (idx *Index) InsertEntry(keyBytes []byte, rid heap.RecordID) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}
	return idx.core.InsertBytes(keyBytes, rid)
}

func (idx *Index) StartScan(lowBytes []byte, lowOp Op, highBytes []byte, highOp Op) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}
	return idx.core.StartScanBytes(lowBytes, lowOp, highBytes, highOp)
}

func (idx *Index) ScanNext() (heap.RecordID, error) {
	if idx.closed.Load() {
		return heap.RecordID{}, ErrIndexClosed
	}
	return idx.core.ScanNext()
}

func (idx *Index) EndScan() error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}
	return idx.core.EndScan()
}

// Close flushes dirty pages and closes the index. Idempotent.
func (idx *Index) Close() error {
	if idx == nil || idx.closed.Swap(true) {
		return nil
	}
	return idx.bp.FlushFile()
}
