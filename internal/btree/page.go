package btree

import "github.com/kelsonpham/bptreeidx/internal/alias/bx"

// Node kind tags stored in byte 0 of every non-meta page, so a frame read
// back from disk can be told apart from a leaf or non-leaf without extra
// bookkeeping elsewhere.
const (
	nodeKindLeaf    = uint8(1)
	nodeKindNonLeaf = uint8(2)
)

// Meta page byte offsets (spec §6 — layout must remain stable across
// opens).
const (
	metaRelationNameOff = 0
	metaRelationNameLen = 20
	metaAttrOffsetOff   = 20
	metaAttrTypeOff     = 24
	metaRootPageOff     = 28
	metaPageMinSize     = 32
)

// MetaView is a zero-copy accessor over a pinned frame interpreted as the
// index's meta page (as_meta, spec §4.1).
type MetaView struct {
	buf []byte
}

func AsMeta(buf []byte) MetaView { return MetaView{buf: buf} }

func (m MetaView) RelationName() string {
	raw := m.buf[metaRelationNameOff : metaRelationNameOff+metaRelationNameLen]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

func (m MetaView) SetRelationName(name string) {
	dst := m.buf[metaRelationNameOff : metaRelationNameOff+metaRelationNameLen]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

func (m MetaView) AttrByteOffset() int32 {
	return int32(bx.U32At(m.buf, metaAttrOffsetOff))
}

func (m MetaView) SetAttrByteOffset(off int32) {
	bx.PutU32At(m.buf, metaAttrOffsetOff, uint32(off))
}

func (m MetaView) AttrType() AttrType {
	return AttrType(int32(bx.U32At(m.buf, metaAttrTypeOff)))
}

func (m MetaView) SetAttrType(t AttrType) {
	bx.PutU32At(m.buf, metaAttrTypeOff, uint32(int32(t)))
}

func (m MetaView) RootPageNo() uint32 {
	return bx.U32At(m.buf, metaRootPageOff)
}

func (m MetaView) SetRootPageNo(p uint32) {
	bx.PutU32At(m.buf, metaRootPageOff, p)
}

// LeafView is a zero-copy accessor over a pinned frame interpreted as a
// leaf node of key type K (as_leaf<K>, spec §4.1).
type LeafView[K Ordered] struct {
	buf   []byte
	ops   KeyOps[K]
	cap   int // enforced (post-split) capacity, spec's LEAF_CAP
	phys  int // physical slot count backing the page: cap+overflowSlack
}

func AsLeaf[K Ordered](buf []byte, ops KeyOps[K]) LeafView[K] {
	cap := LeafCap(ops.Size)
	return LeafView[K]{buf: buf, ops: ops, cap: cap, phys: cap + overflowSlack}
}

func (v LeafView[K]) Cap() int { return v.cap }

func (v LeafView[K]) InitEmpty() {
	v.buf[0] = nodeKindLeaf
	v.buf[1] = 0
	bx.PutU16At(v.buf, 2, 0)
	bx.PutU32At(v.buf, 4, 0)
	for i := 0; i < v.phys; i++ {
		v.SetKey(i, v.ops.Sentinel)
		v.setRID(i, 0, 0)
	}
}

func (v LeafView[K]) Occupancy() int { return int(bx.U16At(v.buf, 2)) }

func (v LeafView[K]) setOccupancy(n int) { bx.PutU16At(v.buf, 2, uint16(n)) }

func (v LeafView[K]) RightSibling() uint32 { return bx.U32At(v.buf, 4) }

func (v LeafView[K]) SetRightSibling(p uint32) { bx.PutU32At(v.buf, 4, p) }

func (v LeafView[K]) keyOff(i int) int { return leafHeaderSize + i*v.ops.Size }

func (v LeafView[K]) ridOff(i int) int { return leafHeaderSize + v.phys*v.ops.Size + i*ridSize }

func (v LeafView[K]) Key(i int) K {
	return v.ops.Decode(v.buf[v.keyOff(i) : v.keyOff(i)+v.ops.Size])
}

func (v LeafView[K]) SetKey(i int, k K) {
	v.ops.EncodeTo(v.buf[v.keyOff(i):v.keyOff(i)+v.ops.Size], k)
}

func (v LeafView[K]) RID(i int) (pageID uint32, slot uint16) {
	off := v.ridOff(i)
	return bx.U32At(v.buf, off), uint16(bx.U16At(v.buf, off+4))
}

func (v LeafView[K]) setRID(i int, pageID uint32, slot uint16) {
	off := v.ridOff(i)
	bx.PutU32At(v.buf, off, pageID)
	bx.PutU16At(v.buf, off+4, slot)
}

// IsSentinel reports whether slot i holds the unused-slot sentinel.
func (v LeafView[K]) IsSentinel(i int) bool {
	return v.ops.Compare(v.Key(i), v.ops.Sentinel) == 0
}

// InsertAt shifts slots [at..occupancy) right by one and writes (k, pageID,
// slot) at position at. The leaf may hold up to Cap() entries beforehand;
// the overflow slot takes the one extra entry until the caller splits.
func (v LeafView[K]) InsertAt(at int, k K, pageID uint32, slot uint16) {
	occ := v.Occupancy()
	for i := occ; i > at; i-- {
		v.SetKey(i, v.Key(i-1))
		p, s := v.RID(i - 1)
		v.setRID(i, p, s)
	}
	v.SetKey(at, k)
	v.setRID(at, pageID, slot)
	v.setOccupancy(occ + 1)
}

// NonLeafView is a zero-copy accessor over a pinned frame interpreted as a
// non-leaf node of key type K (as_nonleaf<K>, spec §4.1).
type NonLeafView[K Ordered] struct {
	buf  []byte
	ops  KeyOps[K]
	cap  int // enforced (post-split) capacity, spec's NONLEAF_CAP
	phys int // physical key-slot count backing the page: cap+overflowSlack
}

func AsNonLeaf[K Ordered](buf []byte, ops KeyOps[K]) NonLeafView[K] {
	cap := NonLeafCap(ops.Size)
	return NonLeafView[K]{buf: buf, ops: ops, cap: cap, phys: cap + overflowSlack}
}

func (v NonLeafView[K]) Cap() int { return v.cap }

func (v NonLeafView[K]) InitEmpty(level int) {
	v.buf[0] = nodeKindNonLeaf
	v.buf[1] = 0
	bx.PutU16At(v.buf, 2, uint16(level))
	bx.PutU16At(v.buf, 4, 0)
	bx.PutU16At(v.buf, 6, 0)
	for i := 0; i < v.phys; i++ {
		v.SetKey(i, v.ops.Sentinel)
	}
	for i := 0; i <= v.phys; i++ {
		v.setChild(i, 0)
	}
}

func (v NonLeafView[K]) Level() int { return int(bx.U16At(v.buf, 2)) }

func (v NonLeafView[K]) SetLevel(l int) { bx.PutU16At(v.buf, 2, uint16(l)) }

func (v NonLeafView[K]) Occupancy() int { return int(bx.U16At(v.buf, 4)) }

func (v NonLeafView[K]) setOccupancy(n int) { bx.PutU16At(v.buf, 4, uint16(n)) }

func (v NonLeafView[K]) keyOff(i int) int { return nonLeafHeaderSize + i*v.ops.Size }

func (v NonLeafView[K]) childOff(i int) int {
	return nonLeafHeaderSize + v.phys*v.ops.Size + i*childSize
}

func (v NonLeafView[K]) Key(i int) K {
	return v.ops.Decode(v.buf[v.keyOff(i) : v.keyOff(i)+v.ops.Size])
}

func (v NonLeafView[K]) SetKey(i int, k K) {
	v.ops.EncodeTo(v.buf[v.keyOff(i):v.keyOff(i)+v.ops.Size], k)
}

func (v NonLeafView[K]) Child(i int) uint32 {
	return bx.U32At(v.buf, v.childOff(i))
}

func (v NonLeafView[K]) setChild(i int, pageID uint32) {
	bx.PutU32At(v.buf, v.childOff(i), pageID)
}

// InsertSeparator inserts key k at slot `at` and child pageID at slot
// at+1, shifting keys [at..occupancy) and children [at+1..occupancy+1)
// right by one. The node may hold up to Cap() keys beforehand; the overflow
// slot takes the one extra key until the caller splits.
func (v NonLeafView[K]) InsertSeparator(at int, k K, pageID uint32) {
	occ := v.Occupancy()
	for i := occ; i > at; i-- {
		v.SetKey(i, v.Key(i-1))
	}
	for i := occ + 1; i > at+1; i-- {
		v.setChild(i, v.Child(i-1))
	}
	v.SetKey(at, k)
	v.setChild(at+1, pageID)
	v.setOccupancy(occ + 1)
}

// SetFirstChild sets page_no_array[0], used only when installing the very
// first two children of a brand-new root.
func (v NonLeafView[K]) SetFirstChild(pageID uint32) { v.setChild(0, pageID) }
