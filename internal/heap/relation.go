package heap

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/kelsonpham/bptreeidx/internal/alias/bx"
	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

var (
	ErrRelationClosed   = errors.New("heap: relation is closed")
	ErrRecordOutOfRange = errors.New("heap: record id out of range")
)

// Relation is the external "relation scanner" collaborator spec.md treats
// as out of scope: a sequence of fixed-width records packed onto pages of
// an otherwise opaque paged file, fronted by the same buffer manager the
// index uses.
type Relation struct {
	fs         storage.FileSet
	bp         bufferpool.Manager
	recordSize int
	perPage    int

	pageCount uint32
	closed    atomic.Bool
}

// OpenRelation opens (creating if absent) the paged file backing fs as a
// relation of fixed-width records.
func OpenRelation(fs storage.FileSet, bp bufferpool.Manager, recordSize int) (*Relation, error) {
	if recordSize <= 0 || recordSize > storage.PageSize-pageHeaderSize {
		return nil, fmt.Errorf("heap: invalid record size %d", recordSize)
	}
	r := &Relation{
		fs:         fs,
		bp:         bp,
		recordSize: recordSize,
		perPage:    recordsPerPage(recordSize),
	}
	// Reopening an existing relation: the file holds pages 0..last (page 0
	// reserved), so the highest page id is the on-disk page count minus one.
	count, err := storage.NewStorageManager().CountPages(fs)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		r.pageCount = count - 1
	}
	return r, nil
}

func (r *Relation) ensureOpen() error {
	if r == nil || r.closed.Load() {
		return ErrRelationClosed
	}
	return nil
}

// Insert appends rec (must be exactly RecordSize bytes) to the relation,
// allocating a fresh page when the current last page is full.
func (r *Relation) Insert(rec []byte) (RecordID, error) {
	if err := r.ensureOpen(); err != nil {
		return RecordID{}, err
	}
	if len(rec) != r.recordSize {
		return RecordID{}, fmt.Errorf("heap: record is %d bytes, want %d", len(rec), r.recordSize)
	}

	var page *storage.Page
	var err error
	fresh := false
	if r.pageCount == 0 {
		page, err = r.bp.AllocPage()
		fresh = true
	} else {
		page, err = r.bp.ReadPage(r.pageCount)
	}
	if err != nil {
		return RecordID{}, err
	}
	if fresh {
		r.pageCount = page.PageID()
	}

	count := int(bx.U32(page.Buf[0:4]))
	if count >= r.perPage {
		if err := r.bp.UnpinPage(page.PageID(), false); err != nil {
			return RecordID{}, err
		}
		page, err = r.bp.AllocPage()
		if err != nil {
			return RecordID{}, err
		}
		r.pageCount = page.PageID()
		count = 0
	}

	off := pageHeaderSize + count*r.recordSize
	copy(page.Buf[off:off+r.recordSize], rec)
	bx.PutU32(page.Buf[0:4], uint32(count+1))

	id := RecordID{PageID: page.PageID(), Slot: uint16(count)}
	if err := r.bp.UnpinPage(page.PageID(), true); err != nil {
		return RecordID{}, err
	}
	return id, nil
}

// Get reads the record at id.
func (r *Relation) Get(id RecordID) ([]byte, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	page, err := r.bp.ReadPage(id.PageID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := r.bp.UnpinPage(id.PageID, false); uerr != nil {
			slog.Warn("heap: unpin failed", "pageID", id.PageID, "err", uerr)
		}
	}()

	count := int(bx.U32(page.Buf[0:4]))
	if int(id.Slot) >= count {
		return nil, ErrRecordOutOfRange
	}
	off := pageHeaderSize + int(id.Slot)*r.recordSize
	out := make([]byte, r.recordSize)
	copy(out, page.Buf[off:off+r.recordSize])
	return out, nil
}

// PageCount reports the highest page id allocated for this relation so
// far; 0 means the relation has no records yet.
func (r *Relation) PageCount() uint32 { return r.pageCount }

// RecordSize returns the fixed width of every record in this relation.
func (r *Relation) RecordSize() int { return r.recordSize }

// Scan returns a cursor yielding every (RecordID, record bytes) tuple in
// file order, matching spec.md's relation-scanner contract.
func (r *Relation) Scan() (*Scanner, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	return &Scanner{rel: r, pageID: 1, slot: 0}, nil
}

// Close flushes and closes the relation. Idempotent.
func (r *Relation) Close() error {
	if r == nil || r.closed.Swap(true) {
		return nil
	}
	return r.bp.FlushFile()
}

// Scanner yields (record_id, record_bytes) tuples in ascending page/slot
// order until exhaustion (ErrEndOfRelation), per spec.md §1's relation-scanner
// contract. It is single-use and not safe for concurrent use.
type Scanner struct {
	rel    *Relation
	pageID uint32
	slot   int
}

var ErrEndOfRelation = errors.New("heap: end of relation")

// Next returns the next (RecordID, record) pair, or ErrEndOfRelation once
// every page up to PageCount has been exhausted.
func (s *Scanner) Next() (RecordID, []byte, error) {
	if err := s.rel.ensureOpen(); err != nil {
		return RecordID{}, nil, err
	}

	for s.pageID <= s.rel.pageCount {
		page, err := s.rel.bp.ReadPage(s.pageID)
		if err != nil {
			return RecordID{}, nil, err
		}
		count := int(bx.U32(page.Buf[0:4]))

		if s.slot >= count {
			if err := s.rel.bp.UnpinPage(s.pageID, false); err != nil {
				return RecordID{}, nil, err
			}
			s.pageID++
			s.slot = 0
			continue
		}

		off := pageHeaderSize + s.slot*s.rel.recordSize
		out := make([]byte, s.rel.recordSize)
		copy(out, page.Buf[off:off+s.rel.recordSize])
		id := RecordID{PageID: s.pageID, Slot: uint16(s.slot)}
		s.slot++

		if err := s.rel.bp.UnpinPage(s.pageID, false); err != nil {
			return RecordID{}, nil, err
		}
		return id, out, nil
	}
	return RecordID{}, nil, ErrEndOfRelation
}
