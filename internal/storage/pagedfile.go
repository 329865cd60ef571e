package storage

import (
	"log/slog"
)

// PagedFile is the external collaborator spec.md §1 calls "the paged
// file": it stores fixed-size pages addressed by opaque page ids. Page id
// 0 is reserved to mean "no page" (spec.md §3), so AllocatePage never
// hands out 0.
type PagedFile struct {
	sm  *StorageManager
	fs  FileSet
	lfs LocalFileSet

	// nextPageID is cached on open from the on-disk page count and bumped
	// on every AllocatePage. Single-writer, single-threaded per spec.md §5,
	// so no locking is needed here.
	nextPageID uint32
}

// OpenPagedFile opens (or prepares to create) the paged file backing fs.
// It does not write anything to disk until the first AllocatePage/WritePage.
func OpenPagedFile(fs LocalFileSet) (*PagedFile, error) {
	sm := NewStorageManager()
	count, err := sm.CountPages(fs)
	if err != nil {
		return nil, err
	}
	next := count
	if next < 1 {
		// Page id 0 is reserved; real pages start at 1.
		next = 1
	}
	return &PagedFile{sm: sm, fs: fs, lfs: fs, nextPageID: next}, nil
}

// AllocatePage reserves a fresh page id and returns a zeroed Page for it.
// The page is not durable until WritePage persists it.
func (pf *PagedFile) AllocatePage() (*Page, error) {
	id := pf.nextPageID
	pf.nextPageID++
	p := newPage(id)
	slog.Debug("storage.AllocatePage", "pageID", id)
	return p, nil
}

// ReadPage reads pageID from disk into a fresh Page.
func (pf *PagedFile) ReadPage(pageID uint32) (*Page, error) {
	p := newPage(pageID)
	if err := pf.sm.readPageBytes(pf.fs, pageID, p.Buf); err != nil {
		return nil, err
	}
	return p, nil
}

// WritePage persists p at its own page id.
func (pf *PagedFile) WritePage(p *Page) error {
	return pf.sm.writePageBytes(pf.fs, p.ID, p.Buf)
}

// Exists reports whether this paged file has any bytes on disk yet
// (file_exists, spec.md §1).
func (pf *PagedFile) Exists() (bool, error) {
	return ExistsLocal(pf.lfs)
}

// Delete removes every segment backing this paged file (delete_file,
// spec.md §1). It is the caller's responsibility to have flushed/dropped
// any buffer-manager frames referencing it first.
func (pf *PagedFile) Delete() error {
	return RemoveAllSegments(pf.lfs)
}

// PageCount returns how many page ids have been allocated so far,
// including id 0's reservation.
func (pf *PagedFile) PageCount() uint32 {
	return pf.nextPageID
}
