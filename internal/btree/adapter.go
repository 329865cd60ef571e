package btree

import "github.com/kelsonpham/bptreeidx/internal/bufferpool"

// PageHandle is the buffer-pool adapter (spec §4.2): scoped acquisition of
// a page, either existing (via ReadPage) or new (via AllocPage), with
// guaranteed unpin on all exit paths via Release. Callers call MarkDirty to
// record that they wrote to the page; Release is idempotent so a
// deferred call after an explicit early Release is a no-op.
type PageHandle struct {
	bp       bufferpool.Manager
	pageID   uint32
	buf      []byte
	dirty    bool
	released bool
}

// Acquire pins an existing page (read_page).
func Acquire(bp bufferpool.Manager, pageID uint32) (*PageHandle, error) {
	p, err := bp.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	return &PageHandle{bp: bp, pageID: p.PageID(), buf: p.Buf}, nil
}

// AcquireNew allocates and pins a fresh page (alloc_page).
func AcquireNew(bp bufferpool.Manager) (*PageHandle, error) {
	p, err := bp.AllocPage()
	if err != nil {
		return nil, err
	}
	return &PageHandle{bp: bp, pageID: p.PageID(), buf: p.Buf, dirty: true}, nil
}

func (h *PageHandle) PageID() uint32 { return h.pageID }

func (h *PageHandle) Buf() []byte { return h.buf }

// MarkDirty records that this call site wrote to the page. Never cleared —
// once dirty within a handle's lifetime, always flushed on release.
func (h *PageHandle) MarkDirty() { h.dirty = true }

// Release unpins the page exactly once, regardless of how many times it is
// called.
func (h *PageHandle) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	return h.bp.UnpinPage(h.pageID, h.dirty)
}
