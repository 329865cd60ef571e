package bufferpool

import (
	"errors"
	"log/slog"
	"sync"

	lock "github.com/kelsonpham/bptreeidx/internal/lock"
	"github.com/kelsonpham/bptreeidx/internal/storage"
)

var (
	DefaultCapacity = 128

	ErrNoFreeFrame = errors.New("bufferpool: no free frame available (all pinned)")
	ErrPagePinned  = errors.New("bufferpool: page is pinned")

	// ErrUnsupportedFileSet is returned when GlobalPool cannot work with a
	// FileSet implementation.
	ErrUnsupportedFileSet = errors.New("bufferpool: unsupported FileSet (global pool requires LocalFileSet)")
)

// Replacer picks a victim frame index when the pool is full. The only
// implementation is the CLOCK (second-chance) adapter in
// replacer_clock_adapter.go.
type Replacer interface {
	RecordAccess(frameID int)
	SetEvictable(frameID int, evictable bool)
	Evict() (frameID int, ok bool)
	Remove(frameID int)
	Size() int
}

// Manager is the buffer manager interface the btree package consumes —
// spec.md §1's alloc_page/read_page/unpin_page/flush_file, scoped to a
// single paged file. See FileSetView.
type Manager interface {
	AllocPage() (*storage.Page, error)
	ReadPage(pageID uint32) (*storage.Page, error)
	UnpinPage(pageID uint32, dirty bool) error
	FlushFile() error
}

// PageTag uniquely identifies a page across every paged file the pool
// fronts.
type PageTag struct {
	FSKey  string
	PageID uint32
}

// GlobalPool is a single shared buffer pool fronting every paged file
// (index or relation) opened in this process, mirroring how a real buffer
// manager serves many relations out of one fixed frame budget.
type GlobalPool struct {
	mu       sync.Mutex
	frames   []*Frame                    // len == capacity, nil == free slot
	table    map[PageTag]int             // (fsKey,pageID) -> frame index
	files    map[string]*storage.PagedFile // fsKey -> opened paged file
	repl     Replacer
}

// Frame holds one pinned page and its bookkeeping.
type Frame struct {
	Tag  PageTag
	PF   *storage.PagedFile
	Page *storage.Page
	Dirty bool
	pin  lock.RefCount
}

func NewGlobalPool(capacity int) *GlobalPool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &GlobalPool{
		frames: make([]*Frame, capacity),
		table:  make(map[PageTag]int),
		files:  make(map[string]*storage.PagedFile),
		repl:   newClockAdapter(capacity),
	}
}

func (g *GlobalPool) pagedFileLocked(fs storage.FileSet) (string, *storage.PagedFile, error) {
	key, lfs, ok := storage.FsKeyOf(fs)
	if !ok {
		return "", nil, ErrUnsupportedFileSet
	}
	if pf, ok := g.files[key]; ok {
		return key, pf, nil
	}
	pf, err := storage.OpenPagedFile(lfs)
	if err != nil {
		return "", nil, err
	}
	g.files[key] = pf
	return key, pf, nil
}

func (g *GlobalPool) freeSlotLocked() int {
	for i, f := range g.frames {
		if f == nil {
			return i
		}
	}
	return -1
}

// evictLocked flushes and repurposes a victim frame, returning its index.
func (g *GlobalPool) evictLocked() (int, error) {
	idx, ok := g.repl.Evict()
	if !ok {
		return -1, ErrNoFreeFrame
	}
	victim := g.frames[idx]
	if victim == nil || victim.pin.Get() != 0 {
		return -1, ErrNoFreeFrame
	}
	if victim.Dirty {
		if err := victim.PF.WritePage(victim.Page); err != nil {
			g.repl.RecordAccess(idx)
			g.repl.SetEvictable(idx, true)
			return -1, err
		}
		victim.Dirty = false
	}
	delete(g.table, victim.Tag)
	return idx, nil
}

// AllocPage asks fs's paged file for a fresh page id and pins a frame for
// it (alloc_page, spec.md §1).
func (g *GlobalPool) AllocPage(fs storage.FileSet) (*storage.Page, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key, pf, err := g.pagedFileLocked(fs)
	if err != nil {
		return nil, err
	}
	page, err := pf.AllocatePage()
	if err != nil {
		return nil, err
	}
	tag := PageTag{FSKey: key, PageID: page.PageID()}

	idx, err := g.placeLocked(tag, pf, page, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("bufferpool.AllocPage", "pageID", page.PageID(), "frame", idx)
	return page, nil
}

// ReadPage pins and returns the page (fs,pageID), loading it from disk on
// a miss (read_page, spec.md §1).
func (g *GlobalPool) ReadPage(fs storage.FileSet, pageID uint32) (*storage.Page, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key, pf, err := g.pagedFileLocked(fs)
	if err != nil {
		return nil, err
	}
	tag := PageTag{FSKey: key, PageID: pageID}

	if idx, ok := g.table[tag]; ok {
		f := g.frames[idx]
		if f == nil {
			delete(g.table, tag)
		} else {
			wasZero := f.pin.Get() == 0
			f.pin.Inc()
			g.repl.RecordAccess(idx)
			if wasZero {
				g.repl.SetEvictable(idx, false)
			}
			return f.Page, nil
		}
	}

	page, err := pf.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	idx, err := g.placeLocked(tag, pf, page, false)
	if err != nil {
		return nil, err
	}
	slog.Debug("bufferpool.ReadPage", "pageID", pageID, "frame", idx)
	return page, nil
}

// placeLocked installs page into a free or evicted frame and returns its
// index. Caller holds g.mu.
func (g *GlobalPool) placeLocked(tag PageTag, pf *storage.PagedFile, page *storage.Page, dirty bool) (int, error) {
	idx := g.freeSlotLocked()
	if idx == -1 {
		var err error
		idx, err = g.evictLocked()
		if err != nil {
			return -1, err
		}
	}

	f := &Frame{Tag: tag, PF: pf, Page: page, Dirty: dirty}
	f.pin.Inc()
	g.frames[idx] = f
	g.table[tag] = idx
	g.repl.RecordAccess(idx)
	g.repl.SetEvictable(idx, false)
	return idx, nil
}

// UnpinPage decreases the pin count of (fs,pageID) and marks it dirty if
// requested (unpin_page, spec.md §1).
func (g *GlobalPool) UnpinPage(fs storage.FileSet, pageID uint32, dirty bool) error {
	key, _, ok := storage.FsKeyOf(fs)
	if !ok {
		return ErrUnsupportedFileSet
	}
	tag := PageTag{FSKey: key, PageID: pageID}

	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.table[tag]
	if !ok {
		return nil
	}
	f := g.frames[idx]
	if f == nil {
		delete(g.table, tag)
		return nil
	}

	if dirty {
		f.Dirty = true
	}
	if f.pin.Get() > 0 && f.pin.Dec() {
		g.repl.SetEvictable(idx, true)
	}
	return nil
}

// FlushFile flushes every dirty frame belonging to fs (flush_file,
// spec.md §1).
func (g *GlobalPool) FlushFile(fs storage.FileSet) error {
	key, _, ok := storage.FsKeyOf(fs)
	if !ok {
		return ErrUnsupportedFileSet
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, f := range g.frames {
		if f == nil || !f.Dirty || f.Tag.FSKey != key {
			continue
		}
		if err := f.PF.WritePage(f.Page); err != nil {
			return err
		}
		f.Dirty = false
	}
	return nil
}

// FlushAll flushes every dirty frame in the pool, regardless of which
// paged file it belongs to.
func (g *GlobalPool) FlushAll() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, f := range g.frames {
		if f == nil || !f.Dirty {
			continue
		}
		if err := f.PF.WritePage(f.Page); err != nil {
			return err
		}
		f.Dirty = false
	}
	return nil
}

// PinCount reports the current pin count for (fs,pageID); used by tests to
// assert balanced pin/unpin (spec.md I4).
func (g *GlobalPool) PinCount(fs storage.FileSet, pageID uint32) int32 {
	key, _, ok := storage.FsKeyOf(fs)
	if !ok {
		return 0
	}
	tag := PageTag{FSKey: key, PageID: pageID}

	g.mu.Lock()
	defer g.mu.Unlock()

	idx, ok := g.table[tag]
	if !ok {
		return 0
	}
	f := g.frames[idx]
	if f == nil {
		return 0
	}
	return f.pin.Get()
}

// TotalPinned sums pin counts across every occupied frame in the pool;
// tests use it to assert balanced pin/unpin across a whole operation
// (spec.md I4), not just a single page.
func (g *GlobalPool) TotalPinned() int32 {
	g.mu.Lock()
	defer g.mu.Unlock()

	var total int32
	for _, f := range g.frames {
		if f != nil {
			total += f.pin.Get()
		}
	}
	return total
}
