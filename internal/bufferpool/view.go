package bufferpool

import "github.com/kelsonpham/bptreeidx/internal/storage"

// FileSetView binds a GlobalPool to a specific FileSet (one paged file —
// an index or a relation). It implements Manager so the btree and heap
// packages never have to thread a FileSet through every call.
type FileSetView struct {
	gp *GlobalPool
	fs storage.FileSet
}

var _ Manager = (*FileSetView)(nil)

func (v *FileSetView) AllocPage() (*storage.Page, error) {
	return v.gp.AllocPage(v.fs)
}

func (v *FileSetView) ReadPage(pageID uint32) (*storage.Page, error) {
	return v.gp.ReadPage(v.fs, pageID)
}

func (v *FileSetView) UnpinPage(pageID uint32, dirty bool) error {
	return v.gp.UnpinPage(v.fs, pageID, dirty)
}

// FlushFile flushes dirty pages for this FileSet only.
func (v *FileSetView) FlushFile() error {
	return v.gp.FlushFile(v.fs)
}

// View returns a file-scoped Manager backed by the shared GlobalPool.
func (gp *GlobalPool) View(fs storage.FileSet) Manager {
	return &FileSetView{gp: gp, fs: fs}
}
