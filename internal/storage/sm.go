package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/kelsonpham/bptreeidx/internal/alias/util"
)

type FileSet interface {
	OpenSegment(segNo int32) (*os.File, error)
}

var _ FileSet = (*LocalFileSet)(nil)

// LocalFileSet represents a local directory + base file name.
// Segments are stored as: Base, Base.1, Base.2, ...
type LocalFileSet struct {
	Dir  string
	Base string
}

func (lfs LocalFileSet) OpenSegment(segNo int32) (*os.File, error) {
	path := lfs.Dir + string(os.PathSeparator) + SegFileName(lfs.Base, segNo)
	if err := os.MkdirAll(lfs.Dir, FileMode0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
}

// StorageManager maps a logical pageID -> (segment, offset) and performs
// the raw byte-level reads/writes. It has no notion of page contents.
type StorageManager struct{}

func NewStorageManager() *StorageManager {
	return &StorageManager{}
}

func (sm *StorageManager) pagesPerSegment() int {
	return SegmentSize / PageSize
}

func (sm *StorageManager) locate(pageID uint32) (segNo int32, offset int64) {
	pps := uint32(sm.pagesPerSegment())
	segNo = int32(pageID / pps)
	offset = int64(pageID%pps) * PageSize
	return segNo, offset
}

// readPageBytes reads exactly one page's worth of bytes into dst, zero-
// filling any portion past the current end of file.
func (sm *StorageManager) readPageBytes(fs FileSet, pageID uint32, dst []byte) error {
	if len(dst) != PageSize {
		return fmt.Errorf("storage: dst must be exactly %d bytes", PageSize)
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer util.CloseFileFunc(f)

	n, err := f.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	for i := n; i < PageSize; i++ {
		dst[i] = 0
	}
	return nil
}

func (sm *StorageManager) writePageBytes(fs FileSet, pageID uint32, src []byte) error {
	if len(src) != PageSize {
		return fmt.Errorf("storage: src must be exactly %d bytes", PageSize)
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer util.CloseFileFunc(f)

	n, err := f.WriteAt(src, off)
	if err != nil {
		return err
	}
	if n != PageSize {
		return io.ErrShortWrite
	}
	return nil
}

// CountPages computes total pages for a given FileSet by scanning all
// segments currently on disk.
func (sm *StorageManager) CountPages(fs FileSet) (uint32, error) {
	lfs, ok := fs.(LocalFileSet)
	if !ok {
		return 0, fmt.Errorf("storage: CountPages requires a LocalFileSet")
	}
	var total uint32

	for segNo := int32(0); ; segNo++ {
		info, err := os.Stat(lfs.Dir + string(os.PathSeparator) + SegFileName(lfs.Base, segNo))
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			return 0, err
		}

		if info.Size() <= 0 {
			continue
		}
		total += uint32(info.Size() / int64(PageSize))
	}

	return total, nil
}
