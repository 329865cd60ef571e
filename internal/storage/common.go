// Package storage is the paged-file layer: it stores fixed-size pages
// addressed by opaque page ids and knows nothing about what a page means.
package storage

import "errors"

const (
	// PageSize is the fixed page size handed to every frame. 4 KiB, as
	// spec.md §3 calls out as the typical paged-file page size.
	PageSize = 4096

	// NullPageID is reserved to mean "no page" (spec.md §3).
	NullPageID uint32 = 0

	// SegmentSize bounds how large a single OS file backing the paged
	// file is allowed to grow before a new segment is opened.
	SegmentSize = 1 * 1024 * 1024 * 1024

	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	// ErrFileNotFound names the paged-file layer's not-found condition
	// (spec.md §7). Nothing in this package returns it: segments are
	// created when first opened.
	ErrFileNotFound = errors.New("storage: file not found")
	// ErrEndOfFile names the end-of-file condition (spec.md §7). Nothing
	// returns it; heap.Scanner signals exhaustion with heap.ErrEndOfRelation.
	ErrEndOfFile = errors.New("storage: end of file")

	ErrPageOutOfRange = errors.New("storage: page id out of range")
)
