package heap

import "github.com/kelsonpham/bptreeidx/internal/storage"

// RecordID is the rid pair from the glossary: a fixed-width record's
// location inside a relation, (page_id, slot_number).
type RecordID struct {
	PageID uint32
	Slot   uint16
}

// pageHeaderSize bytes hold the page's live record count.
const pageHeaderSize = 4

// recordsPerPage returns how many recordSize-byte records fit on one page
// after the header.
func recordsPerPage(recordSize int) int {
	return (storage.PageSize - pageHeaderSize) / recordSize
}
