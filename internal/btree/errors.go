package btree

import "errors"

// Error kinds, each a distinct signal surfaced unchanged to the caller.
// Internal invariant violations (over-full node after a completed insert,
// unbalanced pins) are programming defects, not error kinds; this package
// does not check for them at run time. FileNotFound and EndOfFile are not
// redeclared here: errors from the storage and heap layers are returned
// unchanged, per the propagation policy above, and the relation scan's
// heap.ErrEndOfRelation ends a build rather than surfacing as an error.
var (
	ErrBadOpcodes         = errors.New("btree: comparison operator not in the permitted set")
	ErrBadScanRange       = errors.New("btree: low bound is greater than high bound")
	ErrScanNotInitialized = errors.New("btree: scan_next or end_scan called while not active")
	ErrIndexScanCompleted = errors.New("btree: scan exhausted")
	// ErrNoSuchKeyFound is reserved for a future point-lookup operation;
	// nothing in this package returns it yet.
	ErrNoSuchKeyFound = errors.New("btree: no such key found")
	ErrBadIndexInfo   = errors.New("btree: meta page incompatible with constructor arguments")
	ErrIndexClosed    = errors.New("btree: index is closed")
)
