package btree

// AttrType identifies the on-disk representation of an index's single
// indexed attribute (spec §3/§6). AttrString is named by the on-disk enum
// but has no Ops instance — see keyops.go.
type AttrType int32

const (
	AttrInt AttrType = iota
	AttrDouble
	AttrString
)

// Op is a scan bound comparison operator (spec §4.5/§6).
type Op int

const (
	GT Op = iota
	GTE
	LT
	LTE
)

func isLowOp(op Op) bool  { return op == GT || op == GTE }
func isHighOp(op Op) bool { return op == LT || op == LTE }
