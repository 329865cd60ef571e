// Command ixscan is an interactive shell for running range scans against
// an already-built B+-tree index, in the spirit of novasql's cmd/client
// REPL but scoped to the index's own scan_range surface.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/kelsonpham/bptreeidx/internal/btree"
	"github.com/kelsonpham/bptreeidx/internal/bufferpool"
	"github.com/kelsonpham/bptreeidx/internal/config"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to a YAML config file (optional)")
		dataDir    = pflag.String("data-dir", "", "directory holding the index file")
		relation   = pflag.String("relation", "", "relation name")
		attrOffset = pflag.Int32("attr-offset", 0, "byte offset of the indexed attribute")
		attrType   = pflag.String("attr-type", "", "attribute type: int or double")
		poolCap    = pflag.Int("buffer-pool-capacity", 0, "buffer pool frame count")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ixscan:", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if *relation != "" {
		cfg.Relation.Name = *relation
	}
	if *attrOffset != 0 {
		cfg.Relation.AttrByteOffset = *attrOffset
	}
	if *attrType != "" {
		cfg.Relation.AttrType = *attrType
	}
	if *poolCap != 0 {
		cfg.Storage.BufferPoolCapacity = *poolCap
	}

	if cfg.Relation.Name == "" {
		fmt.Fprintln(os.Stderr, "ixscan: --relation is required (directly or via config)")
		os.Exit(1)
	}

	attr, err := parseAttrType(cfg.Relation.AttrType)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ixscan:", err)
		os.Exit(1)
	}

	gp := bufferpool.NewGlobalPool(cfg.Storage.BufferPoolCapacity)
	idx, err := btree.OpenOrCreateIndex(cfg.Storage.DataDir, cfg.Relation.Name, cfg.Relation.AttrByteOffset, attr, gp, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ixscan: open index:", err)
		os.Exit(1)
	}
	defer func() { _ = idx.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ixscan> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "ixscan:", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("opened index %s (attr_type=%s)\n", idx.IndexName(), cfg.Relation.AttrType)
	fmt.Println(`type \help for help`)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "\\q" || line == "quit" || line == "exit":
			return
		case line == "\\help":
			printHelp()
		case strings.HasPrefix(line, "scan "):
			if err := runScan(idx, attr, strings.TrimPrefix(line, "scan ")); err != nil {
				fmt.Println("error:", err)
			}
		default:
			fmt.Printf("unknown command: %s (try \\help)\n", line)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  scan <low> <lowop> <high> <highop>   range scan; ops are one of gt ge lt le
  \q | quit | exit                     quit
  \help                                show this help`)
}

// runScan parses "<low> <lowop> <high> <highop>" and prints every matching
// record id, one per line.
func runScan(idx *btree.Index, attr btree.AttrType, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return fmt.Errorf("expected 4 arguments: low lowop high highop, got %d", len(fields))
	}

	lowOp, err := parseOp(fields[1])
	if err != nil {
		return err
	}
	highOp, err := parseOp(fields[3])
	if err != nil {
		return err
	}

	lowBytes, err := encodeAttr(attr, fields[0])
	if err != nil {
		return err
	}
	highBytes, err := encodeAttr(attr, fields[2])
	if err != nil {
		return err
	}

	if err := idx.StartScan(lowBytes, lowOp, highBytes, highOp); err != nil {
		return err
	}
	defer func() { _ = idx.EndScan() }()

	n := 0
	for {
		rid, err := idx.ScanNext()
		if err == btree.ErrIndexScanCompleted {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("  page=%d slot=%d\n", rid.PageID, rid.Slot)
		n++
	}
	fmt.Printf("(%d rows)\n", n)
	return nil
}

func parseOp(s string) (btree.Op, error) {
	switch strings.ToLower(s) {
	case "gt":
		return btree.GT, nil
	case "ge", "gte":
		return btree.GTE, nil
	case "lt":
		return btree.LT, nil
	case "le", "lte":
		return btree.LTE, nil
	default:
		return 0, fmt.Errorf("unknown operator %q (want gt, ge, lt, or le)", s)
	}
}

func encodeAttr(attr btree.AttrType, s string) ([]byte, error) {
	switch attr {
	case btree.AttrInt:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int key %q: %w", s, err)
		}
		buf := make([]byte, btree.Int64Ops.Size)
		btree.Int64Ops.EncodeTo(buf, v)
		return buf, nil
	case btree.AttrDouble:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse double key %q: %w", s, err)
		}
		buf := make([]byte, btree.Float64Ops.Size)
		btree.Float64Ops.EncodeTo(buf, v)
		return buf, nil
	default:
		return nil, fmt.Errorf("unsupported attr type %d", attr)
	}
}

func parseAttrType(s string) (btree.AttrType, error) {
	switch s {
	case "int", "":
		return btree.AttrInt, nil
	case "double":
		return btree.AttrDouble, nil
	default:
		return 0, fmt.Errorf("unsupported attr-type %q (want int or double)", s)
	}
}
