package outline

import (
	"strings"
	"sync"
)

// Document is an immutable snapshot of the flat block sequence. Edits return
// a new Document; the receiver is never modified.
type Document struct {
	blocks  []Block
	index   map[Key]int
	version uint64
	opts    options

	treeOnce  sync.Once
	forest    Forest
	parentMap ParentMap
}

// NewDocument validates blocks and returns the initial snapshot.
//
// Keys must be non-empty and unique. A block nested more than one level below
// its predecessor is clamped to predecessor+1, or rejected with a
// DepthJumpError when strict mode is on.
func NewDocument(blocks []Block, opts ...Option) (*Document, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	out := cloneBlocks(blocks)
	seen := make(map[Key]bool, len(out))
	for i := range out {
		b := &out[i]
		if strings.TrimSpace(b.Key) == "" {
			return nil, ValidationError{Message: "block key is required"}
		}
		if seen[b.Key] {
			return nil, ValidationError{Message: "duplicate block key: " + b.Key}
		}
		seen[b.Key] = true
		if b.Type == "" {
			b.Type = DefaultType
		}
		if b.Depth < 0 {
			return nil, ValidationError{Message: "negative indentLevel on block " + b.Key}
		}
		if o.strict {
			limit := 0
			if i > 0 {
				limit = out[i-1].Depth + 1
			}
			if b.Depth > limit {
				return nil, DepthJumpError{Key: b.Key, Depth: b.Depth, MaxDepth: limit}
			}
		}
	}
	normalizeDepths(out)
	return newSnapshot(out, 0, o), nil
}

func newSnapshot(blocks []Block, version uint64, o options) *Document {
	idx := make(map[Key]int, len(blocks))
	for i, b := range blocks {
		idx[b.Key] = i
	}
	return &Document{blocks: blocks, index: idx, version: version, opts: o}
}

// next builds the successor snapshot from an already-modified block slice.
func (d *Document) next(blocks []Block) *Document {
	return newSnapshot(blocks, d.version+1, d.opts)
}

// Version counts the edits applied since NewDocument.
func (d *Document) Version() uint64 {
	return d.version
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// Blocks returns a copy of the flat sequence.
func (d *Document) Blocks() []Block {
	return cloneBlocks(d.blocks)
}

// Block returns the block stored under key.
func (d *Document) Block(key Key) (Block, bool) {
	i, ok := d.index[key]
	if !ok {
		return Block{}, false
	}
	return d.blocks[i].clone(), true
}

// Index returns the flat position of key.
func (d *Document) Index(key Key) (int, bool) {
	i, ok := d.index[key]
	return i, ok
}

// MaxDepth returns the indent ceiling used by Indent.
func (d *Document) MaxDepth() int {
	return d.opts.maxDepth
}

// IndentUnit returns the drag indent unit width.
func (d *Document) IndentUnit() float64 {
	return d.opts.indentUnit
}

func (d *Document) derive() {
	d.treeOnce.Do(func() {
		d.forest = BuildForest(d.blocks)
		d.parentMap = BuildParentMap(d.forest)
	})
}

// Forest returns the derived sibling-run forest. It must not be modified.
func (d *Document) Forest() Forest {
	d.derive()
	return d.forest
}

// ParentMap returns the derived parent map. It must not be modified.
func (d *Document) ParentMap() ParentMap {
	d.derive()
	return d.parentMap
}

// Renumber returns a snapshot with the full consistency pass applied. The
// bool reports whether anything was repaired.
func (d *Document) Renumber() (*Document, bool) {
	blocks := cloneBlocks(d.blocks)
	if renumberDocument(blocks) == 0 {
		return d, false
	}
	return d.next(blocks), true
}

// RenumberRun renumbers the number-list run at depth starting from startKey.
// It is a no-op when no such run exists.
func (d *Document) RenumberRun(startKey Key, depth, startOrder int) (*Document, bool) {
	i, ok := d.index[startKey]
	if !ok {
		return d, false
	}
	blocks := cloneBlocks(d.blocks)
	if !renumberRun(blocks, i, depth, startOrder) {
		return d, false
	}
	return d.next(blocks), true
}

// normalizeDepths clamps every block to at most one level below its
// predecessor, and the first block to depth 0.
func normalizeDepths(blocks []Block) {
	prev := -1
	for i := range blocks {
		if blocks[i].Depth < 0 {
			blocks[i].Depth = 0
		}
		if blocks[i].Depth > prev+1 {
			blocks[i].Depth = prev + 1
		}
		prev = blocks[i].Depth
	}
}
