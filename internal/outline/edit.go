package outline

import (
	"math"
	"sort"
)

// Selection is an inclusive range of blocks in flat order. An empty End
// selects only Start.
type Selection struct {
	Start Key `json:"start" yaml:"start"`
	End   Key `json:"end,omitempty" yaml:"end,omitempty"`
}

func (d *Document) selectionRange(sel Selection) (int, int, bool) {
	first, ok := d.index[sel.Start]
	if !ok {
		return 0, 0, false
	}
	last := first
	if sel.End != "" {
		if last, ok = d.index[sel.End]; !ok {
			return 0, 0, false
		}
	}
	if last < first {
		first, last = last, first
	}
	return first, last, true
}

// Indent nests the selected blocks one level deeper. The first block may go
// at most one level below its predecessor, and each following block at most
// one level below the new depth of the block before it. Descendants right
// after the selection move with their ancestors.
//
// It is not handled when the first block is already as deep as allowed.
func (d *Document) Indent(sel Selection) (*Document, bool) {
	first, last, ok := d.selectionRange(sel)
	if !ok || first == 0 {
		return d, false
	}
	head := d.blocks[first]
	if head.Depth >= d.blocks[first-1].Depth+1 || head.Depth >= d.opts.maxDepth {
		return d, false
	}

	blocks := cloneBlocks(d.blocks)
	if !shiftRange(blocks, first, last, 1, d.opts.maxDepth) {
		return d, false
	}
	normalizeDepths(blocks)
	renumberDocument(blocks)
	return d.next(blocks), true
}

// Outdent lifts the selected blocks one level, flooring at 0. It is not
// handled when every selected block is already at depth 0.
func (d *Document) Outdent(sel Selection) (*Document, bool) {
	first, last, ok := d.selectionRange(sel)
	if !ok {
		return d, false
	}
	nested := false
	for i := first; i <= last; i++ {
		if d.blocks[i].Depth > 0 {
			nested = true
			break
		}
	}
	if !nested {
		return d, false
	}

	blocks := cloneBlocks(d.blocks)
	if !shiftRange(blocks, first, last, -1, d.opts.maxDepth) {
		return d, false
	}
	normalizeDepths(blocks)
	renumberDocument(blocks)
	return d.next(blocks), true
}

// shiftRange moves blocks[first..last] by step levels and drags the
// descendants that directly follow the range along with them. Each block is
// capped at one level below the block before it.
func shiftRange(blocks []Block, first, last, step, maxDepth int) bool {
	minDepth := blocks[first].Depth
	for i := first; i <= last; i++ {
		minDepth = min(minDepth, blocks[i].Depth)
	}

	// delta applied to the latest block seen at each original depth
	deltas := map[int]int{}
	prev := -1
	if first > 0 {
		prev = blocks[first-1].Depth
	}
	changed := false

	for i := first; i <= last; i++ {
		old := blocks[i].Depth
		nd := old + step
		if step > 0 && nd > maxDepth {
			nd = max(old, maxDepth)
		}
		nd = clampDepth(nd, prev)
		deltas[old] = nd - old
		if nd != old {
			changed = true
		}
		blocks[i].Depth = nd
		prev = nd
	}

	for j := last + 1; j < len(blocks) && blocks[j].Depth > minDepth; j++ {
		old := blocks[j].Depth
		nd := clampDepth(old+deltas[old-1], prev)
		deltas[old] = nd - old
		if nd != old {
			changed = true
		}
		blocks[j].Depth = nd
		prev = nd
	}
	return changed
}

func clampDepth(depth, prev int) int {
	if depth > prev+1 {
		depth = prev + 1
	}
	if depth < 0 {
		depth = 0
	}
	return depth
}

// MergeBackward handles a backspace at the start of key.
//
// A block of a non-default type is first demoted to a paragraph, dropping its
// type-specific data, and the number-list run that follows it at its depth is
// restarted at 1. A paragraph is merged into the preceding block: its text is
// appended there, the block is removed, and its children are lifted when
// needed so they attach to the merge target or to the nearest shallower
// block. Not handled for the first block of the document.
func (d *Document) MergeBackward(key Key) (*Document, bool) {
	i, ok := d.index[key]
	if !ok {
		return d, false
	}

	if d.blocks[i].Type != DefaultType {
		blocks := cloneBlocks(d.blocks)
		b := &blocks[i]
		b.Type = DefaultType
		b.stripTypeData()
		renumberRun(blocks, i, b.Depth, 1)
		return d.next(blocks), true
	}
	if i == 0 {
		return d, false
	}

	blocks := cloneBlocks(d.blocks)
	blocks[i-1].Text += blocks[i].Text
	blocks = removeBlock(blocks, i)
	renumberDocument(blocks)
	return d.next(blocks), true
}

// MergeForward handles a delete at the end of key: the following block's
// text is appended to key and the following block is removed. Its children
// become children of key when key was their grandparent, or of the nearest
// shallower block otherwise. Not handled for the last block.
func (d *Document) MergeForward(key Key) (*Document, bool) {
	i, ok := d.index[key]
	if !ok || i+1 >= len(d.blocks) {
		return d, false
	}

	blocks := cloneBlocks(d.blocks)
	blocks[i].Text += blocks[i+1].Text
	blocks = removeBlock(blocks, i+1)
	renumberDocument(blocks)
	return d.next(blocks), true
}

// removeBlock deletes blocks[i]. When the removed block sat one level below
// its predecessor, its descendants are lifted one level so no depth jump is
// left behind.
func removeBlock(blocks []Block, i int) []Block {
	removed := blocks[i].Depth
	pred := -1
	if i > 0 {
		pred = blocks[i-1].Depth
	}
	if removed > pred {
		delta := pred - removed
		for j := i + 1; j < len(blocks) && blocks[j].Depth > removed; j++ {
			blocks[j].Depth = max(blocks[j].Depth+delta, 0)
		}
	}
	return append(blocks[:i], blocks[i+1:]...)
}

// DropPosition places dragged blocks relative to the drop target.
type DropPosition string

const (
	DropBefore DropPosition = "before"
	DropAfter  DropPosition = "after"
)

// DragRequest describes a drag-and-drop of blocks.
type DragRequest struct {
	Keys     []Key        `json:"keys" yaml:"keys"`
	Target   Key          `json:"target" yaml:"target"`
	Position DropPosition `json:"position,omitempty" yaml:"position,omitempty"`
	// Offset is the horizontal drop position in pixels; each IndentUnit is
	// one level of depth.
	Offset float64 `json:"offset" yaml:"offset"`
}

// DragReorder moves the given blocks, together with their descendants, next
// to the target. The shallowest moved block lands at
// floor(Offset/IndentUnit), clamped to one level below the block preceding
// the drop point; the others keep their relative depth.
//
// Not handled when a key is unknown, the target is being moved, or the move
// changes nothing.
func (d *Document) DragReorder(req DragRequest) (*Document, bool) {
	if len(req.Keys) == 0 {
		return d, false
	}
	moving := make(map[int]bool, len(req.Keys))
	for _, k := range req.Keys {
		i, ok := d.index[k]
		if !ok {
			return d, false
		}
		moving[i] = true
		for j := i + 1; j < len(d.blocks) && d.blocks[j].Depth > d.blocks[i].Depth; j++ {
			moving[j] = true
		}
	}
	t, ok := d.index[req.Target]
	if !ok || moving[t] {
		return d, false
	}

	idx := make([]int, 0, len(moving))
	for i := range moving {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	moved := make([]Block, 0, len(idx))
	minDepth := math.MaxInt
	for _, i := range idx {
		moved = append(moved, d.blocks[i].clone())
		minDepth = min(minDepth, d.blocks[i].Depth)
	}
	rest := make([]Block, 0, len(d.blocks)-len(moved))
	at := 0
	for i, b := range d.blocks {
		if moving[i] {
			continue
		}
		if i == t {
			at = len(rest)
			if req.Position == DropAfter {
				at++
			}
		}
		rest = append(rest, b.clone())
	}

	prev := -1
	if at > 0 {
		prev = rest[at-1].Depth
	}
	depth := int(math.Floor(req.Offset / d.opts.indentUnit))
	depth = max(min(depth, prev+1), -1)
	if depth < 0 {
		depth = 0
	}
	delta := depth - minDepth
	for i := range moved {
		moved[i].Depth = max(moved[i].Depth+delta, 0)
	}

	blocks := make([]Block, 0, len(d.blocks))
	blocks = append(blocks, rest[:at]...)
	blocks = append(blocks, moved...)
	blocks = append(blocks, rest[at:]...)
	normalizeDepths(blocks)
	renumberDocument(blocks)

	if sameLayout(d.blocks, blocks) {
		return d, false
	}
	return d.next(blocks), true
}

func sameLayout(a, b []Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || a[i].Depth != b[i].Depth {
			return false
		}
	}
	return true
}
