package outline

// renumberRun assigns contiguous orders to the number-list run at depth that
// starts at blocks[start], or at the next block at depth when blocks[start]
// is not a number-list block at depth. Deeper blocks are skipped as
// descendants; a shallower block or a different type at depth ends the run.
// It reports whether any order changed.
func renumberRun(blocks []Block, start, depth, startOrder int) bool {
	if start < 0 || start >= len(blocks) {
		return false
	}
	if startOrder < 1 {
		startOrder = 1
	}

	i := start
	if b := blocks[i]; b.Type != TypeNumberList || b.Depth != depth {
		i++
		for i < len(blocks) && blocks[i].Depth > depth {
			i++
		}
		if i >= len(blocks) || blocks[i].Depth < depth || blocks[i].Type != TypeNumberList {
			return false
		}
	}

	changed := false
	order := startOrder
	for ; i < len(blocks); i++ {
		b := &blocks[i]
		if b.Depth > depth {
			continue
		}
		if b.Depth < depth || b.Type != TypeNumberList {
			break
		}
		if b.Order() != order {
			b.Data.NumberListOrder = intPtr(order)
			changed = true
		}
		order++
	}
	return changed
}

// renumberDocument is the authoritative consistency pass. In one left-to-right
// walk it repairs number-list orders, cached parent keys and stale
// type-specific data. It returns the number of blocks it modified.
func renumberDocument(blocks []Block) int {
	var counters []int
	var current []Key
	repaired := 0

	for i := range blocks {
		b := &blocks[i]
		d := b.Depth
		if d < len(counters) {
			counters = counters[:d+1]
			current = current[:d+1]
		}
		for len(counters) <= d {
			counters = append(counters, 0)
			current = append(current, "")
		}

		changed := false
		var parent Key
		if d > 0 {
			parent = current[d-1]
		}
		if b.Data.ParentKey != parent {
			b.Data.ParentKey = parent
			changed = true
		}

		if b.Type == TypeNumberList {
			counters[d]++
			if b.Order() != counters[d] {
				b.Data.NumberListOrder = intPtr(counters[d])
				changed = true
			}
		} else {
			counters[d] = 0
		}
		if b.stripTypeData() {
			changed = true
		}

		current[d] = b.Key
		if changed {
			repaired++
		}
	}
	return repaired
}

// RenumberDocument runs the full consistency pass over a copy of blocks and
// returns the repaired copy with the number of modified blocks.
func RenumberDocument(blocks []Block) ([]Block, int) {
	out := cloneBlocks(blocks)
	n := renumberDocument(out)
	return out, n
}
