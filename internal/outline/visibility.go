package outline

// IsVisible reports whether key is shown, i.e. no ancestor is a collapsed
// toggle-list. Unknown keys are not visible.
func (d *Document) IsVisible(key Key) bool {
	if _, ok := d.index[key]; !ok {
		return false
	}
	for _, a := range d.ParentMap().Ancestors(key) {
		i, ok := d.index[a]
		if !ok {
			continue
		}
		if d.blocks[i].Collapsed() {
			return false
		}
	}
	return true
}

// VisibleBlocks returns the blocks not hidden by a collapsed ancestor, in
// flat order.
func (d *Document) VisibleBlocks() []Block {
	out := make([]Block, 0, len(d.blocks))
	hiddenBelow := -1
	for _, b := range d.blocks {
		if hiddenBelow >= 0 {
			if b.Depth > hiddenBelow {
				continue
			}
			hiddenBelow = -1
		}
		out = append(out, b.clone())
		if b.Collapsed() {
			hiddenBelow = b.Depth
		}
	}
	return out
}
