package outline

// treeCursor is the forward position shared by every level of BuildForest.
type treeCursor struct {
	blocks []Block
	pos    int
}

// BuildForest derives the sibling-run forest of a flat block sequence.
//
// Blocks at the target depth are grouped into runs of equal type; a block one
// level deeper than its predecessor opens the child forest of that
// predecessor. A block deeper than allowed is treated as if it sat at the
// deepest valid depth.
func BuildForest(blocks []Block) Forest {
	c := &treeCursor{blocks: blocks}
	return c.build(0)
}

func (c *treeCursor) build(depth int) Forest {
	var forest Forest
	var open *SiblingList
	var last Key

	for c.pos < len(c.blocks) {
		b := c.blocks[c.pos]
		switch {
		case b.Depth < depth:
			if open != nil {
				forest = append(forest, open)
			}
			return forest
		case b.Depth > depth && open != nil:
			children := c.build(depth + 1)
			i, _ := open.Index(last)
			open.Values[i] = children
		default:
			if open == nil || open.Type != b.Type {
				if open != nil {
					forest = append(forest, open)
				}
				open = NewSiblingList(b.Type)
			}
			open.push(b.Key)
			last = b.Key
			c.pos++
		}
	}
	if open != nil {
		forest = append(forest, open)
	}
	return forest
}

// Keys flattens the forest depth-first, reproducing the flat order.
func (f Forest) Keys() []Key {
	var out []Key
	f.walk(func(k Key, _ int) {
		out = append(out, k)
	}, 0)
	return out
}

func (f Forest) walk(fn func(k Key, depth int), depth int) {
	for _, list := range f {
		for i, k := range list.Keys {
			fn(k, depth)
			list.Values[i].walk(fn, depth+1)
		}
	}
}

// RunView is the serializable form of a SiblingList.
type RunView struct {
	Type  BlockType  `json:"type" yaml:"type"`
	Items []ItemView `json:"items" yaml:"items"`
}

// ItemView is one member of a RunView with its nested runs.
type ItemView struct {
	Key      Key       `json:"key" yaml:"key"`
	Children []RunView `json:"children,omitempty" yaml:"children,omitempty"`
}

// View converts the forest into plain structs for output.
func (f Forest) View() []RunView {
	out := make([]RunView, 0, len(f))
	for _, list := range f {
		run := RunView{Type: list.Type, Items: make([]ItemView, 0, list.Len())}
		for i, k := range list.Keys {
			item := ItemView{Key: k}
			if len(list.Values[i]) > 0 {
				item.Children = list.Values[i].View()
			}
			run.Items = append(run.Items, item)
		}
		out = append(out, run)
	}
	return out
}
