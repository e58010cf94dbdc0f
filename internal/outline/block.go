package outline

// Key identifies a block. Keys are opaque to the outline package.
type Key = string

// BlockType is the kind of a block.
type BlockType string

const (
	// TypeParagraph is the default, unstyled block type.
	TypeParagraph  BlockType = "paragraph"
	TypeHeading    BlockType = "heading"
	TypeBulletList BlockType = "bullet-list"
	TypeNumberList BlockType = "number-list"
	TypeCheckList  BlockType = "check-list"
	TypeToggleList BlockType = "toggle-list"
	TypeQuote      BlockType = "quote"
)

// DefaultType is the type a block is demoted to by MergeBackward.
const DefaultType = TypeParagraph

// ParseBlockType converts a string to a BlockType.
// Empty string defaults to TypeParagraph.
func ParseBlockType(s string) (BlockType, error) {
	switch BlockType(s) {
	case "", TypeParagraph:
		return TypeParagraph, nil
	case TypeHeading, TypeBulletList, TypeNumberList, TypeCheckList, TypeToggleList, TypeQuote:
		return BlockType(s), nil
	case "unstyled":
		return TypeParagraph, nil
	case "ordered-list-item":
		return TypeNumberList, nil
	case "unordered-list-item":
		return TypeBulletList, nil
	case "blockquote":
		return TypeQuote, nil
	default:
		return "", ValidationError{Message: "unknown block type: " + s}
	}
}

// Data holds the type-specific fields the outline core reads and writes.
type Data struct {
	NumberListOrder  *int  `json:"numberListOrder,omitempty" yaml:"numberListOrder,omitempty"`
	CheckListCheck   *bool `json:"checkListCheck,omitempty" yaml:"checkListCheck,omitempty"`
	ToggleListToggle *bool `json:"toggleListToggle,omitempty" yaml:"toggleListToggle,omitempty"`
	// ParentKey caches the nearest preceding block one level shallower.
	// Empty means the block is a root.
	ParentKey Key `json:"parentKey,omitempty" yaml:"parentKey,omitempty"`
}

// Block is one entry of the flat outline sequence.
type Block struct {
	Key   Key       `json:"key" yaml:"key"`
	Type  BlockType `json:"type" yaml:"type"`
	Depth int       `json:"indentLevel" yaml:"indentLevel"`
	Text  string    `json:"text,omitempty" yaml:"text,omitempty"`
	Data  Data      `json:"data,omitempty" yaml:"data,omitempty"`
}

// Order returns the number-list order, or 0 when unset.
func (b Block) Order() int {
	if b.Data.NumberListOrder == nil {
		return 0
	}
	return *b.Data.NumberListOrder
}

// Collapsed reports whether b is a toggle-list hiding its descendants.
func (b Block) Collapsed() bool {
	if b.Type != TypeToggleList {
		return false
	}
	return b.Data.ToggleListToggle == nil || !*b.Data.ToggleListToggle
}

// Checked reports whether b is a checked check-list item.
func (b Block) Checked() bool {
	return b.Type == TypeCheckList && b.Data.CheckListCheck != nil && *b.Data.CheckListCheck
}

func (b Block) clone() Block {
	c := b
	if b.Data.NumberListOrder != nil {
		c.Data.NumberListOrder = intPtr(*b.Data.NumberListOrder)
	}
	if b.Data.CheckListCheck != nil {
		c.Data.CheckListCheck = boolPtr(*b.Data.CheckListCheck)
	}
	if b.Data.ToggleListToggle != nil {
		c.Data.ToggleListToggle = boolPtr(*b.Data.ToggleListToggle)
	}
	return c
}

// stripTypeData removes data fields that do not belong to the block's type.
// It reports whether anything was removed.
func (b *Block) stripTypeData() bool {
	changed := false
	if b.Type != TypeNumberList && b.Data.NumberListOrder != nil {
		b.Data.NumberListOrder = nil
		changed = true
	}
	if b.Type != TypeCheckList && b.Data.CheckListCheck != nil {
		b.Data.CheckListCheck = nil
		changed = true
	}
	if b.Type != TypeToggleList && b.Data.ToggleListToggle != nil {
		b.Data.ToggleListToggle = nil
		changed = true
	}
	return changed
}

func cloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.clone()
	}
	return out
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
