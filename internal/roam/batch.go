// Package roam converts outlines to and from Roam Research payloads (batch
// actions to write a page, pull results to read one) and sends them through
// the Roam backend API.
package roam

import "fmt"

// Location specifies where a created block goes.
type Location struct {
	// ParentUID is the UID or tempid of the parent block or page
	ParentUID string
	// PageTitle targets a page by title
	PageTitle string
	// Order is the position: int (0-indexed), "first", or "last"
	Order interface{}
}

// PageOptions configures a created page.
type PageOptions struct {
	Title string
	// UID is an optional page UID (empty = tempid)
	UID string
	// ChildrenViewType: "bullet", "numbered", "document" (empty = default)
	ChildrenViewType string
}

// BlockOptions configures a created block.
type BlockOptions struct {
	Content string
	// UID is an optional block UID (empty = tempid)
	UID string
	// Open controls whether the block is expanded (nil = don't set)
	Open *bool
	// Heading level: 1, 2, or 3 (nil = not a heading)
	Heading *int
	// ChildrenViewType: "bullet", "numbered", "document" (empty = default)
	ChildrenViewType string
}

// applyToMap adds optional block properties to a payload map.
func (o BlockOptions) applyToMap(m map[string]interface{}) {
	if o.Open != nil {
		m["open"] = *o.Open
	}
	if o.Heading != nil {
		m["heading"] = *o.Heading
	}
	if o.ChildrenViewType != "" {
		m["children-view-type"] = o.ChildrenViewType
	}
}

// BatchBuilder constructs a batch of actions that can reference each other via tempids.
// Tempids are negative integers that act as placeholders for entity IDs.
type BatchBuilder struct {
	actions    []map[string]interface{}
	nextTempID int
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		actions:    make([]map[string]interface{}, 0),
		nextTempID: -1,
	}
}

func (b *BatchBuilder) allocate(uid string) (interface{}, string) {
	if uid != "" {
		return uid, uid
	}
	id := b.nextTempID
	b.nextTempID--
	return id, fmt.Sprintf("%d", id)
}

// CreatePage adds a create-page action and returns a reference for children.
func (b *BatchBuilder) CreatePage(opts PageOptions) string {
	uidValue, ref := b.allocate(opts.UID)
	page := map[string]interface{}{
		"uid":   uidValue,
		"title": opts.Title,
	}
	if opts.ChildrenViewType != "" {
		page["children-view-type"] = opts.ChildrenViewType
	}
	b.actions = append(b.actions, map[string]interface{}{
		"action": "create-page",
		"page":   page,
	})
	return ref
}

// CreateBlock adds a create-block action and returns a reference for children.
func (b *BatchBuilder) CreateBlock(loc Location, opts BlockOptions) string {
	uidValue, ref := b.allocate(opts.UID)
	block := map[string]interface{}{
		"uid":    uidValue,
		"string": opts.Content,
	}
	opts.applyToMap(block)

	b.actions = append(b.actions, map[string]interface{}{
		"action":   "create-block",
		"location": b.buildLocation(loc),
		"block":    block,
	})
	return ref
}

// Build returns the actions as a slice ready for the batch-actions API.
func (b *BatchBuilder) Build() []map[string]interface{} {
	return b.actions
}

func (b *BatchBuilder) buildLocation(loc Location) map[string]interface{} {
	m := map[string]interface{}{"order": loc.Order}
	if loc.ParentUID != "" {
		m["parent-uid"] = b.parseUID(loc.ParentUID)
	} else if loc.PageTitle != "" {
		m["page-title"] = loc.PageTitle
	}
	return m
}

// parseUID converts tempid strings like "-1" back to integers; real UIDs
// stay strings.
func (b *BatchBuilder) parseUID(uid string) interface{} {
	var tempID int
	if n, err := fmt.Sscanf(uid, "%d", &tempID); err == nil && n == 1 && tempID < 0 {
		return tempID
	}
	return uid
}
