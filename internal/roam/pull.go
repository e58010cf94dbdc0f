package roam

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// Page is a Roam page as returned by a recursive pull.
type Page struct {
	Title    string  `json:"node/title"`
	UID      string  `json:"block/uid"`
	ViewType string  `json:"children/view-type,omitempty"`
	Children []Block `json:"block/children,omitempty"`
}

// UnmarshalJSON accepts both the hosted API keys (node/title) and the
// desktop Local API keys (:node/title).
func (p *Page) UnmarshalJSON(data []byte) error {
	type colonPage struct {
		Title    string  `json:":node/title"`
		UID      string  `json:":block/uid"`
		ViewType string  `json:":children/view-type"`
		Children []Block `json:":block/children"`
	}
	var cp colonPage
	if err := json.Unmarshal(data, &cp); err == nil && (cp.Title != "" || cp.UID != "") {
		*p = Page(cp)
		return nil
	}

	type plainPage struct {
		Title    string  `json:"node/title"`
		UID      string  `json:"block/uid"`
		ViewType string  `json:"children/view-type"`
		Children []Block `json:"block/children"`
	}
	var pp plainPage
	if err := json.Unmarshal(data, &pp); err != nil {
		return err
	}
	*p = Page(pp)
	return nil
}

// Block is a Roam block as returned by a recursive pull.
type Block struct {
	String   string  `json:"block/string"`
	UID      string  `json:"block/uid"`
	Order    int     `json:"block/order,omitempty"`
	Heading  int     `json:"block/heading,omitempty"`
	Open     *bool   `json:"block/open,omitempty"`
	ViewType string  `json:"children/view-type,omitempty"`
	Children []Block `json:"block/children,omitempty"`
}

// UnmarshalJSON accepts both key styles, like Page.
func (b *Block) UnmarshalJSON(data []byte) error {
	type colonBlock struct {
		String   string  `json:":block/string"`
		UID      string  `json:":block/uid"`
		Order    int     `json:":block/order"`
		Heading  int     `json:":block/heading"`
		Open     *bool   `json:":block/open"`
		ViewType string  `json:":children/view-type"`
		Children []Block `json:":block/children"`
	}
	var cb colonBlock
	if err := json.Unmarshal(data, &cb); err == nil && (cb.String != "" || cb.UID != "") {
		*b = Block(cb)
		return nil
	}

	type plainBlock struct {
		String   string  `json:"block/string"`
		UID      string  `json:"block/uid"`
		Order    int     `json:"block/order"`
		Heading  int     `json:"block/heading"`
		Open     *bool   `json:"block/open"`
		ViewType string  `json:"children/view-type"`
		Children []Block `json:"block/children"`
	}
	var pb plainBlock
	if err := json.Unmarshal(data, &pb); err != nil {
		return err
	}
	*b = Block(pb)
	return nil
}

// ParsePage parses a pull response and sorts children by block/order.
func ParsePage(raw []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if page.Title == "" && page.UID == "" && len(page.Children) == 0 {
		return nil, outline.ValidationError{Message: "parse page: no node/title, block/uid or block/children"}
	}
	sortBlocks(page.Children)
	return &page, nil
}

func sortBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Order < blocks[j].Order
	})
	for i := range blocks {
		sortBlocks(blocks[i].Children)
	}
}

// Import flattens a pulled page into outline blocks. Block UIDs become keys.
//
// It reverses the conventions Export writes: headings, TODO/DONE markers,
// "> " quotes, collapsed blocks with children (toggle-list) and numbered
// children views or "N. " prefixes (number-list). Everything else is a
// bullet-list item, as every Roam block is a bullet.
func Import(p *Page) []outline.Block {
	var out []outline.Block
	out = importBlocks(p.Children, numbered(p.ViewType), 0, out)
	out, _ = outline.RenumberDocument(out)
	return out
}

func importBlocks(blocks []Block, numberedView bool, depth int, out []outline.Block) []outline.Block {
	for _, rb := range blocks {
		key := rb.UID
		if key == "" {
			key = uuid.NewString()
		}
		b := outline.Block{Key: key, Depth: depth}
		b.Type, b.Text, b.Data = blockType(rb, numberedView)
		out = append(out, b)
		out = importBlocks(rb.Children, numbered(rb.ViewType), depth+1, out)
	}
	return out
}

func blockType(rb Block, numberedView bool) (outline.BlockType, string, outline.Data) {
	s := rb.String
	switch {
	case rb.Heading > 0:
		return outline.TypeHeading, s, outline.Data{}
	case strings.HasPrefix(s, todoMarker):
		checked := false
		return outline.TypeCheckList, strings.TrimPrefix(s, todoMarker), outline.Data{CheckListCheck: &checked}
	case strings.HasPrefix(s, doneMarker):
		checked := true
		return outline.TypeCheckList, strings.TrimPrefix(s, doneMarker), outline.Data{CheckListCheck: &checked}
	case strings.HasPrefix(s, "> "):
		return outline.TypeQuote, strings.TrimPrefix(s, "> "), outline.Data{}
	case rb.Open != nil && !*rb.Open && len(rb.Children) > 0:
		expanded := false
		return outline.TypeToggleList, s, outline.Data{ToggleListToggle: &expanded}
	case numberedView:
		return outline.TypeNumberList, s, outline.Data{}
	}
	if rest, ok := cutOrderPrefix(s); ok {
		return outline.TypeNumberList, rest, outline.Data{}
	}
	return outline.TypeBulletList, s, outline.Data{}
}

const (
	todoMarker = "{{[[TODO]]}} "
	doneMarker = "{{[[DONE]]}} "
)

func numbered(viewType string) bool {
	return strings.TrimPrefix(viewType, ":") == "numbered"
}

// cutOrderPrefix strips a leading "12. " written for numbers in mixed runs.
func cutOrderPrefix(s string) (string, bool) {
	num, rest, ok := strings.Cut(s, ". ")
	if !ok || num == "" {
		return s, false
	}
	if _, err := strconv.Atoi(num); err != nil || strings.HasPrefix(num, "-") || strings.HasPrefix(num, "+") {
		return s, false
	}
	return rest, true
}
