package roam

import (
	"errors"
	"reflect"
	"testing"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

func TestParsePage_LocalAPIKeys(t *testing.T) {
	page, err := ParsePage([]byte(`{
		":node/title": "Plan",
		":block/uid": "page-uid",
		":block/children": [
			{":block/string": "second", ":block/uid": "b2", ":block/order": 1},
			{":block/string": "first", ":block/uid": "b1", ":block/order": 0,
			 ":children/view-type": ":numbered",
			 ":block/children": [{":block/string": "inner", ":block/uid": "c1", ":block/order": 0}]}
		]
	}`))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if page.Title != "Plan" || page.UID != "page-uid" {
		t.Errorf("unexpected page: %+v", page)
	}
	if page.Children[0].UID != "b1" || page.Children[1].UID != "b2" {
		t.Errorf("children not sorted by order: %+v", page.Children)
	}
	if page.Children[0].ViewType != ":numbered" || len(page.Children[0].Children) != 1 {
		t.Errorf("unexpected first child: %+v", page.Children[0])
	}
}

func TestParsePage_StandardKeys(t *testing.T) {
	page, err := ParsePage([]byte(`{"node/title": "Std", "block/children": [{"block/string": "x", "block/uid": "x1"}]}`))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if page.Title != "Std" || len(page.Children) != 1 || page.Children[0].String != "x" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestParsePage_Errors(t *testing.T) {
	if _, err := ParsePage([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	_, err := ParsePage([]byte(`{"something": "else"}`))
	var verr outline.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for an empty pull, got %v", err)
	}
}

func TestImport_MapsRoamConventions(t *testing.T) {
	closed := false
	page := &Page{
		Title: "Plan",
		Children: []Block{
			{UID: "h", String: "Title", Heading: 1},
			{UID: "todo", String: "{{[[TODO]]}} buy"},
			{UID: "done", String: "{{[[DONE]]}} sell"},
			{UID: "q", String: "> quoted"},
			{UID: "t", String: "fold", Open: &closed, Children: []Block{{UID: "t1", String: "hidden"}}},
			{UID: "n", String: "3. third"},
			{UID: "steps", String: "steps", ViewType: "numbered", Children: []Block{
				{UID: "s1", String: "a"},
				{UID: "s2", String: "b"},
			}},
		},
	}

	blocks := Import(page)

	var keys []string
	var types []outline.BlockType
	for _, b := range blocks {
		keys = append(keys, b.Key)
		types = append(types, b.Type)
	}
	wantKeys := []string{"h", "todo", "done", "q", "t", "t1", "n", "steps", "s1", "s2"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Fatalf("keys = %v", keys)
	}
	wantTypes := []outline.BlockType{
		outline.TypeHeading, outline.TypeCheckList, outline.TypeCheckList, outline.TypeQuote,
		outline.TypeToggleList, outline.TypeBulletList, outline.TypeNumberList, outline.TypeBulletList,
		outline.TypeNumberList, outline.TypeNumberList,
	}
	if !reflect.DeepEqual(types, wantTypes) {
		t.Fatalf("types = %v", types)
	}

	byKey := map[string]outline.Block{}
	for _, b := range blocks {
		byKey[b.Key] = b
	}
	if byKey["todo"].Text != "buy" || byKey["todo"].Checked() || !byKey["done"].Checked() {
		t.Errorf("check items: %+v %+v", byKey["todo"], byKey["done"])
	}
	if byKey["q"].Text != "quoted" || byKey["n"].Text != "third" {
		t.Errorf("prefixes not stripped: %q %q", byKey["q"].Text, byKey["n"].Text)
	}
	if !byKey["t"].Collapsed() || byKey["t1"].Depth != 1 {
		t.Errorf("toggle: %+v child %+v", byKey["t"], byKey["t1"])
	}
	if byKey["n"].Order() != 1 || byKey["s1"].Order() != 1 || byKey["s2"].Order() != 2 {
		t.Errorf("orders: n=%d s1=%d s2=%d", byKey["n"].Order(), byKey["s1"].Order(), byKey["s2"].Order())
	}
	if byKey["s2"].Data.ParentKey != "steps" {
		t.Errorf("parentKey = %q", byKey["s2"].Data.ParentKey)
	}

	if _, err := outline.NewDocument(blocks, outline.WithStrict(true)); err != nil {
		t.Fatalf("imported blocks are not a valid document: %v", err)
	}
}

func TestImport_ExportRoundTripShape(t *testing.T) {
	blocks, _ := outline.RenumberDocument([]outline.Block{
		{Key: "a", Type: outline.TypeNumberList, Text: "one"},
		{Key: "b", Type: outline.TypeNumberList, Text: "two"},
	})
	doc, err := outline.NewDocument(blocks)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	actions, err := Export(doc, Options{PageTitle: "P", UseKeys: true})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	// Rebuild the pull shape Roam would return for the exported page.
	pageAction := actions[0]["page"].(map[string]interface{})
	page := &Page{Title: "P", ViewType: pageAction["children-view-type"].(string)}
	for i, a := range actions[1:] {
		blk := a["block"].(map[string]interface{})
		page.Children = append(page.Children, Block{UID: blk["uid"].(string), String: blk["string"].(string), Order: i})
	}

	got := Import(page)
	if len(got) != 2 || got[0].Type != outline.TypeNumberList || got[1].Order() != 2 || got[1].Text != "two" {
		t.Fatalf("round trip lost structure: %+v", got)
	}
}

func TestCutOrderPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12. twelve", "twelve", true},
		{"a. letter", "a. letter", false},
		{"-1. negative", "-1. negative", false},
		{". empty", ". empty", false},
		{"no prefix", "no prefix", false},
	}
	for _, tt := range tests {
		got, ok := cutOrderPrefix(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("cutOrderPrefix(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
