package cmd

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/salmonumbrella/outline-cli/internal/docfile"
	"github.com/salmonumbrella/outline-cli/internal/outline"
)

const planMarkdown = `# Plan

- [ ] buy
- [x] sell

1. one
2. two
`

func TestImportCommandWritesDocument(t *testing.T) {
	c := newCLI(t)
	src := writeDoc(t, "plan.md", planMarkdown)
	out := filepath.Join(t.TempDir(), "plan.json")

	var res struct {
		Title  string          `json:"title"`
		Out    string          `json:"out"`
		Blocks []outline.Block `json:"blocks"`
	}
	c.mustJSON(&res, "-o", "json", "import", src, "--out", out)

	if res.Title != "plan" || res.Out != out {
		t.Fatalf("unexpected result: %+v", res)
	}
	saved, err := docfile.Load(out)
	if err != nil {
		t.Fatalf("load imported: %v", err)
	}
	var types []outline.BlockType
	for _, b := range saved.Blocks {
		types = append(types, b.Type)
		if b.Key == "" {
			t.Fatalf("imported block without key: %+v", b)
		}
	}
	want := []outline.BlockType{
		outline.TypeHeading, outline.TypeCheckList, outline.TypeCheckList,
		outline.TypeNumberList, outline.TypeNumberList,
	}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("types = %v", types)
	}
	if saved.Blocks[1].Checked() || !saved.Blocks[2].Checked() {
		t.Fatalf("check state not imported")
	}
	if saved.Blocks[4].Order() != 2 {
		t.Fatalf("order = %d", saved.Blocks[4].Order())
	}

	// The imported file is a valid input for the other commands.
	var tree []outline.RunView
	c.mustJSON(&tree, "-o", "json", "tree", out)
	if len(tree) != 3 {
		t.Fatalf("expected 3 root runs, got %d", len(tree))
	}
}

func TestImportCommandStdinYAML(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.runStdin("- a\n  - b\n", "-o", "yaml", "import", "-", "--title", "Notes")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	file, err := docfile.Decode([]byte(out))
	if err != nil {
		t.Fatalf("decode yaml output: %v\n%s", err, out)
	}
	if file.Title != "Notes" || len(file.Blocks) != 2 || file.Blocks[1].Depth != 1 {
		t.Fatalf("unexpected import: %+v", file)
	}
}

func TestExportRoamCommand(t *testing.T) {
	c := newCLI(t)
	doc := writeDoc(t, "doc.json", numberedDoc)

	var actions []map[string]interface{}
	c.mustJSON(&actions, "-o", "json", "export", "roam", doc)

	if len(actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}
	page := actions[0]["page"].(map[string]interface{})
	if actions[0]["action"] != "create-page" || page["title"] != "Steps" {
		t.Fatalf("unexpected page action: %v", actions[0])
	}
	if page["children-view-type"] != "numbered" {
		t.Fatalf("expected numbered view: %v", page)
	}
	for i, action := range actions[1:] {
		loc := action["location"].(map[string]interface{})
		if loc["parent-uid"] != float64(-1) || loc["order"] != float64(i) {
			t.Fatalf("action %d location = %v", i, loc)
		}
	}
	block := actions[1]["block"].(map[string]interface{})
	if block["string"] != "one" {
		t.Fatalf("block string = %v", block["string"])
	}
}

func TestExportRoamCommandKeysAndPageUID(t *testing.T) {
	c := newCLI(t)
	doc := writeDoc(t, "doc.json", numberedDoc)

	out, _, err := c.run("-o", "json", "export", "roam", doc, "--page-uid", "page-1", "--use-keys")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var actions []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &actions); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected only block actions, got %d", len(actions))
	}
	block := actions[0]["block"].(map[string]interface{})
	loc := actions[0]["location"].(map[string]interface{})
	if block["uid"] != "a" || loc["parent-uid"] != "page-1" {
		t.Fatalf("unexpected action: %v", actions[0])
	}
}

func TestExportRoamRequiresPage(t *testing.T) {
	c := newCLI(t)
	doc := writeDoc(t, "doc.json", `[{"key": "a", "type": "paragraph", "indentLevel": 0}]`)

	_, stderr, err := c.run("-o", "json", "export", "roam", doc)
	if err == nil {
		t.Fatal("expected error without a page title")
	}
	if !strings.Contains(stderr, `"validation"`) {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestImportCommandRoamPull(t *testing.T) {
	c := newCLI(t)
	src := writeDoc(t, "page.json", `{
  ":node/title": "Groceries",
  ":block/children": [
    {":block/string": "{{[[DONE]]}} milk", ":block/uid": "m", ":block/order": 1},
    {":block/string": "Shop", ":block/uid": "s", ":block/order": 0, ":block/heading": 2}
  ]
}`)

	var res struct {
		Title  string          `json:"title"`
		Blocks []outline.Block `json:"blocks"`
	}
	c.mustJSON(&res, "-o", "json", "import", src)

	if res.Title != "Groceries" {
		t.Fatalf("title = %q", res.Title)
	}
	if got := keys(res.Blocks); !reflect.DeepEqual(got, []string{"s", "m"}) {
		t.Fatalf("keys = %v", got)
	}
	if res.Blocks[0].Type != outline.TypeHeading || !res.Blocks[1].Checked() || res.Blocks[1].Text != "milk" {
		t.Fatalf("unexpected blocks: %+v", res.Blocks)
	}

	if _, _, err := c.run("-o", "json", "import", src, "--from", "csv"); err == nil {
		t.Fatal("expected error for unknown --from")
	}
}
