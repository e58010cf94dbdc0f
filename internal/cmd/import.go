package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/docfile"
	"github.com/salmonumbrella/outline-cli/internal/mdimport"
	"github.com/salmonumbrella/outline-cli/internal/outline"
	"github.com/salmonumbrella/outline-cli/internal/roam"
)

var (
	importOut   string
	importTitle string
	importFrom  string
	importPage  string
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Convert a markdown outline or a Roam page into a document",
	Long: `Convert markdown, or a Roam page pull result, into a flat block document.

Markdown: headings, paragraphs, quotes, and bullet, numbered and task lists
map to the matching block types; nested lists become deeper blocks. List
items written with the "+" marker become expanded toggle-list blocks. Every
block gets a fresh key.

Roam (--from roam, the default for .json files): the JSON of a recursive pull
of a page. Block UIDs become keys; headings, TODO/DONE markers, quotes,
collapsed blocks and numbered views map back to block types. With --page
instead of a file, the page is pulled from a graph through the Roam API.

Without --out the document is printed; with it, the document is written to
that path as JSON or YAML (by extension).`,
	Example: `  outline import notes.md --out notes.json
  cat notes.md | outline import - --title Notes -o yaml
  outline import page-pull.json --from roam --out page.yaml
  outline import --page "Meeting notes" --graph my-graph --out notes.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageTitle := strings.TrimSpace(importPage)
		switch {
		case pageTitle != "" && len(args) == 1:
			return fmt.Errorf("use either a file or --page, not both")
		case pageTitle == "" && len(args) == 0:
			return fmt.Errorf("a file or --page is required")
		}

		var source string
		var blocks []outline.Block
		title := strings.TrimSpace(importTitle)
		if pageTitle != "" {
			source = "roam:" + pageTitle
			client, err := newRoamClient(cmd)
			if err != nil {
				return err
			}
			page, err := client.PullPage(cmd.Context(), pageTitle)
			if err != nil {
				return err
			}
			blocks = roam.Import(page)
			if title == "" {
				title = page.Title
			}
		} else {
			source = args[0]
			var err error
			if blocks, title, err = importFile(cmd, source, title); err != nil {
				return err
			}
		}

		doc, err := outline.NewDocument(blocks, documentOptions(cmd)...)
		if err != nil {
			return err
		}
		file := &docfile.File{Title: title, Blocks: doc.Blocks()}
		loggerFromContext(cmd.Context()).Debug("imported", "source", source, "blocks", doc.Len())

		result := importResult{Title: title, Blocks: file.Blocks}
		if out := strings.TrimSpace(importOut); out != "" {
			if err := file.Save(out); err != nil {
				return err
			}
			result.Out = out
		}
		return printResult(cmd, result)
	},
}

// importFile parses a markdown or Roam pull file; title defaults from it.
func importFile(cmd *cobra.Command, path, title string) ([]outline.Block, string, error) {
	src, err := readInputBytes(path, stdinFromContext(cmd.Context()))
	if err != nil {
		return nil, "", err
	}
	from, err := importSource(path)
	if err != nil {
		return nil, "", err
	}

	if from == "roam" {
		page, err := roam.ParsePage(src)
		if err != nil {
			return nil, "", err
		}
		if title == "" {
			title = page.Title
		}
		return roam.Import(page), title, nil
	}

	blocks, err := mdimport.New().Parse(bytes.NewReader(src))
	if err != nil {
		return nil, "", err
	}
	if title == "" && strings.TrimSpace(path) != "-" {
		title = mdimport.Title(path)
	}
	return blocks, title, nil
}

type importResult struct {
	Title  string          `json:"title,omitempty" yaml:"title,omitempty"`
	Out    string          `json:"out,omitempty" yaml:"out,omitempty"`
	Blocks []outline.Block `json:"blocks" yaml:"blocks"`
}

func (r importResult) Text() string {
	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "%s\n", r.Title)
	}
	if r.Out != "" {
		fmt.Fprintf(&b, "wrote %d block(s) to %s\n", len(r.Blocks), r.Out)
		return b.String()
	}
	b.WriteString(blockList(r.Blocks).Text())
	return b.String()
}

// importSource resolves --from, defaulting to roam for .json files.
func importSource(path string) (string, error) {
	switch from := strings.ToLower(strings.TrimSpace(importFrom)); from {
	case "markdown", "md", "roam":
		if from == "md" {
			from = "markdown"
		}
		return from, nil
	case "":
		if strings.EqualFold(filepath.Ext(strings.TrimSpace(path)), ".json") {
			return "roam", nil
		}
		return "markdown", nil
	default:
		return "", fmt.Errorf("invalid --from %q (expected markdown|roam)", importFrom)
	}
}

func init() {
	importCmd.Flags().StringVar(&importOut, "out", "", "Write the document to this path (.json, .yaml or .yml)")
	importCmd.Flags().StringVar(&importTitle, "title", "", "Document title (default: file name or page title)")
	importCmd.Flags().StringVar(&importFrom, "from", "", "Input kind: markdown or roam (default: by extension)")
	importCmd.Flags().StringVar(&importPage, "page", "", "Pull this page title from a Roam graph instead of reading a file")
	addRoamFlags(importCmd)
	rootCmd.AddCommand(importCmd)
}
