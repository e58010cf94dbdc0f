package roam

import (
	"fmt"
	"strings"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// Options configures Export.
type Options struct {
	// PageTitle is the page the outline is written to.
	PageTitle string
	// PageUID reuses an existing page instead of creating one.
	PageUID string
	// UseKeys sends block keys as Roam UIDs instead of tempids.
	UseKeys bool
}

// Export walks the derived forest of d and returns create-page and
// create-block actions that rebuild it in Roam.
//
// Roam has no block types, so they map onto its conventions: headings set
// "heading", check-list items get TODO/DONE markers, quotes get a "> " prefix
// and toggle-list state becomes "open". A parent whose children form a single
// number-list run is shown with the numbered view; numbers in mixed runs are
// written into the text.
func Export(d *outline.Document, opts Options) ([]map[string]interface{}, error) {
	title := strings.TrimSpace(opts.PageTitle)
	if title == "" && opts.PageUID == "" {
		return nil, outline.ValidationError{Message: "page title is required"}
	}

	b := NewBatchBuilder()
	forest := d.Forest()

	parent := opts.PageUID
	if parent == "" {
		parent = b.CreatePage(PageOptions{Title: title, ChildrenViewType: viewType(forest)})
	}
	e := &exporter{doc: d, batch: b, opts: opts}
	if err := e.forest(forest, parent); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

type exporter struct {
	doc   *outline.Document
	batch *BatchBuilder
	opts  Options
}

func (e *exporter) forest(f outline.Forest, parent string) error {
	numbered := viewType(f) == "numbered"
	order := 0
	for _, run := range f {
		for i, key := range run.Keys {
			blk, ok := e.doc.Block(key)
			if !ok {
				return outline.NotFoundError{Key: key}
			}
			children := run.Values[i]

			opts := blockOptions(blk, numbered)
			opts.ChildrenViewType = viewType(children)
			if e.opts.UseKeys {
				opts.UID = key
			}
			ref := e.batch.CreateBlock(Location{ParentUID: parent, Order: order}, opts)
			order++

			if err := e.forest(children, ref); err != nil {
				return fmt.Errorf("exporting children of %s: %w", key, err)
			}
		}
	}
	return nil
}

func viewType(f outline.Forest) string {
	if len(f) == 1 && f[0].Type == outline.TypeNumberList {
		return "numbered"
	}
	return ""
}

func blockOptions(b outline.Block, numbered bool) BlockOptions {
	opts := BlockOptions{Content: b.Text}
	switch b.Type {
	case outline.TypeHeading:
		level := 1
		opts.Heading = &level
	case outline.TypeCheckList:
		marker := todoMarker
		if b.Checked() {
			marker = doneMarker
		}
		opts.Content = marker + b.Text
	case outline.TypeQuote:
		opts.Content = "> " + b.Text
	case outline.TypeToggleList:
		open := !b.Collapsed()
		opts.Open = &open
	case outline.TypeNumberList:
		if !numbered {
			opts.Content = fmt.Sprintf("%d. %s", b.Order(), b.Text)
		}
	}
	return opts
}
