package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/outline"
	"github.com/salmonumbrella/outline-cli/internal/output"
)

func printResult(cmd *cobra.Command, data interface{}) error {
	ctx := cmd.Context()
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// blockList renders blocks as an indented outline in text mode.
type blockList []outline.Block

func (l blockList) Text() string {
	var b strings.Builder
	for _, blk := range l {
		b.WriteString(strings.Repeat("  ", blk.Depth))
		if m := marker(blk); m != "" {
			b.WriteString(m)
			b.WriteByte(' ')
		}
		b.WriteString(blk.Text)
		fmt.Fprintf(&b, "  (%s)\n", blk.Key)
	}
	return b.String()
}

func marker(b outline.Block) string {
	switch b.Type {
	case outline.TypeHeading:
		return "#"
	case outline.TypeBulletList:
		return "-"
	case outline.TypeNumberList:
		return fmt.Sprintf("%d.", b.Order())
	case outline.TypeCheckList:
		if b.Checked() {
			return "[x]"
		}
		return "[ ]"
	case outline.TypeToggleList:
		if b.Collapsed() {
			return "[+]"
		}
		return "[-]"
	case outline.TypeQuote:
		return ">"
	default:
		return ""
	}
}

// documentResult is the common output of commands that produce a document.
type documentResult struct {
	Op       string          `json:"op,omitempty" yaml:"op,omitempty"`
	Handled  *bool           `json:"handled,omitempty" yaml:"handled,omitempty"`
	Repaired *int            `json:"repaired,omitempty" yaml:"repaired,omitempty"`
	Version  uint64          `json:"version" yaml:"version"`
	Written  bool            `json:"written,omitempty" yaml:"written,omitempty"`
	Blocks   []outline.Block `json:"blocks" yaml:"blocks"`
}

func (r documentResult) Text() string {
	var b strings.Builder
	if r.Handled != nil {
		fmt.Fprintf(&b, "%s: handled=%t version=%d\n", r.Op, *r.Handled, r.Version)
	}
	if r.Repaired != nil {
		fmt.Fprintf(&b, "repaired %d block(s)\n", *r.Repaired)
	}
	if r.Written {
		b.WriteString("saved\n")
	}
	b.WriteString(blockList(r.Blocks).Text())
	return b.String()
}
