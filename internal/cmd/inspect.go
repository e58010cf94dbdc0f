package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/outline"
	"github.com/salmonumbrella/outline-cli/internal/output"
)

var treeCmd = &cobra.Command{
	Use:   "tree <doc>",
	Short: "Show the nested list structure derived from a document",
	Long: `Show the forest of sibling runs derived from the flat block sequence.

A run is a maximal sequence of same-type blocks at the same depth; each
member carries the runs nested under it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openDocument(cmd, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, treeView(s.doc.Forest().View()))
	},
}

type treeView []outline.RunView

func (t treeView) Text() string {
	var b strings.Builder
	writeRuns(&b, t, 0)
	return b.String()
}

func writeRuns(b *strings.Builder, runs []outline.RunView, depth int) {
	pad := strings.Repeat("  ", depth)
	for _, run := range runs {
		fmt.Fprintf(b, "%s[%s]\n", pad, run.Type)
		for _, item := range run.Items {
			fmt.Fprintf(b, "%s- %s\n", pad, item.Key)
			writeRuns(b, item.Children, depth+1)
		}
	}
}

var parentsCmd = &cobra.Command{
	Use:   "parents <doc>",
	Short: "Show each block's parent, run index and position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openDocument(cmd, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, parentRows(s.doc))
	},
}

type parentRow struct {
	Key       string `json:"key" yaml:"key"`
	Parent    string `json:"parent" yaml:"parent"`
	ListIndex int    `json:"list_index" yaml:"list_index"`
	Order     int    `json:"order" yaml:"order"`
}

type parentTable []parentRow

func (p parentTable) Table() output.Table {
	t := output.Table{Headers: []string{"KEY", "PARENT", "LIST", "ORDER"}}
	for _, r := range p {
		parent := r.Parent
		if parent == "" {
			parent = "-"
		}
		t.Rows = append(t.Rows, []string{r.Key, parent, strconv.Itoa(r.ListIndex), strconv.Itoa(r.Order)})
	}
	return t
}

func (p parentTable) Text() string {
	var b strings.Builder
	for _, r := range p {
		parent := r.Parent
		if parent == "" {
			parent = "(root)"
		}
		fmt.Fprintf(&b, "%s -> %s [list %d, #%d]\n", r.Key, parent, r.ListIndex, r.Order)
	}
	return b.String()
}

// parentRows lists the parent map in flat document order.
func parentRows(d *outline.Document) parentTable {
	pm := d.ParentMap()
	rows := make(parentTable, 0, d.Len())
	for _, b := range d.Blocks() {
		info := pm[b.Key]
		rows = append(rows, parentRow{Key: b.Key, Parent: info.ParentKey, ListIndex: info.ListIndex, Order: info.Order})
	}
	return rows
}

var renumberCmd = &cobra.Command{
	Use:   "renumber <doc>",
	Short: "Repair number-list orders and cached parent keys",
	Long: `Run the full consistency pass: number-list runs are renumbered from 1,
cached parentKey values are recomputed, and data fields that do not match a
block's type are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openDocument(cmd, args[0])
		if err != nil {
			return err
		}
		blocks, repaired := outline.RenumberDocument(s.doc.Blocks())
		next, changed := s.doc.Renumber()
		if err := s.commit(cmd, next, changed); err != nil {
			return err
		}
		write, _ := cmd.Flags().GetBool("write")
		return printResult(cmd, documentResult{
			Repaired: &repaired,
			Version:  next.Version(),
			Written:  write && changed,
			Blocks:   blocks,
		})
	},
}

var visibleCmd = &cobra.Command{
	Use:   "visible <doc> [key]",
	Short: "List visible blocks, or report whether one block is visible",
	Long: `A block is hidden when any ancestor is a collapsed toggle-list.

With a key, prints whether that block is visible. Without one, lists the
visible blocks in document order.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openDocument(cmd, args[0])
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return printResult(cmd, documentResult{Version: s.doc.Version(), Blocks: s.doc.VisibleBlocks()})
		}
		key := args[1]
		if _, ok := s.doc.Block(key); !ok {
			return outline.NotFoundError{Key: key}
		}
		return printResult(cmd, map[string]interface{}{"key": key, "visible": s.doc.IsVisible(key)})
	},
}

func init() {
	addWriteFlag(renumberCmd)
	rootCmd.AddCommand(treeCmd, parentsCmd, renumberCmd, visibleCmd)
}
