package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// runIntent applies one edit to the document at args[0] and prints the
// result. An edit whose preconditions do not hold is reported with
// handled=false; it is not an error.
func runIntent(cmd *cobra.Command, path string, in outline.Intent) error {
	s, err := openDocument(cmd, path)
	if err != nil {
		return err
	}
	next, handled, err := outline.Apply(s.doc, in)
	if err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Debug("edit", "op", in.Op, "handled", handled, "version", next.Version())

	if err := s.commit(cmd, next, handled); err != nil {
		return err
	}
	write, _ := cmd.Flags().GetBool("write")
	return printResult(cmd, documentResult{
		Op:      string(in.Op),
		Handled: &handled,
		Version: next.Version(),
		Written: write && handled,
		Blocks:  next.Blocks(),
	})
}

var (
	selStart string
	selEnd   string
)

func selectionCommand(op outline.Op, short, long string) *cobra.Command {
	c := &cobra.Command{
		Use:   string(op) + " <doc>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, args[0], outline.Intent{Op: op, Start: selStart, End: selEnd})
		},
	}
	c.Flags().StringVar(&selStart, "start", "", "First block of the selection (required)")
	c.Flags().StringVar(&selEnd, "end", "", "Last block of the selection (default: --start)")
	_ = c.MarkFlagRequired("start")
	addWriteFlag(c)
	return c
}

var indentCmd = selectionCommand(outline.OpIndent,
	"Nest the selected blocks one level deeper",
	`Indent the selection and the descendants that follow it by one level.

Nothing happens when the first selected block is already one level below its
predecessor, is the first block, or is at the maximum depth.`)

var outdentCmd = selectionCommand(outline.OpOutdent,
	"Move the selected blocks one level shallower",
	`Outdent the selection and the descendants that follow it by one level.
Blocks already at depth 0 stay there.`)

func mergeCommand(op outline.Op, short, long string) *cobra.Command {
	c := &cobra.Command{
		Use:   string(op) + " <doc> <key>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, args[0], outline.Intent{Op: op, Key: args[1]})
		},
	}
	addWriteFlag(c)
	return c
}

var mergeBackwardCmd = mergeCommand(outline.OpMergeBackward,
	"Backspace at the start of a block",
	`A styled block is first turned into a paragraph and the number-list run
after it restarts at 1. A paragraph is merged into the previous block: its
text is appended there and its children move up a level.`)

var mergeForwardCmd = mergeCommand(outline.OpMergeForward,
	"Delete at the end of a block",
	`The next block's text is appended to this one and the next block is
removed. Its children become children of this block.`)

var (
	dragKeys   []string
	dragTarget string
	dragAfter  bool
	dragOffset float64
)

var dragCmd = &cobra.Command{
	Use:   "drag <doc>",
	Short: "Move blocks next to a drop target",
	Long: `Move blocks (each with its descendants) before or after the target block.

The new depth comes from the horizontal drop offset: floor(offset / indent unit),
clamped to at most one level below the block it lands after.`,
	Example: `  outline drag doc.json --keys b,c --target a --offset 24
  outline drag doc.json --keys x --target y --after --write`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos := outline.DropBefore
		if dragAfter {
			pos = outline.DropAfter
		}
		return runIntent(cmd, args[0], outline.Intent{
			Op:       outline.OpDrag,
			Keys:     dragKeys,
			Target:   dragTarget,
			Position: pos,
			Offset:   dragOffset,
		})
	},
}

var intentsSource string

var applyCmd = &cobra.Command{
	Use:   "apply <doc>",
	Short: "Apply a list of edit intents in order",
	Long: `Read a JSON or YAML list of intents and apply them one after another.

Each intent has an "op" (indent, outdent, merge-backward, merge-forward, drag,
renumber) and the fields that op needs:

  [{"op": "indent", "start": "b", "end": "c"},
   {"op": "merge-forward", "key": "a"},
   {"op": "drag", "keys": ["d"], "target": "a", "position": "after", "offset": 24}]

Processing stops at the first malformed intent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(intentsSource) == "" {
			return fmt.Errorf("--intents is required")
		}
		if strings.TrimSpace(intentsSource) == "-" && strings.TrimSpace(args[0]) == "-" {
			return fmt.Errorf("document and --intents cannot both read stdin")
		}
		raw, err := readInputBytes(intentsSource, stdinFromContext(cmd.Context()))
		if err != nil {
			return err
		}
		intents, err := decodeIntents(raw)
		if err != nil {
			return err
		}

		s, err := openDocument(cmd, args[0])
		if err != nil {
			return err
		}
		log := loggerFromContext(cmd.Context())
		doc := s.doc
		results := make([]bool, 0, len(intents))
		for i, in := range intents {
			next, handled, err := outline.Apply(doc, in)
			if err != nil {
				return fmt.Errorf("intent %d (%s): %w", i, in.Op, err)
			}
			log.Debug("edit", "index", i, "op", in.Op, "handled", handled, "version", next.Version())
			results = append(results, handled)
			doc = next
		}

		changed := doc.Version() != s.doc.Version()
		if err := s.commit(cmd, doc, changed); err != nil {
			return err
		}
		write, _ := cmd.Flags().GetBool("write")
		return printResult(cmd, applyResult{
			Handled: results,
			Version: doc.Version(),
			Written: write && changed,
			Blocks:  doc.Blocks(),
		})
	},
}

type applyResult struct {
	Handled []bool          `json:"handled" yaml:"handled"`
	Version uint64          `json:"version" yaml:"version"`
	Written bool            `json:"written,omitempty" yaml:"written,omitempty"`
	Blocks  []outline.Block `json:"blocks" yaml:"blocks"`
}

func (r applyResult) Text() string {
	applied := 0
	for _, h := range r.Handled {
		if h {
			applied++
		}
	}
	return fmt.Sprintf("%d of %d intent(s) handled, version %d\n", applied, len(r.Handled), r.Version) +
		documentResult{Written: r.Written, Blocks: r.Blocks}.Text()
}

func decodeIntents(raw []byte) ([]outline.Intent, error) {
	trimmed := strings.TrimSpace(string(raw))
	var intents []outline.Intent
	var err error
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		if strings.HasPrefix(trimmed, "{") {
			var one outline.Intent
			err = json.Unmarshal([]byte(trimmed), &one)
			intents = []outline.Intent{one}
		} else {
			err = json.Unmarshal([]byte(trimmed), &intents)
		}
	} else {
		err = yaml.Unmarshal([]byte(trimmed), &intents)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing intents: %w", err)
	}
	return intents, nil
}

func init() {
	dragCmd.Flags().StringSliceVar(&dragKeys, "keys", nil, "Keys of the blocks to move (comma-separated)")
	dragCmd.Flags().StringVar(&dragTarget, "target", "", "Drop target block key")
	dragCmd.Flags().BoolVar(&dragAfter, "after", false, "Drop after the target instead of before it")
	dragCmd.Flags().Float64Var(&dragOffset, "offset", 0, "Horizontal drop offset in px")
	_ = dragCmd.MarkFlagRequired("keys")
	_ = dragCmd.MarkFlagRequired("target")
	addWriteFlag(dragCmd)

	applyCmd.Flags().StringVar(&intentsSource, "intents", "", "JSON or YAML intents file (use - for stdin)")
	addWriteFlag(applyCmd)

	rootCmd.AddCommand(indentCmd, outdentCmd, mergeBackwardCmd, mergeForwardCmd, dragCmd, applyCmd)
}
