package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/salmonumbrella/outline-cli/internal/config"
	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// cli runs rootCmd in-process with captured IO and an isolated config file.
type cli struct {
	t       *testing.T
	cfgPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(config.EnvConfigPath, path)
	return &cli{t: t, cfgPath: path}
}

func (c *cli) run(args ...string) (string, string, error) {
	return c.runStdin("", args...)
}

func (c *cli) runStdin(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	restore := snapshotCLIState()
	defer restore()

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	in := strings.NewReader(stdin)

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(in)
	rootCmd.SetContext(withIO(context.Background(), in, out, errBuf))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil {
		printCommandError(currentContext(), err)
	}
	return out.String(), errBuf.String(), err
}

// mustJSON runs args and decodes stdout into v.
func (c *cli) mustJSON(v interface{}, args ...string) {
	c.t.Helper()
	out, stderr, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("%v: %v (stderr %q)", args, err, stderr)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		c.t.Fatalf("parse output of %v: %v\n%s", args, err, out)
	}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

const numberedDoc = `{
  "title": "Steps",
  "blocks": [
    {"key": "a", "type": "number-list", "indentLevel": 0, "text": "one", "data": {"numberListOrder": 1}},
    {"key": "b", "type": "number-list", "indentLevel": 0, "text": "two", "data": {"numberListOrder": 2}},
    {"key": "c", "type": "number-list", "indentLevel": 0, "text": "three", "data": {"numberListOrder": 3}}
  ]
}`

type docOutput struct {
	Op      string          `json:"op"`
	Handled *bool           `json:"handled"`
	Version uint64          `json:"version"`
	Written bool            `json:"written"`
	Blocks  []outline.Block `json:"blocks"`
}

func keys(blocks []outline.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Key
	}
	return out
}

func depths(blocks []outline.Block) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.Depth
	}
	return out
}

func snapshotCLIState() func() {
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevResultLimit := resultLimit
	prevResultSort := resultSort
	prevResultDesc := resultDesc
	prevStrict := strictFlag
	prevMaxDepth := maxDepth
	prevIndentUnit := indentUnit
	prevCfg := cfg

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		resultLimit = prevResultLimit
		resultSort = prevResultSort
		resultDesc = prevResultDesc
		strictFlag = prevStrict
		maxDepth = prevMaxDepth
		indentUnit = prevIndentUnit
		cfg = prevCfg
		dragKeys = nil

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetFlagChanges(rootCmd)
	}
}

// resetFlagChanges restores every flag in the command tree to its default so
// one execution does not leak into the next.
func resetFlagChanges(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !strings.HasSuffix(f.Value.Type(), "Slice") {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlagChanges(sub)
	}
}
