package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/outline-cli/internal/config"
	"github.com/salmonumbrella/outline-cli/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(versionTemplate())
}

// Global flags
var (
	outputFmt   string
	outputType  output.Format
	debug       bool
	configFile  string
	queryExpr   string
	queryFile   string
	errorFmt    string
	quietFlag   bool
	resultLimit int
	resultSort  string
	resultDesc  bool
	strictFlag  bool
	maxDepth    int
	indentUnit  float64
)

// cfg is the config loaded by PersistentPreRunE. It is nil for config
// subcommands, which load it themselves.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Inspect and edit block outlines",
	Long: `outline works on documents stored as a flat sequence of typed, indented blocks.

It derives the nested list structure, keeps numbered lists and parent links
consistent, and applies structural edits (indent, outdent, merge, drag) the
way a block editor does.

Documents are JSON or YAML files; use - to read one from stdin.

Environment Variables:
  OUTLINE_CONFIG            Config file path (default: ~/.config/outline/config.yaml)
  ROAM_API_TOKEN            Roam API token (overrides the keyring)
  ROAM_GRAPH_NAME           Roam graph name
  ROAM_BASE_URL             Roam API base URL
  OUTLINE_KEYRING_BACKEND   Keyring backend (auto, keychain, secret-service, file, ...)
  OUTLINE_KEYRING_PASSWORD  Password of the file keyring backend`,
	Version:       version,
	SilenceErrors: true,
}

// rootPersistentPreRunE is assigned in init; referencing rootCmd from its
// own initializer would be an initialization cycle.
func rootPersistentPreRunE(cmd *cobra.Command, args []string) error {
	skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
	cfg = nil
	if !skipConfigLoad {
		loaded, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		cfg = loaded
	}

	// Output format selection: --output > config > non-TTY json > text
	formatStr := outputFmt
	formatSet := flagChanged(cmd, "output") || flagChanged(cmd, "format")
	if !formatSet && cfg != nil && strings.TrimSpace(cfg.OutputFormat) != "" {
		formatStr = strings.TrimSpace(cfg.OutputFormat)
	} else if !formatSet && !isTerminal(cmd.OutOrStdout()) {
		formatStr = "json"
	}
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	outputType = format
	outputFmt = string(format)

	if queryExpr != "" && queryFile != "" {
		return fmt.Errorf("use only one of --query or --query-file")
	}
	if queryFile != "" {
		loaded, err := readInputSource(queryFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		queryExpr = loaded
	}

	// Default quiet mode for non-interactive structured output
	if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
		quietFlag = true
	}

	ctx := cmd.Context()
	ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx = withLogger(ctx, newLogger(cmd.ErrOrStderr(), debug))
	ctx = output.WithFormat(ctx, outputType)
	ctx = output.WithQuery(ctx, queryExpr)
	ctx = output.WithLimit(ctx, resultLimit)
	ctx = output.WithSort(ctx, resultSort, resultDesc)
	ctx = output.WithQuiet(ctx, quietFlag)
	ctx = WithErrorFormat(ctx, errorFmt)
	cmd.SetContext(ctx)
	rootCmd.SetContext(ctx)

	if err := validateErrorFormat(errorFmt); err != nil {
		return err
	}
	if effectiveErrorFormat(ctx) != "text" {
		cmd.SilenceUsage = true
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printCommandError(currentContext(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func versionTemplate() string {
	return fmt.Sprintf("outline version %s (commit: %s, built: %s)\n", version, commit, date)
}

func init() {
	rootCmd.PersistentPreRunE = rootPersistentPreRunE
	rootCmd.SetVersionTemplate(versionTemplate())

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	pf.StringVar(&outputFmt, "format", "text", "Alias for --output")
	pf.StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	pf.StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	pf.StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	pf.BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	pf.IntVar(&resultLimit, "result-limit", 0, "Limit number of results in output (0 = unlimited)")
	pf.StringVar(&resultSort, "result-sort-by", "", "Sort output results by field")
	pf.BoolVar(&resultDesc, "result-desc", false, "Sort output results in descending order")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging on stderr")
	pf.StringVar(&configFile, "config", "", "Config file (default: ~/.config/outline/config.yaml)")
	pf.BoolVar(&strictFlag, "strict", false, "Reject documents with depth jumps instead of clamping them")
	pf.IntVar(&maxDepth, "max-depth", 0, "Deepest indentLevel reachable by indent (default 4)")
	pf.Float64Var(&indentUnit, "indent-unit", 0, "Horizontal drag offset per indent level in px (default 24)")
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
