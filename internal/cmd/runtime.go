package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/config"
	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from
// $OUTLINE_CONFIG or the default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// documentOptions resolves core options with precedence flag > config > default.
func documentOptions(cmd *cobra.Command) []outline.Option {
	var opts []outline.Option

	strict := strictFlag
	if !flagChanged(cmd, "strict") && cfg != nil && cfg.Strict != nil {
		strict = *cfg.Strict
	}
	opts = append(opts, outline.WithStrict(strict))

	depth := maxDepth
	if !flagChanged(cmd, "max-depth") && cfg != nil {
		depth = cfg.MaxDepth
	}
	opts = append(opts, outline.WithMaxDepth(depth))

	unit := indentUnit
	if !flagChanged(cmd, "indent-unit") && cfg != nil {
		unit = cfg.IndentUnit
	}
	opts = append(opts, outline.WithIndentUnit(unit))

	return opts
}
