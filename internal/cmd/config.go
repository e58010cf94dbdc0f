package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/config"
	"github.com/salmonumbrella/outline-cli/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/outline/config.yaml.

You can view, set, or unset config keys such as output_format, strict,
max_depth, indent_unit, listen_addr, graph_name, roam_base_url and
keyring_backend. Command-line flags take precedence.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		return printResult(cmd, configView(cfg.Values()))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResult(cmd, keyList(config.Keys()))
	},
}

type configView map[string]interface{}

func (v configView) Text() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Config:\n")
	for _, k := range keys {
		val := v[k]
		if val == nil {
			val = ""
		}
		fmt.Fprintf(&b, "  %s: %v\n", k, val)
	}
	return b.String()
}

type keyList []string

func (k keyList) Text() string {
	return "Supported keys:\n  " + strings.Join(k, "\n  ") + "\n"
}

type configChange struct {
	Status string `json:"status" yaml:"status"`
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
}

func (c configChange) Text() string {
	if c.Status == "unset" {
		return fmt.Sprintf("Unset %s\n", c.Key)
	}
	return fmt.Sprintf("Updated %s\n", c.Key)
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}
	if key == "output_format" && value != "" {
		if _, err := output.ParseFormat(value); err != nil {
			return err
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	return printResult(cmd, configChange{Status: "updated", Key: key, Value: value})
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}
	if err := cfg.Unset(key); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	return printResult(cmd, configChange{Status: "unset", Key: key})
}

func saveConfig(cfg *config.Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return cfg.Save(path)
}
