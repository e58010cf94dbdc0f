package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/roam"
	"github.com/salmonumbrella/outline-cli/internal/secrets"
)

const (
	envRoamToken   = "ROAM_API_TOKEN"
	envRoamGraph   = "ROAM_GRAPH_NAME"
	envRoamBaseURL = "ROAM_BASE_URL"
)

var (
	roamGraph   string
	roamBaseURL string
)

func addRoamFlags(c *cobra.Command) {
	c.Flags().StringVar(&roamGraph, "graph", "", "Roam graph name (default: $ROAM_GRAPH_NAME or config graph_name)")
	c.Flags().StringVar(&roamBaseURL, "base-url", "", "Roam API base URL (default: "+roam.DefaultBaseURL+")")
}

// resolveGraph picks the graph name: --graph > $ROAM_GRAPH_NAME > config.
func resolveGraph() string {
	if g := strings.TrimSpace(roamGraph); g != "" {
		return g
	}
	if g := strings.TrimSpace(envGet(envRoamGraph)); g != "" {
		return g
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.GraphName)
	}
	return ""
}

func keyringBackend() string {
	if cfg != nil {
		return cfg.KeyringBackend
	}
	return ""
}

// resolveToken reads $ROAM_API_TOKEN, then the keyring entry for graph.
func resolveToken(graph string) (string, error) {
	if tok := strings.TrimSpace(envGet(envRoamToken)); tok != "" {
		return tok, nil
	}
	store, err := openSecretsStore(keyringBackend())
	if err != nil {
		return "", fmt.Errorf("failed to open credential store: %w", err)
	}
	tok, err := store.Token(graph)
	if errors.Is(err, secrets.ErrNotFound) {
		return "", roam.AuthenticationError{
			Message: fmt.Sprintf("no API token for graph %q; run 'outline auth set-token --graph %s' or set %s", graph, graph, envRoamToken),
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return tok, nil
}

// newRoamClient builds a client for the resolved graph and token.
func newRoamClient(cmd *cobra.Command) (*roam.Client, error) {
	graph := resolveGraph()
	if graph == "" {
		return nil, fmt.Errorf("graph name is required (use --graph, %s or 'outline config set graph_name')", envRoamGraph)
	}
	token, err := resolveToken(graph)
	if err != nil {
		return nil, err
	}

	opts := []roam.ClientOption{roam.WithLogger(loggerFromContext(cmd.Context()))}
	base := strings.TrimSpace(roamBaseURL)
	if base == "" {
		base = strings.TrimSpace(envGet(envRoamBaseURL))
	}
	if base == "" && cfg != nil {
		base = strings.TrimSpace(cfg.RoamBaseURL)
	}
	if base != "" {
		opts = append(opts, roam.WithBaseURL(base))
	}
	return roam.NewClient(graph, token, opts...), nil
}
