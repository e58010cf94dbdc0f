package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/outline-cli/internal/output"
	"github.com/salmonumbrella/outline-cli/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Roam API tokens",
	Long: `Manage the Roam Research API tokens used by 'export roam --push' and
'import --page'.

Tokens are stored per graph in the system keychain (macOS Keychain, Windows
Credential Manager, Secret Service) or in an encrypted file. Select a backend
with 'outline config set keyring_backend file' or $OUTLINE_KEYRING_BACKEND.
$ROAM_API_TOKEN takes precedence over a stored token.`,
	Example: `  outline auth set-token --graph notes
  echo "$TOKEN" | outline auth set-token - --graph notes
  outline auth status
  outline auth remove --graph notes`,
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token [token]",
	Short: "Store the API token of a graph",
	Long: `Store the API token of a graph in the keyring.

The token is taken from the argument, read from stdin when the argument is -,
or prompted for without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graph := resolveGraph()
		if graph == "" {
			return fmt.Errorf("graph name is required (use --graph, %s or 'outline config set graph_name')", envRoamGraph)
		}

		var token string
		var err error
		switch {
		case len(args) == 1 && strings.TrimSpace(args[0]) == "-":
			token, err = readInputSource("-", stdinFromContext(cmd.Context()))
		case len(args) == 1:
			token = args[0]
		default:
			token, err = promptSecret(cmd.Context(), fmt.Sprintf("API token for %s: ", graph))
		}
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return fmt.Errorf("API token is required")
		}

		store, err := openSecretsStore(keyringBackend())
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		if err := store.SetToken(graph, token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		loggerFromContext(cmd.Context()).Debug("token stored", "graph", graph)
		return printResult(cmd, authChange{Status: "stored", Graph: graph})
	},
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the stored API token of a graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph := resolveGraph()
		if graph == "" {
			return fmt.Errorf("graph name is required (use --graph, %s or 'outline config set graph_name')", envRoamGraph)
		}
		store, err := openSecretsStore(keyringBackend())
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		if err := store.DeleteToken(graph); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		return printResult(cmd, authChange{Status: "removed", Graph: graph})
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which graph and token would be used",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := authStatus{Graph: resolveGraph()}
		if tok := strings.TrimSpace(envGet(envRoamToken)); tok != "" {
			st.Source = "env"
			st.Token = maskToken(tok)
		}

		store, err := openSecretsStore(keyringBackend())
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		if st.Stored, err = store.Graphs(); err != nil {
			return fmt.Errorf("failed to list tokens: %w", err)
		}
		if st.Source == "" && st.Graph != "" {
			tok, err := store.Token(st.Graph)
			switch {
			case err == nil:
				st.Source = "keyring"
				st.Token = maskToken(tok)
			case !errors.Is(err, secrets.ErrNotFound):
				return fmt.Errorf("failed to read token: %w", err)
			}
		}
		st.Authenticated = st.Graph != "" && st.Source != ""
		return printResult(cmd, st)
	},
}

type authChange struct {
	Status string `json:"status" yaml:"status"`
	Graph  string `json:"graph" yaml:"graph"`
}

func (c authChange) Text() string {
	if c.Status == "removed" {
		return fmt.Sprintf("Removed token for %s\n", c.Graph)
	}
	return fmt.Sprintf("Stored token for %s\n", c.Graph)
}

type authStatus struct {
	Authenticated bool     `json:"authenticated" yaml:"authenticated"`
	Graph         string   `json:"graph,omitempty" yaml:"graph,omitempty"`
	Source        string   `json:"source,omitempty" yaml:"source,omitempty"`
	Token         string   `json:"token,omitempty" yaml:"token,omitempty"`
	Stored        []string `json:"stored" yaml:"stored"`
}

func (s authStatus) Text() string {
	var b strings.Builder
	switch {
	case s.Authenticated:
		fmt.Fprintf(&b, "Graph: %s\nToken: %s (%s)\n", s.Graph, s.Token, s.Source)
	case s.Graph == "":
		b.WriteString("Status: no graph configured\n")
	default:
		fmt.Fprintf(&b, "Graph: %s\nStatus: no token\n", s.Graph)
	}
	if len(s.Stored) > 0 {
		fmt.Fprintf(&b, "Stored tokens: %s\n", strings.Join(s.Stored, ", "))
	}
	return b.String()
}

// promptSecret reads a secret without echo from a terminal, or one line from
// piped input. The prompt is not shown in quiet mode.
func promptSecret(ctx context.Context, prompt string) (string, error) {
	if !output.QuietFromContext(ctx) {
		fmt.Fprint(stderrFromContext(ctx), prompt)
	}

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderrFromContext(ctx))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken shows only the first and last 4 characters of a token.
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	for _, c := range []*cobra.Command{authSetTokenCmd, authRemoveCmd, authStatusCmd} {
		c.Flags().StringVar(&roamGraph, "graph", "", "Roam graph name (default: $ROAM_GRAPH_NAME or config graph_name)")
		authCmd.AddCommand(c)
	}
	rootCmd.AddCommand(authCmd)
}
