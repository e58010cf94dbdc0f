package cmd

import (
	"os"

	"github.com/salmonumbrella/outline-cli/internal/secrets"
)

// tokenStore is the part of secrets.Store the commands use.
type tokenStore interface {
	SetToken(graph, token string) error
	Token(graph string) (string, error)
	DeleteToken(graph string) error
	Graphs() ([]string, error)
}

// Replaced in tests.
var (
	openSecretsStore = func(backend string) (tokenStore, error) {
		return secrets.Open(backend)
	}
	envGet = os.Getenv
)
