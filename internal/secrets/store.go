// Package secrets keeps Roam API tokens in the OS keyring, or in an
// encrypted file when no keyring service is available.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/99designs/keyring"
)

const (
	// ServiceName is the keyring service the tokens are stored under.
	ServiceName = "outline"

	// EnvBackend forces a keyring backend (e.g. "file").
	EnvBackend = "OUTLINE_KEYRING_BACKEND"
	// EnvPassword is the password of the file backend.
	EnvPassword = "OUTLINE_KEYRING_PASSWORD"

	tokenKeyPrefix = "roam-token:"
	openTimeout    = 5 * time.Second
)

// ErrNotFound is returned when no token is stored for a graph.
var ErrNotFound = errors.New("no token stored")

var keyringOpenFunc = keyring.Open

// Store reads and writes per-graph API tokens.
type Store struct {
	ring keyring.Keyring
}

// Open opens the keyring. backend is "", "auto", or a keyring backend name
// such as "file" or "keychain"; $OUTLINE_KEYRING_BACKEND overrides it.
func Open(backend string) (*Store, error) {
	if env := strings.TrimSpace(os.Getenv(EnvBackend)); env != "" {
		backend = env
	}
	cfg, err := keyringConfig(backend)
	if err != nil {
		return nil, err
	}
	ring, err := openKeyringWithTimeout(cfg, openTimeout)
	if err != nil {
		return nil, err
	}
	return &Store{ring: ring}, nil
}

func keyringConfig(backend string) (keyring.Config, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true,
		FilePasswordFunc:         filePassword,
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("getting home directory: %w", err)
	}
	cfg.FileDir = filepath.Join(home, ".config", ServiceName, "keyring")

	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "", "auto":
	default:
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(b)}
	}
	return cfg, nil
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}
	return "", fmt.Errorf("%s: set %s to use the file keyring backend", prompt, EnvPassword)
}

// openKeyringWithTimeout guards against backends that block on an
// unanswered unlock prompt.
func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("opening keyring: %w", r.err)
		}
		return r.ring, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("keyring did not respond within %s; set %s=file to use an encrypted file instead",
			timeout, EnvBackend)
	}
}

func tokenKey(graph string) string {
	return tokenKeyPrefix + strings.TrimSpace(graph)
}

// SetToken stores the token for graph.
func (s *Store) SetToken(graph, token string) error {
	if strings.TrimSpace(graph) == "" {
		return errors.New("graph name is required")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return s.ring.Set(keyring.Item{
		Key:   tokenKey(graph),
		Data:  []byte(strings.TrimSpace(token)),
		Label: "Roam API token (" + graph + ")",
	})
}

// Token returns the token stored for graph, or ErrNotFound.
func (s *Store) Token(graph string) (string, error) {
	item, err := s.ring.Get(tokenKey(graph))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

// DeleteToken removes the token for graph. Removing a missing token is not
// an error.
func (s *Store) DeleteToken(graph string) error {
	err := s.ring.Remove(tokenKey(graph))
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Graphs lists the graphs that have a stored token.
func (s *Store) Graphs() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	var graphs []string
	for _, k := range keys {
		if g, ok := strings.CutPrefix(k, tokenKeyPrefix); ok {
			graphs = append(graphs, g)
		}
	}
	return graphs, nil
}
