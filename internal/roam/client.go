package roam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the hosted Roam Research API.
	DefaultBaseURL = "https://api.roamresearch.com"
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second
	// MaxRetries is how often a rate-limited call is retried.
	MaxRetries = 3
	// InitialBackoff is the first wait after a rate-limit response.
	InitialBackoff = 10 * time.Second

	// pageSelector pulls a page with its whole block tree and the attributes
	// Import reads.
	pageSelector = "[:node/title :block/uid :children/view-type " +
		"{:block/children [:block/uid :block/string :block/order :block/heading :block/open :children/view-type {:block/children ...}]}]"
)

// API errors.
type (
	// AuthenticationError is a rejected API token.
	AuthenticationError struct{ Message string }
	// RateLimitError is returned once retries are exhausted.
	RateLimitError struct{ Message string }
	// PageNotFoundError is a pull of a page title that does not exist.
	PageNotFoundError struct{ Title string }
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e PageNotFoundError) Error() string   { return fmt.Sprintf("page not found: %s", e.Title) }

// Client talks to the Roam backend API of one graph.
type Client struct {
	baseURL    string
	token      string
	graph      string
	httpClient *http.Client
	backoff    time.Duration
	log        *slog.Logger

	mu       sync.Mutex
	redirect string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithBackoff sets the initial rate-limit backoff.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithLogger logs requests at debug level.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for graph authenticated with token.
func NewClient(graph, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		graph:   graph,
		backoff: InitialBackoff,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Roam answers with 307 to the peer that hosts the graph; the
			// peer is remembered and the POST body replayed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Graph returns the graph name.
func (c *Client) Graph() string {
	return c.graph
}

func (c *Client) endpoint(op string) string {
	c.mu.Lock()
	base := c.baseURL
	if c.redirect != "" {
		base = c.redirect
	}
	c.mu.Unlock()
	return fmt.Sprintf("%s/api/graph/%s/%s", base, url.PathEscape(c.graph), op)
}

func (c *Client) call(ctx context.Context, op string, body interface{}) ([]byte, error) {
	return c.callDepth(ctx, op, body, 0)
}

func (c *Client) callDepth(ctx context.Context, op string, body interface{}, redirects int) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	target := c.endpoint(op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("x-authorization", "Bearer "+c.token)

	c.log.Debug("roam request", "op", op, "url", target, "bytes", len(payload))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTemporaryRedirect || resp.StatusCode == http.StatusPermanentRedirect {
		if redirects >= 3 {
			return nil, errors.New("too many redirects")
		}
		loc, err := resp.Location()
		if err != nil {
			return nil, fmt.Errorf("redirect without Location header: %w", err)
		}
		c.mu.Lock()
		c.redirect = loc.Scheme + "://" + loc.Host
		c.mu.Unlock()
		c.log.Debug("roam redirect", "peer", loc.Host)
		return c.callDepth(ctx, op, body, redirects+1)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return respBody, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, AuthenticationError{Message: "invalid API token"}
	case http.StatusTooManyRequests:
		return nil, RateLimitError{Message: fmt.Sprintf("rate limit exceeded: %s", respBody)}
	case http.StatusBadRequest:
		return nil, fmt.Errorf("invalid request: %s", respBody)
	default:
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, respBody)
	}
}

// callWithRetry retries rate-limited calls with exponential backoff.
func (c *Client) callWithRetry(ctx context.Context, op string, body interface{}) ([]byte, error) {
	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		resp, err := c.call(ctx, op, body)
		var rl RateLimitError
		if err == nil || !errors.As(err, &rl) {
			return resp, err
		}
		if attempt == MaxRetries {
			return nil, RateLimitError{Message: "rate limit exceeded after retries"}
		}
		c.log.Debug("roam rate limited", "attempt", attempt+1, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// Pull fetches one entity with a pull selector.
func (c *Client) Pull(ctx context.Context, eid, selector string) (json.RawMessage, error) {
	resp, err := c.callWithRetry(ctx, "pull", map[string]interface{}{
		"eid":      eid,
		"selector": selector,
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse pull result: %w", err)
	}
	return result.Result, nil
}

// PullPage fetches a page and its block tree by title.
func (c *Client) PullPage(ctx context.Context, title string) (*Page, error) {
	raw, err := c.Pull(ctx, titleRef(title), pageSelector)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, PageNotFoundError{Title: title}
	}
	return ParsePage(raw)
}

// Write sends batch actions, such as the result of Export, in one request.
func (c *Client) Write(ctx context.Context, actions []map[string]interface{}) error {
	_, err := c.callWithRetry(ctx, "write", map[string]interface{}{
		"action":  "batch-actions",
		"actions": actions,
	})
	return err
}

// titleRef builds the lookup ref [:node/title "..."] for a page title.
func titleRef(title string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(title)
	return `[:node/title "` + escaped + `"]`
}
