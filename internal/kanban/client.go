// Package kanban is a client and tracker adapter for a Kanban-list board
// (Trello-compatible API): defects are cards, lifecycle state is the list a
// card sits in, and "transition" means reassigning the card to another list.
package kanban

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bugrelay/internal/logging"
)

// Client is a low-level client for the board API. Authentication is the
// key/token query-parameter pair the board API uses on every request.
type Client struct {
	baseURL    string
	key        string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a Client for the given board API endpoint.
func New(baseURL, key, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("kanban: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		baseURL:    baseURL,
		key:        key,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// Card is a board card as returned by the API.
type Card struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ListID  string `json:"idList,omitempty"`
	IDShort int    `json:"idShort,omitempty"`
}

// ListCards returns the cards of a list, names only.
func (c *Client) ListCards(ctx context.Context, listID string) ([]Card, error) {
	q := url.Values{"fields": {"name"}}
	var cards []Card
	if err := c.do(ctx, "GET", "/lists/"+listID+"/cards", "list cards", q, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard creates a card in the given list.
func (c *Client) CreateCard(ctx context.Context, listID, name, desc string) (*Card, error) {
	form := url.Values{
		"idList": {listID},
		"name":   {name},
		"desc":   {desc},
	}
	var card Card
	if err := c.do(ctx, "POST", "/cards", "create card", nil, form, &card); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "card created", "card", card.ID, "idShort", card.IDShort)
	return &card, nil
}

// CommentCard appends a comment to a card.
func (c *Client) CommentCard(ctx context.Context, cardID, text string) error {
	form := url.Values{"text": {text}}
	return c.do(ctx, "POST", "/cards/"+cardID+"/actions/comments", "comment card", nil, form, nil)
}

// MoveCard reassigns a card to another list.
func (c *Client) MoveCard(ctx context.Context, cardID, listID string) error {
	form := url.Values{"idList": {listID}}
	return c.do(ctx, "PUT", "/cards/"+cardID, "move card", nil, form, nil)
}

// AttachFile uploads a local file to a card as a multipart attachment.
// The board API expects the upload under the "file" field.
func (c *Client) AttachFile(ctx context.Context, cardID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("attach file: open %s: %w", path, err)
	}
	defer f.Close()

	var body strings.Builder
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("attach file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("attach file: read %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("attach file: %w", err)
	}

	u := c.baseURL + "/cards/" + cardID + "/attachments?" + c.auth(nil).Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", u, strings.NewReader(body.String()))
	if err != nil {
		return fmt.Errorf("attach file: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("attach file: do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError("attach file", resp)
	}
	c.logger.InfoContext(ctx, "file attached", "card", cardID, "file", filepath.Base(path))
	return nil
}

// auth merges the credential pair into the given query values.
func (c *Client) auth(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("key", c.key)
	q.Set("token", c.token)
	return q
}

// do executes a request against the board API. Form values, when present,
// are sent urlencoded in the body. JSON responses decode into dst.
func (c *Client) do(ctx context.Context, method, path, operation string, query, form url.Values, dst any) error {
	u := c.baseURL + path + "?" + c.auth(query).Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.DebugContext(ctx, "board API request", "operation", operation, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(operation, resp)
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}
	return nil
}
