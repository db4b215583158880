// Package workflow is a client and tracker adapter for a workflow-status
// issue tracker (Jira-compatible REST API): defects are issues, lifecycle
// state is the issue status, and "transition" means resolving a transition
// id by name and submitting it.
package workflow

import (
	"bytes"
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
	"strconv"
	"strings"
	"time"

	"bugrelay/internal/logging"
)

// Client is a low-level client for the issue tracker REST API, using basic
// auth (API user + token) and JSON bodies.
type Client struct {
	baseURL    string
	user       string
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

// New creates a Client for the given tracker instance.
func New(baseURL, user, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("workflow: baseURL is required")
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
		user:       user,
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

// --- Wire types ---

// Status is the issue status as returned by the API.
type Status struct {
	Name string `json:"name"`
}

// IssueFields are the fields requested by search.
type IssueFields struct {
	Summary string `json:"summary"`
	Status  Status `json:"status"`
}

// Issue is one issue in a search result.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// SearchResult is the response of the search endpoint.
type SearchResult struct {
	Issues []Issue `json:"issues"`
}

// CreatedIssue is the response of issue creation.
type CreatedIssue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// Transition is one available workflow transition for an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Status `json:"to"`
}

type transitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// CreateIssueRequest describes a new issue.
type CreateIssueRequest struct {
	Project         string
	IssueType       string
	Summary         string
	Description     string
	Labels          []string
	SecurityLevelID string
}

// adfDoc wraps plain text into the minimal rich-text document the v3 API
// requires for descriptions and comments.
func adfDoc(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}

// SearchIssues runs a query against the search endpoint, requesting summary
// and status fields only.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (*SearchResult, error) {
	q := url.Values{
		"jql":        {jql},
		"fields":     {"summary,status"},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	var result SearchResult
	if err := c.doJSON(ctx, "GET", "/rest/api/3/search/jql?"+q.Encode(), "search issues", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateIssue creates a new issue and returns its id and key.
func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) (*CreatedIssue, error) {
	fields := map[string]any{
		"project":     map[string]any{"key": req.Project},
		"summary":     req.Summary,
		"description": adfDoc(req.Description),
		"issuetype":   map[string]any{"name": req.IssueType},
	}
	if len(req.Labels) > 0 {
		fields["labels"] = req.Labels
	}
	if req.SecurityLevelID != "" {
		fields["security"] = map[string]any{"id": req.SecurityLevelID}
	}

	var created CreatedIssue
	if err := c.doJSON(ctx, "POST", "/rest/api/3/issue", "create issue",
		map[string]any{"fields": fields}, &created); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "issue created", "key", created.Key, "project", req.Project)
	return &created, nil
}

// CommentIssue appends a plain-text comment to an issue.
func (c *Client) CommentIssue(ctx context.Context, issueKey, text string) error {
	payload := map[string]any{"body": adfDoc(text)}
	return c.doJSON(ctx, "POST", "/rest/api/3/issue/"+issueKey+"/comment", "comment issue", payload, nil)
}

// Transitions returns the workflow transitions currently available for an
// issue. Availability depends on the issue's present status.
func (c *Client) Transitions(ctx context.Context, issueKey string) ([]Transition, error) {
	var resp transitionsResponse
	if err := c.doJSON(ctx, "GET", "/rest/api/3/issue/"+issueKey+"/transitions", "list transitions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transitions, nil
}

// DoTransition submits a transition by id. A successful transition returns
// 204 No Content.
func (c *Client) DoTransition(ctx context.Context, issueKey, transitionID string) error {
	payload := map[string]any{"transition": map[string]any{"id": transitionID}}
	return c.doJSON(ctx, "POST", "/rest/api/3/issue/"+issueKey+"/transitions", "do transition", payload, nil)
}

// AttachFile uploads a local file to an issue as multipart form data. The
// API requires the XSRF bypass header on attachment uploads.
func (c *Client) AttachFile(ctx context.Context, issueKey, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("attach file: open %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
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

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.baseURL+"/rest/api/3/issue/"+issueKey+"/attachments", &body)
	if err != nil {
		return fmt.Errorf("attach file: create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("attach file: do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError("attach file", resp)
	}
	c.logger.InfoContext(ctx, "file attached", "issue", issueKey, "file", filepath.Base(path))
	return nil
}

// doJSON executes a JSON request and decodes the response into dst.
func (c *Client) doJSON(ctx context.Context, method, path, operation string, payload any, dst any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode payload: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.SetBasicAuth(c.user, c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "tracker API request", "operation", operation, "method", method)

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
