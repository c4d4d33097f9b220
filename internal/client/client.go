// Package client talks to the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"action_items/internal/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL (e.g. http://localhost:5000). The
// /api/v1 prefix is added here.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    httpClient,
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL is the API root including the version prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Register creates an account and remembers the issued token.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (string, *domain.User, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, reg, &res); err != nil {
		return "", nil, err
	}
	c.SetToken(res.Token)
	return res.Token, &res.User, nil
}

// Login signs in and remembers the issued token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &res); err != nil {
		return "", nil, err
	}
	c.SetToken(res.Token)
	return res.Token, &res.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var res struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func filterQuery(f domain.TaskFilter) url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SortBy != "" {
		q.Set("sortBy", string(f.SortBy))
	}
	return q
}

func (c *Client) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	var res struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", filterQuery(f), nil, &res); err != nil {
		return nil, err
	}
	return res.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var res struct {
		Task domain.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res.Task, nil
}

func (c *Client) CreateTask(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	var res struct {
		Task domain.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &res); err != nil {
		return nil, err
	}
	return &res.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	var res struct {
		Task domain.Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, patch, &res); err != nil {
		return nil, err
	}
	return &res.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// Sync submits the client's records for reconciliation.
func (c *Client) Sync(ctx context.Context, records []domain.SyncRecord) (*domain.SyncResult, error) {
	body := struct {
		Tasks []domain.SyncRecord `json:"tasks"`
	}{Tasks: records}
	if body.Tasks == nil {
		body.Tasks = []domain.SyncRecord{}
	}

	var res domain.SyncResult
	if err := c.do(ctx, http.MethodPost, "/tasks/sync", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WebSocketURL is the presence channel URL for the current token.
func (c *Client) WebSocketURL() string {
	u := c.baseURL + "/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "?token=" + url.QueryEscape(c.Token())
}
