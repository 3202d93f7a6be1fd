// Package client talks to the Global Clipboard HTTP API.
//
// *Client implements session.DataStore and session.AuthProvider, so a
// session.Session can run against a remote server exactly as it would
// against any other store. Error responses are mapped back to apperror
// sentinels; anything that is not a well-formed API error (connection
// refused, a proxy's HTML page) becomes apperror.ErrRemote.
package client

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

	"github.com/sakif/global-clipboard/internal/apperror"
	"github.com/sakif/global-clipboard/internal/model"
	"github.com/sakif/global-clipboard/internal/session"
)

var (
	_ session.DataStore    = (*Client)(nil)
	_ session.AuthProvider = (*Client)(nil)
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 15 * time.Second

// Client is an authenticated API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

// New returns a client for the server at baseURL. token may be empty.
func New(baseURL, token string, logger *slog.Logger) *Client {
	return NewWithHTTPClient(baseURL, token, &http.Client{Timeout: DefaultTimeout}, logger)
}

// NewWithHTTPClient is New with a caller-supplied transport (tests).
func NewWithHTTPClient(baseURL, token string, hc *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  logger,
		token:   token,
	}
}

// Token returns the current session token ("" when signed out).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// apiError mirrors handler.ErrorResponse.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// do sends one request. body and out may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: building %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return apperror.Remote(op, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return c.decodeError(op, res)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperror.Remote(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *Client) decodeError(op string, res *http.Response) error {
	var payload apiError
	data, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		c.logger.Debug("non-API error response",
			slog.String("op", op),
			slog.Int("status", res.StatusCode),
		)
		return apperror.Remote(op, fmt.Errorf("server returned %s", res.Status))
	}

	appErr := apperror.FromCode(payload.Error, payload.Message)
	appErr.Field = payload.Field
	if errors.Is(appErr, apperror.ErrRemote) {
		appErr.Message = fmt.Sprintf("%s: %s", op, payload.Message)
	}
	return appErr
}

// =========================================================================
// AUTH PROVIDER
// =========================================================================

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for a token and keeps it for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "signing in", http.MethodPost, "/auth/signin", credentials{email, password}, &res); err != nil {
		return err
	}
	if res.Token == "" {
		return apperror.Remote("signing in", errors.New("server returned no token"))
	}
	c.SetToken(res.Token)
	return nil
}

// SignUp creates an account and returns the server's message about the
// confirmation step.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	var res struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "signing up", http.MethodPost, "/auth/signup", credentials{email, password}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// SignOut forgets the token. Tokens are stateless, so telling the server is
// a courtesy: a failure there is logged and the local sign-out still counts.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, "signing out", http.MethodPost, "/auth/signout", nil, nil); err != nil {
		c.logger.Warn("server sign-out failed", slog.String("error", err.Error()))
	}
	c.SetToken("")
	return nil
}

// CurrentUser returns the signed-in user, or nil when there is no token or
// the server no longer accepts it.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	if c.Token() == "" {
		return nil, nil
	}
	var u model.User
	if err := c.do(ctx, "fetching current user", http.MethodGet, "/api/me", nil, &u); err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// =========================================================================
// DATA STORE
// =========================================================================

type categoryBody struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := c.do(ctx, "listing categories", http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) (*model.Category, error) {
	var out model.Category
	if err := c.do(ctx, "creating category", http.MethodPost, "/api/categories", categoryBody{name, color}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory returns the category as the server stored it.
func (c *Client) UpdateCategory(ctx context.Context, id, name, color string) (*model.Category, error) {
	var out model.Category
	if err := c.do(ctx, "updating category", http.MethodPatch, "/api/categories/"+pathID(id), categoryBody{name, color}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, "deleting category", http.MethodDelete, "/api/categories/"+pathID(id), nil, nil)
}

func (c *Client) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	var out []model.Snippet
	if err := c.do(ctx, "listing snippets", http.MethodGet, "/api/snippets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSnippet(ctx context.Context, content string, categoryID *string) (*model.Snippet, error) {
	body := struct {
		Content    string  `json:"content"`
		CategoryID *string `json:"categoryId"`
	}{content, categoryID}

	var out model.Snippet
	if err := c.do(ctx, "creating snippet", http.MethodPost, "/api/snippets", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSnippet sends only the fields the patch sets. categoryId is sent as
// null when the patch clears it and omitted when it leaves it alone. The
// returned snippet is the server's stored row.
func (c *Client) UpdateSnippet(ctx context.Context, id string, patch model.SnippetPatch) (*model.Snippet, error) {
	var out model.Snippet
	if err := c.do(ctx, "updating snippet", http.MethodPatch, "/api/snippets/"+pathID(id), patchBody(patch), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSnippet(ctx context.Context, id string) error {
	return c.do(ctx, "deleting snippet", http.MethodDelete, "/api/snippets/"+pathID(id), nil, nil)
}

func patchBody(p model.SnippetPatch) map[string]any {
	body := map[string]any{}
	if p.Content != nil {
		body["content"] = *p.Content
	}
	if p.CategoryID.Set {
		if p.CategoryID.Value == nil {
			body["categoryId"] = nil
		} else {
			body["categoryId"] = *p.CategoryID.Value
		}
	}
	if p.IsFavorite != nil {
		body["isFavorite"] = *p.IsFavorite
	}
	return body
}

func pathID(id string) string {
	return url.PathEscape(id)
}
