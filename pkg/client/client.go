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

	"github.com/splitrail/splitrail-web/pkg/dto"
)

const maxResponseBytes = 4 << 20

// ErrNoSession is returned by calls that need a signed-in user when the
// client holds no session token.
var ErrNoSession = errors.New("not signed in")

// Token is an API token as returned by the token endpoints.
type Token = dto.APIToken

// Client talks to the Splitrail web API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSession sets the bearer JWT sent on authenticated calls.
func WithSession(token string) Option {
	return func(c *Client) {
		c.session = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SetSession(token string) {
	c.mu.Lock()
	c.session = token
	c.mu.Unlock()
}

func (c *Client) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) HasSession() bool {
	return c.Session() != ""
}

func do[T any](ctx context.Context, c *Client, method, path string, in any, authenticated bool) (Result[T], error) {
	session := c.Session()
	if authenticated && session == "" {
		return Result[T]{}, ErrNoSession
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return Result[T]{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Result[T]{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Result[T]{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return Result[T]{}, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	return decodeResult[T](res.StatusCode, raw)
}

func call[T any](ctx context.Context, c *Client, method, path string, in any, authenticated bool) (T, error) {
	r, err := do[T](ctx, c, method, path, in, authenticated)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.Unwrap()
}

func (c *Client) ListTokens(ctx context.Context) ([]Token, error) {
	list, err := call[dto.APITokenList](ctx, c, http.MethodGet, "/api/user/token", nil, true)
	if err != nil {
		return nil, err
	}
	if list.Tokens == nil {
		return []Token{}, nil
	}
	return list.Tokens, nil
}

// CreateToken asks the server to mint a token. An empty name lets the
// server pick one.
func (c *Client) CreateToken(ctx context.Context, name string) (*Token, error) {
	created, err := call[dto.APITokenCreated](ctx, c, http.MethodPost, "/api/user/token",
		dto.CreateAPITokenRequest{Name: name}, true)
	if err != nil {
		return nil, err
	}
	if created.Token.ID == "" {
		return nil, fmt.Errorf("%w: created token has no id", ErrUnexpectedResponse)
	}
	return &created.Token, nil
}

func (c *Client) DeleteToken(ctx context.Context, id string) error {
	_, err := call[struct{}](ctx, c, http.MethodDelete, "/api/user/token?tokenId="+url.QueryEscape(id), nil, true)
	return err
}

func (c *Client) Me(ctx context.Context) (*dto.User, error) {
	user, err := call[dto.User](ctx, c, http.MethodGet, "/api/user/me", nil, true)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Stats(ctx context.Context, locale string) (*dto.Stats, error) {
	path := "/api/user/stats"
	if locale != "" {
		path += "?locale=" + url.QueryEscape(locale)
	}
	stats, err := call[dto.Stats](ctx, c, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int) (*dto.Leaderboard, error) {
	path := "/api/leaderboard"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	board, err := call[dto.Leaderboard](ctx, c, http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// ConsentURL returns the provider page to open for a CLI sign-in.
func (c *Client) ConsentURL(ctx context.Context, provider string) (string, error) {
	resp, err := call[dto.ConsentURLResponse](ctx, c, http.MethodGet,
		"/api/auth/"+url.PathEscape(provider)+"/consent", nil, false)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// ExchangeCode trades the one-time code shown after sign-in for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*dto.TokenResponse, error) {
	tokens, err := call[dto.TokenResponse](ctx, c, http.MethodPost, "/api/auth/exchange",
		dto.ExchangeCodeRequest{Code: code}, false)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	tokens, err := call[dto.TokenResponse](ctx, c, http.MethodPost, "/api/auth/refresh",
		dto.RefreshTokenRequest{RefreshToken: refreshToken}, false)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	_, err := call[struct{}](ctx, c, http.MethodPost, "/api/auth/logout",
		dto.RefreshTokenRequest{RefreshToken: refreshToken}, false)
	return err
}
