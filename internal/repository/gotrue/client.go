// Package gotrue is an identity provider adapter for GoTrue-compatible auth servers.
package gotrue

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
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	"github.com/I-Yanis-I/museum-app/internal/obs"
)

type Config struct {
	// URL is the auth server base, e.g. https://project.supabase.co/auth/v1.
	URL string
	// APIKey is sent on every call; ServiceKey authorizes the admin endpoints.
	APIKey     string
	ServiceKey string
	Timeout    time.Duration
}

var _ idp.Provider = (*Client)(nil)

type Client struct {
	base       string
	apiKey     string
	serviceKey string
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("gotrue: url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("gotrue: parse url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	serviceKey := cfg.ServiceKey
	if serviceKey == "" {
		serviceKey = cfg.APIKey
	}
	return &Client{
		base:       strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: obs.HTTPTransport(nil)},
	}, nil
}

func (c *Client) Name() string { return "gotrue" }

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) SignUp(ctx context.Context, email, password string, meta map[string]string) (*idp.Account, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": meta,
	}
	var out userResponse
	status, apiErr, err := c.do(ctx, http.MethodPost, "/admin/users", body, true, &out)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return &idp.Account{Subject: out.ID, Email: out.Email}, nil
	case apiErr.ErrorCode == "email_exists" || apiErr.ErrorCode == "user_already_exists" ||
		strings.Contains(strings.ToLower(apiErr.text()), "already"):
		return nil, idp.ErrAccountExists
	default:
		return nil, fmt.Errorf("gotrue: create user (%d): %s", status, apiErr.text())
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*idp.Account, error) {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		AccessToken string       `json:"access_token"`
		User        userResponse `json:"user"`
	}
	status, apiErr, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", body, false, &out)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &idp.Account{Subject: out.User.ID, Email: out.User.Email}, nil
	case http.StatusBadRequest, http.StatusUnauthorized:
		return nil, idp.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("gotrue: sign in (%d): %s", status, apiErr.text())
	}
}

func (c *Client) DeleteUser(ctx context.Context, subject string) error {
	if subject == "" {
		return idp.ErrAccountNotFound
	}
	status, apiErr, err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(subject), nil, true, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return idp.ErrAccountNotFound
	default:
		return fmt.Errorf("gotrue: delete user (%d): %s", status, apiErr.text())
	}
}

// do sends one request. Transport failures and 5xx answers come back as
// idp.ErrUnavailable; other statuses are returned for the caller to map.
func (c *Client) do(ctx context.Context, method, path string, in any, admin bool, out any) (int, errorResponse, error) {
	var apiErr errorResponse

	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, apiErr, fmt.Errorf("gotrue: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, apiErr, fmt.Errorf("gotrue: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.apiKey)
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, apiErr, ctx.Err()
		}
		return 0, apiErr, fmt.Errorf("%w: %s %s: %v", idp.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, apiErr, fmt.Errorf("%w: read body: %v", idp.ErrUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return resp.StatusCode, apiErr, fmt.Errorf("%w: %s %s returned %d", idp.ErrUnavailable, method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		_ = json.Unmarshal(body, &apiErr)
		return resp.StatusCode, apiErr, nil
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, apiErr, fmt.Errorf("gotrue: decode response: %w", err)
		}
	}
	return resp.StatusCode, apiErr, nil
}
