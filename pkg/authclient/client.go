package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const csrfHeader = "X-CSRF-Token"

// Client talks to the storefront HTTP API keeping the session cookies itself,
// so it also works against plain-http development servers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	Retry      RetryPolicy

	mu        sync.Mutex
	cookies   map[string]*http.Cookie
	csrfToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Retry:   DefaultRetryPolicy(),
		cookies: map[string]*http.Cookie{},
	}
}

type LoginResponse struct {
	IsAdmin bool `json:"is_admin"`
}

type AdminLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, nil)
}

func (c *Client) ForceLogout(ctx context.Context, userID string) error {
	return c.Do(ctx, http.MethodPost, "/api/v1/admin/users/"+userID+"/force-logout", nil, nil)
}

func (c *Client) IssueAdminLink(ctx context.Context, userID string) (*AdminLinkResponse, error) {
	var out AdminLinkResponse
	if err := c.Do(ctx, http.MethodPost, "/api/v1/admin/users/"+userID+"/login-link", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GrantPro(ctx context.Context, userID, plan string, out any) error {
	return c.Do(ctx, http.MethodPost, "/api/v1/admin/users/"+userID+"/pro", map[string]string{"plan": plan}, out)
}

func (c *Client) AdjustCoins(ctx context.Context, userID string, amount int64, reason string, out any) error {
	body := map[string]any{"amount": amount, "reason": reason}
	return c.Do(ctx, http.MethodPost, "/api/v1/admin/users/"+userID+"/coins", body, out)
}

// Do sends an authenticated request, refreshing the session and retrying
// according to c.Retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return RetryWithAuth(ctx, c.Retry,
		func(ctx context.Context) error { return c.send(ctx, method, path, body, out) },
		c.Refresh,
	)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Origin", c.baseURL)

	c.mu.Lock()
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	if c.csrfToken != "" {
		req.Header.Set(csrfHeader, c.csrfToken)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.remember(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) remember(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if tok := resp.Header.Get(csrfHeader); tok != "" {
		c.csrfToken = tok
	}
	if ck, ok := c.cookies["XSRF-TOKEN"]; ok && c.csrfToken == "" {
		c.csrfToken = ck.Value
	}
}
