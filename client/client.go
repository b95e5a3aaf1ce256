// Package client is a cookie-aware API client for the studygate gateway,
// used by the settling-page reconciliation loop and by tooling.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/insa-apps/studygate/internal/domain"
)

const (
	defaultTimeout = 3 * time.Second

	// statusCacheTTL keeps bursts of auth checks from hammering the probe
	// endpoint; well under the reconciliation poll cadence.
	statusCacheTTL = 2 * time.Second

	statusCacheKey = "auth-status"
)

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		cache:   cache.New(statusCacheTTL, time.Minute),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type UserSummary struct {
	ID                  string          `json:"id"`
	Email               string          `json:"email"`
	Name                string          `json:"name"`
	Username            string          `json:"username"`
	Type                domain.UserType `json:"type"`
	Banned              bool            `json:"banned"`
	Flags               int             `json:"flags"`
	CompletedOnboarding bool            `json:"completedOnboarding"`
	OrganizationID      *string         `json:"organizationId"`
	IsOrgEligible       bool            `json:"isOrgEligible"`
}

type LoginResult struct {
	Success bool        `json:"success"`
	User    UserSummary `json:"user"`
}

type AuthStatus struct {
	Authenticated bool            `json:"authenticated"`
	Session       *domain.Session `json:"session"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, header http.Header, response any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if response == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(response)
}

// GetAuthStatus probes the gateway's auth-status endpoint. Results are
// cached briefly so bursts of checks share one request.
func (c *Client) GetAuthStatus(ctx context.Context) (AuthStatus, error) {
	if cached, found := c.cache.Get(statusCacheKey); found {
		return cached.(AuthStatus), nil
	}

	var status AuthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/auth-status", nil, &status); err != nil {
		return AuthStatus{}, err
	}
	c.cache.Set(statusCacheKey, status, cache.DefaultExpiration)
	return status, nil
}

// Login authenticates with explicit identity headers. Outside of tests and
// internal tooling these are stripped by the gateway unless the request
// arrives through the campus proxy.
func (c *Client) Login(ctx context.Context, email, uidHint string) (LoginResult, error) {
	header := http.Header{}
	if email != "" {
		header.Set(domain.AuthEmailHeader, email)
	}
	if uidHint != "" {
		header.Set(domain.AuthUIDHeader, uidHint)
	}

	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/login-with-headers", header, &result); err != nil {
		return LoginResult{}, err
	}
	c.cache.Delete(statusCacheKey)
	return result, nil
}

// RetryLogin issues a fallback login attempt with a self-reported email
// hint. The gateway treats it as non-authoritative.
func (c *Client) RetryLogin(ctx context.Context, emailHint string) error {
	header := http.Header{}
	if emailHint != "" {
		header.Set(domain.AuthEmailHeader, emailHint)
	}
	if err := c.doJSON(ctx, http.MethodPost, "/login-with-headers", header, nil); err != nil {
		return err
	}
	c.cache.Delete(statusCacheKey)
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, username string) error {
	// Body-less helper endpoints everywhere else; this one needs a payload.
	payload, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-profile", strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("update-profile: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	c.cache.Delete(statusCacheKey)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		return err
	}
	c.cache.Delete(statusCacheKey)
	return nil
}

// EmailHint returns the client-readable email hint cookie the gateway set
// at login, or "" when absent. This is the best-effort credential source
// for the reconciliation retry path.
func (c *Client) EmailHint() string {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.client.Jar.Cookies(base) {
		if cookie.Name == domain.EmailHintCookie {
			return cookie.Value
		}
	}
	return ""
}

// Probe adapts the client to the reconciliation loop's probe contract.
type Probe struct {
	Client *Client
}

func (p Probe) AuthStatus(ctx context.Context) (bool, error) {
	status, err := p.Client.GetAuthStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.Authenticated, nil
}

func (p Probe) RetryLogin(ctx context.Context, emailHint string) error {
	return p.Client.RetryLogin(ctx, emailHint)
}
