// Package identity is the HTTP client for the remote identity service.
// It forwards credential payloads and relays the resulting user record to
// the caller; session state is only ever written by the caller, and only
// after a request succeeds.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"sana/internal/consul"
)

const defaultTimeout = 15 * time.Second

// Client issues registration and login requests against the identity
// service. The base URL is resolved per call, either statically or through
// Consul service discovery.
type Client struct {
	http    *http.Client
	resolve func() (string, error)
	logger  *slog.Logger
}

// NewClient creates a client bound to a static base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return newClient(func() (string, error) {
		return strings.TrimRight(baseURL, "/"), nil
	}, logger)
}

// NewDiscoveryClient creates a client that resolves the identity service
// through Consul on every request, so instances can come and go.
func NewDiscoveryClient(discovery consul.ServiceDiscovery, serviceName string, logger *slog.Logger) *Client {
	return newClient(func() (string, error) {
		instance, err := discovery.DiscoverOne(serviceName)
		if err != nil {
			return "", fmt.Errorf("failed to discover %s: %w", serviceName, err)
		}
		return fmt.Sprintf("http://%s:%d", instance.Address, instance.Port), nil
	}, logger)
}

func newClient(resolve func() (string, error), logger *slog.Logger) *Client {
	// Cookie jar so the transport session cookie, if the service sets one,
	// rides along on every subsequent request.
	jar, _ := cookiejar.New(nil)

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		resolve: resolve,
		logger:  logger,
	}
}

// Register creates a new account and returns its user record.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	return c.post(ctx, "/register", req)
}

// Login authenticates existing credentials and returns the user record.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Account, error) {
	return c.post(ctx, "/login", req)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Account, error) {
	base, err := c.resolve()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("Identity request failed", "path", path, "error", err.Error())
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.requestError(resp)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	if account.Email == "" {
		return nil, fmt.Errorf("identity response missing email")
	}

	// Local-only presentation fallback; never written back to the service.
	if account.FullName == "" {
		account.FullName = displayNameFromEmail(account.Email)
	}

	return &account, nil
}

// requestError turns a non-2xx response into a RequestError carrying the
// service's human-readable detail when one is present.
func (c *Client) requestError(resp *http.Response) error {
	reqErr := &RequestError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		var env struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		if json.Unmarshal(body, &env) == nil {
			if env.Detail != "" {
				reqErr.Detail = env.Detail
			} else if env.Error != "" {
				reqErr.Detail = env.Error
			}
		}
	}

	c.logger.Warn("Identity request rejected",
		"status", resp.StatusCode,
		"detail", reqErr.Detail,
	)
	return reqErr
}

// displayNameFromEmail derives a presentable name from the email local part,
// e.g. "ana.gomez@example.com" -> "Ana Gomez".
func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, part := range parts {
		r, size := utf8.DecodeRuneInString(part)
		parts[i] = string(unicode.ToUpper(r)) + part[size:]
	}
	if len(parts) == 0 {
		return local
	}
	return strings.Join(parts, " ")
}
