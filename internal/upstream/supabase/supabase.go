package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured means the Supabase URL or keys are missing from the
// environment.
var ErrNotConfigured = errors.New("supabase is not configured")

// Client forwards JSON bodies to Supabase Edge Functions. The matching and
// session logic lives on that side; this client passes the upstream status
// and body through verbatim.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, anonKey, serviceKey string) (*Client, error) {
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}

	checkKeyRole(anonKey, "anon")
	if serviceKey != "" {
		checkKeyRole(serviceKey, "service_role")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Supabase keys are JWTs with a role claim. A swapped anon/service key is an
// easy misconfiguration, so warn about it at startup. The signature is not
// checked here; Supabase verifies it on the other side.
func checkKeyRole(key, expected string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		log.Printf("Warning: supabase %s key does not parse as a JWT: %v", expected, err)
		return
	}
	if role, _ := claims["role"].(string); role != expected {
		log.Printf("Warning: supabase key configured for role %q has role %q", expected, role)
	}
}

// Result carries the upstream response verbatim.
type Result struct {
	StatusCode int
	Body       []byte
}

// Invoke POSTs body to the named edge function. serviceRole selects the
// service-role key for functions that bypass row-level security.
func (c *Client) Invoke(ctx context.Context, function string, body []byte, serviceRole bool) (*Result, error) {
	key := c.anonKey
	if serviceRole {
		if c.serviceKey == "" {
			return nil, ErrNotConfigured
		}
		key = c.serviceKey
	}

	endpoint := c.baseURL + "/functions/v1/" + function

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("edge function %s failed: %w", function, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read edge function response: %w", err)
	}

	return &Result{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
	}, nil
}
