package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"simfleet/internal/logging"
	"simfleet/internal/types"

	"github.com/google/uuid"
)

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// DefaultClientConfig returns sensible defaults for the given base URL.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// Client implements Service against the fleet-management REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new REST client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SetToken replaces the bearer token (set after Login, cleared on logout).
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// bearer returns the current token.
func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// doJSON performs one JSON request/response round trip. Every call gets a
// correlation id so backend logs can be matched with .simfleet/logs/api.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	reqID := uuid.NewString()
	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	logging.APIDebug("[%s] %s %s", reqID, method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[%s] %s %s transport error: %v", reqID, method, path, err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logging.APIDebug("[%s] %s %s -> %d in %v", reqID, method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ErrUnauthorized indicates a missing or expired session.
var ErrUnauthorized = fmt.Errorf("unauthorized")

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Login authenticates against the backend and stores the session token.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	payload := map[string]string{"username": username, "password": password}
	var session Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", payload, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, fmt.Errorf("login response missing token")
	}
	if session.Username == "" {
		session.Username = username
	}
	c.SetToken(session.Token)
	return &session, nil
}

// GetFleet fetches the full SIM card list.
func (c *Client) GetFleet(ctx context.Context) ([]types.SIMCard, error) {
	var cards []types.SIMCard
	if err := c.doJSON(ctx, http.MethodGet, "/sims", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// riskEnvelope mirrors the backend's {data: assessment?} wrapper. A null
// or absent data field means "no assessment available", not an error.
type riskEnvelope struct {
	Data *types.RiskAssessment `json:"data"`
}

// GetRiskAssessment fetches the risk assessment for one SIM card.
func (c *Client) GetRiskAssessment(ctx context.Context, simID int64) (*types.RiskAssessment, error) {
	var env riskEnvelope
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/sims/%d/risk", simID), nil, &env); err != nil {
		return nil, err
	}
	if env.Data != nil && env.Data.SimID == 0 {
		env.Data.SimID = simID
	}
	return env.Data, nil
}

// PerformBulkAction submits an operator action.
func (c *Client) PerformBulkAction(ctx context.Context, req types.BulkActionRequest) (*types.BulkActionResponse, error) {
	var resp types.BulkActionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sims/bulk-action", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// compile-time interface check
var _ Service = (*Client)(nil)
