package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Environment variables used as RemoteClient defaults.
const (
	EnvRemoteURL    = "DEEPMERGE_REMOTE_URL"
	EnvRemoteAPIKey = "DEEPMERGE_REMOTE_API_KEY"
	EnvRemoteOrgID  = "DEEPMERGE_REMOTE_ORG_ID"
)

// RemoteClient fetches a layer from a config server:
//
//	GET {base}/organizations/{org}/config/values?environment={env}
//	Authorization: Bearer {apiKey}
//
// The response body is {"values": {...}}. Every Fetch reaches the server;
// callers such as Manager keep the merged result.
type RemoteClient struct {
	baseURL string
	orgID   string
	client  *http.Client
}

type valuesResponse struct {
	Values map[string]any `json:"values"`
}

// NewRemoteClient creates a client. Empty arguments fall back to the
// DEEPMERGE_REMOTE_* variables in env.
func NewRemoteClient(baseURL, apiKey, orgID string, env map[string]string) *RemoteClient {
	baseURL = firstNonEmpty(baseURL, env[EnvRemoteURL])
	apiKey = firstNonEmpty(apiKey, env[EnvRemoteAPIKey])
	orgID = firstNonEmpty(orgID, env[EnvRemoteOrgID])

	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		orgID:   orgID,
		client: &http.Client{
			Transport: &bearerTransport{token: apiKey, base: http.DefaultTransport},
		},
	}
}

// Configured reports whether a base URL and organization are known.
func (c *RemoteClient) Configured() bool {
	return c.baseURL != "" && c.orgID != ""
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

// Fetch returns the remote layer for environment.
func (c *RemoteClient) Fetch(ctx context.Context, environment string) (map[string]any, error) {
	u := fmt.Sprintf("%s/organizations/%s/config/values?environment=%s",
		c.baseURL, url.PathEscape(c.orgID), url.QueryEscape(environment))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("remote layer: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote layer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote layer: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("remote layer decode: %w", err)
	}
	if result.Values == nil {
		result.Values = map[string]any{}
	}
	return result.Values, nil
}

// Close releases idle connections.
func (c *RemoteClient) Close() {
	c.client.CloseIdleConnections()
}
