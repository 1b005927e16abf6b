// Package provider wraps the outbound calling provider API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Dialer places outbound calls through the voice provider. The campaign
// runner depends on this interface; tests substitute a fake.
type Dialer interface {
	// RegisterCall registers a web call for the agent and returns the
	// provider call id.
	RegisterCall(ctx context.Context, agentID string) (string, error)
	// PlaceCall dials a phone number and returns the provider call id.
	// vars are dynamic variables passed through to the voice agent.
	PlaceCall(ctx context.Context, from, to, agentID string, vars map[string]string) (string, error)
}

// Client is the HTTP implementation of Dialer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config configures the provider client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new provider client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Compile-time check that Client implements Dialer.
var _ Dialer = (*Client)(nil)

type registerCallRequest struct {
	AgentID string `json:"agent_id"`
}

type createPhoneCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	OverrideAgentID  string            `json:"override_agent_id,omitempty"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
}

type callResponse struct {
	CallID string `json:"call_id"`
}

// RegisterCall registers a web call for the agent.
func (c *Client) RegisterCall(ctx context.Context, agentID string) (string, error) {
	resp, err := c.post(ctx, "/v2/register-phone-call", registerCallRequest{AgentID: agentID})
	if err != nil {
		return "", fmt.Errorf("register call: %w", err)
	}
	return resp.CallID, nil
}

// PlaceCall dials the contact's number from the campaign number.
func (c *Client) PlaceCall(ctx context.Context, from, to, agentID string, vars map[string]string) (string, error) {
	resp, err := c.post(ctx, "/v2/create-phone-call", createPhoneCallRequest{
		FromNumber:       from,
		ToNumber:         to,
		OverrideAgentID:  agentID,
		DynamicVariables: vars,
	})
	if err != nil {
		return "", fmt.Errorf("place call: %w", err)
	}
	return resp.CallID, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (callResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return callResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return callResponse{}, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return callResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return callResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return callResponse{}, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(respBytes))
	}

	var parsed callResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return callResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.CallID == "" {
		return callResponse{}, fmt.Errorf("provider response missing call_id")
	}
	return parsed, nil
}
