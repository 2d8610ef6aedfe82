// OpenAI-compatible chat completion client for the AI gateway.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/desertthunder/cdx/internal/shared"
)

const (
	gatewayURL         = "https://ai.gateway.lovable.dev/v1/chat/completions"
	gatewayModel       = "google/gemini-2.5-flash"
	gatewayMaxTokens   = 2000
	gatewayTemperature = 0.8
)

// GatewayConfig configures a [GatewayClient].
type GatewayConfig struct {
	APIKey     string
	URL        string
	Model      string
	HTTPClient *http.Client
}

// GatewayClient sends chat completions with the API key as a bearer token.
type GatewayClient struct {
	url        string
	model      string
	httpClient *http.Client
}

// NewGatewayClient returns a client, or [shared.ErrMissingCredentials] without an API key.
func NewGatewayClient(cfg GatewayConfig) (*GatewayClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: AI gateway api key not configured", shared.ErrMissingCredentials)
	}
	if cfg.URL == "" {
		cfg.URL = gatewayURL
	}
	if cfg.Model == "" {
		cfg.Model = gatewayModel
	}

	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})

	return &GatewayClient{
		url:        cfg.URL,
		model:      cfg.Model,
		httpClient: oauth2.NewClient(ctx, ts),
	}, nil
}

// ChatMessage is one message of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a system and user prompt and returns the first choice's content.
//
// 429 maps to [shared.ErrRateLimited], 402 to [shared.ErrQuotaExhausted], and a
// response without content to [shared.ErrEmptyCompletion].
func (g *GatewayClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   gatewayMaxTokens,
		Temperature: gatewayTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gateway: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", shared.ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", shared.ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", shared.ErrQuotaExhausted
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", newUpstreamError("gateway", resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", shared.ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}
