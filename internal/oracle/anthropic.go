// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-triage/internal/httputil"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

// Anthropic evaluates papers through the Claude messages API.
type Anthropic struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

var _ Oracle = (*Anthropic)(nil)

// NewAnthropic builds a client from configuration.
func NewAnthropic(cfg types.OracleConfig, client *http.Client) *Anthropic {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = claudeAPIURL
	}
	return &Anthropic{endpoint: endpoint, model: cfg.Model, apiKey: cfg.APIKey, client: client}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Evaluate calls the Claude API and returns the concatenated text blocks.
func (a *Anthropic) Evaluate(ctx context.Context, ectx types.EvaluationContext, content types.PaperContent) (string, error) {
	system, user, err := prompts(ectx, content)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	req := claudeRequest{
		Model:     a.model,
		MaxTokens: 1024,
		System:    system,
		Messages:  []claudeMessage{{Role: "user", Content: user}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var cResp claudeResponse
	if err := httputil.PostJSON(ctx, a.client, "Claude API", a.endpoint, headers, req, &cResp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	verdict := strings.TrimSpace(sb.String())
	if verdict == "" {
		return "", fmt.Errorf("no text content in Claude API response")
	}
	return verdict, nil
}
