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

// openAIURL is the chat completions endpoint. Package-level var for test substitution.
var openAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI evaluates papers through an OpenAI-compatible chat completions API.
type OpenAI struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

var _ Oracle = (*OpenAI)(nil)

// NewOpenAI builds a client from configuration.
func NewOpenAI(cfg types.OracleConfig, client *http.Client) *OpenAI {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = openAIURL
	}
	return &OpenAI{endpoint: endpoint, model: cfg.Model, apiKey: cfg.APIKey, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Evaluate sends the system and user prompts and returns the assistant's reply.
func (o *OpenAI) Evaluate(ctx context.Context, ectx types.EvaluationContext, content types.PaperContent) (string, error) {
	system, user, err := prompts(ectx, content)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	req := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var cr chatResponse
	if err := httputil.PostJSON(ctx, o.client, "OpenAI API", o.endpoint, headers, req, &cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	verdict := strings.TrimSpace(cr.Choices[len(cr.Choices)-1].Message.Content)
	if verdict == "" {
		return "", fmt.Errorf("OpenAI API returned empty content")
	}
	return verdict, nil
}
