// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Gemini evaluates papers with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Oracle = (*Gemini)(nil)

// NewGemini creates a genai client. cfg.Endpoint, when set, replaces the API base URL.
func NewGemini(ctx context.Context, cfg types.OracleConfig, httpClient *http.Client) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, types.Configf("GenAI API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(types.ProviderGemini)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, types.Configf("failed to create GenAI client: %v", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Evaluate generates a verdict with the system prompt as system instruction.
func (g *Gemini) Evaluate(ctx context.Context, ectx types.EvaluationContext, content types.PaperContent) (string, error) {
	system, user, err := prompts(ectx, content)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	verdict := strings.TrimSpace(result.Text())
	if verdict == "" {
		return "", fmt.Errorf("GenAI returned empty content")
	}
	return verdict, nil
}
