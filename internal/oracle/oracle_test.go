// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/pkg/types"
)

var testCtx = types.EvaluationContext{
	CompanyName:           "Acme Robotics",
	CompanyDescription:    "Builds warehouse robots.",
	DepartmentName:        "Perception",
	DepartmentDescription: "Computer vision for picking.",
}

var testPaper = types.PaperContent{
	Title:    "Grasp Detection with Diffusion",
	Abstract: "We propose a diffusion model for grasp detection.",
}

func TestSystemPrompt(t *testing.T) {
	got, err := SystemPrompt(testCtx)
	require.NoError(t, err)

	assert.Contains(t, got, "Acme Robotics: Builds warehouse robots.")
	assert.Contains(t, got, "Perception: Computer vision for picking.")
	for _, v := range []string{VerdictCompanyAndDepartment, VerdictCompanyOnly, VerdictNotRelevant} {
		assert.Contains(t, got, `"`+v+`"`)
	}
	assert.Equal(t, strings.TrimSpace(got), got)
}

func TestUserPrompt(t *testing.T) {
	got, err := UserPrompt(testPaper)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Is this paper relevant to my work?"))
	assert.Contains(t, got, "Title: Grasp Detection with Diffusion\n")
	assert.Contains(t, got, "Abstract: We propose a diffusion model for grasp detection.\n")
}

func TestOpenAIEvaluate(t *testing.T) {
	var got chatRequest
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Not relevant \n"}}]}`))
	}))
	defer ts.Close()

	o := NewOpenAI(types.OracleConfig{Model: "gpt-4o", APIKey: "sk-test", Endpoint: ts.URL}, ts.Client())
	verdict, err := o.Evaluate(context.Background(), testCtx, testPaper)

	require.NoError(t, err)
	assert.Equal(t, "Not relevant", verdict)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Acme Robotics")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, testPaper.Title)
}

func TestOpenAIEvaluateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errMsg string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"slow down"}`, errMsg: "429"},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", errMsg: "500"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, errMsg: "no choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`, errMsg: "empty content"},
		{name: "bad json", status: http.StatusOK, body: `{`, errMsg: "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			o := NewOpenAI(types.OracleConfig{Model: "m", APIKey: "k", Endpoint: ts.URL}, ts.Client())
			_, err := o.Evaluate(context.Background(), testCtx, testPaper)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAnthropicEvaluate(t *testing.T) {
	var got claudeRequest
	var key, version string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":[{"type":"text","text":"Relevant to your company and department. "},{"type":"text","text":"Grasping is core to picking."}]}`))
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	a := NewAnthropic(types.OracleConfig{Model: "claude-test", APIKey: "ak"}, ts.Client())
	verdict, err := a.Evaluate(context.Background(), testCtx, testPaper)

	require.NoError(t, err)
	assert.Equal(t, "Relevant to your company and department. Grasping is core to picking.", verdict)
	assert.Equal(t, "ak", key)
	assert.Equal(t, "2023-06-01", version)
	assert.Equal(t, "claude-test", got.Model)
	assert.Contains(t, got.System, "Perception")
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, testPaper.Abstract)
}

func TestAnthropicEvaluateErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") == "empty" {
			w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer ts.Close()

	a := NewAnthropic(types.OracleConfig{APIKey: "ak", Endpoint: ts.URL}, ts.Client())
	_, err := a.Evaluate(context.Background(), testCtx, testPaper)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	a = NewAnthropic(types.OracleConfig{APIKey: "ak", Endpoint: ts.URL + "?mode=empty"}, ts.Client())
	_, err = a.Evaluate(context.Background(), testCtx, testPaper)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestGeminiEvaluate(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Not relevant"}]}}]}`))
	}))
	defer ts.Close()

	g, err := NewGemini(context.Background(), types.OracleConfig{APIKey: "gk", Endpoint: ts.URL + "/"}, ts.Client())
	require.NoError(t, err)

	verdict, err := g.Evaluate(context.Background(), testCtx, testPaper)
	require.NoError(t, err)
	assert.Equal(t, "Not relevant", verdict)
	assert.Contains(t, path, "gemini-2.5-flash:generateContent")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.OracleConfig
		wantType any
		errMsg   string
	}{
		{name: "default provider is openai", cfg: types.OracleConfig{APIKey: "k"}, wantType: &OpenAI{}},
		{name: "anthropic", cfg: types.OracleConfig{Provider: "Anthropic", APIKey: "k"}, wantType: &Anthropic{}},
		{name: "gemini", cfg: types.OracleConfig{Provider: types.ProviderGemini, APIKey: "k"}, wantType: &Gemini{}},
		{name: "missing key", cfg: types.OracleConfig{Provider: types.ProviderOpenAI}, errMsg: "openai-api-key"},
		{name: "unknown provider", cfg: types.OracleConfig{Provider: "llama", APIKey: "k"}, errMsg: "unknown oracle provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(tt.cfg)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.True(t, types.IsConfig(err))
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, o)
		})
	}
}

func TestNewAppliesDefaultModel(t *testing.T) {
	o, err := New(types.OracleConfig{Provider: types.ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel(types.ProviderAnthropic), o.(*Anthropic).model)

	o, err = New(types.OracleConfig{APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", o.(*OpenAI).model)
}
