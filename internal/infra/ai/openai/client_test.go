package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
)

type capturedRequest struct {
	Model               string          `json:"model"`
	ResponseFormat      json.RawMessage `json:"response_format"`
	MaxTokens           int             `json:"max_tokens"`
	MaxCompletionTokens int             `json:"max_completion_tokens"`
}

func newServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"a\":1}"}}]}`

func TestGenerateUsesJSONModeForObjects(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, http.StatusOK, okBody, &got)
	c := NewClientWithBaseURL("k", "gpt-4o", srv.URL+"/v1")

	out, err := c.Generate(t.Context(), ai.Request{Task: ai.TaskAnalyze, System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Contains(t, string(got.ResponseFormat), "json_object")
	assert.Equal(t, maxTokens, got.MaxTokens)
}

func TestGenerateBatchSkipsJSONObjectMode(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, http.StatusOK, okBody, &got)
	c := NewClientWithBaseURL("k", "o3-mini", srv.URL+"/v1")

	_, err := c.Generate(t.Context(), ai.Request{Task: ai.TaskRefactorAll})
	require.NoError(t, err)
	assert.Empty(t, got.ResponseFormat)
	assert.Equal(t, maxTokens, got.MaxCompletionTokens)
	assert.Zero(t, got.MaxTokens)
}

func TestGenerateMapsRateLimitToQuota(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`, nil)
	c := NewClientWithBaseURL("k", "gpt-4o", srv.URL+"/v1")

	_, err := c.Generate(t.Context(), ai.Request{Task: ai.TaskAsk})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"id":"1","choices":[]}`, nil)
	c := NewClientWithBaseURL("k", "", srv.URL+"/v1")

	_, err := c.Generate(t.Context(), ai.Request{Task: ai.TaskAsk})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	assert.Equal(t, "openai:"+defaultModel, c.Name())
}
