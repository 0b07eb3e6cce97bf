package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   config.OpenAIAnswerModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newTestClient(t *testing.T, handler func(req chatRequest) (int, any)) *llmClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		code, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	return newLLMClient(config.ProviderSettings{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		AnswerModel: config.OpenAIAnswerModel,
	})
}

func TestComplete_SendsSystemAndUser(t *testing.T) {
	c := newTestClient(t, func(req chatRequest) (int, any) {
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be brief", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)
		assert.Equal(t, config.OpenAIAnswerModel, req.Model)
		assert.Equal(t, 0.3, req.Temperature)
		assert.Equal(t, 200, req.MaxTokens)
		return http.StatusOK, completion("hi there")
	})

	out, err := c.Complete(context.Background(), "be brief", "hello", llm.CompletionOptions{Temperature: 0.3, MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestComplete_NoChoices(t *testing.T) {
	c := newTestClient(t, func(req chatRequest) (int, any) {
		body := completion("")
		body["choices"] = []map[string]any{}
		return http.StatusOK, body
	})

	_, err := c.Complete(context.Background(), "s", "u", llm.CompletionOptions{})
	assert.ErrorIs(t, err, errorModel.ErrProviderFailure)
}

func TestComplete_ApiErrorWrapped(t *testing.T) {
	c := newTestClient(t, func(req chatRequest) (int, any) {
		return http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
		}
	})

	_, err := c.Complete(context.Background(), "s", "u", llm.CompletionOptions{})
	var pe *errorModel.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "openai", pe.Provider)
	assert.Equal(t, "completion", pe.Operation)
}
